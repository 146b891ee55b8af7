package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"skillconnect/internal/models"

	"github.com/gorilla/websocket"
)

const (
	ChannelNotifications = "notifications"
	ChannelChat          = "chat"
)

// NotificationsURL builds the notifications endpoint for token.
func NotificationsURL(wsURL, token string) string {
	return strings.TrimRight(wsURL, "/") + "/ws/notifications/?token=" + url.QueryEscape(token)
}

// ChatURL builds the endpoint of one conversation.
func ChatURL(wsURL, conversationID, token string) string {
	return strings.TrimRight(wsURL, "/") + "/ws/chat/" + url.PathEscape(conversationID) + "/?token=" + url.QueryEscape(token)
}

func dial(ctx context.Context, dialer *websocket.Dialer, u string) (*websocket.Conn, error) {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, u, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// DialNotifications opens the notifications channel. Every frame carrying
// a notification is prepended to feed. The caller runs Handle.
func DialNotifications(ctx context.Context, dialer *websocket.Dialer, wsURL, token string, feed *Feed, metrics *Metrics) (*Connection, error) {
	conn, err := dial(ctx, dialer, NotificationsURL(wsURL, token))
	if err != nil {
		return nil, err
	}
	return NewConnection(conn, ChannelNotifications, notificationHandler(feed, metrics, time.Now), metrics), nil
}

func notificationHandler(feed *Feed, metrics *Metrics, now func() time.Time) func(models.ServerFrame) {
	return func(frame models.ServerFrame) {
		if len(frame.Notification) == 0 || string(frame.Notification) == "null" {
			slog.Warn("unexpected notifications frame", "type", frame.Type)
			metrics.dropped(ChannelNotifications, "unknown")
			return
		}
		feed.Prepend(models.Notification{Payload: frame.Notification, ReceivedAt: now()})
		metrics.appended()
	}
}

// MessageSink receives chat channel traffic.
type MessageSink interface {
	Receive(msg models.Message)
	SetTyping(conversationID string, typing bool)
}

// ChatChannel is the realtime channel of one conversation.
type ChatChannel struct {
	*Connection
	conversationID string
}

func DialChat(ctx context.Context, dialer *websocket.Dialer, wsURL, conversationID, token string, sink MessageSink, metrics *Metrics) (*ChatChannel, error) {
	conn, err := dial(ctx, dialer, ChatURL(wsURL, conversationID, token))
	if err != nil {
		return nil, err
	}
	return newChatChannel(conn, conversationID, sink, metrics), nil
}

func newChatChannel(conn wsConnection, conversationID string, sink MessageSink, metrics *Metrics) *ChatChannel {
	return &ChatChannel{
		Connection:     NewConnection(conn, ChannelChat, chatHandler(conversationID, sink, metrics), metrics),
		conversationID: conversationID,
	}
}

func chatHandler(conversationID string, sink MessageSink, metrics *Metrics) func(models.ServerFrame) {
	return func(frame models.ServerFrame) {
		switch frame.Type {
		case models.ServerFrameTypeChatMessage:
			if frame.Message == nil {
				metrics.dropped(ChannelChat, "malformed")
				return
			}
			msg := frame.Message.ToMessage()
			if msg.ConversationID == "" {
				msg.ConversationID = conversationID
			}
			sink.Receive(msg)
		case models.ServerFrameTypeTyping:
			sink.SetTyping(conversationID, frame.Typing)
		default:
			slog.Warn("unexpected chat frame", "type", frame.Type, "conversation_id", conversationID)
			metrics.dropped(ChannelChat, "unknown")
		}
	}
}

// SendTyping tells the counterparty whether the user is typing.
func (c *ChatChannel) SendTyping(ctx context.Context, typing bool) error {
	return c.Send(ctx, models.ClientFrame{
		Type:           models.ClientFrameTypeTyping,
		ConversationID: c.conversationID,
		Typing:         typing,
	})
}

// SendMessage delivers a message created locally.
func (c *ChatChannel) SendMessage(ctx context.Context, msg models.Message) error {
	wire := msg.ToWire()
	return c.Send(ctx, models.ClientFrame{
		Type:           models.ClientFrameTypeSend,
		ConversationID: c.conversationID,
		Message:        &wire,
	})
}

func (c *ChatChannel) ConversationID() string {
	return c.conversationID
}
