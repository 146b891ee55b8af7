package devserver

import (
	"encoding/json"
	"log/slog"
	"sync"

	"skillconnect/internal/models"
)

const peerBuffer = 64

// Hub fans frames out to connected sockets. Notification sockets are
// keyed by user email, chat sockets by conversation.
type Hub struct {
	// email -> notification channels of that user
	notifications map[string]map[chan models.ServerFrame]struct{}

	// conversation id -> chat channels joined to it
	conversations map[string]map[chan models.ServerFrame]struct{}

	// conversation id -> messages sent during this run
	history map[string][]models.WireMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		notifications: make(map[string]map[chan models.ServerFrame]struct{}),
		conversations: make(map[string]map[chan models.ServerFrame]struct{}),
		history:       make(map[string][]models.WireMessage),
	}
}

// JoinNotifications registers a notifications socket of email.
func (h *Hub) JoinNotifications(email string) chan models.ServerFrame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return join(h.notifications, email)
}

func (h *Hub) LeaveNotifications(email string, ch chan models.ServerFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	leave(h.notifications, email, ch)
}

// JoinChat registers a chat socket for a conversation.
func (h *Hub) JoinChat(conversationID string) chan models.ServerFrame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return join(h.conversations, conversationID)
}

func (h *Hub) LeaveChat(conversationID string, ch chan models.ServerFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	leave(h.conversations, conversationID, ch)
}

func join(m map[string]map[chan models.ServerFrame]struct{}, key string) chan models.ServerFrame {
	ch := make(chan models.ServerFrame, peerBuffer)
	if m[key] == nil {
		m[key] = make(map[chan models.ServerFrame]struct{})
	}
	m[key][ch] = struct{}{}
	return ch
}

func leave(m map[string]map[chan models.ServerFrame]struct{}, key string, ch chan models.ServerFrame) {
	peers, ok := m[key]
	if !ok {
		return
	}
	if _, ok := peers[ch]; !ok {
		return
	}
	delete(peers, ch)
	close(ch)
	if len(peers) == 0 {
		delete(m, key)
	}
}

// Notify delivers a notification to every socket of email, or to every
// connected user when email is empty. It returns the number of sockets
// reached.
func (h *Hub) Notify(email string, payload json.RawMessage) int {
	frame := models.ServerFrame{Notification: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for key, peers := range h.notifications {
		if email != "" && key != email {
			continue
		}
		delivered += fanOut(peers, frame, nil)
	}
	return delivered
}

// Post stores msg and echoes it to every socket of the conversation.
func (h *Hub) Post(msg models.WireMessage) {
	h.mu.Lock()
	h.history[msg.ConversationID] = append(h.history[msg.ConversationID], msg)
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	fanOut(h.conversations[msg.ConversationID], models.ServerFrame{
		Type:    models.ServerFrameTypeChatMessage,
		Message: &msg,
	}, nil)
}

// Typing forwards a typing indicator to the other sockets of the
// conversation.
func (h *Hub) Typing(conversationID, email string, typing bool, from chan models.ServerFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fanOut(h.conversations[conversationID], models.ServerFrame{
		Type:   models.ServerFrameTypeTyping,
		UserID: email,
		Typing: typing,
	}, from)
}

// Messages returns what was posted to a conversation during this run.
func (h *Hub) Messages(conversationID string) []models.WireMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.WireMessage, len(h.history[conversationID]))
	copy(out, h.history[conversationID])
	return out
}

// fanOut must be called with the hub lock held.
func fanOut(peers map[chan models.ServerFrame]struct{}, frame models.ServerFrame, skip chan models.ServerFrame) int {
	sent := 0
	for ch := range peers {
		if ch == skip {
			continue
		}
		select {
		case ch <- frame:
			sent++
		default:
			slog.Warn("peer buffer full, frame dropped", "type", frame.Type)
		}
	}
	return sent
}
