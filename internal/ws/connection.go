package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"skillconnect/internal/models"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("ws: connection closed")

type wsConnection interface {
	Close() error
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
}

// Connection runs one realtime channel: a reader decoding server frames and
// a writer sending client frames. It never reconnects.
type Connection struct {
	ws      wsConnection
	channel string
	handle  func(models.ServerFrame)
	metrics *Metrics

	fromServer chan models.ServerFrame
	toServer   chan models.ClientFrame
	errorCh    chan error
	done       chan struct{}
}

func NewConnection(ws wsConnection, channel string, handle func(models.ServerFrame), metrics *Metrics) *Connection {
	return &Connection{
		ws:         ws,
		channel:    channel,
		handle:     handle,
		metrics:    metrics,
		fromServer: make(chan models.ServerFrame),
		toServer:   make(chan models.ClientFrame),
		errorCh:    make(chan error, 2),
		done:       make(chan struct{}),
	}
}

// Handle blocks until ctx is cancelled or the socket fails. A normal close
// from the server and cancellation both return nil.
func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(c.done)
		close(c.errorCh)
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpMessages(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	var err error
	select {
	case err = <-c.errorCh:
	case <-ctx.Done():
	}
	if cerr := c.ws.Close(); cerr != nil {
		slog.Debug("websocket close failed", "channel", c.channel, "error", cerr)
	}
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Error("realtime channel failed", "channel", c.channel, "error", err)
		return err
	}
	slog.Info("realtime channel closed", "channel", c.channel)
	return nil
}

// Send queues a frame for the writer.
func (c *Connection) Send(ctx context.Context, frame models.ClientFrame) error {
	select {
	case c.toServer <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Handle has returned.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) pumpMessages(ctx context.Context) error {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		c.metrics.received(c.channel)

		var frame models.ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("dropping malformed frame", "channel", c.channel, "error", err)
			c.metrics.dropped(c.channel, "malformed")
			continue
		}

		select {
		case c.fromServer <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Connection) mainLoop(ctx context.Context) error {
	for {
		select {
		case frame := <-c.fromServer:
			c.handle(frame)
		case frame := <-c.toServer:
			if err := c.ws.WriteJSON(frame); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
