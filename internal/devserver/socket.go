package devserver

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"skillconnect/internal/models"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

func newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // dev only
		},
	}
}

// peer is one accepted socket. Frames queued on out are written by the
// main loop; client frames are handed to onFrame by the read pump.
type peer struct {
	ws  *websocket.Conn
	out chan models.ServerFrame
}

func (p *peer) run(ctx context.Context, onFrame func(models.ClientFrame)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Go(func() {
		defer cancel()
		for {
			var frame models.ClientFrame
			if err := p.ws.ReadJSON(&frame); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.Debug("socket read stopped", "error", err)
				}
				return
			}
			if onFrame != nil {
				onFrame(frame)
			}
		}
	})

	defer func() {
		if err := p.ws.Close(); err != nil {
			log.Printf("error closing websocket: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = p.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case frame, ok := <-p.out:
			if !ok {
				return nil
			}
			_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.ws.WriteJSON(frame); err != nil {
				return err
			}
		}
	}
}

// HandleNotifications serves /ws/notifications/?token=.
func (s *Server) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.lookup(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("error upgrading to websocket: %v", err)
		return
	}

	ch := s.hub.JoinNotifications(u.Email)
	defer s.hub.LeaveNotifications(u.Email, ch)

	slog.Info("notifications socket opened", "email", u.Email)
	p := &peer{ws: conn, out: ch}
	if err := p.run(s.ctx, nil); err != nil {
		slog.Warn("notifications socket failed", "email", u.Email, "error", err)
	}
}

// HandleChat serves /ws/chat/{id}/?token=.
func (s *Server) HandleChat(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.lookup(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	conversationID := r.PathValue("id")
	if !s.knownConversation(conversationID) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("error upgrading to websocket: %v", err)
		return
	}

	ch := s.hub.JoinChat(conversationID)
	defer s.hub.LeaveChat(conversationID, ch)

	p := &peer{ws: conn, out: ch}
	err = p.run(s.ctx, func(frame models.ClientFrame) {
		switch frame.Type {
		case models.ClientFrameTypeTyping:
			s.hub.Typing(conversationID, u.Email, frame.Typing, ch)
		case models.ClientFrameTypeSend:
			if frame.Message == nil {
				slog.Warn("send frame without message", "conversation_id", conversationID)
				return
			}
			msg := *frame.Message
			msg.ConversationID = conversationID
			msg.Status = models.DeliveryDelivered.String()
			if msg.Timestamp == 0 {
				msg.Timestamp = s.now().Unix()
			}
			s.hub.Post(msg)
		default:
			slog.Warn("unknown client frame", "type", frame.Type, "conversation_id", conversationID)
		}
	})
	if err != nil {
		slog.Warn("chat socket failed", "conversation_id", conversationID, "error", err)
	}
}
