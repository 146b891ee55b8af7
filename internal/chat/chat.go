package chat

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"skillconnect/internal/content"
	"skillconnect/internal/models"

	"github.com/google/uuid"
)

// HistoryFetcher loads the stored messages of a conversation.
type HistoryFetcher interface {
	History(ctx context.Context, conversationID string) ([]models.Message, error)
}

// Store is the client side state of the messaging screen.
type Store struct {
	self    string
	history HistoryFetcher
	now     func() time.Time

	conversations []models.Conversation
	messages      map[string][]models.Message
	// index maps message id to its conversation.
	index  map[string]string
	active string

	upload    int
	uploading bool

	subscribers map[int]func()
	nextSub     int

	mux sync.RWMutex
}

// NewStore creates an empty store. self is the sender name used for
// outgoing messages; history may be nil.
func NewStore(self string, history HistoryFetcher) *Store {
	return &Store{
		self:        self,
		history:     history,
		now:         time.Now,
		messages:    make(map[string][]models.Message),
		index:       make(map[string]string),
		subscribers: make(map[int]func()),
	}
}

// Reset drops every conversation and message, the selection and the
// upload state. Subscribers stay registered.
func (s *Store) Reset() {
	s.mux.Lock()
	s.conversations = nil
	s.messages = make(map[string][]models.Message)
	s.index = make(map[string]string)
	s.active = ""
	s.upload, s.uploading = 0, false
	s.mux.Unlock()
	s.notify()
}

func (s *Store) SetConversations(list []models.Conversation) {
	s.mux.Lock()
	s.conversations = append([]models.Conversation(nil), list...)
	s.mux.Unlock()
	s.notify()
}

// Conversations returns the conversations whose name or project contains
// filter, ignoring case. An empty filter returns all of them.
func (s *Store) Conversations(filter string) []models.Conversation {
	s.mux.RLock()
	defer s.mux.RUnlock()

	filter = strings.ToLower(strings.TrimSpace(filter))
	result := make([]models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if filter == "" ||
			strings.Contains(strings.ToLower(c.Name), filter) ||
			strings.Contains(strings.ToLower(c.Project), filter) {
			result = append(result, c)
		}
	}
	return result
}

func (s *Store) Conversation(id string) (models.Conversation, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	i := s.find(id)
	if i < 0 {
		return models.Conversation{}, false
	}
	return s.conversations[i], true
}

func (s *Store) Active() string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.active
}

// Select makes id the active conversation and clears its unread counter.
// History is fetched when a fetcher is configured; messages already held
// locally that the backend does not know yet are kept after it.
func (s *Store) Select(ctx context.Context, id string) error {
	s.mux.Lock()
	i := s.find(id)
	if i < 0 {
		s.mux.Unlock()
		return fmt.Errorf("conversation %q: %w", id, models.ErrNotFound)
	}
	s.active = id
	s.conversations[i].Unread = 0
	s.mux.Unlock()
	s.notify()

	if s.history == nil {
		return nil
	}

	fetched, err := s.history.History(ctx, id)
	if err != nil {
		slog.Error("failed to fetch conversation history", "conversation_id", id, "error", err)
		return err
	}

	s.mux.Lock()
	local := make(map[string]models.Message, len(s.messages[id]))
	for _, m := range s.messages[id] {
		local[m.ID] = m
	}

	known := make(map[string]bool, len(fetched))
	merged := make([]models.Message, 0, len(fetched)+len(local))
	for _, m := range fetched {
		m.Content = sanitizeContent(m.Content)
		if held, ok := local[m.ID]; ok {
			m = mergeMessage(held, m)
		} else {
			m.Reactions = maps.Clone(m.Reactions)
		}
		known[m.ID] = true
		merged = append(merged, m)
		s.index[m.ID] = id
	}
	for _, m := range s.messages[id] {
		if !known[m.ID] {
			merged = append(merged, m)
		}
	}
	s.messages[id] = merged
	s.mux.Unlock()
	s.notify()
	return nil
}

// Messages returns a copy of the conversation's messages in order.
func (s *Store) Messages(conversationID string) []models.Message {
	s.mux.RLock()
	defer s.mux.RUnlock()

	msgs := s.messages[conversationID]
	result := make([]models.Message, len(msgs))
	for i, m := range msgs {
		m.Reactions = maps.Clone(m.Reactions)
		result[i] = m
	}
	return result
}

// Rendered is a message with its body ready for display.
type Rendered struct {
	models.Message
	// HTML is the sanitized markdown rendering of a text body or payment
	// description. Other kinds leave it empty.
	HTML string
}

// Render returns the conversation's messages with their bodies rendered.
func (s *Store) Render(conversationID string) []Rendered {
	msgs := s.Messages(conversationID)
	result := make([]Rendered, len(msgs))
	for i, m := range msgs {
		result[i].Message = m
		switch c := m.Content.(type) {
		case models.TextContent:
			result[i].HTML = content.Markdown(c.Body)
		case models.PaymentContent:
			result[i].HTML = content.Markdown(c.Description)
		}
	}
	return result
}

// Send appends an outgoing message optimistically with Delivery sent.
func (s *Store) Send(conversationID string, c models.Content) (models.Message, error) {
	s.mux.Lock()
	i := s.find(conversationID)
	if i < 0 {
		s.mux.Unlock()
		return models.Message{}, fmt.Errorf("conversation %q: %w", conversationID, models.ErrNotFound)
	}

	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         s.self,
		SentAt:         s.now(),
		Delivery:       models.DeliverySent,
		Content:        c,
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	s.index[msg.ID] = conversationID
	s.conversations[i].LastMessage = models.Preview(c)
	s.mux.Unlock()

	s.notify()
	return msg, nil
}

// Receive applies an inbound message. A message already held is only
// advanced. Messages for unknown conversations start a new one.
func (s *Store) Receive(msg models.Message) {
	msg.Content = sanitizeContent(msg.Content)

	s.mux.Lock()
	if _, ok := s.index[msg.ID]; ok {
		s.advance(msg.ID, msg.Delivery)
		s.mux.Unlock()
		s.notify()
		return
	}

	i := s.find(msg.ConversationID)
	if i < 0 {
		slog.Warn("message for unknown conversation", "conversation_id", msg.ConversationID)
		s.conversations = append(s.conversations, models.Conversation{ID: msg.ConversationID, Name: msg.Sender})
		i = len(s.conversations) - 1
	}

	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	s.index[msg.ID] = msg.ConversationID
	conv := &s.conversations[i]
	conv.LastMessage = models.Preview(msg.Content)
	conv.Typing = false
	if msg.ConversationID != s.active && msg.Sender != s.self {
		conv.Unread++
	}
	s.mux.Unlock()

	s.notify()
}

// Advance moves a message's delivery state forward. It reports whether the
// state changed; regressions are ignored.
func (s *Store) Advance(messageID string, d models.Delivery) bool {
	s.mux.Lock()
	changed := s.advance(messageID, d)
	s.mux.Unlock()

	if changed {
		s.notify()
	}
	return changed
}

func (s *Store) advance(messageID string, d models.Delivery) bool {
	m := s.message(messageID)
	if m == nil || d <= m.Delivery {
		return false
	}
	m.Delivery = d
	return true
}

// React adds one to the emoji's count on a message and returns the new
// count. There is no way to take a reaction back.
func (s *Store) React(messageID, emoji string) (int, error) {
	s.mux.Lock()
	m := s.message(messageID)
	if m == nil {
		s.mux.Unlock()
		return 0, fmt.Errorf("message %q: %w", messageID, models.ErrNotFound)
	}
	if m.Reactions == nil {
		m.Reactions = make(map[string]int)
	}
	m.Reactions[emoji]++
	n := m.Reactions[emoji]
	s.mux.Unlock()

	s.notify()
	return n, nil
}

// SetUploadProgress records the progress of the current attachment upload,
// clamped to 0..100. Reaching 100 ends the upload.
func (s *Store) SetUploadProgress(pct int) {
	s.mux.Lock()
	s.upload = min(max(pct, 0), 100)
	s.uploading = s.upload < 100
	s.mux.Unlock()
	s.notify()
}

// UploadProgress returns the last progress value and whether an upload is
// still running.
func (s *Store) UploadProgress() (int, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.upload, s.uploading
}

func (s *Store) SetTyping(conversationID string, typing bool) {
	s.update(conversationID, func(c *models.Conversation) { c.Typing = typing })
}

func (s *Store) SetOnline(conversationID string, online bool) {
	s.update(conversationID, func(c *models.Conversation) { c.Online = online })
}

// Subscribe registers fn to be called after every change.
func (s *Store) Subscribe(fn func()) func() {
	s.mux.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mux.Unlock()

	return func() {
		s.mux.Lock()
		delete(s.subscribers, id)
		s.mux.Unlock()
	}
}

func (s *Store) update(conversationID string, fn func(*models.Conversation)) {
	s.mux.Lock()
	i := s.find(conversationID)
	if i < 0 {
		s.mux.Unlock()
		return
	}
	fn(&s.conversations[i])
	s.mux.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mux.RLock()
	subs := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mux.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

func (s *Store) find(id string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) message(id string) *models.Message {
	convID, ok := s.index[id]
	if !ok {
		return nil
	}
	msgs := s.messages[convID]
	for i := range msgs {
		if msgs[i].ID == id {
			return &msgs[i]
		}
	}
	return nil
}

// mergeMessage combines the held and fetched copies of one message. Delivery
// and reaction counts only move forward.
func mergeMessage(held, fetched models.Message) models.Message {
	fetched.Delivery = max(fetched.Delivery, held.Delivery)
	if len(held.Reactions) > 0 {
		reactions := maps.Clone(fetched.Reactions)
		if reactions == nil {
			reactions = make(map[string]int, len(held.Reactions))
		}
		for emoji, n := range held.Reactions {
			reactions[emoji] = max(reactions[emoji], n)
		}
		fetched.Reactions = reactions
	}
	return fetched
}

func sanitizeContent(c models.Content) models.Content {
	switch v := c.(type) {
	case models.TextContent:
		v.Body = content.Sanitize(v.Body)
		return v
	case models.PaymentContent:
		v.Description = content.Sanitize(v.Description)
		return v
	case models.FileContent:
		v.Image = v.Image || content.IsImageMIME(v.MimeType)
		return v
	}
	return c
}
