package models

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleFreelancer Role = "FREELANCER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleFreelancer
}

// Session represents the authenticated identity of the current user.
// Email may stay empty while Token is set until the profile is fetched.
type Session struct {
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
	Token string `json:"-"`
}

// Authenticated reports whether a bearer call can be made.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Profile is returned by the backend for the logged in user.
type Profile struct {
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	FirstLogin bool   `json:"first_login"`
}

// Service is a catalog entry offered by a freelancer.
type Service struct {
	ID             int64   `json:"id,omitempty"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	CategoryID     int64   `json:"category_id"`
	WorkerLocation string  `json:"worker_location"`
}

// Conversation represents a chat thread with a counterparty.
type Conversation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Online      bool   `json:"online"`
	Typing      bool   `json:"typing"`
	Unread      int    `json:"unread"`
	LastMessage string `json:"lastMessage"`
	Project     string `json:"project"`
	Budget      string `json:"budget"`
}

type Delivery int

const (
	DeliverySent Delivery = iota
	DeliveryDelivered
	DeliveryRead
)

func (d Delivery) String() string {
	switch d {
	case DeliverySent:
		return "sent"
	case DeliveryDelivered:
		return "delivered"
	case DeliveryRead:
		return "read"
	}
	return "unknown"
}

// Message represents a chat message.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversationId"`
	Sender         string         `json:"sender"`
	SentAt         time.Time      `json:"sentAt"`
	Delivery       Delivery       `json:"delivery"`
	Content        Content        `json:"-"`
	Reactions      map[string]int `json:"reactions,omitempty"`
}

// Notification is an opaque backend-defined object received over the
// notifications channel.
type Notification struct {
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// ClientFrame is sent from the client over a chat channel.
type ClientFrame struct {
	Type           ClientFrameType `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Typing         bool            `json:"typing"`
	Message        *WireMessage    `json:"message,omitempty"`
}

// ServerFrame is received over a realtime channel. Only the fields the
// client consumes are decoded; everything else is ignored.
type ServerFrame struct {
	Type         ServerFrameType `json:"type,omitempty"`
	Notification json.RawMessage `json:"notification,omitempty"`
	Message      *WireMessage    `json:"message,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	Typing       bool            `json:"typing,omitempty"`
}

// WireMessage is the backend serialisation of a chat message.
type WireMessage struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	Sender         string  `json:"sender"`
	Content        string  `json:"content"`
	MessageType    string  `json:"message_type"`
	Timestamp      int64   `json:"timestamp"`
	Status         string  `json:"status,omitempty"`
	FileName       string  `json:"file_name,omitempty"`
	FileType       string  `json:"file_type,omitempty"`
	FileURL        string  `json:"file_url,omitempty"`
	FileSize       int64   `json:"file_size,omitempty"`
	PaymentAmount  float64 `json:"payment_amount,omitempty"`
	PaymentStatus  string  `json:"payment_status,omitempty"`
	PaymentMethod  string  `json:"payment_method,omitempty"`
	VoiceDuration  int     `json:"voice_duration,omitempty"`
}

type ClientFrameType string

const (
	ClientFrameTypeTyping ClientFrameType = "typing"
	ClientFrameTypeSend   ClientFrameType = "send"
)

type ServerFrameType string

const (
	ServerFrameTypeChatMessage ServerFrameType = "chat_message"
	ServerFrameTypeTyping      ServerFrameType = "typing"
)
