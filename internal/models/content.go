package models

import (
	"time"
)

type ContentKind string

const (
	ContentKindText    ContentKind = "text"
	ContentKindFile    ContentKind = "file"
	ContentKindPayment ContentKind = "payment"
	ContentKindVoice   ContentKind = "voice"
)

// Content is the body of a message. The set of implementations is closed:
// every handler implements ContentVisitor, so a new kind does not compile
// until all handlers cover it.
type Content interface {
	Kind() ContentKind
	Accept(v ContentVisitor)
}

type ContentVisitor interface {
	VisitText(TextContent)
	VisitFile(FileContent)
	VisitPayment(PaymentContent)
	VisitVoice(VoiceContent)
}

type TextContent struct {
	Body string
}

type FileContent struct {
	Name     string
	MimeType string
	URL      string
	Size     int64
	// Image marks attachments rendered inline.
	Image bool
}

type PaymentContent struct {
	Amount      float64
	Description string
	Method      string
	Status      string
}

type VoiceContent struct {
	URL      string
	Duration time.Duration
}

func (TextContent) Kind() ContentKind    { return ContentKindText }
func (FileContent) Kind() ContentKind    { return ContentKindFile }
func (PaymentContent) Kind() ContentKind { return ContentKindPayment }
func (VoiceContent) Kind() ContentKind   { return ContentKindVoice }

func (c TextContent) Accept(v ContentVisitor)    { v.VisitText(c) }
func (c FileContent) Accept(v ContentVisitor)    { v.VisitFile(c) }
func (c PaymentContent) Accept(v ContentVisitor) { v.VisitPayment(c) }
func (c VoiceContent) Accept(v ContentVisitor)   { v.VisitVoice(c) }

// previewVisitor renders the one-line conversation list preview.
type previewVisitor struct {
	out string
}

func (p *previewVisitor) VisitText(c TextContent)       { p.out = c.Body }
func (p *previewVisitor) VisitFile(c FileContent)       { p.out = "📎 " + c.Name }
func (p *previewVisitor) VisitPayment(c PaymentContent) { p.out = "💳 Payment request" }
func (p *previewVisitor) VisitVoice(c VoiceContent)     { p.out = "🎤 Voice message" }

// Preview returns the text shown as a conversation's last message.
func Preview(c Content) string {
	if c == nil {
		return ""
	}
	var p previewVisitor
	c.Accept(&p)
	return p.out
}

// ToMessage converts the backend representation into a Message.
func (w WireMessage) ToMessage() Message {
	msg := Message{
		ID:             w.ID,
		ConversationID: w.ConversationID,
		Sender:         w.Sender,
		SentAt:         time.Unix(w.Timestamp, 0),
		Delivery:       ParseDelivery(w.Status),
	}

	switch ContentKind(w.MessageType) {
	case ContentKindFile:
		msg.Content = FileContent{Name: w.FileName, MimeType: w.FileType, URL: w.FileURL, Size: w.FileSize}
	case ContentKindPayment:
		msg.Content = PaymentContent{Amount: w.PaymentAmount, Description: w.Content, Method: w.PaymentMethod, Status: w.PaymentStatus}
	case ContentKindVoice:
		msg.Content = VoiceContent{URL: w.FileURL, Duration: time.Duration(w.VoiceDuration) * time.Second}
	default:
		msg.Content = TextContent{Body: w.Content}
	}
	return msg
}

// ParseDelivery maps a backend status string, defaulting to sent.
func ParseDelivery(s string) Delivery {
	switch s {
	case "delivered":
		return DeliveryDelivered
	case "read":
		return DeliveryRead
	}
	return DeliverySent
}

type wireVisitor struct {
	w *WireMessage
}

func (v wireVisitor) VisitText(c TextContent) {
	v.w.MessageType = string(ContentKindText)
	v.w.Content = c.Body
}

func (v wireVisitor) VisitFile(c FileContent) {
	v.w.MessageType = string(ContentKindFile)
	v.w.FileName, v.w.FileType, v.w.FileURL, v.w.FileSize = c.Name, c.MimeType, c.URL, c.Size
}

func (v wireVisitor) VisitPayment(c PaymentContent) {
	v.w.MessageType = string(ContentKindPayment)
	v.w.Content = c.Description
	v.w.PaymentAmount, v.w.PaymentMethod, v.w.PaymentStatus = c.Amount, c.Method, c.Status
}

func (v wireVisitor) VisitVoice(c VoiceContent) {
	v.w.MessageType = string(ContentKindVoice)
	v.w.FileURL = c.URL
	v.w.VoiceDuration = int(c.Duration / time.Second)
}

// ToWire is the inverse of WireMessage.ToMessage.
func (m Message) ToWire() WireMessage {
	w := WireMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Timestamp:      m.SentAt.Unix(),
		Status:         m.Delivery.String(),
	}
	if m.Content != nil {
		m.Content.Accept(wireVisitor{w: &w})
	}
	return w
}
