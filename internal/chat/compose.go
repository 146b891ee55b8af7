package chat

import (
	"strconv"
	"strings"
	"time"

	"skillconnect/internal/content"
	"skillconnect/internal/models"
	"skillconnect/internal/validation"
)

const PaymentStatusPending = "pending"

// RequestPayment validates a payment request and sends it. Field errors are
// returned keyed by amount, description and paymentMethod; nothing is sent
// in that case.
func (s *Store) RequestPayment(conversationID, amount, description, method string) (models.Message, map[string]string, error) {
	if errs := validation.PaymentRequest(amount, description, method); errs != nil {
		return models.Message{}, errs, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return models.Message{}, map[string]string{"amount": "Enter a valid amount."}, nil
	}

	msg, err := s.Send(conversationID, models.PaymentContent{
		Amount:      value,
		Description: strings.TrimSpace(description),
		Method:      method,
		Status:      PaymentStatusPending,
	})
	return msg, nil, err
}

// SendFile sends an uploaded attachment. url is where the upload landed.
func (s *Store) SendFile(conversationID, name, url string, data []byte) (models.Message, error) {
	if err := content.ValidateAttachment(name, data); err != nil {
		return models.Message{}, err
	}
	return s.Send(conversationID, models.FileContent{
		Name:     name,
		MimeType: content.DetectMIME(data),
		URL:      url,
		Size:     int64(len(data)),
		Image:    content.IsImage(data),
	})
}

// SendVoice sends a recorded clip.
func (s *Store) SendVoice(conversationID, url string, duration time.Duration) (models.Message, error) {
	return s.Send(conversationID, models.VoiceContent{URL: url, Duration: duration})
}

// SendText sends a text message. Blank text is ignored.
func (s *Store) SendText(conversationID, body string) (models.Message, bool, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Message{}, false, nil
	}
	msg, err := s.Send(conversationID, models.TextContent{Body: body})
	return msg, err == nil, err
}
