package stubs

import (
	"time"

	"skillconnect/internal/models"
)

// Account is a demo login served by the dev backend.
type Account struct {
	Email    string
	Password string
	Role     models.Role
}

var Accounts = []Account{
	{Email: "client@skillconnect.dev", Password: "Password123!", Role: models.RoleClient},
	{Email: "freelancer@skillconnect.dev", Password: "Password123!", Role: models.RoleFreelancer},
}

var Conversations = []models.Conversation{
	{ID: "1", Name: "Sarah Wilson", Avatar: "SW", LastMessage: "Great, thanks for the update!", Unread: 2, Online: true, Project: "Website Redesign", Budget: "$2,500"},
	{ID: "2", Name: "John Davis", Avatar: "JD", LastMessage: "When can we schedule a call?", Project: "Mobile App Development", Budget: "$5,000"},
	{ID: "3", Name: "Emily Chen", Avatar: "EC", LastMessage: "Perfect! The designs look amazing.", Unread: 1, Online: true, Project: "Logo Design", Budget: "$800"},
	{ID: "4", Name: "Michael Brown", Avatar: "MB", LastMessage: "Can you send me the latest files?", Project: "E-commerce Store", Budget: "$3,200"},
}

var Services = []models.Service{
	{ID: 1, Title: "Landing page design", Description: "Responsive landing page with two revisions.", Price: 450, CategoryID: 2, WorkerLocation: "Remote"},
	{ID: 2, Title: "Go backend API", Description: "REST API with tests and deployment scripts.", Price: 1800, CategoryID: 1, WorkerLocation: "Remote"},
	{ID: 3, Title: "Logo package", Description: "Three concepts, vector sources included.", Price: 300, CategoryID: 2, WorkerLocation: "Berlin"},
}

// History returns the seeded messages of a conversation.
func History(conversationID string, now time.Time) []models.WireMessage {
	conv := conversation(conversationID)
	if conv == nil {
		return nil
	}
	return []models.WireMessage{
		{ID: conversationID + "-1", ConversationID: conversationID, Sender: conv.Name, Content: "Hi! Thanks for taking on " + conv.Project + ".", MessageType: "text", Timestamp: now.Add(-time.Hour).Unix(), Status: "read"},
		{ID: conversationID + "-2", ConversationID: conversationID, Sender: "me", Content: "Happy to help. First draft is coming this week.", MessageType: "text", Timestamp: now.Add(-50 * time.Minute).Unix(), Status: "read"},
		{ID: conversationID + "-3", ConversationID: conversationID, Sender: conv.Name, Content: conv.LastMessage, MessageType: "text", Timestamp: now.Add(-10 * time.Minute).Unix(), Status: "delivered"},
	}
}

func conversation(id string) *models.Conversation {
	for i := range Conversations {
		if Conversations[i].ID == id {
			return &Conversations[i]
		}
	}
	return nil
}
