// Package devserver is a stub SkillConnect backend. It serves the REST
// endpoints and realtime sockets the client core talks to, backed by
// memory and the demo data in stubs.
package devserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"skillconnect/internal/models"
	"skillconnect/internal/stubs"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenExpiry = 12 * time.Hour
	DefaultOTPExpiry   = 10 * time.Minute
)

type Config struct {
	TokenExpiry time.Duration
	OTPExpiry   time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost. Tests use bcrypt.MinCost.
	BcryptCost int
}

func (c *Config) Validate() error {
	if c.TokenExpiry <= 0 {
		c.TokenExpiry = DefaultTokenExpiry
	}
	if c.OTPExpiry <= 0 {
		c.OTPExpiry = DefaultOTPExpiry
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return bcrypt.InvalidCostError(c.BcryptCost)
	}
	return nil
}

type Server struct {
	ctx      context.Context
	accounts *accounts
	hub      *Hub
	upgrader *websocket.Upgrader
	now      func() time.Time

	services []models.Service
	mu       sync.Mutex
}

// New builds the stub backend. Cancelling ctx closes every open socket
// and stops the token cache cleanup.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	accs, err := newAccounts(ctx, cfg.TokenExpiry, cfg.OTPExpiry, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &Server{
		ctx:      ctx,
		accounts: accs,
		hub:      NewHub(),
		upgrader: newUpgrader(),
		now:      time.Now,
		services: append([]models.Service(nil), stubs.Services...),
	}, nil
}

// Handler routes every endpoint of the stub backend.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/token/", s.LoginHandler)
	mux.HandleFunc("POST /api/v1/auth/register/", s.RegisterHandler)
	mux.HandleFunc("POST /api/v1/auth/users/verify-otp/", s.VerifyOTPHandler)
	mux.HandleFunc("POST /api/v1/auth/users/resend-otp/", s.ResendOTPHandler)
	mux.HandleFunc("POST /api/v1/auth/password/reset/", s.PasswordResetHandler)
	mux.HandleFunc("GET /api/v1/auth/users/profile/", s.RequireAuth(s.ProfileHandler))
	mux.HandleFunc("PATCH /api/v1/auth/users/update/", s.RequireAuth(s.UpdateUserHandler))
	mux.HandleFunc("GET /api/v1/services/", s.RequireAuth(s.ServicesHandler))
	mux.HandleFunc("POST /api/v1/services/create/", s.RequireAuth(s.CreateServiceHandler))
	mux.HandleFunc("POST /api/v1/profiles/freelancer/profile/", s.RequireAuth(s.profileFormHandler(models.RoleFreelancer)))
	mux.HandleFunc("POST /api/v1/profiles/client/profile/", s.RequireAuth(s.profileFormHandler(models.RoleClient)))
	mux.HandleFunc("GET /api/v1/chat/conversations/", s.RequireAuth(s.ConversationsHandler))
	mux.HandleFunc("GET /api/v1/chat/conversations/{id}/messages/", s.RequireAuth(s.HistoryHandler))

	mux.HandleFunc("POST /dev/notify", s.NotifyHandler)

	mux.HandleFunc("GET /ws/notifications/", s.HandleNotifications)
	mux.HandleFunc("GET /ws/chat/{id}/", s.HandleChat)

	return mux
}

// OTP returns the pending verification code of email.
func (s *Server) OTP(email string) (string, bool) {
	code, err := s.accounts.otps.Get(email)
	return code, err == nil
}

// Revoke invalidates a token so the next bearer call gets 401.
func (s *Server) Revoke(token string) {
	s.accounts.revoke(token)
}

// Notify pushes payload to the notification sockets of email, or of
// everybody when email is empty.
func (s *Server) Notify(email string, payload []byte) int {
	return s.hub.Notify(email, payload)
}

func (s *Server) knownConversation(id string) bool {
	for _, c := range stubs.Conversations {
		if c.ID == id {
			return true
		}
	}
	return false
}
