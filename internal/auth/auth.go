package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"skillconnect/internal/api"
	"skillconnect/internal/models"
)

// TokenKey is the key under which the bearer token is persisted.
const TokenKey = "access"

// TokenStore is the persisted key-value contract.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Backend is the subset of the REST client the session controller needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (api.TokenResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	VerifyOTP(ctx context.Context, email, otp string) (api.VerifyOTPResponse, error)
	ResendOTP(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	Profile(ctx context.Context) (models.Profile, error)
	CompleteFirstLogin(ctx context.Context) error
}

// AuthService owns the session. It is the only writer of the token; the
// persisted token and the in-memory one are updated together.
type AuthService struct {
	store   TokenStore
	backend Backend

	session    models.Session
	firstLogin bool

	subscribers map[int]func(models.Session)
	nextSub     int

	mu sync.RWMutex
}

func NewAuthService(store TokenStore, backend Backend) *AuthService {
	return &AuthService{
		store:       store,
		backend:     backend,
		subscribers: make(map[int]func(models.Session)),
	}
}

// Restore hydrates the session from the persisted token.
func (as *AuthService) Restore() (models.Session, error) {
	token, err := as.store.Get(TokenKey)
	if errors.Is(err, models.ErrNotFound) {
		return models.Session{}, nil
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read persisted token: %w", err)
	}

	s := as.setSession(models.Session{Token: token})
	return s, nil
}

// Login exchanges credentials for a token and establishes the session.
// The profile is fetched afterwards on a best effort basis; errors from the
// token call are returned to the caller unchanged.
func (as *AuthService) Login(ctx context.Context, email, password string) (models.Session, error) {
	resp, err := as.backend.Login(ctx, email, password)
	if err != nil {
		return models.Session{}, err
	}

	if err := as.store.Set(TokenKey, resp.Access); err != nil {
		return models.Session{}, fmt.Errorf("failed to persist token: %w", err)
	}
	s := as.setSession(models.Session{Email: email, Token: resp.Access})

	profile, err := as.backend.Profile(ctx)
	if err != nil {
		slog.Warn("profile fetch after login failed", "email", email, "error", err)
		return as.Session(), nil
	}

	as.mu.Lock()
	if as.session.Token == s.Token {
		if profile.Email != "" {
			as.session.Email = profile.Email
		}
		as.session.Role = profile.Role
		as.firstLogin = profile.FirstLogin
	}
	s = as.session
	as.mu.Unlock()

	as.notify(s)
	return s, nil
}

// Register creates the account. The session starts only after the
// one-time code is verified.
func (as *AuthService) Register(ctx context.Context, req api.RegisterRequest) error {
	return as.backend.Register(ctx, req)
}

// VerifyOTP confirms the registration code and establishes the session.
func (as *AuthService) VerifyOTP(ctx context.Context, email, otp string) (models.Session, error) {
	resp, err := as.backend.VerifyOTP(ctx, email, otp)
	if err != nil {
		return models.Session{}, err
	}
	if resp.Access == "" {
		return models.Session{}, errors.New("verification response without access token")
	}

	if err := as.store.Set(TokenKey, resp.Access); err != nil {
		return models.Session{}, fmt.Errorf("failed to persist token: %w", err)
	}

	as.mu.Lock()
	as.firstLogin = true
	as.mu.Unlock()

	return as.setSession(models.Session{Email: email, Role: resp.User.Role, Token: resp.Access}), nil
}

func (as *AuthService) ResendOTP(ctx context.Context, email string) error {
	return as.backend.ResendOTP(ctx, email)
}

func (as *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return as.backend.RequestPasswordReset(ctx, email)
}

// CompleteFirstLogin tells the backend onboarding is done.
func (as *AuthService) CompleteFirstLogin(ctx context.Context) error {
	if err := as.backend.CompleteFirstLogin(ctx); err != nil {
		return err
	}
	as.mu.Lock()
	as.firstLogin = false
	as.mu.Unlock()
	return nil
}

// Logout clears the session locally. No call is made to the backend.
func (as *AuthService) Logout() error {
	err := as.store.Delete(TokenKey)
	if err != nil {
		slog.Error("failed to remove persisted token", "error", err)
	}

	as.mu.Lock()
	as.firstLogin = false
	as.mu.Unlock()

	as.setSession(models.Session{})
	return err
}

// HandleUnauthorized is wired as the API client's 401 hook.
func (as *AuthService) HandleUnauthorized() {
	if !as.Session().Authenticated() {
		return
	}
	slog.Info("session rejected by backend, logging out")
	_ = as.Logout()
}

// Token returns the current bearer token or "".
func (as *AuthService) Token() string {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.session.Token
}

func (as *AuthService) Session() models.Session {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.session
}

// NeedsOnboarding reports whether the profile setup wizard should be shown.
func (as *AuthService) NeedsOnboarding() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.firstLogin
}

// Subscribe registers fn to receive every session change.
func (as *AuthService) Subscribe(fn func(models.Session)) func() {
	as.mu.Lock()
	id := as.nextSub
	as.nextSub++
	as.subscribers[id] = fn
	as.mu.Unlock()

	return func() {
		as.mu.Lock()
		delete(as.subscribers, id)
		as.mu.Unlock()
	}
}

func (as *AuthService) setSession(s models.Session) models.Session {
	as.mu.Lock()
	as.session = s
	as.mu.Unlock()

	as.notify(s)
	return s
}

func (as *AuthService) notify(s models.Session) {
	as.mu.RLock()
	subs := make([]func(models.Session), 0, len(as.subscribers))
	for _, fn := range as.subscribers {
		subs = append(subs, fn)
	}
	as.mu.RUnlock()

	for _, fn := range subs {
		fn(s)
	}
}
