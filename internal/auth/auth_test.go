package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"skillconnect/internal/api"
	"skillconnect/internal/models"
	"skillconnect/internal/storage"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	loginErr   error
	profileErr error
	profile    models.Profile
	completed  bool
	resetFor   string
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (api.TokenResponse, error) {
	if f.loginErr != nil {
		return api.TokenResponse{}, f.loginErr
	}
	return api.TokenResponse{Access: "tok-" + email}, nil
}

func (f *fakeBackend) Register(ctx context.Context, req api.RegisterRequest) error { return nil }

func (f *fakeBackend) VerifyOTP(ctx context.Context, email, otp string) (api.VerifyOTPResponse, error) {
	if otp != "123456" {
		return api.VerifyOTPResponse{}, &api.Error{Status: http.StatusBadRequest, Fields: map[string]string{"otp": "Invalid OTP"}}
	}
	var resp api.VerifyOTPResponse
	resp.Access = "otp-token"
	resp.User.Role = models.RoleFreelancer
	return resp, nil
}

func (f *fakeBackend) ResendOTP(ctx context.Context, email string) error { return nil }

func (f *fakeBackend) RequestPasswordReset(ctx context.Context, email string) error {
	f.resetFor = email
	return nil
}

func (f *fakeBackend) Profile(ctx context.Context) (models.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeBackend) CompleteFirstLogin(ctx context.Context) error {
	f.completed = true
	return nil
}

type failingStore struct{ *storage.MemoryStorage }

func (failingStore) Set(key, value string) error { return errors.New("disk full") }

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name       string
		backend    *fakeBackend
		wantErr    bool
		wantRole   models.Role
		onboarding bool
	}{
		{
			name:       "with profile",
			backend:    &fakeBackend{profile: models.Profile{Email: "a@b.com", Role: models.RoleClient, FirstLogin: true}},
			wantRole:   models.RoleClient,
			onboarding: true,
		},
		{
			name:    "profile failure keeps session",
			backend: &fakeBackend{profileErr: errors.New("boom")},
		},
		{
			name:    "bad credentials",
			backend: &fakeBackend{loginErr: &api.Error{Status: http.StatusUnauthorized, Message: "nope"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			as := NewAuthService(store, tt.backend)

			s, err := as.Login(context.Background(), "a@b.com", "longenough1")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if as.Session().Authenticated() {
					t.Error("session must not be established on failure")
				}
				if _, err := store.Get(TokenKey); !errors.Is(err, models.ErrNotFound) {
					t.Errorf("token persisted on failure: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Token != "tok-a@b.com" {
				t.Errorf("token = %q", s.Token)
			}
			if s.Role != tt.wantRole {
				t.Errorf("role = %q, want %q", s.Role, tt.wantRole)
			}
			if as.NeedsOnboarding() != tt.onboarding {
				t.Errorf("onboarding = %v, want %v", as.NeedsOnboarding(), tt.onboarding)
			}
			persisted, err := store.Get(TokenKey)
			if err != nil || persisted != s.Token {
				t.Errorf("persisted = %q, %v", persisted, err)
			}
		})
	}
}

func TestAuthService_LoginPersistFailure(t *testing.T) {
	as := NewAuthService(failingStore{storage.NewMemoryStorage()}, &fakeBackend{})

	_, err := as.Login(context.Background(), "a@b.com", "longenough1")
	if err == nil {
		t.Fatal("expected error")
	}
	if as.Token() != "" {
		t.Error("in-memory token must stay empty when persistence fails")
	}
}

func TestAuthService_RestoreAndLogout(t *testing.T) {
	store := storage.NewMemoryStorage()
	if err := store.Set(TokenKey, "persisted"); err != nil {
		t.Fatal(err)
	}

	as := NewAuthService(store, &fakeBackend{})
	s, err := as.Restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Token != "persisted" || !s.Authenticated() {
		t.Fatalf("restored session = %+v", s)
	}

	var changes []models.Session
	unsubscribe := as.Subscribe(func(s models.Session) { changes = append(changes, s) })
	defer unsubscribe()

	if err := as.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if as.Token() != "" {
		t.Error("token must be cleared")
	}
	if _, err := store.Get(TokenKey); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("persisted token still present: %v", err)
	}
	if len(changes) != 1 || changes[0].Authenticated() {
		t.Errorf("changes = %+v", changes)
	}

	// Logging out twice is harmless.
	if err := as.Logout(); err != nil {
		t.Errorf("second logout: %v", err)
	}
}

func TestAuthService_RestoreEmpty(t *testing.T) {
	as := NewAuthService(storage.NewMemoryStorage(), &fakeBackend{})
	s, err := as.Restore()
	if err != nil {
		t.Fatal(err)
	}
	if s.Authenticated() {
		t.Error("no session expected")
	}
}

func TestAuthService_VerifyOTP(t *testing.T) {
	store := storage.NewMemoryStorage()
	as := NewAuthService(store, &fakeBackend{})

	_, err := as.VerifyOTP(context.Background(), "a@b.com", "000000")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Fields["otp"] == "" {
		t.Fatalf("expected otp field error, got %v", err)
	}

	s, err := as.VerifyOTP(context.Background(), "a@b.com", "123456")
	if err != nil {
		t.Fatal(err)
	}
	if s.Role != models.RoleFreelancer || s.Token != "otp-token" {
		t.Errorf("session = %+v", s)
	}
	if !as.NeedsOnboarding() {
		t.Error("fresh account must need onboarding")
	}

	if err := as.CompleteFirstLogin(context.Background()); err != nil {
		t.Fatal(err)
	}
	if as.NeedsOnboarding() {
		t.Error("onboarding flag must clear")
	}
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	backend := &fakeBackend{}
	as := NewAuthService(storage.NewMemoryStorage(), backend)

	if err := as.RequestPasswordReset(context.Background(), "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	if backend.resetFor != "jane@example.com" {
		t.Errorf("reset requested for %q", backend.resetFor)
	}
	if as.Session().Authenticated() {
		t.Error("a reset request must not start a session")
	}
}

func TestAuthService_WithClient(t *testing.T) {
	var profileHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access":"live","refresh":"r"}`))
	})
	mux.HandleFunc("GET /api/v1/auth/users/profile/", func(w http.ResponseWriter, r *http.Request) {
		profileHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer live" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"email":"a@b.com","role":"FREELANCER","first_login":false}`))
	})
	mux.HandleFunc("GET /api/v1/services/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.New(ctx, api.Config{BaseURL: srv.URL})
	store := storage.NewMemoryStorage()
	as := NewAuthService(store, client)
	client.SetToken(as.Token)
	client.SetUnauthorizedHandler(as.HandleUnauthorized)

	s, err := as.Login(ctx, "a@b.com", "longenough1")
	require.NoError(t, err)
	require.Equal(t, models.RoleFreelancer, s.Role)
	require.EqualValues(t, 1, profileHits.Load())

	// A 401 on a bearer call drops the session.
	_, err = client.Services(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.False(t, as.Session().Authenticated())
	_, err = store.Get(TokenKey)
	require.ErrorIs(t, err, models.ErrNotFound)

	// Without a session bearer calls fail locally.
	_, err = client.Profile(ctx)
	require.ErrorIs(t, err, api.ErrNoSession)
	require.EqualValues(t, 1, profileHits.Load())
}
