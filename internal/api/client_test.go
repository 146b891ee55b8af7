package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"skillconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, token string, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	opts = append([]Option{WithToken(func() string { return token })}, opts...)
	return New(ctx, Config{BaseURL: srv.URL + "/", ServicesTTL: time.Minute}, opts...)
}

func TestClient_Login(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "longenough1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"tok","refresh":"ref"}`))
	})

	c := newTestClient(t, mux, "")

	resp, err := c.Login(context.Background(), "a@b.com", "longenough1")
	require.NoError(t, err)
	require.Equal(t, "tok", resp.Access)

	_, err = c.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "No active account found with the given credentials", apiErr.Message)
}

func TestClient_RegisterFieldErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"email":["user with this email already exists."],"password":"too common"}`))
	})

	c := newTestClient(t, mux, "")
	err := c.Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "x", Role: models.RoleClient})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.HasFields())
	require.Equal(t, "user with this email already exists.", apiErr.Fields["email"])
	require.Equal(t, "too common", apiErr.Fields["password"])
	require.False(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_BearerWithoutToken(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	c := newTestClient(t, handler, "")
	_, err := c.Profile(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
	require.Zero(t, hits.Load(), "no request must be sent without a token")
}

func TestClient_UnauthorizedHook(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})

	var called atomic.Bool
	c := newTestClient(t, handler, "stale", WithUnauthorizedHandler(func() { called.Store(true) }))

	_, err := c.Profile(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.True(t, called.Load())
}

func TestClient_ServicesCache(t *testing.T) {
	var listHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/services/", func(w http.ResponseWriter, r *http.Request) {
		listHits.Add(1)
		_ = json.NewEncoder(w).Encode([]models.Service{{ID: 1, Title: "Logo design", Price: 80}})
	})
	mux.HandleFunc("POST /api/v1/services/create/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	c := newTestClient(t, mux, "tok")
	ctx := context.Background()

	services, err := c.Services(ctx)
	require.NoError(t, err)
	require.Len(t, services, 1)
	_, err = c.Services(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, listHits.Load())

	require.NoError(t, c.CreateService(ctx, models.Service{Title: "Web app", Price: 500}))
	_, err = c.Services(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, listHits.Load(), "create must invalidate the cache")
}

func TestClient_ServicesCachePerToken(t *testing.T) {
	var listHits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		listHits.Add(1)
		title := "Catalog for " + strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		_ = json.NewEncoder(w).Encode([]models.Service{{ID: 1, Title: title}})
	})

	var token atomic.Value
	token.Store("alice")
	c := newTestClient(t, handler, "", WithToken(func() string { return token.Load().(string) }))
	ctx := context.Background()

	services, err := c.Services(ctx)
	require.NoError(t, err)
	require.Equal(t, "Catalog for alice", services[0].Title)

	token.Store("bob")
	services, err = c.Services(ctx)
	require.NoError(t, err)
	require.Equal(t, "Catalog for bob", services[0].Title)
	require.EqualValues(t, 2, listHits.Load())
}

func TestClient_RequestPasswordReset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/password/reset/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{"email": req["email"]}, req)
		if req["email"] != "jane@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"email":["No account with this email."]}`))
			return
		}
		_, _ = w.Write([]byte(`{"detail":"Password reset e-mail has been sent."}`))
	})

	c := newTestClient(t, mux, "tok")
	ctx := context.Background()
	require.NoError(t, c.RequestPasswordReset(ctx, "jane@example.com"))

	err := c.RequestPasswordReset(ctx, "ghost@example.com")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "No account with this email.", apiErr.Fields["email"])
	require.False(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_SubmitMultipart(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/profiles/freelancer/profile/", r.URL.Path)
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		assert.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "payload")
		w.WriteHeader(http.StatusCreated)
	})

	c := newTestClient(t, handler, "tok")
	err := c.SubmitMultipart(context.Background(), "/profiles/freelancer/profile/",
		"multipart/form-data; boundary=x", strings.NewReader("--x\r\n\r\npayload\r\n--x--\r\n"))
	require.NoError(t, err)
}

func TestParseError_LongPlainBody(t *testing.T) {
	body := strings.Repeat("é", maxPlainMessage+10)
	err := parseError(http.StatusInternalServerError, []byte(body))
	require.Equal(t, strings.Repeat("é", maxPlainMessage), err.Message)
	require.True(t, utf8.ValidString(err.Message))
}

func TestParseError_PlainBody(t *testing.T) {
	err := parseError(http.StatusBadGateway, []byte("upstream down"))
	require.Equal(t, "upstream down", err.Message)
	require.False(t, err.HasFields())
	require.Contains(t, err.Error(), "502")
}

func TestClient_ConversationsAndHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/chat/conversations/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"c 1","name":"Sarah Wilson","unread":2,"lastMessage":"hi"}]`))
	})
	mux.HandleFunc("GET /api/v1/chat/conversations/{id}/messages/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c 1", r.PathValue("id"))
		_, _ = w.Write([]byte(`[
			{"id":"1","conversation_id":"c 1","sender":"Sarah Wilson","content":"hello","message_type":"text","timestamp":1700000000,"status":"read"},
			{"id":"2","conversation_id":"c 1","sender":"me","content":"Logo concepts","message_type":"payment","timestamp":1700000060,"payment_amount":120,"payment_method":"upi","payment_status":"pending"}
		]`))
	})

	c := newTestClient(t, mux, "tok")
	ctx := context.Background()

	convs, err := c.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.Equal(t, 2, convs[0].Unread)

	msgs, err := c.History(ctx, "c 1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, models.DeliveryRead, msgs[0].Delivery)
	require.Equal(t, models.TextContent{Body: "hello"}, msgs[0].Content)
	require.Equal(t, models.PaymentContent{Amount: 120, Description: "Logo concepts", Method: "upi", Status: "pending"}, msgs[1].Content)
	require.Equal(t, models.DeliverySent, msgs[1].Delivery)
}

func TestClient_ResendOTP(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/users/resend-otp/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Empty(t, r.Header.Get("Authorization"))
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["email"] == "done@b.com" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"email":["This email is already verified."]}`))
			return
		}
		_, _ = w.Write([]byte(`{"detail":"A new code has been sent."}`))
	})

	c := newTestClient(t, mux, "")
	require.NoError(t, c.ResendOTP(context.Background(), "a@b.com"))

	err := c.ResendOTP(context.Background(), "done@b.com")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "This email is already verified.", apiErr.Fields["email"])
	require.Equal(t, int32(2), calls.Load())
}
