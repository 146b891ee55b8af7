package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skillconnect/internal/models"

	"github.com/c-pro/geche"
)

const (
	prefix      = "/api/v1"
	servicesKey = "services"
)

type Config struct {
	BaseURL string
	// Timeout of zero means no client side timeout.
	Timeout     time.Duration
	ServicesTTL time.Duration
}

// Client talks to the SkillConnect REST backend.
type Client struct {
	baseURL string
	http    *http.Client

	token          func() string
	onUnauthorized func()

	services geche.Geche[string, []models.Service]
}

type Option func(*Client)

// WithToken sets the source of the bearer token.
func WithToken(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// WithUnauthorizedHandler sets the hook called when a bearer call gets 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client. ctx bounds the lifetime of the services cache
// cleanup goroutine.
func New(ctx context.Context, cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		token:   func() string { return "" },
	}
	if cfg.ServicesTTL > 0 {
		c.services = geche.NewMapTTLCache[string, []models.Service](ctx, cfg.ServicesTTL, time.Minute)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the token source after construction.
func (c *Client) SetToken(fn func() string) {
	c.token = fn
}

// SetUnauthorizedHandler replaces the 401 hook after construction.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type RegisterRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	Phone    string      `json:"phone,omitempty"`
}

type VerifyOTPResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
	User    struct {
		Email string      `json:"email"`
		Role  models.Role `json:"role"`
	} `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	var resp TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/token/", false, map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return TokenResponse{}, err
	}
	if resp.Access == "" {
		return TokenResponse{}, errors.New("api: token response without access token")
	}
	return resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register/", false, req, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (VerifyOTPResponse, error) {
	var resp VerifyOTPResponse
	err := c.do(ctx, http.MethodPost, "/auth/users/verify-otp/", false, map[string]string{
		"email": email,
		"otp":   otp,
	}, &resp)
	return resp, err
}

// ResendOTP asks the backend to send a fresh registration code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/users/resend-otp/", false, map[string]string{"email": email}, nil)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/reset/", false, map[string]string{"email": email}, nil)
}

func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodGet, "/auth/users/profile/", true, nil, &p)
	return p, err
}

func (c *Client) CompleteFirstLogin(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/auth/users/update/", true, map[string]bool{"first_login": false}, nil)
}

// Services returns the catalog, served from cache while it is fresh.
func (c *Client) Services(ctx context.Context) ([]models.Service, error) {
	key := c.catalogKey()
	if c.services != nil {
		if cached, err := c.services.Get(key); err == nil {
			return cached, nil
		}
	}

	var services []models.Service
	if err := c.do(ctx, http.MethodGet, "/services/", true, nil, &services); err != nil {
		return nil, err
	}
	if c.services != nil {
		c.services.Set(key, services)
	}
	return services, nil
}

// catalogKey scopes the cached catalog to the current token.
func (c *Client) catalogKey() string {
	return servicesKey + ":" + c.token()
}

func (c *Client) CreateService(ctx context.Context, s models.Service) error {
	if err := c.do(ctx, http.MethodPost, "/services/create/", true, s, nil); err != nil {
		return err
	}
	if c.services != nil {
		_ = c.services.Del(c.catalogKey())
	}
	return nil
}

func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := c.do(ctx, http.MethodGet, "/chat/conversations/", true, nil, &convs)
	return convs, err
}

// History returns the stored messages of a conversation, oldest first.
func (c *Client) History(ctx context.Context, conversationID string) ([]models.Message, error) {
	var wire []models.WireMessage
	path := "/chat/conversations/" + url.PathEscape(conversationID) + "/messages/"
	if err := c.do(ctx, http.MethodGet, path, true, nil, &wire); err != nil {
		return nil, err
	}
	msgs := make([]models.Message, len(wire))
	for i, w := range wire {
		msgs[i] = w.ToMessage()
	}
	return msgs, nil
}

// SubmitMultipart posts an already encoded multipart body to path.
func (c *Client) SubmitMultipart(ctx context.Context, path, contentType string, body io.Reader) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, true, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(req, true, nil)
}

func (c *Client) do(ctx context.Context, method, path string, bearer bool, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, bearer, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, bearer, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, bearer bool, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+prefix+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if bearer {
		token := c.token()
		if token == "" {
			return nil, ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, bearer bool, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, data)
		if bearer && resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			slog.Warn("bearer call rejected, dropping session", "path", req.URL.Path)
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
