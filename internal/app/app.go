// Package app ties the client core together: the session, the REST
// client, the toast registry, the chat store and the realtime channels.
// Views subscribe to it and call its operations.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"skillconnect/internal/api"
	"skillconnect/internal/auth"
	"skillconnect/internal/chat"
	"skillconnect/internal/models"
	"skillconnect/internal/toast"
	"skillconnect/internal/wizard"
	"skillconnect/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// Self is the sender name of messages written on this device.
const Self = "me"

const sendTimeout = 5 * time.Second

var (
	ErrNoConversation = errors.New("no conversation is open")
	ErrNoRole         = errors.New("session has no role")
)

type Config struct {
	APIURL           string
	WSURL            string
	ToastDuration    time.Duration
	NotificationsCap int
	ServicesTTL      time.Duration
	HTTPTimeout      time.Duration
	// Registerer receives the realtime channel counters. Nil disables them.
	Registerer prometheus.Registerer
	Dialer     *websocket.Dialer
}

type channel struct {
	conn   *ws.Connection
	cancel context.CancelFunc
}

// close stops the channel and waits for its loop to return.
func (c *channel) close() {
	if c == nil {
		return
	}
	c.cancel()
	<-c.conn.Done()
}

// App is the application state shared by every view.
type App struct {
	cfg     Config
	ctx     context.Context
	metrics *ws.Metrics

	API    *api.Client
	Auth   *auth.AuthService
	Toasts *toast.Registry
	Feed   *ws.Feed
	Chat   *chat.Store

	notifications *channel
	chatChannel   *ws.ChatChannel
	chatCancel    context.CancelFunc
	typing        *chat.TypingNotifier

	// token is the session token the realtime channels and the cached
	// user state belong to.
	token string

	unsubscribe func()
	wg          sync.WaitGroup
	mu          sync.Mutex
	// sessionMu serializes session transitions.
	sessionMu sync.Mutex
}

// New builds the application state. ctx bounds every background goroutine
// it starts, including the realtime channels.
func New(ctx context.Context, cfg Config, store auth.TokenStore) *App {
	a := &App{
		cfg:    cfg,
		ctx:    ctx,
		Toasts: toast.New(cfg.ToastDuration),
		Feed:   ws.NewFeed(cfg.NotificationsCap),
	}
	if cfg.Registerer != nil {
		a.metrics = ws.NewMetrics(cfg.Registerer)
	}

	a.API = api.New(ctx, api.Config{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.HTTPTimeout,
		ServicesTTL: cfg.ServicesTTL,
	})
	a.Auth = auth.NewAuthService(store, a.API)
	a.API.SetToken(a.Auth.Token)
	a.API.SetUnauthorizedHandler(a.Auth.HandleUnauthorized)
	a.Chat = chat.NewStore(Self, a.API)
	a.typing = chat.NewTypingNotifier(chat.TypingIdle, a.sendTyping)
	return a
}

// Init restores a persisted session and keeps the notifications channel
// in step with it from then on.
func (a *App) Init() error {
	a.unsubscribe = a.Auth.Subscribe(a.onSession)

	s, err := a.Auth.Restore()
	if err != nil {
		return err
	}
	if !s.Authenticated() {
		slog.Info("no persisted session")
	}
	return nil
}

// Close tears everything down. The persisted token is kept.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.teardown()
	a.Toasts.Close()
	a.wg.Wait()
}

// onSession keeps the realtime channels and the per-user state bound to
// the current token. A new token, or none, ends everything opened for the
// previous one.
func (a *App) onSession(s models.Session) {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	a.mu.Lock()
	prev := a.token
	a.token = s.Token
	a.mu.Unlock()

	if prev != s.Token {
		a.endSession()
	}
	if !s.Authenticated() {
		return
	}

	a.mu.Lock()
	open := a.notifications != nil
	a.mu.Unlock()
	if open {
		return
	}
	if err := a.openNotifications(s.Token); err != nil {
		slog.Error("failed to open notifications channel", "error", err)
		a.Toasts.Error("Live notifications are unavailable.", 0)
	}
}

func (a *App) openNotifications(token string) error {
	ctx, cancel := context.WithCancel(a.ctx)
	conn, err := ws.DialNotifications(ctx, a.cfg.Dialer, a.cfg.WSURL, token, a.Feed, a.metrics)
	if err != nil {
		cancel()
		return err
	}

	a.mu.Lock()
	if a.notifications != nil {
		a.mu.Unlock()
		cancel()
		_ = conn.Handle(ctx)
		return nil
	}
	a.notifications = &channel{conn: conn, cancel: cancel}
	a.mu.Unlock()

	a.wg.Go(func() {
		if err := conn.Handle(ctx); err != nil {
			a.Toasts.Warning("Connection to live notifications was lost.", 0)
		}
	})
	return nil
}

// endSession closes the channels and drops what was loaded for the
// previous user.
func (a *App) endSession() {
	a.typing.Cancel()
	a.teardown()
	a.Feed.Clear()
	a.Chat.Reset()
}

// teardown closes the realtime channels of the current session.
func (a *App) teardown() {
	a.mu.Lock()
	notifications := a.notifications
	a.notifications = nil
	chatCancel := a.chatCancel
	chatChannel := a.chatChannel
	a.chatCancel = nil
	a.chatChannel = nil
	a.mu.Unlock()

	notifications.close()
	if chatCancel != nil {
		chatCancel()
		<-chatChannel.Done()
	}
}

// Connected reports whether the notifications channel is open.
func (a *App) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notifications != nil
}

// Login signs in and greets the user with a toast.
func (a *App) Login(ctx context.Context, email, password string) (models.Session, error) {
	s, err := a.Auth.Login(ctx, email, password)
	if err != nil {
		a.Toasts.Error(ErrorMessage(err), 0)
		return models.Session{}, err
	}
	a.Toasts.Success("Welcome back!", 0)
	return s, nil
}

// Logout ends the session locally.
func (a *App) Logout() error {
	err := a.Auth.Logout()
	a.Toasts.Info("You have been logged out.", 0)
	return err
}

// RegistrationWizard starts a sign-up. Submitting the final step verifies
// the one-time code and logs the new user in.
func (a *App) RegistrationWizard() (*wizard.Wizard, error) {
	return wizard.New(wizard.RegistrationFlow(a.Auth), wizard.OTPSubmitter(a.Auth))
}

// ProfileWizard returns the onboarding flow matching the session's role.
// A successful submission also marks the first login as done.
func (a *App) ProfileWizard() (*wizard.Wizard, error) {
	var (
		flow wizard.Flow
		path string
	)
	switch a.Auth.Session().Role {
	case models.RoleFreelancer:
		flow, path = wizard.FreelancerProfileFlow(), wizard.FreelancerProfilePath
	case models.RoleClient:
		flow, path = wizard.ClientProfileFlow(), wizard.ClientProfilePath
	default:
		return nil, ErrNoRole
	}

	upload := wizard.MultipartSubmitter{Poster: a.API, Path: path}
	return wizard.New(flow, wizard.SubmitFunc(func(ctx context.Context, fields wizard.Fields) error {
		if err := upload.Submit(ctx, fields); err != nil {
			return err
		}
		if err := a.Auth.CompleteFirstLogin(ctx); err != nil {
			return err
		}
		a.Toasts.Success("Profile saved.", 0)
		return nil
	}))
}

// LoadConversations fetches the conversation list into the chat store.
func (a *App) LoadConversations(ctx context.Context) error {
	convs, err := a.API.Conversations(ctx)
	if err != nil {
		return err
	}
	a.Chat.SetConversations(convs)
	return nil
}

// OpenConversation selects a conversation and joins its chat channel,
// leaving the previously open one.
func (a *App) OpenConversation(ctx context.Context, id string) error {
	if err := a.Chat.Select(ctx, id); err != nil {
		return err
	}

	token := a.Auth.Token()
	if token == "" {
		return api.ErrNoSession
	}

	a.mu.Lock()
	prevCancel, prev := a.chatCancel, a.chatChannel
	a.chatCancel, a.chatChannel = nil, nil
	a.mu.Unlock()
	if prevCancel != nil {
		prevCancel()
		<-prev.Done()
	}

	chCtx, cancel := context.WithCancel(a.ctx)
	ch, err := ws.DialChat(ctx, a.cfg.Dialer, a.cfg.WSURL, id, token, a.Chat, a.metrics)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to join conversation %s: %w", id, err)
	}

	a.mu.Lock()
	a.chatChannel, a.chatCancel = ch, cancel
	a.mu.Unlock()

	a.wg.Go(func() {
		_ = ch.Handle(chCtx)
	})
	return nil
}

func (a *App) currentChat() *ws.ChatChannel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chatChannel
}

// SendText appends a text message and delivers it over the open chat
// channel. Blank text does nothing.
func (a *App) SendText(ctx context.Context, body string) (models.Message, error) {
	ch := a.currentChat()
	if ch == nil {
		return models.Message{}, ErrNoConversation
	}

	msg, ok, err := a.Chat.SendText(ch.ConversationID(), body)
	if err != nil || !ok {
		return msg, err
	}
	a.typing.Stop()
	return msg, a.deliver(ctx, ch, msg)
}

// RequestPayment sends a payment request. Field errors come back keyed by
// amount, description and paymentMethod.
func (a *App) RequestPayment(ctx context.Context, amount, description, method string) (models.Message, map[string]string, error) {
	ch := a.currentChat()
	if ch == nil {
		return models.Message{}, nil, ErrNoConversation
	}

	msg, fields, err := a.Chat.RequestPayment(ch.ConversationID(), amount, description, method)
	if fields != nil || err != nil {
		return msg, fields, err
	}
	return msg, nil, a.deliver(ctx, ch, msg)
}

func (a *App) deliver(ctx context.Context, ch *ws.ChatChannel, msg models.Message) error {
	if err := ch.SendMessage(ctx, msg); err != nil {
		slog.Warn("message not delivered", "message_id", msg.ID, "error", err)
		a.Toasts.Error("Message could not be sent.", 0)
		return err
	}
	return nil
}

// Typing records a keystroke in the message input.
func (a *App) Typing() {
	if a.currentChat() == nil {
		return
	}
	a.typing.Input()
}

func (a *App) sendTyping(typing bool) error {
	ch := a.currentChat()
	if ch == nil {
		return ErrNoConversation
	}
	ctx, cancel := context.WithTimeout(a.ctx, sendTimeout)
	defer cancel()
	return ch.SendTyping(ctx, typing)
}

// ErrorMessage turns an error into text fit for a toast.
func ErrorMessage(err error) string {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.As(err, &apiErr) && apiErr.HasFields():
		for _, k := range []string{api.GeneralField, "email", "password"} {
			if msg, ok := apiErr.Fields[k]; ok {
				return msg
			}
		}
		return "Please check the highlighted fields."
	case errors.Is(err, api.ErrNoSession):
		return "Please log in first."
	}
	return "Something went wrong. Please try again."
}
