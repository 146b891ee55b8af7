package devserver

import (
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"skillconnect/internal/models"
	"skillconnect/internal/stubs"
	"skillconnect/internal/validation"
)

const maxFormMemory = 32 << 20

type userHandler func(w http.ResponseWriter, r *http.Request, u user)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	Phone    string      `json:"phone"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type notifyRequest struct {
	Email        string          `json:"email"`
	Notification json.RawMessage `json:"notification"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeFields answers 400 with a field-keyed body, each message wrapped
// in a list.
func writeFields(w http.ResponseWriter, fields map[string]string) {
	body := make(map[string][]string, len(fields))
	for k, v := range fields {
		body[k] = []string{v}
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func getToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireAuth resolves the bearer token before calling next.
func (s *Server) RequireAuth(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.accounts.lookup(getToken(r))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		next(w, r, u)
	}
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}

	token, err := s.accounts.login(req.Email, req.Password)
	switch {
	case errors.Is(err, ErrNotVerified):
		writeDetail(w, http.StatusUnauthorized, "Email is not verified")
		return
	case err != nil:
		slog.Info("login failed", "email", req.Email, "error", err)
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": token})
}

func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	fields := make(map[string]string)
	if msg := validation.Email(req.Email); msg != "" {
		fields["email"] = msg
	}
	if msg := validation.Password(req.Password); msg != "" {
		fields["password"] = msg
	}
	if !req.Role.Valid() {
		fields["role"] = "Select a valid role"
	}
	if len(fields) > 0 {
		writeFields(w, fields)
		return
	}

	if _, err := s.accounts.add(req.Email, req.Password, req.Role, req.Phone, false); err != nil {
		if errors.Is(err, ErrUserExists) {
			writeFields(w, map[string]string{"email": "A user with this email already exists."})
			return
		}
		slog.Error("registration failed", "email", req.Email, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := s.issueOTP(req.Email); err != nil {
		slog.Error("otp generation failed", "email", req.Email, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"email": req.Email})
}

// issueOTP generates a code and "mails" it to the log.
func (s *Server) issueOTP(email string) error {
	code, err := s.accounts.newOTP(email)
	if err != nil {
		return err
	}
	slog.Info("otp issued", "email", email, "otp", code)
	return nil
}

func (s *Server) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decode(w, r, &req) {
		return
	}

	token, role, err := s.accounts.verify(req.Email, req.OTP)
	if err != nil {
		writeFields(w, map[string]string{"otp": "Invalid or expired code."})
		return
	}

	resp := map[string]any{
		"access":  token,
		"refresh": token,
		"user":    map[string]any{"email": req.Email, "role": role},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ResendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decode(w, r, &req) {
		return
	}

	if !s.accounts.exists(req.Email) {
		writeFields(w, map[string]string{"email": "No pending registration for this email."})
		return
	}
	err := s.issueOTP(req.Email)
	switch {
	case errors.Is(err, ErrAlreadyVerified):
		writeFields(w, map[string]string{"email": "This email is already verified."})
		return
	case err != nil:
		slog.Error("otp generation failed", "email", req.Email, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeDetail(w, http.StatusOK, "A new code has been sent.")
}

func (s *Server) PasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	if msg := validation.Email(req.Email); msg != "" {
		writeFields(w, map[string]string{"email": msg})
		return
	}

	if s.accounts.exists(req.Email) {
		slog.Info("password reset requested", "email", req.Email)
	}
	writeDetail(w, http.StatusOK, "If the account exists, a reset link has been sent.")
}

func (s *Server) ProfileHandler(w http.ResponseWriter, r *http.Request, u user) {
	writeJSON(w, http.StatusOK, u.profile())
}

func (s *Server) UpdateUserHandler(w http.ResponseWriter, r *http.Request, u user) {
	var req struct {
		FirstLogin *bool `json:"first_login"`
	}
	if !decode(w, r, &req) {
		return
	}

	var updated models.Profile
	err := s.accounts.update(u.Email, func(stored *user) error {
		if req.FirstLogin != nil {
			stored.FirstLogin = *req.FirstLogin
		}
		updated = stored.profile()
		return nil
	})
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) ServicesHandler(w http.ResponseWriter, r *http.Request, _ user) {
	s.mu.Lock()
	list := slices.Clone(s.services)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) CreateServiceHandler(w http.ResponseWriter, r *http.Request, u user) {
	var svc models.Service
	if !decode(w, r, &svc) {
		return
	}

	fields := make(map[string]string)
	if msg := validation.Name(svc.Title, "Title", validation.DefaultBounds); msg != "" {
		fields["title"] = msg
	}
	if svc.Price <= 0 {
		fields["price"] = "Price must be greater than 0"
	}
	if len(fields) > 0 {
		writeFields(w, fields)
		return
	}

	s.mu.Lock()
	svc.ID = int64(len(s.services) + 1)
	s.services = append(s.services, svc)
	s.mu.Unlock()

	slog.Info("service created", "email", u.Email, "service_id", svc.ID)
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) profileFormHandler(role models.Role) userHandler {
	return func(w http.ResponseWriter, r *http.Request, u user) {
		if u.Role != role {
			writeDetail(w, http.StatusForbidden, "This profile does not match your account type")
			return
		}
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			http.Error(w, "Invalid multipart body", http.StatusBadRequest)
			return
		}

		var names []string
		for k := range r.MultipartForm.Value {
			names = append(names, k)
		}
		for k := range r.MultipartForm.File {
			names = append(names, k)
		}
		slices.Sort(names)

		err := s.accounts.update(u.Email, func(stored *user) error {
			stored.Profile = names
			stored.FirstLogin = false
			return nil
		})
		if err != nil {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}

		slog.Info("profile saved", "email", u.Email, "role", role, "fields", len(names))
		writeJSON(w, http.StatusCreated, map[string]any{"fields": names})
	}
}

func (s *Server) ConversationsHandler(w http.ResponseWriter, r *http.Request, _ user) {
	writeJSON(w, http.StatusOK, stubs.Conversations)
}

func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request, _ user) {
	id := r.PathValue("id")
	if !s.knownConversation(id) {
		writeDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	history := append(stubs.History(id, s.now()), s.hub.Messages(id)...)
	writeJSON(w, http.StatusOK, history)
}

// NotifyHandler lets demos and tests push a notification:
// {"email": "...", "notification": {...}}. An empty email broadcasts.
func (s *Server) NotifyHandler(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Notification) == 0 || string(req.Notification) == "null" {
		writeFields(w, map[string]string{"notification": "This field is required."})
		return
	}

	delivered := s.hub.Notify(req.Email, req.Notification)
	writeJSON(w, http.StatusAccepted, map[string]int{"delivered": delivered})
}
