package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoSession is returned by bearer calls when no token is held.
	// No request is sent in that case.
	ErrNoSession = errors.New("no active session")
)

// GeneralField is the key under which non field-specific messages are
// reported by Fields.
const GeneralField = "general"

// maxPlainMessage bounds, in runes, the message kept from a non-JSON body.
const maxPlainMessage = 200

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
	// Fields holds per-field messages when the backend returned a
	// field-keyed error body.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return fmt.Sprintf("api: %d: %s", e.Status, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("api: %d: %s", e.Status, http.StatusText(e.Status))
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// HasFields reports whether the error carries field-keyed messages.
func (e *Error) HasFields() bool {
	return len(e.Fields) > 0
}

// parseError builds an Error from a response body. DRF style bodies look
// like {"email": ["already taken"], "detail": "..."}.
func parseError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = truncate(strings.TrimSpace(string(body)), maxPlainMessage)
		return apiErr
	}

	for key, value := range raw {
		msg := firstMessage(value)
		if msg == "" {
			continue
		}
		switch key {
		case "detail", "error", "message", "non_field_errors":
			apiErr.Message = msg
		default:
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string]string)
			}
			apiErr.Fields[key] = msg
		}
	}
	return apiErr
}

func firstMessage(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(value, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
