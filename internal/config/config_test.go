package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_URL", "http://localhost:8000")
	t.Setenv("WS_URL", "ws://localhost:8000")
	t.Setenv("TOKEN_DB", "skillconnect.db")
	t.Setenv("TOAST_DURATION", "2s")
	t.Setenv("NOTIFICATIONS_CAP", "100")
	t.Setenv("SERVICES_TTL", "5m")
	t.Setenv("HTTP_TIMEOUT", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToastDuration != 2*time.Second {
		t.Errorf("ToastDuration = %v", cfg.ToastDuration)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("HTTPTimeout = %v, want none", cfg.HTTPTimeout)
	}
	if cfg.NotificationsCap != 100 {
		t.Errorf("NotificationsCap = %d", cfg.NotificationsCap)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "TOAST_DURATION", "soon"},
		{"zero toast", "TOAST_DURATION", "0s"},
		{"bad cap", "NOTIFICATIONS_CAP", "many"},
		{"negative cap", "NOTIFICATIONS_CAP", "-1"},
		{"relative api url", "API_URL", "/api"},
		{"http ws url", "WS_URL", "http://localhost:8000"},
		{"empty db", "TOKEN_DB", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded", tt.key, tt.val)
			}
		})
	}
}
