package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIURL           string
	WSURL            string
	TokenDB          string
	ToastDuration    time.Duration
	NotificationsCap int
	ServicesTTL      time.Duration
	HTTPTimeout      time.Duration
	MetricsAddr      string
	DevAddr          string
}

func Load() (*Config, error) {
	toastDuration, err := time.ParseDuration(getEnv("TOAST_DURATION", "2s"))
	if err != nil {
		return nil, fmt.Errorf("TOAST_DURATION: %w", err)
	}
	servicesTTL, err := time.ParseDuration(getEnv("SERVICES_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("SERVICES_TTL: %w", err)
	}
	httpTimeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
	}
	notificationsCap, err := strconv.Atoi(getEnv("NOTIFICATIONS_CAP", "100"))
	if err != nil {
		return nil, fmt.Errorf("NOTIFICATIONS_CAP: %w", err)
	}

	cfg := &Config{
		APIURL:           getEnv("API_URL", "http://localhost:8000"),
		WSURL:            getEnv("WS_URL", "ws://localhost:8000"),
		TokenDB:          getEnv("TOKEN_DB", "skillconnect.db"),
		ToastDuration:    toastDuration,
		NotificationsCap: notificationsCap,
		ServicesTTL:      servicesTTL,
		HTTPTimeout:      httpTimeout,
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		DevAddr:          os.Getenv("DEV_ADDR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := checkURL("API_URL", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("WS_URL", c.WSURL, "ws", "wss"); err != nil {
		return err
	}

	if c.TokenDB == "" {
		return fmt.Errorf("TOKEN_DB is required")
	}

	if c.ToastDuration <= 0 {
		return fmt.Errorf("TOAST_DURATION must be greater than 0")
	}

	if c.NotificationsCap < 0 {
		return fmt.Errorf("NOTIFICATIONS_CAP must not be negative")
	}

	if c.ServicesTTL < 0 || c.HTTPTimeout < 0 {
		return fmt.Errorf("SERVICES_TTL and HTTP_TIMEOUT must not be negative")
	}

	return nil
}

func checkURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be an absolute %s URL", key, schemes[0])
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
