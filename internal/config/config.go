package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	APIKey   string `validate:"required"`
	APIURL   string `validate:"omitempty,url"`

	// Explicitly tracked charge point ids; empty means auto-discover.
	ChargePointIDs []string

	PollInterval time.Duration `validate:"min=1s"`
	ListenAddr   string        `validate:"required"`
	APIToken     string

	DatabaseURL string
	NatsURL     string
}

// Load builds the configuration from the environment and validates it.
// Missing credentials or a malformed base URL are fatal at startup.
func Load() (Config, error) {
	cfg := Config{
		Username:     os.Getenv("CHARGEAMPS_USERNAME"),
		Password:     os.Getenv("CHARGEAMPS_PASSWORD"),
		APIKey:       os.Getenv("CHARGEAMPS_API_KEY"),
		APIURL:       os.Getenv("CHARGEAMPS_API_URL"),
		PollInterval: parseDuration(getenv("CHARGEAMPS_POLL_INTERVAL", "30s"), 30*time.Second),
		ListenAddr:   getenv("CHARGEAMPS_LISTEN_ADDR", ":8034"),
		APIToken:     os.Getenv("CHARGEAMPS_API_TOKEN"),
		DatabaseURL:  os.Getenv("CHARGEAMPS_DATABASE_URL"),
		NatsURL:      os.Getenv("CHARGEAMPS_NATS_URL"),
	}
	if v := os.Getenv("CHARGEAMPS_CHARGEPOINTS"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.ChargePointIDs = append(cfg.ChargePointIDs, id)
			}
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func parseDuration(s string, d time.Duration) time.Duration {
	v, err := time.ParseDuration(s)
	if err != nil {
		return d
	}
	return v
}
