package server

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds the transport-layer settings, loaded from the process
// environment (a local .env file is honored if present).
type Config struct {
	BindAddr        string        `env:"TRANSCRIPT_BIND_ADDR"`
	ReadTimeout     time.Duration `env:"TRANSCRIPT_READ_TIMEOUT"`
	WriteTimeout    time.Duration `env:"TRANSCRIPT_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `env:"TRANSCRIPT_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"TRANSCRIPT_SHUTDOWN_TIMEOUT"`
	// AllowedOrigin restricts WebSocket upgrades; empty allows any origin
	// (development default).
	AllowedOrigin string `env:"TRANSCRIPT_ALLOWED_ORIGIN"`
}

// Defaults returns the server configuration defaults.
func Defaults() *Config {
	return &Config{
		BindAddr:        "127.0.0.1:8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// FromEnv loads the configuration, starting from defaults and overlaying
// .env and process environment values.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
