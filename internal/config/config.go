// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Storage StorageConfig
	Auth    AuthConfig
	Receipt ReceiptConfig
	Mail    MailConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
}

// StorageConfig selects and configures the ledger backend.
type StorageConfig struct {
	// Backend is "sqlite" or "snapshot".
	Backend string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// SnapshotDir is the directory holding the JSON collections for the
	// snapshot backend.
	SnapshotDir string
}

// AuthConfig holds session and identity-provider settings.
type AuthConfig struct {
	JWTSecret      string
	TokenDuration  time.Duration
	GoogleClientID string
}

// ReceiptConfig configures the vision model used for receipt parsing.
type ReceiptConfig struct {
	GeminiAPIKey string
	Model        string
}

// MailConfig configures summary email delivery.
type MailConfig struct {
	// Sender is "gmail" or "log".
	Sender string

	// From is the address summaries are sent from.
	From string

	// CredentialsFile points at the Gmail API service credentials.
	CredentialsFile string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultBackend         = "sqlite"
	defaultSQLitePath      = "data/smartsplit.db"
	defaultSnapshotDir     = "data"
	defaultTokenDuration   = 24 * time.Hour
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultMailSender      = "log"
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
		},
		Storage: StorageConfig{
			Backend:     valueOrDefault("STORAGE_BACKEND", defaultBackend),
			SQLitePath:  valueOrDefault("SQLITE_PATH", defaultSQLitePath),
			SnapshotDir: valueOrDefault("SNAPSHOT_DIR", defaultSnapshotDir),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			TokenDuration:  defaultTokenDuration,
			GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		},
		Receipt: ReceiptConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Model:        valueOrDefault("GEMINI_MODEL", defaultGeminiModel),
		},
		Mail: MailConfig{
			Sender:          valueOrDefault("MAIL_SENDER", defaultMailSender),
			From:            os.Getenv("MAIL_FROM"),
			CredentialsFile: os.Getenv("MAIL_CREDENTIALS_FILE"),
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.HTTP.ShutdownTimeout = d
	}

	if v := os.Getenv("JWT_TOKEN_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JWT_TOKEN_DURATION: %w", err)
		}
		cfg.Auth.TokenDuration = d
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Storage.Backend {
	case "sqlite", "snapshot":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want sqlite or snapshot)", c.Storage.Backend)
	}
	switch c.Mail.Sender {
	case "log":
	case "gmail":
		if c.Mail.From == "" {
			return fmt.Errorf("MAIL_FROM is required when MAIL_SENDER=gmail")
		}
	default:
		return fmt.Errorf("unknown MAIL_SENDER %q (want gmail or log)", c.Mail.Sender)
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
