package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// KeyError is the key for an error attribute.
	KeyError = "error"

	// KeyDal is the key for the data access layer attribute.
	KeyDal = "dal"

	// KeyUserID is the key for the chat user attribute.
	KeyUserID = "user_id"

	// KeyTicketID is the key for the ticket attribute.
	KeyTicketID = "ticket_id"

	// KeyFeature is the key for the feature attribute.
	KeyFeature = "feature"

	// KeyApp is the key for the application name attribute.
	KeyApp = "app"
)

// Name is the name of the application the logger belongs to.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// appName is attached to every record.
	appName string

	// Level is the minimum level to log at.
	Level slog.Level

	// Writer is where records are written. Defaults to stdout.
	Writer io.Writer
}

// NewConfig creates a new logger config for the given application.
func NewConfig(name Name) *Config {
	return &Config{
		appName: string(name),
		Level:   LevelFromString(os.Getenv("LOG_LEVEL")),
		Writer:  os.Stdout,
	}
}

// CommonLogger creates the JSON logger used across the application and sets it as the default.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, fmt.Errorf("logger config is nil")
	}
	if c.appName == "" {
		return nil, fmt.Errorf("logger config has no app name")
	}

	w := c.Writer
	if w == nil {
		w = os.Stdout
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     c.Level,
	})

	l := slog.New(h).With(slog.String(KeyApp, c.appName))
	slog.SetDefault(l)
	return l, nil
}

// LevelFromString parses a level name. Unknown values fall back to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
