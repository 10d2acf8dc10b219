package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// KeyError is the key used for errors in log attributes.
	KeyError = "err"

	// KeyDal is the key used for the data access layer name.
	KeyDal = "dal"

	// KeyApp is the key used for the application name.
	KeyApp = "app"

	// KeyGuild is the key used for guild IDs.
	KeyGuild = "guild_id"

	// KeyThread is the key used for thread IDs.
	KeyThread = "thread_id"

	// KeyMember is the key used for member IDs.
	KeyMember = "member_id"

	// KeyTicketType is the key used for the ticket type.
	KeyTicketType = "ticket_type"
)

// Name is the name of the application the logger is created for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// appName is the name of the application.
	appName Name

	// level is the minimum level that is logged.
	level slog.Level

	// w is where the logs are written to.
	w io.Writer
}

// NewConfig creates a new logger configuration for the given application.
func NewConfig(appName Name) *Config {
	return &Config{
		appName: appName,
		level:   slog.LevelDebug,
		w:       os.Stdout,
	}
}

// WithLevel sets the minimum level from its name (debug, info, warn, error).
func (c *Config) WithLevel(level string) (*Config, error) {
	if level == "" {
		return c, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	c.level = lvl
	return c, nil
}

// WithWriter sets the destination of the logs.
func (c *Config) WithWriter(w io.Writer) *Config {
	c.w = w
	return c
}

// CommonLogger creates the JSON logger used across the application and sets it as the default.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, fmt.Errorf("logger config is nil")
	}
	if c.appName == "" {
		return nil, fmt.Errorf("application name is required")
	}

	h := slog.NewJSONHandler(c.w, &slog.HandlerOptions{
		AddSource: true,
		Level:     c.level,
	})

	l := slog.New(h).With(slog.String(KeyApp, string(c.appName)))
	slog.SetDefault(l)
	return l, nil
}
