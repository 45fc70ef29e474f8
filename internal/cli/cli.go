// Package cli holds the environment configuration and logger setup shared by
// the binaries in this module.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/lmittmann/tint"
)

// Config is read from the environment.
type Config struct {
	// LogLevel is one of debug, info, warn, error. ENV: ACP_LOG_LEVEL
	LogLevel string `env:"ACP_LOG_LEVEL,default=info"`
	// LogFormat is "text" for colourised human output or "json". ENV: ACP_LOG_FORMAT
	LogFormat string `env:"ACP_LOG_FORMAT,default=text"`
	// NoColor disables ANSI colours in text output. ENV: NO_COLOR
	NoColor bool `env:"NO_COLOR"`
	// Transport selects how the binary talks to its peer: "stdio" or
	// "redis". ENV: ACP_TRANSPORT
	Transport string `env:"ACP_TRANSPORT,default=stdio"`
	// Channel names the Redis stream pair when Transport is "redis".
	// ENV: ACP_CHANNEL
	Channel string `env:"ACP_CHANNEL"`
}

// ConfigFromEnv populates a Config from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("cli: decode env: %w", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Transport == "" {
		cfg.Transport = "stdio"
	}
	switch cfg.Transport {
	case "stdio", "redis":
	default:
		return Config{}, fmt.Errorf("cli: unknown transport %q", cfg.Transport)
	}
	return cfg, nil
}

// Logger builds a logger writing to w. Binaries speaking ACP over stdio must
// pass os.Stderr so log lines never mix with protocol frames.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("cli: log level: %w", err)
	}

	switch strings.ToLower(c.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "text", "":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    c.NoColor,
		})), nil
	default:
		return nil, fmt.Errorf("cli: unknown log format %q", c.LogFormat)
	}
}
