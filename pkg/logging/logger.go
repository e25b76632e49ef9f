// Package logging wraps log/slog with the conventions the simulation
// binaries share: JSON output, a level picked from the environment, a
// per-connection session ID carried on the context, and redaction of
// credential-shaped attribute keys.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Logger is the shared structured logger for the simulation packages.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a JSON logger writing to stdout. The level comes
// from SKYWARD_LOG_LEVEL (DEBUG, INFO, WARN, ERROR); anything else
// falls back to INFO.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       levelFromEnv(os.Getenv("SKYWARD_LOG_LEVEL")),
		ReplaceAttr: redactAttr,
	})
	return &Logger{slog.New(handler)}
}

// Info logs at info level, attaching the context's session ID if set.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at error level. A non-nil err is appended as an "error"
// attribute so the message string stays stable for filtering.
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.log(ctx, slog.LevelError, msg, args...)
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if session := SessionFromContext(ctx); session != "" {
		args = append(args, "session", session)
	}
	l.Log(ctx, level, msg, args...)
}

type sessionKey struct{}

// WithSession returns a context carrying a session ID. Log entries made
// with that context include the ID, which ties a client connection's
// lifecycle together across goroutines. An empty id gets a fresh one.
func WithSession(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewSessionID()
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the context's session ID, or "" when none
// was attached.
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// NewSessionID returns a random 16-hex-character session ID.
func NewSessionID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func levelFromEnv(raw string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Attribute keys containing any of these fragments are masked before
// the entry is written. Connection handshakes never carry credentials
// today, but config structs get logged wholesale and may grow some.
var sensitiveFragments = []string{
	"password", "passwd", "pwd",
	"token", "auth",
	"secret", "private",
	"cookie", "session_key",
}

func redactAttr(groups []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(key, fragment) {
			return slog.Attr{Key: a.Key, Value: slog.StringValue("[REDACTED]")}
		}
	}
	return a
}

// Wrap annotates err with a formatted prefix, preserving the original
// error for errors.Is and errors.As.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return fmt.Errorf("%s: %w", format, err)
}
