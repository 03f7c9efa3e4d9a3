// Package logging builds the slog logger used across the bot.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"schedule_bot/internal/models"
)

type contextKey int

const (
	scopeKey contextKey = iota
	commandKey
)

// New returns a logger writing text or json records at level to w. Records
// logged with a context carry the scope and command stored by WithScope and
// WithCommand.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewContextHandler(h))
}

func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func WithScope(ctx context.Context, s models.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey, name)
}

// ContextHandler adds values from the context.Context to the slog.Record.
// Not every log call happens while an event is handled, so missing keys are fine.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if s, ok := ctx.Value(scopeKey).(models.Scope); ok {
		r.AddAttrs(slog.String("scope", string(s.Kind)), slog.String("user_id", s.UserID))
		if s.GroupID != "" {
			r.AddAttrs(slog.String("group_id", s.GroupID))
		}
	}
	if c, ok := ctx.Value(commandKey).(string); ok {
		r.AddAttrs(slog.String("command", c))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.Handler.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return NewContextHandler(h.Handler.WithGroup(name))
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
