package logging

import (
	"context"
	"log/slog"
	"strings"
)

// FilterHandler overrides the minimum level per logger name.
// Names are dotted ("svc.authsvc.auth_service"); the most specific configured prefix wins.
type FilterHandler struct {
	h      slog.Handler
	levels map[string]slog.Level
	name   string
}

var _ slog.Handler = (*FilterHandler)(nil)

// NewFilterHandler wraps h. It returns h unchanged when no levels are configured.
func NewFilterHandler(h slog.Handler, levels map[string]slog.Level) Handler {
	if len(levels) == 0 {
		return h
	}

	return &FilterHandler{h: h, levels: levels}
}

func (h *FilterHandler) level() (slog.Level, bool) {
	parts := strings.Split(h.name, ".")

	for i := len(parts); i > 0; i-- {
		if level, ok := h.levels[strings.Join(parts[:i], ".")]; ok {
			return level, true
		}
	}

	level, ok := h.levels[""]

	return level, ok
}

// Enabled implements slog.Handler.Enabled.
func (h *FilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if minLevel, ok := h.level(); ok {
		return level >= minLevel
	}

	return h.h.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *FilterHandler) Handle(ctx context.Context, r slog.Record) error {
	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs and remembers the logger name.
func (h *FilterHandler) WithAttrs(attrs []slog.Attr) Handler {
	name := h.name

	for _, attr := range attrs {
		if attr.Key == loggerNameKey {
			name = attr.Value.String()
		}
	}

	return &FilterHandler{h: h.h.WithAttrs(attrs), levels: h.levels, name: name}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *FilterHandler) WithGroup(name string) Handler {
	return &FilterHandler{h: h.h.WithGroup(name), levels: h.levels, name: h.name}
}
