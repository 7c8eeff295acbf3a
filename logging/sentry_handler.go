package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/getsentry/sentry-go"
)

// SentryHandler is an slog.Handler that reports ERROR+ records to Sentry.
// Attributes become event extras; "component" also becomes a tag and an
// "error" attribute holding an error becomes the event exception.
type SentryHandler struct {
	hub    *sentry.Hub
	attrs  []slog.Attr
	prefix string
}

func NewSentryHandler(hub *sentry.Hub) *SentryHandler {
	return &SentryHandler{hub: hub}
}

// Enabled only handles ERROR and above.
func (h *SentryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *SentryHandler) Handle(_ context.Context, record slog.Record) error {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Message = record.Message
	event.Timestamp = record.Time
	event.Extra = make(map[string]interface{})
	event.Tags = make(map[string]string)

	add := func(key string, a slog.Attr) {
		if err, ok := a.Value.Any().(error); ok && a.Key == "error" {
			event.Exception = append(event.Exception, sentry.Exception{
				Type:  fmt.Sprintf("%T", err),
				Value: err.Error(),
			})
			event.Extra[key] = err.Error()
			return
		}
		if key == "component" {
			event.Tags[key] = a.Value.String()
		}
		event.Extra[key] = a.Value.Any()
	}

	for _, a := range h.attrs {
		add(a.Key, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		add(h.prefix+a.Key, a)
		return true
	})

	h.hub.CaptureEvent(event)
	return nil
}

func (h *SentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	grouped := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		grouped[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}
	return &SentryHandler{hub: h.hub, attrs: append(slices.Clone(h.attrs), grouped...), prefix: h.prefix}
}

func (h *SentryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SentryHandler{hub: h.hub, attrs: h.attrs, prefix: h.prefix + name + "."}
}
