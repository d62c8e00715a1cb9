package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes core events to an slog.Logger. Useful during
// development when you want to see discovery/fetch/dispatch activity on
// the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.StatusCode != nil {
		attrs = append(attrs, slog.Int("status", int(*event.StatusCode)))
	}
	for k, v := range event.Fields {
		attrs = append(attrs, slog.String(k, v))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, event.Message, attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
