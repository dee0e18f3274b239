package buslog

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors events to an slog.Logger at Debug level.
// Useful during development to watch bus traffic on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
	}
	if event.Station != "" {
		attrs = append(attrs, slog.String("station", event.Station))
	}
	if event.Tick != 0 {
		attrs = append(attrs, slog.Uint64("tick", uint64(event.Tick)))
	}

	msg := "bus event"
	switch {
	case event.Frame != nil:
		msg = "frame"
		attrs = append(attrs,
			slog.String("topic", event.Frame.Topic),
			slog.Int("size", event.Frame.Size),
		)
		if event.Frame.Retained {
			attrs = append(attrs, slog.Bool("retained", true))
		}
	case event.Message != nil:
		msg = "message"
		attrs = append(attrs, slog.String("kind", event.Message.Kind))
		if event.Message.Peer != "" {
			attrs = append(attrs, slog.String("peer", event.Message.Peer))
		}
		if event.Message.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Message.Detail))
		}
	case event.StateChange != nil:
		msg = "state"
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity),
			slog.String("new", event.StateChange.NewState),
		)
		if event.StateChange.OldState != "" {
			attrs = append(attrs, slog.String("old", event.StateChange.OldState))
		}
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		msg = "error"
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
		attrs = append(attrs, slog.String("error", event.Error.Message))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
