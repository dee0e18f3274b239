package bootstrap

import (
	"context"
	"log/slog"
	"testing"
)

func TestResolveBrokerURLPrefersConfigured(t *testing.T) {
	got := ResolveBrokerURL(context.Background(), "tcp://broker.example:1883", nil)
	if got != "tcp://broker.example:1883" {
		t.Errorf("ResolveBrokerURL() = %q, want configured URL", got)
	}
}

func TestResolveBrokerURLFallsBack(t *testing.T) {
	// An expired context skips the browse wait entirely.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := ResolveBrokerURL(ctx, "", nil)
	if got != FallbackBrokerURL {
		t.Errorf("ResolveBrokerURL() = %q, want %q", got, FallbackBrokerURL)
	}
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	logger := NewLogger(slog.LevelWarn)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled on a warn-level logger")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn disabled on a warn-level logger")
	}
}
