package commands

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/latch-protocol/latch-go/pkg/buslog"
)

func TestFilterBySessionID(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 32, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, SessionID: "sess-1", Layer: buslog.LayerMessage},
		{Timestamp: ts, SessionID: "sess-2", Layer: buslog.LayerMessage},
		{Timestamp: ts, SessionID: "sess-1", Layer: buslog.LayerMessage},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.blog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		SessionID: "sess-1",
	}, io.Discard)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// Verify output
	reader, err := buslog.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.SessionID != "sess-1" {
			t.Errorf("expected sess-1, got %s", event.SessionID)
		}
		count++
	}

	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: base, SessionID: "sess-1", Layer: buslog.LayerMessage},
		{Timestamp: base.Add(time.Hour), SessionID: "sess-1", Layer: buslog.LayerMessage},
		{Timestamp: base.Add(2 * time.Hour), SessionID: "sess-1", Layer: buslog.LayerMessage},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.blog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: base.Add(30 * time.Minute).Format(time.RFC3339),
		TimeEnd:   base.Add(90 * time.Minute).Format(time.RFC3339),
	}, io.Discard)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// Only the middle event falls inside the window
	reader, err := buslog.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		count++
	}

	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestFilterCommandByLayer(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, Layer: buslog.LayerBus},
		{Timestamp: ts, Layer: buslog.LayerMessage},
		{Timestamp: ts, Layer: buslog.LayerStation},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.blog")

	err := RunFilter(path, FilterOptions{
		Output: outPath,
		Layer:  "message",
	}, io.Discard)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := buslog.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.Layer != buslog.LayerMessage {
			t.Errorf("expected message layer, got %v", event.Layer)
		}
		count++
	}

	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestFilterBySuffix(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, Layer: buslog.LayerMessage, Message: &buslog.MessageEvent{Kind: "ACCESS_REQUEST", Suffix: "access/request"}},
		{Timestamp: ts, Layer: buslog.LayerMessage, Message: &buslog.MessageEvent{Kind: "STATUS", Suffix: "status"}},
		{Timestamp: ts, Layer: buslog.LayerBus, Frame: &buslog.FrameEvent{Topic: "alice/garage/front-door/access/request", Size: 30}},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.blog")

	err := RunFilter(path, FilterOptions{
		Output: outPath,
		Suffix: "access/request",
	}, io.Discard)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// Frame events carry no suffix and are excluded
	reader, err := buslog.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.Message == nil || event.Message.Suffix != "access/request" {
			t.Errorf("expected access/request message, got %+v", event)
		}
		count++
	}

	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestFilterReportsCount(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, Station: "front-door", Layer: buslog.LayerMessage},
		{Timestamp: ts, Station: "door-lock", Layer: buslog.LayerMessage},
		{Timestamp: ts, Station: "front-door", Layer: buslog.LayerMessage},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.blog")

	var buf bytes.Buffer
	err := RunFilter(path, FilterOptions{
		Output:  outPath,
		Station: "front-door",
	}, &buf)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Filtered 2 events to") {
		t.Errorf("expected count summary, got: %s", buf.String())
	}
}

func TestFilterOutputReadable(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, SessionID: "sess-1", Layer: buslog.LayerMessage},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.blog")

	err := RunFilter(path, FilterOptions{
		Output: outPath,
	}, io.Discard)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// The output must be a valid log file in its own right
	reader, err := buslog.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if event.SessionID != "sess-1" {
		t.Errorf("expected sess-1, got %s", event.SessionID)
	}
}

func TestFilterInvalidTimeFormat(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, Layer: buslog.LayerMessage},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.blog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: "yesterday",
	}, io.Discard)
	if err == nil {
		t.Error("expected error for invalid time format")
	}
	if !strings.Contains(err.Error(), "invalid time-start format") {
		t.Errorf("expected time format error, got: %v", err)
	}
}
