package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/latch-protocol/latch-go/pkg/buslog"
)

func TestStatsCountsByLayer(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, Layer: buslog.LayerBus},
		{Timestamp: ts, Layer: buslog.LayerBus},
		{Timestamp: ts, Layer: buslog.LayerMessage},
		{Timestamp: ts, Layer: buslog.LayerStation},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check layer counts
	if !strings.Contains(output, "BUS:") {
		t.Error("expected BUS layer in output")
	}
	if !strings.Contains(output, "MESSAGE:") {
		t.Error("expected MESSAGE layer in output")
	}
	if !strings.Contains(output, "STATION:") {
		t.Error("expected STATION layer in output")
	}
}

func TestStatsCountsByDirection(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, Direction: buslog.DirectionIn},
		{Timestamp: ts, Direction: buslog.DirectionOut},
		{Timestamp: ts, Direction: buslog.DirectionLocal},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "IN:") {
		t.Error("expected IN direction in output")
	}
	if !strings.Contains(output, "OUT:") {
		t.Error("expected OUT direction in output")
	}
	if !strings.Contains(output, "LOCAL:") {
		t.Error("expected LOCAL direction in output")
	}
}

func TestStatsCountsSessions(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, SessionID: "sess-aaaa-bbbb", Station: "front-door"},
		{Timestamp: ts.Add(time.Second), SessionID: "sess-aaaa-bbbb", Station: "front-door"},
		{Timestamp: ts, SessionID: "sess-cccc-dddd", Station: "door-lock"},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check session count
	if !strings.Contains(output, "Sessions: 2") {
		t.Errorf("expected 2 sessions in output, got:\n%s", output)
	}

	// Check session details (shortened ID + station)
	if !strings.Contains(output, "[sess-aaa]") {
		t.Error("expected sess-aaaa session details")
	}
	if !strings.Contains(output, "Station: front-door") {
		t.Error("expected station name in session details")
	}
}

func TestStatsTotalEvents(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts},
		{Timestamp: ts},
		{Timestamp: ts},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Total Events: 3") {
		t.Errorf("expected 3 total events in output, got:\n%s", output)
	}
}

func TestStatsTimeRange(t *testing.T) {
	start := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 3, 11, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: start},
		{Timestamp: end},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Duration:") {
		t.Error("expected Duration in output")
	}
	if !strings.Contains(output, "1h0m0s") {
		t.Errorf("expected 1h0m0s duration in output, got:\n%s", output)
	}
}

func TestStatsMessagesByKind(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts, Layer: buslog.LayerMessage, Message: &buslog.MessageEvent{Kind: "ACCESS_REQUEST"}},
		{Timestamp: ts, Layer: buslog.LayerMessage, Message: &buslog.MessageEvent{Kind: "ACCESS_REQUEST"}},
		{Timestamp: ts, Layer: buslog.LayerMessage, Message: &buslog.MessageEvent{Kind: "CODE_SUBMIT"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "ACCESS_REQUEST:") {
		t.Error("expected ACCESS_REQUEST kind in output")
	}
	if !strings.Contains(output, "CODE_SUBMIT:") {
		t.Error("expected CODE_SUBMIT kind in output")
	}
}

func TestStatsErrorCount(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []buslog.Event{
		{Timestamp: ts},
		{Timestamp: ts, Error: &buslog.ErrorEventData{Message: "error 1"}},
		{Timestamp: ts, Error: &buslog.ErrorEventData{Message: "error 2"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Errors: 2") {
		t.Errorf("expected 2 errors in output, got:\n%s", output)
	}
}
