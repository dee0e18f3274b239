// Package commands implements the latch-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/latch-protocol/latch-go/pkg/buslog"
)

// RunView streams matching events from the log file to output in
// human-readable form.
func RunView(path string, filter buslog.Filter, output io.Writer) error {
	reader, err := buslog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event buslog.Event) {
	// Header line: timestamp [station] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [%s] %-5s %-7s %s\n",
		ts, event.Station, event.Direction, event.Layer, typeLabel(event))

	if event.Tick != 0 {
		fmt.Fprintf(w, "  Tick: %d\n", event.Tick)
	}

	// Type-specific details
	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel returns the header label for the event's payload type.
func typeLabel(event buslog.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		return event.Message.Kind
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatFrameDetails writes frame-specific details.
func formatFrameDetails(w io.Writer, frame *buslog.FrameEvent) {
	fmt.Fprintf(w, "  Topic: %s\n", frame.Topic)
	fmt.Fprintf(w, "  Size: %d bytes", frame.Size)
	if frame.Retained {
		fmt.Fprint(w, " (retained)")
	}
	fmt.Fprintln(w)
}

// formatMessageDetails writes decoded-message details.
func formatMessageDetails(w io.Writer, msg *buslog.MessageEvent) {
	if msg.Suffix != "" {
		fmt.Fprintf(w, "  Suffix: %s\n", msg.Suffix)
	}
	if msg.Peer != "" {
		fmt.Fprintf(w, "  Peer: %s\n", msg.Peer)
	}
	if msg.SentTS != 0 {
		fmt.Fprintf(w, "  SentTS: %d\n", msg.SentTS)
	}
	if msg.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", msg.Detail)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *buslog.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, e *buslog.ErrorEventData) {
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
}

// ParseLayerFlag parses a layer string from a command-line flag
// (case-insensitive).
func ParseLayerFlag(s string) (buslog.Layer, error) {
	switch strings.ToLower(s) {
	case "bus":
		return buslog.LayerBus, nil
	case "message":
		return buslog.LayerMessage, nil
	case "station":
		return buslog.LayerStation, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be bus, message, or station)", s)
	}
}

// ParseDirectionFlag parses a direction string from a command-line
// flag (case-insensitive).
func ParseDirectionFlag(s string) (buslog.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return buslog.DirectionIn, nil
	case "out":
		return buslog.DirectionOut, nil
	case "local":
		return buslog.DirectionLocal, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in, out, or local)", s)
	}
}
