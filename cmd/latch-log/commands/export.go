package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/latch-protocol/latch-go/pkg/buslog"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := buslog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *buslog.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *buslog.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{"timestamp", "session_id", "station", "direction", "layer", "tick", "type", "subject", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		eventType, subject, detail := csvColumns(event)
		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Station,
			event.Direction.String(),
			event.Layer.String(),
			strconv.FormatUint(uint64(event.Tick), 10),
			eventType,
			subject,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// csvColumns flattens the event's payload into type, subject and
// detail columns.
func csvColumns(event buslog.Event) (eventType, subject, detail string) {
	switch {
	case event.Frame != nil:
		detail = fmt.Sprintf("%d bytes", event.Frame.Size)
		if event.Frame.Retained {
			detail += " retained"
		}
		return "frame", event.Frame.Topic, detail

	case event.Message != nil:
		return event.Message.Kind, event.Message.Suffix, event.Message.Detail

	case event.StateChange != nil:
		sc := event.StateChange
		detail = sc.NewState
		if sc.OldState != "" {
			detail = sc.OldState + "->" + sc.NewState
		}
		if sc.Reason != "" {
			detail += " (" + sc.Reason + ")"
		}
		return "state", sc.Entity, detail

	case event.Error != nil:
		return "error", event.Error.Context, event.Error.Message

	default:
		return "unknown", "", ""
	}
}
