package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/latch-protocol/latch-go/pkg/buslog"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	SessionID string
	Station   string
	Suffix    string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
}

// buildFilter converts the string options into a buslog filter.
func (o FilterOptions) buildFilter() (buslog.Filter, error) {
	filter := buslog.Filter{
		SessionID: o.SessionID,
		Station:   o.Station,
		Suffix:    o.Suffix,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if o.Layer != "" {
		l, err := ParseLayerFlag(o.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}

	if o.Direction != "" {
		d, err := ParseDirectionFlag(o.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}

	return filter, nil
}

// RunFilter copies the matching events into a new log file.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.buildFilter()
	if err != nil {
		return err
	}

	reader, err := buslog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := buslog.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}
