package sim

import (
	"slices"
	"sync"

	"github.com/latch-protocol/latch-go/pkg/hw"
)

// Compile-time interface satisfaction checks.
var (
	_ hw.Display      = (*Display)(nil)
	_ hw.BinaryOutput = (*Line)(nil)
	_ hw.AngleOutput  = (*Servo)(nil)
)

// Display is a character display whose contents can be inspected.
type Display struct {
	mu        sync.Mutex
	rows      []string
	backlight bool
}

// NewDisplay creates a blank display with the given number of rows.
func NewDisplay(rows int) *Display {
	return &Display{rows: make([]string, rows)}
}

// WriteLine replaces the text on the given row. Rows outside the
// display are ignored.
func (d *Display) WriteLine(row int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 0 || row >= len(d.rows) {
		return
	}
	d.rows[row] = text
}

// Clear blanks every row.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.rows {
		d.rows[i] = ""
	}
}

// SetBacklight switches the backlight.
func (d *Display) SetBacklight(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backlight = on
}

// Row returns the current text on the given row.
func (d *Display) Row(row int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 0 || row >= len(d.rows) {
		return ""
	}
	return d.rows[row]
}

// Backlight reports the backlight state.
func (d *Display) Backlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backlight
}

// Line is a binary output that records every level written to it.
type Line struct {
	mu     sync.Mutex
	on     bool
	levels []bool
}

// NewLine creates a line at the off level.
func NewLine() *Line {
	return &Line{}
}

// Set writes a level.
func (l *Line) Set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = on
	l.levels = append(l.levels, on)
}

// On reports the current level.
func (l *Line) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Levels returns every level written since creation, in order.
func (l *Line) Levels() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.levels)
}

// Writes returns the number of levels written since creation.
func (l *Line) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.levels)
}

// Servo is an angle output that records its position.
type Servo struct {
	mu    sync.Mutex
	angle int
	max   int
}

// NewServo creates a servo at angle zero with the given range.
func NewServo(max int) *Servo {
	return &Servo{max: max}
}

// SetAngle moves the servo. Out-of-range writes are clamped.
func (s *Servo) SetAngle(degrees int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if degrees < 0 {
		degrees = 0
	}
	if degrees > s.max {
		degrees = s.max
	}
	s.angle = degrees
}

// MaxAngle returns the servo's range.
func (s *Servo) MaxAngle() int {
	return s.max
}

// Angle returns the current position.
func (s *Servo) Angle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}
