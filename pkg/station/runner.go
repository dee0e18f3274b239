package station

import (
	"context"
	"time"

	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/tick"
)

// DefaultTickInterval is the idle pacing of the station loop. Bus
// traffic wakes the loop early, so the interval only bounds how late a
// timer or sensor poll can fire.
const DefaultTickInterval = 10 * time.Millisecond

// Station is the per-pass update contract the Runner drives: one call
// drains bus traffic, polls hardware and advances timers.
type Station interface {
	Update(now tick.Millis)
}

// Runner drives a station's single-threaded loop. All station
// mutation happens inside Update calls made from one goroutine, which
// is what lets the state machines run lock-free.
type Runner struct {
	station  Station
	clock    tick.Clock
	inbox    *bus.Inbox
	interval time.Duration
}

// NewRunner creates a runner for the given station. The inbox is used
// only as a wake source; the station itself drains it.
func NewRunner(station Station, clock tick.Clock, inbox *bus.Inbox) *Runner {
	return &Runner{
		station:  station,
		clock:    clock,
		inbox:    inbox,
		interval: DefaultTickInterval,
	}
}

// SetInterval overrides the idle pacing. Must be called before Run.
func (r *Runner) SetInterval(d time.Duration) {
	if d > 0 {
		r.interval = d
	}
}

// Run executes loop passes until the context is cancelled. It always
// runs one pass before the first wait, so a station reaches a defined
// state immediately.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.station.Update(r.clock.Now())

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-r.inbox.Wake():
		}
	}
}
