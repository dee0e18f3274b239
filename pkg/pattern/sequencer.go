package pattern

import (
	"errors"
	"time"

	"github.com/latch-protocol/latch-go/pkg/tick"
)

// Sequencer errors.
var (
	ErrBusy         = errors.New("pattern already playing")
	ErrEmptyPattern = errors.New("pattern has no steps")
)

// Pattern is an immutable sequence of step durations, alternating
// on/off and starting with on. A trailing on step is still followed by
// the off level when playback finishes.
type Pattern []time.Duration

// Validate reports whether the pattern is playable: at least one step,
// every step strictly positive.
func (p Pattern) Validate() error {
	if len(p) == 0 {
		return ErrEmptyPattern
	}
	for _, d := range p {
		if d <= 0 {
			return errors.New("pattern step duration must be positive")
		}
	}
	return nil
}

// Repeat builds a pattern of n on/off cycles. The trailing off step is
// kept so back-to-back playback stays audible as distinct cycles.
func Repeat(on, off time.Duration, n int) Pattern {
	p := make(Pattern, 0, 2*n)
	for i := 0; i < n; i++ {
		p = append(p, on, off)
	}
	return p
}

// Output drives the sequencer's binary line. true = on.
type Output func(on bool)

// Sequencer plays one Pattern at a time on a binary output. It is owned
// by a single station loop and is not safe for concurrent use.
type Sequencer struct {
	out Output

	pat       Pattern
	step      int
	stepStart tick.Millis
	playing   bool
}

// NewSequencer creates a sequencer driving the given output.
// The output is assumed to start at the off level.
func NewSequencer(out Output) *Sequencer {
	return &Sequencer{out: out}
}

// Playing reports whether a pattern is currently active.
func (s *Sequencer) Playing() bool {
	return s.playing
}

// Start begins playback of p. It refuses with ErrBusy while another
// pattern is active; callers that want preemption call Stop first.
func (s *Sequencer) Start(now tick.Millis, p Pattern) error {
	if s.playing {
		return ErrBusy
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.pat = p
	s.step = 0
	s.stepStart = now
	s.playing = true
	s.out(true) // step 0 is always an on step
	return nil
}

// Tick advances playback. Each elapsed step toggles the output and moves
// to the next; after the last step the sequencer goes idle with the
// output off. Several steps may elapse in one pass on a slow loop.
func (s *Sequencer) Tick(now tick.Millis) {
	if !s.playing {
		return
	}

	for tick.Since(now, tick.Add(s.stepStart, s.pat[s.step])) >= 0 {
		s.stepStart = tick.Add(s.stepStart, s.pat[s.step])
		s.step++
		if s.step >= len(s.pat) {
			s.playing = false
			s.out(false)
			return
		}
		s.out(s.step%2 == 0) // even steps are on, odd are off
	}
}

// Stop forces the sequencer idle and the output off regardless of phase.
func (s *Sequencer) Stop() {
	s.playing = false
	s.out(false)
}
