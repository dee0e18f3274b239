package station_test

import (
	"testing"
	"time"

	"github.com/latch-protocol/latch-go/pkg/bus/memory"
	"github.com/latch-protocol/latch-go/pkg/hw/sim"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

type entryRig struct {
	clock   *tick.Manual
	broker  *memory.Broker
	backend *memory.Conn

	reader  *sim.Reader
	display *sim.Display
	motion  *sim.Motion
	buzzer  *sim.Line

	entry *station.Entry
}

func newEntryRig(t *testing.T) *entryRig {
	t.Helper()
	r := &entryRig{
		clock:   tick.NewManual(0),
		broker:  memory.NewBroker(),
		reader:  sim.NewReader(),
		display: sim.NewDisplay(2),
		motion:  sim.NewMotion(),
		buzzer:  sim.NewLine(),
	}
	r.backend = backendConn(t, r.broker)

	hardware := station.EntryHardware{
		Reader:  r.reader,
		Display: r.display,
		Motion:  r.motion,
		Buzzer:  r.buzzer,
	}
	entry, err := station.NewEntry(r.broker.Connect(scope("front-door")), hardware, station.EntryConfig{
		Protocol: testProtocol(),
	})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	r.entry = entry
	return r
}

func (r *entryRig) step() {
	r.entry.Update(r.clock.Now())
}

// toCodeWindow walks the rig through a granted credential handshake.
func (r *entryRig) toCodeWindow(t *testing.T) {
	t.Helper()
	r.reader.Present([]byte{0xde, 0xad, 0xbe, 0xef})
	r.step()
	reqs := drainKind(t, r.backend, wire.KindAccessRequest)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 access request, got %d", len(reqs))
	}
	r.clock.Advance(50 * time.Millisecond)
	publishAccessDecision(t, r.backend, true, reqs[0].SentTS, r.clock.Now())
	r.step()
	if got := r.entry.Phase(); got != station.PhaseCodeWindow {
		t.Fatalf("expected CODE_WINDOW after grant, got %s", got)
	}
}

func TestEntryCredentialHandshake(t *testing.T) {
	r := newEntryRig(t)

	r.reader.Present([]byte{0xde, 0xad, 0xbe, 0xef})
	r.step()

	reqs := drainKind(t, r.backend, wire.KindAccessRequest)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 access request, got %d", len(reqs))
	}
	if got := reqs[0].AccessRequest.UID; got != "deadbeef" {
		t.Errorf("expected uid deadbeef, got %q", got)
	}
	if got := reqs[0].AccessRequest.Event; got != wire.EventCredentialTry {
		t.Errorf("expected event %q, got %q", wire.EventCredentialTry, got)
	}
	if got := r.entry.Phase(); got != station.PhaseAwaitCredential {
		t.Errorf("expected AWAIT_CREDENTIAL, got %s", got)
	}
	if got := r.display.Row(0); got != "Checking tag..." {
		t.Errorf("expected checking text, got %q", got)
	}

	r.clock.Advance(50 * time.Millisecond)
	publishAccessDecision(t, r.backend, true, reqs[0].SentTS, r.clock.Now())
	r.step()

	if got := r.entry.Phase(); got != station.PhaseCodeWindow {
		t.Errorf("expected CODE_WINDOW, got %s", got)
	}
	if got := r.display.Row(0); got != "Enter code:" {
		t.Errorf("expected code prompt, got %q", got)
	}
	enables := drainKind(t, r.backend, wire.KindKeypadEnable)
	if len(enables) != 1 || !enables[0].KeypadEnable.Enabled {
		t.Fatalf("expected a keypad enable broadcast, got %v", enables)
	}
}

func TestEntryCredentialDenied(t *testing.T) {
	r := newEntryRig(t)

	r.reader.Present([]byte{0x01})
	r.step()
	reqs := drainKind(t, r.backend, wire.KindAccessRequest)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 access request, got %d", len(reqs))
	}

	publishAccessDecision(t, r.backend, false, reqs[0].SentTS, r.clock.Now())
	r.step()

	if got := r.entry.Phase(); got != station.PhaseDenied {
		t.Errorf("expected DENIED, got %s", got)
	}
	if got := r.display.Row(0); got != "Access denied" {
		t.Errorf("expected denial text, got %q", got)
	}
	if !r.buzzer.On() {
		t.Error("expected denial pattern to start on the buzzer")
	}
	if enables := drainKind(t, r.backend, wire.KindKeypadEnable); len(enables) != 0 {
		t.Errorf("denial must not enable the keypad, got %v", enables)
	}

	// The verdict holds for the display window, then the station idles.
	r.clock.Advance(4*time.Second + time.Millisecond)
	r.step()
	if got := r.entry.Phase(); got != station.PhaseIdle {
		t.Errorf("expected IDLE after display hold, got %s", got)
	}
	if got := r.display.Row(0); got != "" {
		t.Errorf("expected cleared display, got %q", got)
	}
}

func TestEntryStaleDecisionDiscarded(t *testing.T) {
	r := newEntryRig(t)

	r.reader.Present([]byte{0x02})
	r.step()
	reqs := drainKind(t, r.backend, wire.KindAccessRequest)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 access request, got %d", len(reqs))
	}

	// The grant echoes the request but arrives after max_response_age.
	r.clock.Advance(2*time.Second + 100*time.Millisecond)
	publishAccessDecision(t, r.backend, true, reqs[0].SentTS, r.clock.Now())
	r.step()

	if got := r.entry.Phase(); got != station.PhaseIdle {
		t.Errorf("expected IDLE after stale grant and window expiry, got %s", got)
	}
	if enables := drainKind(t, r.backend, wire.KindKeypadEnable); len(enables) != 0 {
		t.Errorf("stale grant must not enable the keypad, got %v", enables)
	}
}

func TestEntryFutureEchoDiscarded(t *testing.T) {
	r := newEntryRig(t)

	r.reader.Present([]byte{0x03})
	r.step()
	if _, ok := firstDelivery(t, r.backend, wire.KindAccessRequest); !ok {
		t.Fatal("expected an access request")
	}

	// An echo ahead of the local clock cannot belong to this request.
	r.clock.Advance(100 * time.Millisecond)
	publishAccessDecision(t, r.backend, true, tick.Millis(500), r.clock.Now())
	r.step()

	if got := r.entry.Phase(); got != station.PhaseAwaitCredential {
		t.Errorf("expected AWAIT_CREDENTIAL after dropped future echo, got %s", got)
	}

	// A plausible decision for the same request still lands.
	publishAccessDecision(t, r.backend, true, 0, r.clock.Now())
	r.step()
	if got := r.entry.Phase(); got != station.PhaseCodeWindow {
		t.Errorf("expected CODE_WINDOW after valid grant, got %s", got)
	}
}

func TestEntryResponseTimeout(t *testing.T) {
	r := newEntryRig(t)

	r.reader.Present([]byte{0x04})
	r.step()
	if got := r.entry.Phase(); got != station.PhaseAwaitCredential {
		t.Fatalf("expected AWAIT_CREDENTIAL, got %s", got)
	}

	r.clock.Advance(2*time.Second + time.Millisecond)
	r.step()

	if got := r.entry.Phase(); got != station.PhaseIdle {
		t.Errorf("expected IDLE after response timeout, got %s", got)
	}
	if got := r.display.Row(0); got != "" {
		t.Errorf("expected cleared display, got %q", got)
	}
}

func TestEntryCodeOutcomes(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		r := newEntryRig(t)
		r.toCodeWindow(t)
		drainKind(t, r.backend, wire.KindKeypadEnable)

		publishCodeDecision(t, r.backend, true, r.clock.Now())
		r.step()

		if got := r.entry.Phase(); got != station.PhaseGranted {
			t.Errorf("expected GRANTED, got %s", got)
		}
		if got := r.display.Row(0); got != "Access granted" {
			t.Errorf("expected grant text, got %q", got)
		}
		enables := drainKind(t, r.backend, wire.KindKeypadEnable)
		if len(enables) != 1 || enables[0].KeypadEnable.Enabled {
			t.Fatalf("expected a keypad disable broadcast, got %v", enables)
		}

		r.clock.Advance(4*time.Second + time.Millisecond)
		r.step()
		if got := r.entry.Phase(); got != station.PhaseIdle {
			t.Errorf("expected IDLE after display hold, got %s", got)
		}
	})

	t.Run("denied", func(t *testing.T) {
		r := newEntryRig(t)
		r.toCodeWindow(t)
		drainKind(t, r.backend, wire.KindKeypadEnable)

		publishCodeDecision(t, r.backend, false, r.clock.Now())
		r.step()

		if got := r.entry.Phase(); got != station.PhaseDenied {
			t.Errorf("expected DENIED, got %s", got)
		}
		if got := r.display.Row(0); got != "Access denied" {
			t.Errorf("expected denial text, got %q", got)
		}
		enables := drainKind(t, r.backend, wire.KindKeypadEnable)
		if len(enables) != 1 || enables[0].KeypadEnable.Enabled {
			t.Fatalf("expected a keypad disable broadcast, got %v", enables)
		}
	})
}

func TestEntryOutOfPhaseDecisionsIgnored(t *testing.T) {
	r := newEntryRig(t)

	// Idle: neither decision kind moves the station.
	publishAccessDecision(t, r.backend, true, r.clock.Now(), r.clock.Now())
	publishCodeDecision(t, r.backend, true, r.clock.Now())
	r.step()
	if got := r.entry.Phase(); got != station.PhaseIdle {
		t.Errorf("expected IDLE, got %s", got)
	}
	if enables := drainKind(t, r.backend, wire.KindKeypadEnable); len(enables) != 0 {
		t.Errorf("out-of-phase decisions must not enable the keypad, got %v", enables)
	}

	// Mid-handshake: a second token is dropped without a new request.
	r.toCodeWindow(t)
	drainKind(t, r.backend, wire.KindAccessRequest)
	r.reader.Present([]byte{0x05})
	r.step()
	if reqs := drainKind(t, r.backend, wire.KindAccessRequest); len(reqs) != 0 {
		t.Errorf("mid-handshake token must not start a new request, got %d", len(reqs))
	}
}

func TestEntryTapProgressMirrored(t *testing.T) {
	r := newEntryRig(t)
	r.toCodeWindow(t)

	publishTapProgress(t, r.backend, 2, r.clock.Now())
	r.step()
	if got := r.display.Row(1); got != "**" {
		t.Errorf("expected 2 mask characters, got %q", got)
	}

	// Progress beyond the code length renders clamped.
	publishTapProgress(t, r.backend, 9, r.clock.Now())
	r.step()
	if got := r.display.Row(1); got != "****" {
		t.Errorf("expected clamped mask, got %q", got)
	}

	publishTapProgress(t, r.backend, 0, r.clock.Now())
	r.step()
	if got := r.display.Row(1); got != "" {
		t.Errorf("expected empty mask, got %q", got)
	}
}

func TestEntryCodeWindowExpiry(t *testing.T) {
	r := newEntryRig(t)
	r.toCodeWindow(t)
	drainKind(t, r.backend, wire.KindKeypadEnable)

	r.clock.Advance(30*time.Second + time.Millisecond)
	r.step()

	if got := r.entry.Phase(); got != station.PhaseIdle {
		t.Errorf("expected IDLE after code window expiry, got %s", got)
	}
	enables := drainKind(t, r.backend, wire.KindKeypadEnable)
	if len(enables) != 1 || enables[0].KeypadEnable.Enabled {
		t.Fatalf("expiry must broadcast a keypad disable, got %v", enables)
	}
}

func TestEntryBacklightFollowsMotion(t *testing.T) {
	r := newEntryRig(t)

	r.step()
	if r.display.Backlight() {
		t.Fatal("backlight must start off")
	}

	r.motion.SetPresent(true)
	r.step()
	if !r.display.Backlight() {
		t.Fatal("expected backlight on while motion is present")
	}

	// Continued motion keeps extending the hold.
	r.clock.Advance(8 * time.Second)
	r.step()
	r.motion.SetPresent(false)
	r.clock.Advance(8 * time.Second)
	r.step()
	if !r.display.Backlight() {
		t.Error("expected backlight still on inside the extended hold")
	}

	r.clock.Advance(2*time.Second + time.Millisecond)
	r.step()
	if r.display.Backlight() {
		t.Error("expected backlight off after the hold lapsed")
	}
}

func TestEntryHandshakeAcrossWraparound(t *testing.T) {
	r := newEntryRig(t)
	r.clock.Set(tick.Millis(0xFFFFFF00))

	r.reader.Present([]byte{0x06})
	r.step()
	reqs := drainKind(t, r.backend, wire.KindAccessRequest)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 access request, got %d", len(reqs))
	}

	// 300 ms later the counter has wrapped past zero; the echoed
	// timestamp from before the wrap still reads as fresh.
	r.clock.Advance(300 * time.Millisecond)
	publishAccessDecision(t, r.backend, true, reqs[0].SentTS, r.clock.Now())
	r.step()

	if got := r.entry.Phase(); got != station.PhaseCodeWindow {
		t.Errorf("expected CODE_WINDOW across counter wrap, got %s", got)
	}
}

// firstDelivery drains the conn and returns the first message of kind.
func firstDelivery(t *testing.T, conn *memory.Conn, kind wire.Kind) (*wire.Message, bool) {
	t.Helper()
	msgs := drainKind(t, conn, kind)
	if len(msgs) == 0 {
		return nil, false
	}
	return msgs[0], true
}
