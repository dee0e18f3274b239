package station_test

import (
	"testing"
	"time"

	"github.com/latch-protocol/latch-go/pkg/bus/memory"
	"github.com/latch-protocol/latch-go/pkg/hw"
	"github.com/latch-protocol/latch-go/pkg/hw/sim"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

type keypadRig struct {
	clock   *tick.Manual
	broker  *memory.Broker
	backend *memory.Conn

	keys   *sim.Keypad
	buzzer *sim.Line

	pad *station.Keypad
}

func newKeypadRig(t *testing.T) *keypadRig {
	t.Helper()
	r := &keypadRig{
		clock:  tick.NewManual(0),
		broker: memory.NewBroker(),
		keys:   sim.NewKeypad(),
		buzzer: sim.NewLine(),
	}
	r.backend = backendConn(t, r.broker)

	pad, err := station.NewKeypad(r.broker.Connect(scope("door-pad")), station.KeypadHardware{
		Keypad: r.keys,
		Buzzer: r.buzzer,
	}, station.KeypadConfig{Protocol: testProtocol()})
	if err != nil {
		t.Fatalf("NewKeypad: %v", err)
	}
	r.pad = pad
	return r
}

// stepN runs n loop passes 100 ms apart; one queued key is consumed
// per pass.
func (r *keypadRig) stepN(n int) {
	for i := 0; i < n; i++ {
		r.pad.Update(r.clock.Now())
		r.clock.Advance(100 * time.Millisecond)
	}
}

func (r *keypadRig) enable(t *testing.T) {
	t.Helper()
	publishKeypadEnable(t, r.backend, true, r.clock.Now())
	r.stepN(1)
	if !r.pad.Enabled() {
		t.Fatal("expected keypad enabled after enable signal")
	}
}

// progress collects the pinlength values reported to the bus.
func progress(t *testing.T, conn *memory.Conn) []int {
	t.Helper()
	var out []int
	for _, msg := range drainKind(t, conn, wire.KindTapProgress) {
		out = append(out, msg.TapProgress.PinLength)
	}
	return out
}

func TestKeypadIgnoresKeysWhileDisabled(t *testing.T) {
	r := newKeypadRig(t)

	r.keys.Type("12#")
	r.stepN(3)

	if got := r.pad.BufferLen(); got != 0 {
		t.Errorf("expected empty buffer, got %d", got)
	}
	if got := progress(t, r.backend); len(got) != 0 {
		t.Errorf("disabled keypad must not publish progress, got %v", got)
	}
	if subs := drainKind(t, r.backend, wire.KindCodeSubmit); len(subs) != 0 {
		t.Errorf("disabled keypad must not submit, got %d submissions", len(subs))
	}
	if r.buzzer.Writes() != 0 {
		t.Error("disabled keypad must stay silent")
	}
}

func TestKeypadDigitsReportProgress(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("12")
	r.stepN(2)

	if got := r.pad.BufferLen(); got != 2 {
		t.Errorf("expected 2 buffered digits, got %d", got)
	}
	want := []int{1, 2}
	got := progress(t, r.backend)
	if len(got) != len(want) {
		t.Fatalf("expected progress %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected progress %v, got %v", want, got)
		}
	}
	if r.buzzer.Writes() == 0 {
		t.Error("expected tap blips for accepted digits")
	}
}

func TestKeypadBufferNeverExceedsCodeLength(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("123456")
	r.stepN(6)

	if got := r.pad.BufferLen(); got != 4 {
		t.Errorf("expected buffer capped at 4, got %d", got)
	}
	// Excess presses are complete no-ops: no blip, no progress.
	got := progress(t, r.backend)
	if len(got) != 4 || got[len(got)-1] != 4 {
		t.Errorf("expected progress for the first 4 digits only, got %v", got)
	}
}

func TestKeypadClearResetsBuffer(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("12")
	r.keys.Press(hw.KeyClear)
	r.stepN(3)

	if got := r.pad.BufferLen(); got != 0 {
		t.Errorf("expected empty buffer after clear, got %d", got)
	}
	got := progress(t, r.backend)
	if len(got) == 0 || got[len(got)-1] != 0 {
		t.Errorf("expected clear to report zero progress, got %v", got)
	}
	if !r.pad.Enabled() {
		t.Error("clear must not disable the keypad")
	}
}

func TestKeypadShortSubmitSendsNothing(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("12")
	r.keys.Press(hw.KeySubmit)
	r.stepN(3)

	if subs := drainKind(t, r.backend, wire.KindCodeSubmit); len(subs) != 0 {
		t.Fatalf("short submit must not publish a code, got %d submissions", len(subs))
	}
	if got := r.pad.BufferLen(); got != 0 {
		t.Errorf("expected buffer cleared after short submit, got %d", got)
	}
	if r.pad.Enabled() {
		t.Error("expected keypad disabled after submit")
	}
}

func TestKeypadSubmitPublishesCode(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("1234")
	r.keys.Press(hw.KeySubmit)
	r.stepN(5)

	subs := drainKind(t, r.backend, wire.KindCodeSubmit)
	if len(subs) != 1 {
		t.Fatalf("expected 1 code submission, got %d", len(subs))
	}
	if got := subs[0].CodeSubmit.Code; got != "1234" {
		t.Errorf("expected code 1234, got %q", got)
	}
	if got := subs[0].CodeSubmit.Event; got != wire.EventCodeTry {
		t.Errorf("expected event %q, got %q", wire.EventCodeTry, got)
	}
	if got := r.pad.BufferLen(); got != 0 {
		t.Errorf("expected buffer cleared after submit, got %d", got)
	}
	if r.pad.Enabled() {
		t.Error("expected keypad disabled after submit")
	}

	// Keys after the self-disable are dead.
	r.keys.Type("5")
	r.stepN(1)
	if got := r.pad.BufferLen(); got != 0 {
		t.Errorf("expected keys ignored after submit, got buffer %d", got)
	}
}

func TestKeypadDisableSignalDropsBuffer(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("12")
	r.stepN(2)
	if got := r.pad.BufferLen(); got != 2 {
		t.Fatalf("expected 2 buffered digits, got %d", got)
	}

	publishKeypadEnable(t, r.backend, false, r.clock.Now())
	r.stepN(1)

	if r.pad.Enabled() {
		t.Error("expected keypad disabled after disable signal")
	}
	if got := r.pad.BufferLen(); got != 0 {
		t.Errorf("expected buffer dropped on disable, got %d", got)
	}
}

func TestKeypadSafetyWindowExpires(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("12")
	r.stepN(2)

	// No disable signal ever arrives; the keypad disarms itself.
	r.clock.Advance(30 * time.Second)
	r.stepN(1)

	if r.pad.Enabled() {
		t.Error("expected keypad disabled after safety window expiry")
	}
	if got := r.pad.BufferLen(); got != 0 {
		t.Errorf("expected buffer dropped on expiry, got %d", got)
	}
}

func TestKeypadReEnableOpensFreshWindow(t *testing.T) {
	r := newKeypadRig(t)
	r.enable(t)

	r.keys.Type("12")
	r.stepN(2)

	// A second grant 20 s in restarts the window and drops the
	// half-entered code.
	r.clock.Advance(20 * time.Second)
	publishKeypadEnable(t, r.backend, true, r.clock.Now())
	r.stepN(1)
	if got := r.pad.BufferLen(); got != 0 {
		t.Fatalf("expected re-enable to drop the buffer, got %d", got)
	}

	// 25 s into the second window the keypad is still armed.
	r.clock.Advance(25 * time.Second)
	r.stepN(1)
	if !r.pad.Enabled() {
		t.Fatal("expected keypad still enabled inside the fresh window")
	}

	r.clock.Advance(6 * time.Second)
	r.stepN(1)
	if r.pad.Enabled() {
		t.Error("expected keypad disabled after the fresh window lapsed")
	}
}
