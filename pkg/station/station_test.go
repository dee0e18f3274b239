package station_test

import (
	"testing"
	"time"

	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/bus/memory"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

const (
	testUser = "alice"
	testSite = "garage"
)

var backendDevice = wire.DeviceInfo{ID: "auth", Platform: "test-backend"}

// testProtocol returns short windows so tests advance quickly.
func testProtocol() station.ProtocolConfig {
	return station.ProtocolConfig{
		CodeLength:     4,
		MaxResponseAge: 2 * time.Second,
		CodeWindow:     30 * time.Second,
		UnlockTime:     5 * time.Second,
		DisplayHold:    4 * time.Second,
		BacklightHold:  10 * time.Second,
	}
}

func scope(deviceID string) bus.Scope {
	return bus.Scope{User: testUser, Site: testSite, DeviceID: deviceID}
}

// backendConn attaches a test-driven auth backend to the broker. It
// observes requests and publishes decisions like the real service.
func backendConn(t *testing.T, broker *memory.Broker) *memory.Conn {
	t.Helper()
	conn := broker.Connect(scope("auth"))
	err := conn.Subscribe(
		wire.SuffixAccessRequest,
		wire.SuffixCodeSubmit,
		wire.SuffixKeypadEnable,
		wire.SuffixTap,
	)
	if err != nil {
		t.Fatalf("backend subscribe: %v", err)
	}
	return conn
}

// drainKind decodes everything in the conn's inbox and returns the
// messages matching kind, in arrival order.
func drainKind(t *testing.T, conn *memory.Conn, kind wire.Kind) []*wire.Message {
	t.Helper()
	var out []*wire.Message
	for _, d := range conn.Inbox().Drain() {
		msg, err := wire.Decode(d.Suffix, d.Payload)
		if err != nil {
			t.Fatalf("decode %s: %v", d.Suffix, err)
		}
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func publishAccessDecision(t *testing.T, conn *memory.Conn, granted bool, echo tick.Millis, sent tick.Millis) {
	t.Helper()
	payload, err := wire.Encode(backendDevice, sent, wire.AccessResponse{
		Response: wire.AccessResult{HasAccess: granted},
		EchoTS:   echo,
	})
	if err != nil {
		t.Fatalf("encode access response: %v", err)
	}
	if err := conn.Publish(wire.SuffixAccessResponse, payload); err != nil {
		t.Fatalf("publish access response: %v", err)
	}
}

func publishCodeDecision(t *testing.T, conn *memory.Conn, granted bool, sent tick.Millis) {
	t.Helper()
	payload, err := wire.Encode(backendDevice, sent, wire.CodeResponse{
		Response: wire.CodeResult{AccessGranted: granted},
	})
	if err != nil {
		t.Fatalf("encode code response: %v", err)
	}
	if err := conn.Publish(wire.SuffixCodeResponse, payload); err != nil {
		t.Fatalf("publish code response: %v", err)
	}
}

func publishTapProgress(t *testing.T, conn *memory.Conn, n int, sent tick.Millis) {
	t.Helper()
	payload, err := wire.Encode(wire.DeviceInfo{ID: "pad", Platform: "test"}, sent, wire.TapProgress{PinLength: n})
	if err != nil {
		t.Fatalf("encode tap progress: %v", err)
	}
	if err := conn.Publish(wire.SuffixTap, payload); err != nil {
		t.Fatalf("publish tap progress: %v", err)
	}
}

func publishKeypadEnable(t *testing.T, conn *memory.Conn, enabled bool, sent tick.Millis) {
	t.Helper()
	payload, err := wire.Encode(wire.DeviceInfo{ID: "front-door", Platform: "test"}, sent, wire.KeypadEnable{Enabled: enabled})
	if err != nil {
		t.Fatalf("encode keypad enable: %v", err)
	}
	if err := conn.Publish(wire.SuffixKeypadEnable, payload); err != nil {
		t.Fatalf("publish keypad enable: %v", err)
	}
}

func publishOverride(t *testing.T, conn *memory.Conn, on bool, sent tick.Millis) {
	t.Helper()
	payload, err := wire.Encode(wire.DeviceInfo{ID: "admin", Platform: "test"}, sent, wire.AdminServoControl{AdminServoControl: on})
	if err != nil {
		t.Fatalf("encode override: %v", err)
	}
	if err := conn.Publish(wire.SuffixAdminServo, payload); err != nil {
		t.Fatalf("publish override: %v", err)
	}
}
