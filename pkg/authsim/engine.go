package authsim

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// ErrInvalidConfig is wrapped by all engine configuration failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultGrantWindow is how long a phase-1 grant stays usable for
// phase-2 verification before the engine forgets it. Matches the
// stations' stock code window.
const DefaultGrantWindow = 30 * time.Second

// Config configures the backend engine.
type Config struct {
	// Policy is the decision table. Required.
	Policy *Policy

	// GrantWindow bounds how long after a credential grant a code
	// submission is still attributed to that credential.
	// Zero means DefaultGrantWindow.
	GrantWindow time.Duration

	// SessionID tags log events. Matches the bus session when both
	// come from the same process.
	SessionID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLog receives structured decision events (optional).
	EventLog buslog.Logger
}

// DefaultConfig returns a Config with stock timing. The policy must
// still be supplied.
func DefaultConfig() Config {
	return Config{
		GrantWindow: DefaultGrantWindow,
	}
}

// Validate checks the engine configuration.
func (c Config) Validate() error {
	if c.Policy == nil {
		return fmt.Errorf("%w: policy is required", ErrInvalidConfig)
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.GrantWindow < 0 {
		return fmt.Errorf("%w: grant window must not be negative", ErrInvalidConfig)
	}
	return nil
}

// pendingReply is one decision waiting out the configured delay.
// Payloads are encoded at publish time so the envelope timestamp is
// the moment the decision actually leaves.
type pendingReply struct {
	due     tick.Millis
	kind    wire.Kind
	payload any
	detail  string
}

// Engine is the backend decision loop. It remembers the last granted
// credential so a following code submission, which carries no UID of
// its own, is verified against the right PIN.
type Engine struct {
	cfg    Config
	conn   bus.Conn
	device wire.DeviceInfo
	jrn    journal
	logger *slog.Logger

	grantedUID string
	grant      tick.Session

	queue []pendingReply
}

// NewEngine creates the backend engine and subscribes it to the
// site's request suffixes.
func NewEngine(conn bus.Conn, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.GrantWindow == 0 {
		cfg.GrantWindow = DefaultGrantWindow
	}

	deviceID := conn.Scope().DeviceID
	e := &Engine{
		cfg:    cfg,
		conn:   conn,
		device: wire.DeviceInfo{ID: deviceID, Platform: wire.Platform},
		jrn:    newJournal(cfg.EventLog, cfg.SessionID, deviceID),
		logger: cfg.Logger,
	}

	if err := conn.Subscribe(wire.SuffixAccessRequest, wire.SuffixCodeSubmit); err != nil {
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}
	return e, nil
}

// GrantedUID returns the credential a code submission would currently
// be verified against, or "" when no grant is live.
func (e *Engine) GrantedUID(now tick.Millis) string {
	if !e.grant.Active(now) {
		return ""
	}
	return e.grantedUID
}

// Update runs one loop pass: drain requests, release due decisions,
// expire the grant memory.
func (e *Engine) Update(now tick.Millis) {
	for _, d := range e.conn.Inbox().Drain() {
		e.handleDelivery(now, d)
	}
	e.flush(now)

	if e.grant.Expired(now) {
		e.grant.Disarm()
		e.grantedUID = ""
		e.debugLog("grant window expired")
	}
}

func (e *Engine) handleDelivery(now tick.Millis, d bus.Delivery) {
	msg, err := wire.Decode(d.Suffix, d.Payload)
	if err != nil {
		e.debugLog("dropping undecodable message", "suffix", d.Suffix, "err", err)
		e.jrn.failure(now, "decode", err)
		return
	}

	switch msg.Kind {
	case wire.KindAccessRequest:
		e.handleAccessRequest(now, msg, d.Suffix)
	case wire.KindCodeSubmit:
		e.handleCodeSubmit(now, msg, d.Suffix)
	}
}

func (e *Engine) handleAccessRequest(now tick.Millis, msg *wire.Message, suffix string) {
	uid := NormalizeUID(msg.AccessRequest.UID)
	allowed := e.cfg.Policy.AllowUID(uid)

	if allowed {
		e.grantedUID = uid
		e.grant.Arm(now, e.cfg.GrantWindow)
	} else {
		// A denied credential clears any open grant so a stranger's
		// tag cannot ride an earlier user's window.
		e.grantedUID = ""
		e.grant.Disarm()
	}

	detail := "denied"
	if allowed {
		detail = "granted"
	}
	e.debugLog("credential decision", "uid", uid, "granted", allowed)
	e.jrn.received(now, msg, suffix, detail)
	e.enqueue(now, wire.KindAccessResponse, wire.AccessResponse{
		Response: wire.AccessResult{HasAccess: allowed},
		EchoTS:   msg.SentTS,
	}, "uid "+uid+" "+detail)
}

func (e *Engine) handleCodeSubmit(now tick.Millis, msg *wire.Message, suffix string) {
	granted := false
	if e.grantedUID != "" && e.grant.Active(now) {
		granted = e.cfg.Policy.VerifyPIN(e.grantedUID, msg.CodeSubmit.Code)
	}

	// One verification per grant, pass or fail. The stations close
	// their window on any verdict, so a retry starts from phase 1.
	e.grantedUID = ""
	e.grant.Disarm()

	detail := "denied"
	if granted {
		detail = "granted"
	}
	e.debugLog("code decision", "granted", granted)
	e.jrn.received(now, msg, suffix, detail)
	e.enqueue(now, wire.KindCodeResponse, wire.CodeResponse{
		Response: wire.CodeResult{AccessGranted: granted},
	}, detail)
}

func (e *Engine) enqueue(now tick.Millis, kind wire.Kind, payload any, detail string) {
	e.queue = append(e.queue, pendingReply{
		due:     tick.Add(now, e.cfg.Policy.ReplyDelay()),
		kind:    kind,
		payload: payload,
		detail:  detail,
	})
}

func (e *Engine) flush(now tick.Millis) {
	remaining := e.queue[:0]
	for _, p := range e.queue {
		if tick.Since(now, p.due) < 0 {
			remaining = append(remaining, p)
			continue
		}
		e.publish(now, p)
	}
	e.queue = remaining
}

func (e *Engine) publish(now tick.Millis, p pendingReply) {
	payload, err := wire.Encode(e.device, now, p.payload)
	if err != nil {
		e.jrn.failure(now, "encode", err)
		return
	}
	if err := e.conn.Publish(p.kind.Suffix(), payload); err != nil {
		e.debugLog("decision publish failed", "err", err)
		e.jrn.failure(now, "publish", err)
		return
	}
	e.jrn.sent(now, p.kind, p.detail)
}

func (e *Engine) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

// Ensure Engine runs under the station loop driver.
var _ station.Station = (*Engine)(nil)
