package harness

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/latch-protocol/latch-go/pkg/authsim"
	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/bus/memory"
	"github.com/latch-protocol/latch-go/pkg/hw/sim"
	"github.com/latch-protocol/latch-go/pkg/station"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// Installation identity used by every harness cluster.
const (
	clusterUser = "alice"
	clusterSite = "garage"
)

// Pace is the simulated loop interval. One Step advances the clock by
// this much after updating every node once.
const Pace = 10 * time.Millisecond

// Cluster is a complete in-process installation: entry, keypad and
// lock stations plus the authsim backend, all attached to one memory
// broker and stepped by one manual clock.
type Cluster struct {
	Clock  *tick.Manual
	Broker *memory.Broker

	Entry  *station.Entry
	Keypad *station.Keypad
	Lock   *station.Lock
	Auth   *authsim.Engine

	Reader  *sim.Reader
	Display *sim.Display
	Motion  *sim.Motion
	Keys    *sim.Keypad
	Servo   *sim.Servo
	Dial    *sim.Dial

	admin *memory.Conn
}

// NewCluster builds an installation from a scenario's setup section.
// Setup PINs are hashed at minimum cost; scenarios test protocol
// behavior, not hash strength.
func NewCluster(setup Setup) (*Cluster, error) {
	policy := &authsim.Policy{ReplyDelayMS: setup.ReplyDelayMS}
	for _, u := range setup.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.PIN), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hash pin for %s: %w", u.UID, err)
		}
		policy.Users = append(policy.Users, authsim.User{UID: u.UID, PINHash: string(hash)})
	}

	c := &Cluster{
		Clock:   tick.NewManual(0),
		Broker:  memory.NewBroker(),
		Reader:  sim.NewReader(),
		Display: sim.NewDisplay(2),
		Motion:  sim.NewMotion(),
		Keys:    sim.NewKeypad(),
		Servo:   sim.NewServo(180),
		Dial:    sim.NewDial(1023),
	}

	protocol := station.DefaultProtocolConfig()

	entry, err := station.NewEntry(
		c.Broker.Connect(c.scope("front-door")),
		station.EntryHardware{
			Reader:  c.Reader,
			Display: c.Display,
			Motion:  c.Motion,
			Buzzer:  sim.NewLine(),
		},
		station.EntryConfig{Protocol: protocol},
	)
	if err != nil {
		return nil, fmt.Errorf("entry station: %w", err)
	}
	c.Entry = entry

	keypad, err := station.NewKeypad(
		c.Broker.Connect(c.scope("door-pad")),
		station.KeypadHardware{
			Keypad: c.Keys,
			Buzzer: sim.NewLine(),
		},
		station.KeypadConfig{Protocol: protocol},
	)
	if err != nil {
		return nil, fmt.Errorf("keypad station: %w", err)
	}
	c.Keypad = keypad

	lockCfg := station.DefaultLockConfig()
	lockCfg.Protocol = protocol
	lock, err := station.NewLock(
		c.Broker.Connect(c.scope("door-lock")),
		station.LockHardware{
			Servo:  c.Servo,
			Green:  sim.NewLine(),
			Red:    sim.NewLine(),
			Buzzer: sim.NewLine(),
			Dial:   c.Dial,
		},
		lockCfg,
	)
	if err != nil {
		return nil, fmt.Errorf("lock station: %w", err)
	}
	c.Lock = lock

	authCfg := authsim.DefaultConfig()
	authCfg.Policy = policy
	auth, err := authsim.NewEngine(c.Broker.Connect(c.scope("auth")), authCfg)
	if err != nil {
		return nil, fmt.Errorf("auth backend: %w", err)
	}
	c.Auth = auth

	c.admin = c.Broker.Connect(c.scope("admin"))
	return c, nil
}

func (c *Cluster) scope(deviceID string) bus.Scope {
	return bus.Scope{User: clusterUser, Site: clusterSite, DeviceID: deviceID}
}

// Step runs one loop pass on every node at the current tick, then
// advances the clock by Pace. Decisions published during a pass are
// seen by the other nodes on the next pass, like on a real bus.
func (c *Cluster) Step() {
	now := c.Clock.Now()
	c.Entry.Update(now)
	c.Keypad.Update(now)
	c.Lock.Update(now)
	c.Auth.Update(now)
	c.Clock.Advance(Pace)
}

// Run steps the cluster for the given span of simulated time.
func (c *Cluster) Run(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += Pace {
		c.Step()
	}
}

// PublishOverride publishes the admin override toggle.
func (c *Cluster) PublishOverride(on bool) error {
	payload, err := wire.Encode(
		wire.DeviceInfo{ID: "admin", Platform: wire.Platform},
		c.Clock.Now(),
		wire.AdminServoControl{AdminServoControl: on},
	)
	if err != nil {
		return err
	}
	return c.admin.Publish(wire.SuffixAdminServo, payload)
}
