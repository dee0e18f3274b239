// Package console implements the interactive operator loop for
// latch-admin.
package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/discovery"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// browseWait bounds the stations command's mDNS browse.
const browseWait = 3 * time.Second

// presence is one station's last seen status record.
type presence struct {
	Role   string
	Status string
}

// Console is the operator command loop. It shares the process's bus
// session: commands publish on it and a background drain prints the
// site traffic the session is subscribed to.
type Console struct {
	conn   *bus.MQTTConn
	clock  tick.Clock
	device wire.DeviceInfo
	rl     *readline.Instance

	watching atomic.Bool

	// override mirrors the last commanded override state. Only the
	// command loop touches it.
	override bool

	mu       sync.Mutex
	stations map[string]presence
}

// New creates the console on an established bus session and subscribes
// it to the site's traffic.
func New(conn *bus.MQTTConn, clock tick.Clock) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "latch> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{
		conn:     conn,
		clock:    clock,
		device:   wire.DeviceInfo{ID: conn.Scope().DeviceID, Platform: wire.Platform},
		rl:       rl,
		stations: make(map[string]presence),
	}

	suffixes := wire.StationSuffixes(
		wire.KindAccessRequest,
		wire.KindAccessResponse,
		wire.KindCodeSubmit,
		wire.KindCodeResponse,
		wire.KindTapProgress,
		wire.KindKeypadEnable,
		wire.KindAdminServoControl,
		wire.KindStatus,
	)
	if err := conn.Subscribe(suffixes...); err != nil {
		rl.Close()
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}
	return c, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Route log output through it so prints do not clobber the input line.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the command loop. It returns when the operator quits or
// the context is cancelled.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	go c.drain(ctx)

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "override", "o":
			c.cmdOverride(args)

		case "watch", "w":
			c.cmdWatch(args)

		case "who":
			c.cmdWho()

		case "stations":
			c.cmdStations()

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
LATCH Admin Commands:
  Control:
    override on|off  - Hand the lock servo to its dial / give it back

  Monitoring:
    watch [on|off]   - Print site traffic as it happens
    who              - List stations from their presence records
    stations         - Browse the site via mDNS
    status           - Show console status

  General:
    help             - Show this help
    quit             - Exit console`)
}

// cmdOverride publishes the lock override toggle.
func (c *Console) cmdOverride(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: override on|off")
		return
	}

	var on bool
	switch strings.ToLower(args[0]) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		fmt.Fprintln(c.rl.Stdout(), "Usage: override on|off")
		return
	}

	payload, err := wire.Encode(c.device, c.clock.Now(), wire.AdminServoControl{AdminServoControl: on})
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Encode failed: %v\n", err)
		return
	}
	if err := c.conn.Publish(wire.SuffixAdminServo, payload); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Publish failed: %v\n", err)
		return
	}

	c.override = on
	if on {
		fmt.Fprintln(c.rl.Stdout(), "Override ON: the lock follows its dial until released")
	} else {
		fmt.Fprintln(c.rl.Stdout(), "Override OFF: the lock relocks and resumes normal operation")
	}
}

// cmdWatch toggles live traffic printing.
func (c *Console) cmdWatch(args []string) {
	want := !c.watching.Load()
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			want = true
		case "off":
			want = false
		default:
			fmt.Fprintln(c.rl.Stdout(), "Usage: watch [on|off]")
			return
		}
	}

	c.watching.Store(want)
	if want {
		fmt.Fprintln(c.rl.Stdout(), "Watching site traffic ('watch off' to stop)")
	} else {
		fmt.Fprintln(c.rl.Stdout(), "Watch stopped")
	}
}

// cmdWho lists the stations whose presence records this session has
// seen. Retained records replay on connect, so the list fills without
// waiting for traffic.
func (c *Console) cmdWho() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.stations))
	for id := range c.stations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]presence, len(ids))
	for i, id := range ids {
		entries[i] = c.stations[id]
	}
	c.mu.Unlock()

	if len(ids) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No presence records seen yet")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "\nStations (%d):\n", len(ids))
	for i, id := range ids {
		fmt.Fprintf(c.rl.Stdout(), "  %-20s role=%-7s %s\n", id, entries[i].Role, entries[i].Status)
	}
	fmt.Fprintln(c.rl.Stdout())
}

// cmdStations browses the local network for stations advertising this
// site.
func (c *Console) cmdStations() {
	browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "mDNS unavailable: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), browseWait)
	defer cancel()

	site := c.conn.Scope().Site
	found, err := browser.BrowseStations(ctx, site)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Browse failed: %v\n", err)
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "Browsing site %q for %s...\n", site, browseWait)

	seen := make(map[string]bool)
	for svc := range found {
		if seen[svc.InstanceName] {
			continue
		}
		seen[svc.InstanceName] = true
		line := fmt.Sprintf("  %-24s role=%-7s device=%s", svc.InstanceName, svc.Role, svc.DeviceID)
		if svc.Firmware != "" {
			line += " fw=" + svc.Firmware
		}
		fmt.Fprintln(c.rl.Stdout(), line)
	}

	if len(seen) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No stations found")
	}
}

// cmdStatus shows the console's session state.
func (c *Console) cmdStatus() {
	scope := c.conn.Scope()
	connected := "disconnected"
	if c.conn.Connected() {
		connected = "connected"
	}

	fmt.Fprintln(c.rl.Stdout(), "\nConsole Status")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  Scope:    %s/%s/%s\n", scope.User, scope.Site, scope.DeviceID)
	fmt.Fprintf(c.rl.Stdout(), "  Session:  %s\n", c.conn.SessionID())
	fmt.Fprintf(c.rl.Stdout(), "  Broker:   %s\n", connected)
	fmt.Fprintf(c.rl.Stdout(), "  Override: %s\n", onOff(c.override))
	fmt.Fprintf(c.rl.Stdout(), "  Watch:    %s\n", onOff(c.watching.Load()))
	if dropped := c.conn.Inbox().Dropped(); dropped > 0 {
		fmt.Fprintf(c.rl.Stdout(), "  Dropped:  %d deliveries\n", dropped)
	}
	fmt.Fprintln(c.rl.Stdout())
}

// drain empties the session inbox continuously so retained presence is
// tracked and watch mode has traffic to print.
func (c *Console) drain(ctx context.Context) {
	inbox := c.conn.Inbox()
	for {
		select {
		case <-ctx.Done():
			return
		case <-inbox.Wake():
		}
		for _, d := range inbox.Drain() {
			c.handleDelivery(d)
		}
	}
}

func (c *Console) handleDelivery(d bus.Delivery) {
	msg, err := wire.Decode(d.Suffix, d.Payload)
	if err != nil {
		if c.watching.Load() {
			fmt.Fprintf(c.rl.Stdout(), "[BUS] %s: undecodable: %v\n", d.Topic, err)
			c.rl.Refresh()
		}
		return
	}

	if msg.Kind == wire.KindStatus && msg.Status != nil {
		c.mu.Lock()
		c.stations[d.DeviceID] = presence{Role: msg.Status.Role, Status: msg.Status.Status}
		c.mu.Unlock()
	}

	if !c.watching.Load() {
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "[BUS] %-20s %-19s %s\n", d.DeviceID, msg.Kind, describe(d, msg))
	c.rl.Refresh()
}

// describe renders the payload for watch output. Submitted codes are
// masked; an operator console must not echo PINs.
func describe(d bus.Delivery, msg *wire.Message) string {
	switch msg.Kind {
	case wire.KindAccessRequest:
		return "uid=" + msg.AccessRequest.UID
	case wire.KindAccessResponse:
		return fmt.Sprintf("has_access=%t echo_ts=%d", msg.AccessResponse.Response.HasAccess, msg.AccessResponse.EchoTS)
	case wire.KindCodeSubmit:
		return "code=" + strings.Repeat("*", len(msg.CodeSubmit.Code))
	case wire.KindCodeResponse:
		return fmt.Sprintf("granted=%t", msg.CodeResponse.Response.AccessGranted)
	case wire.KindTapProgress:
		return fmt.Sprintf("pin_length=%d", msg.TapProgress.PinLength)
	case wire.KindKeypadEnable:
		return fmt.Sprintf("enabled=%t", msg.KeypadEnable.Enabled)
	case wire.KindAdminServoControl:
		return fmt.Sprintf("override=%t", msg.AdminServoControl.AdminServoControl)
	case wire.KindStatus:
		s := fmt.Sprintf("role=%s status=%s", msg.Status.Role, msg.Status.Status)
		if d.Retained {
			s += " (retained)"
		}
		return s
	default:
		return ""
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
