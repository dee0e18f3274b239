package harness

import (
	"fmt"
)

// checkFunc verifies one cluster state key against an expected value.
type checkFunc func(c *Cluster, want any) error

func registerStateCheckers(e *Engine) {
	e.RegisterChecker("entry_phase", checkEntryPhase)
	e.RegisterChecker("door", checkDoor)
	e.RegisterChecker("override", checkOverride)
	e.RegisterChecker("keypad_enabled", checkKeypadEnabled)
	e.RegisterChecker("buffer_len", checkBufferLen)
	e.RegisterChecker("display_top", checkDisplayRow(0))
	e.RegisterChecker("display_bottom", checkDisplayRow(1))
	e.RegisterChecker("backlight", checkBacklight)
	e.RegisterChecker("servo_angle", checkServoAngle)
}

func checkEntryPhase(c *Cluster, want any) error {
	name, err := wantString(want)
	if err != nil {
		return err
	}
	if got := c.Entry.Phase().String(); got != name {
		return fmt.Errorf("entry phase is %s, want %s", got, name)
	}
	return nil
}

func checkDoor(c *Cluster, want any) error {
	name, err := wantString(want)
	if err != nil {
		return err
	}
	if got := c.Lock.Door().String(); got != name {
		return fmt.Errorf("door is %s, want %s", got, name)
	}
	return nil
}

func checkOverride(c *Cluster, want any) error {
	on, err := wantBool(want)
	if err != nil {
		return err
	}
	if got := c.Lock.Override(); got != on {
		return fmt.Errorf("override is %v, want %v", got, on)
	}
	return nil
}

func checkKeypadEnabled(c *Cluster, want any) error {
	enabled, err := wantBool(want)
	if err != nil {
		return err
	}
	if got := c.Keypad.Enabled(); got != enabled {
		return fmt.Errorf("keypad enabled is %v, want %v", got, enabled)
	}
	return nil
}

func checkBufferLen(c *Cluster, want any) error {
	n, err := wantInt(want)
	if err != nil {
		return err
	}
	if got := c.Keypad.BufferLen(); got != n {
		return fmt.Errorf("buffer length is %d, want %d", got, n)
	}
	return nil
}

func checkDisplayRow(row int) checkFunc {
	return func(c *Cluster, want any) error {
		text, err := wantString(want)
		if err != nil {
			return err
		}
		if got := c.Display.Row(row); got != text {
			return fmt.Errorf("display row %d is %q, want %q", row, got, text)
		}
		return nil
	}
}

func checkBacklight(c *Cluster, want any) error {
	on, err := wantBool(want)
	if err != nil {
		return err
	}
	if got := c.Display.Backlight(); got != on {
		return fmt.Errorf("backlight is %v, want %v", got, on)
	}
	return nil
}

func checkServoAngle(c *Cluster, want any) error {
	angle, err := wantInt(want)
	if err != nil {
		return err
	}
	if got := c.Servo.Angle(); got != angle {
		return fmt.Errorf("servo angle is %d, want %d", got, angle)
	}
	return nil
}

func wantString(want any) (string, error) {
	s, ok := want.(string)
	if !ok {
		return "", fmt.Errorf("expected value must be a string, got %T", want)
	}
	return s, nil
}

func wantBool(want any) (bool, error) {
	b, ok := want.(bool)
	if !ok {
		return false, fmt.Errorf("expected value must be a bool, got %T", want)
	}
	return b, nil
}

func wantInt(want any) (int, error) {
	n, ok := want.(int)
	if !ok {
		return 0, fmt.Errorf("expected value must be an integer, got %T", want)
	}
	return n, nil
}
