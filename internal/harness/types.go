package harness

// Scenario is a single scripted walkthrough loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier (e.g. "SC-A").
	ID string `yaml:"id"`

	// Name is a human-readable name.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Setup configures the installation before the first step.
	Setup Setup `yaml:"setup"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`
}

// Setup is the per-scenario installation state.
type Setup struct {
	// Users is the backend allowlist. PINs are given in the clear and
	// hashed when the cluster is built.
	Users []SetupUser `yaml:"users"`

	// ReplyDelayMS delays every backend decision, letting scenarios
	// exercise the stations' staleness defenses.
	ReplyDelayMS uint32 `yaml:"reply_delay_ms,omitempty"`
}

// SetupUser is one allowed credential in a scenario.
type SetupUser struct {
	UID string `yaml:"uid"`
	PIN string `yaml:"pin"`
}

// Step is one scripted action and its expected outcome.
type Step struct {
	// Action is the action to perform ("present", "press", "advance",
	// "override", "dial", "motion").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]any `yaml:"params,omitempty"`

	// Expect maps cluster state keys to their required values after
	// the action completes.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// LoadError describes a scenario loading failure.
type LoadError struct {
	// File is the path that failed to load (empty for byte input).
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return e.File + ": " + e.Message
	}
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
