package harness

import (
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// actionFunc applies one scripted action to the cluster.
type actionFunc func(c *Cluster, params map[string]any) error

// Result reports one scenario execution.
type Result struct {
	Scenario    *Scenario
	StepResults []StepResult
	Passed      bool
	Err         error
}

// StepResult reports one executed step.
type StepResult struct {
	Index  int
	Action string
	Passed bool
	Err    error
}

// Engine executes scenarios. Each Run builds a fresh cluster from the
// scenario's setup, so scenarios cannot leak state into each other.
type Engine struct {
	actions  map[string]actionFunc
	checkers map[string]checkFunc
}

// NewEngine creates an engine with the standard actions and checkers
// registered.
func NewEngine() *Engine {
	e := &Engine{
		actions:  make(map[string]actionFunc),
		checkers: make(map[string]checkFunc),
	}

	e.RegisterAction("present", actionPresent)
	e.RegisterAction("press", actionPress)
	e.RegisterAction("motion", actionMotion)
	e.RegisterAction("dial", actionDial)
	e.RegisterAction("override", actionOverride)
	e.RegisterAction("advance", actionAdvance)

	registerStateCheckers(e)
	return e
}

// RegisterAction registers an action handler.
func (e *Engine) RegisterAction(name string, fn actionFunc) {
	e.actions[name] = fn
}

// RegisterChecker registers an expectation checker.
func (e *Engine) RegisterChecker(key string, fn checkFunc) {
	e.checkers[key] = fn
}

// Run executes one scenario and reports the outcome. Execution stops
// at the first failing step.
func (e *Engine) Run(sc *Scenario) *Result {
	result := &Result{Scenario: sc}

	cluster, err := NewCluster(sc.Setup)
	if err != nil {
		result.Err = fmt.Errorf("setup: %w", err)
		return result
	}

	for i := range sc.Steps {
		step := &sc.Steps[i]
		sr := StepResult{Index: i, Action: step.Action, Passed: true}

		if err := e.runStep(cluster, step); err != nil {
			sr.Passed = false
			sr.Err = fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
		result.StepResults = append(result.StepResults, sr)

		if !sr.Passed {
			result.Err = sr.Err
			return result
		}
	}

	result.Passed = true
	return result
}

func (e *Engine) runStep(cluster *Cluster, step *Step) error {
	action, ok := e.actions[step.Action]
	if !ok {
		return fmt.Errorf("unknown action %q", step.Action)
	}
	if err := action(cluster, step.Params); err != nil {
		return err
	}

	// Deterministic check order so failures read the same every run.
	keys := make([]string, 0, len(step.Expect))
	for key := range step.Expect {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		checker, ok := e.checkers[key]
		if !ok {
			return fmt.Errorf("unknown expect key %q", key)
		}
		if err := checker(cluster, step.Expect[key]); err != nil {
			return fmt.Errorf("expect %s: %w", key, err)
		}
	}
	return nil
}

func actionPresent(c *Cluster, params map[string]any) error {
	uid, err := paramString(params, "uid")
	if err != nil {
		return err
	}
	raw, err := hex.DecodeString(uid)
	if err != nil {
		return fmt.Errorf("uid %q is not hex: %w", uid, err)
	}
	c.Reader.Present(raw)
	return nil
}

func actionPress(c *Cluster, params map[string]any) error {
	keys, err := paramString(params, "keys")
	if err != nil {
		return err
	}
	c.Keys.Type(keys)
	return nil
}

func actionMotion(c *Cluster, params map[string]any) error {
	present, err := paramBool(params, "present")
	if err != nil {
		return err
	}
	c.Motion.SetPresent(present)
	return nil
}

func actionDial(c *Cluster, params map[string]any) error {
	value, err := paramInt(params, "value")
	if err != nil {
		return err
	}
	c.Dial.SetValue(value)
	return nil
}

func actionOverride(c *Cluster, params map[string]any) error {
	on, err := paramBool(params, "on")
	if err != nil {
		return err
	}
	return c.PublishOverride(on)
}

func actionAdvance(c *Cluster, params map[string]any) error {
	d, err := paramDuration(params, "for")
	if err != nil {
		return err
	}
	c.Run(d)
	return nil
}

func paramString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("param %q is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", key, v)
	}
	return s, nil
}

func paramBool(params map[string]any, key string) (bool, error) {
	v, ok := params[key]
	if !ok {
		return false, fmt.Errorf("param %q is required", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("param %q must be a bool, got %T", key, v)
	}
	return b, nil
}

func paramInt(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("param %q is required", key)
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("param %q must be an integer, got %T", key, v)
	}
	return n, nil
}

func paramDuration(params map[string]any, key string) (time.Duration, error) {
	s, err := paramString(params, key)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("param %q must be positive", key)
	}
	return d, nil
}
