package harness_test

import (
	"errors"
	"testing"

	"github.com/latch-protocol/latch-go/internal/harness"
)

func TestParseScenarioBasic(t *testing.T) {
	doc := `
id: SC-TEST
name: Basic scenario
description: parses fields and steps
setup:
  users:
    - uid: deadbeef
      pin: "1234"
  reply_delay_ms: 50
steps:
  - action: present
    params:
      uid: deadbeef
  - action: advance
    params:
      for: 100ms
    expect:
      entry_phase: CODE_WINDOW
`
	sc, err := harness.ParseScenario([]byte(doc))
	if err != nil {
		t.Fatalf("ParseScenario() error = %v", err)
	}

	if sc.ID != "SC-TEST" {
		t.Errorf("ID = %q, want SC-TEST", sc.ID)
	}
	if len(sc.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(sc.Steps))
	}
	if sc.Steps[0].Action != "present" {
		t.Errorf("step 0 action = %q, want present", sc.Steps[0].Action)
	}
	if sc.Steps[1].Expect["entry_phase"] != "CODE_WINDOW" {
		t.Errorf("step 1 expect = %v", sc.Steps[1].Expect)
	}
	if sc.Setup.ReplyDelayMS != 50 {
		t.Errorf("ReplyDelayMS = %d, want 50", sc.Setup.ReplyDelayMS)
	}
	if len(sc.Setup.Users) != 1 || sc.Setup.Users[0].PIN != "1234" {
		t.Errorf("setup users = %+v", sc.Setup.Users)
	}
}

func TestParseScenarioRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "MissingID",
			doc: `
name: no id
setup:
  users: [{uid: aa, pin: "1"}]
steps:
  - action: present
`,
		},
		{
			name: "NoSteps",
			doc: `
id: SC-X
setup:
  users: [{uid: aa, pin: "1"}]
steps: []
`,
		},
		{
			name: "StepWithoutAction",
			doc: `
id: SC-X
setup:
  users: [{uid: aa, pin: "1"}]
steps:
  - params: {uid: aa}
`,
		},
		{
			name: "NoUsers",
			doc: `
id: SC-X
setup: {}
steps:
  - action: present
`,
		},
		{
			name: "BadYAML",
			doc:  "id: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := harness.ParseScenario([]byte(tt.doc))
			if err == nil {
				t.Fatal("ParseScenario() succeeded, want error")
			}
			var le *harness.LoadError
			if !errors.As(err, &le) {
				t.Errorf("error type = %T, want *LoadError", err)
			}
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	scenarios, err := harness.LoadDirectory("scenarios")
	if err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}
	if len(scenarios) < 6 {
		t.Fatalf("got %d scenarios, want at least 6", len(scenarios))
	}

	seen := make(map[string]bool)
	for _, sc := range scenarios {
		if seen[sc.ID] {
			t.Errorf("duplicate scenario id %s", sc.ID)
		}
		seen[sc.ID] = true
	}
	for _, id := range []string{"SC-A", "SC-B", "SC-C", "SC-D", "SC-E", "SC-F"} {
		if !seen[id] {
			t.Errorf("scenario %s missing", id)
		}
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := harness.LoadScenario("scenarios/does-not-exist.yaml")
	if err == nil {
		t.Fatal("LoadScenario() succeeded, want error")
	}
	var le *harness.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error type = %T, want *LoadError", err)
	}
	if le.File == "" {
		t.Error("LoadError.File is empty, want path")
	}
}
