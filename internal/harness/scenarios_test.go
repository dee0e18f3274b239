package harness_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latch-protocol/latch-go/internal/harness"
)

// TestScenarios runs every scripted walkthrough shipped with the
// harness. Each scenario gets a fresh cluster.
func TestScenarios(t *testing.T) {
	scenarios, err := harness.LoadDirectory("scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	engine := harness.NewEngine()
	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.ID, func(t *testing.T) {
			result := engine.Run(sc)
			for _, sr := range result.StepResults {
				if !sr.Passed {
					t.Logf("step %d (%s): %v", sr.Index, sr.Action, sr.Err)
				}
			}
			require.True(t, result.Passed, "scenario %s (%s) failed: %v", sc.ID, sc.Name, result.Err)
		})
	}
}
