package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run. Digests are left out
// so the file stays readable; they are covered by replay.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Owner        string       `json:"owner"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot into plain data for
// ir.MarshalCanonical, which only accepts constrained values.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		args, result := e.Args, e.Result
		if args == nil {
			args = ir.Object{}
		}
		if result == nil {
			result = ir.Object{}
		}
		trace[i] = map[string]any{
			"seq":    e.Seq,
			"tx_id":  e.TxID,
			"action": e.Action,
			"caller": e.Caller,
			"height": e.Height,
			"args":   args,
			"case":   e.Case,
			"code":   int64(e.Code),
			"result": result,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"owner":         s.Owner,
		"trace":         trace,
	}
}

// Snapshot renders a run as canonical JSON.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		Owner:        scenario.Owner,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
