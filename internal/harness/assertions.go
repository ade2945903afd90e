package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s as %s -> %s\n", event.Seq, event.Action, event.Caller, event.Case)
		}
	}
	return buf.String()
}

// StateReader is the read surface final_state assertions query.
// Implemented by *host.Host.
type StateReader interface {
	Stone(id ir.StoneID) (ir.Stone, bool)
	LastStoneID() ir.StoneID
	Verification(id ir.StoneID) (ir.Verification, bool)
	Treatment(id ir.StoneID, tid ir.TreatmentID) (ir.Treatment, bool)
	TreatmentCount(id ir.StoneID) int64
	IsAuthorized(p ir.Principal) bool
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, state StateReader) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if state == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a state reader", i)
			} else {
				err = assertFinalState(state, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertTraceContains checks for a call with the action whose args include
// every expected field.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	expected, err := toObject(assertion.Args)
	if err != nil {
		return fmt.Errorf("trace_contains args: %w", err)
	}
	for _, event := range trace {
		if event.Action == assertion.Action && subsetOf(expected, event.Args) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the actions appear
// in order. Intervening calls are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Action]; !seen {
			positions[event.Action] = i + 1
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev, curr := assertion.Actions[i-1], assertion.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the action was logged exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Action == assertion.Action {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// stateTable reads one row of derived state. The returned object always
// carries "exists".
type stateTable func(state StateReader, where ir.Object) (ir.Object, error)

var stateTables = map[string]stateTable{
	"stone":           stoneRow,
	"verification":    verificationRow,
	"treatment":       treatmentRow,
	"treatment_count": treatmentCountRow,
	"last_stone_id":   lastStoneIDRow,
	"authorization":   authorizationRow,
}

func stoneRow(state StateReader, where ir.Object) (ir.Object, error) {
	id, err := where.Int64("stone_id")
	if err != nil {
		return nil, err
	}
	s, ok := state.Stone(ir.StoneID(id))
	if !ok {
		return ir.Object{"exists": ir.Bool(false)}, nil
	}
	return ir.Object{
		"exists":        ir.Bool(true),
		"stone_id":      ir.Int(s.ID),
		"name":          ir.String(s.Name),
		"weight":        ir.Int(s.Weight),
		"color":         ir.String(s.Color),
		"clarity":       ir.String(s.Clarity),
		"cut":           ir.String(s.Cut),
		"origin":        ir.String(s.Origin),
		"owner":         ir.String(s.Owner),
		"registered_at": ir.Int(s.RegisteredAt),
	}, nil
}

func verificationRow(state StateReader, where ir.Object) (ir.Object, error) {
	id, err := where.Int64("stone_id")
	if err != nil {
		return nil, err
	}
	v, ok := state.Verification(ir.StoneID(id))
	if !ok {
		return ir.Object{"exists": ir.Bool(false)}, nil
	}
	return ir.Object{
		"exists":        ir.Bool(true),
		"stone_id":      ir.Int(v.StoneID),
		"lab_name":      ir.String(v.LabName),
		"grade":         ir.String(v.Grade),
		"report_number": ir.String(v.ReportNumber),
		"notes":         ir.String(v.Notes),
		"verified_by":   ir.String(v.VerifiedBy),
		"verified_at":   ir.Int(v.VerifiedAt),
	}, nil
}

func treatmentRow(state StateReader, where ir.Object) (ir.Object, error) {
	id, err := where.Int64("stone_id")
	if err != nil {
		return nil, err
	}
	tid, err := where.Int64("treatment_id")
	if err != nil {
		return nil, err
	}
	t, ok := state.Treatment(ir.StoneID(id), ir.TreatmentID(tid))
	if !ok {
		return ir.Object{"exists": ir.Bool(false)}, nil
	}
	return ir.Object{
		"exists":         ir.Bool(true),
		"stone_id":       ir.Int(t.StoneID),
		"treatment_id":   ir.Int(t.ID),
		"treatment_type": ir.String(t.TreatmentType),
		"description":    ir.String(t.Description),
		"performed_by":   ir.String(t.PerformedBy),
		"performed_at":   ir.Int(t.PerformedAt),
		"disclosed_by":   ir.String(t.DisclosedBy),
		"disclosed_at":   ir.Int(t.DisclosedAt),
	}, nil
}

func treatmentCountRow(state StateReader, where ir.Object) (ir.Object, error) {
	id, err := where.Int64("stone_id")
	if err != nil {
		return nil, err
	}
	return ir.Object{
		"exists":   ir.Bool(true),
		"stone_id": ir.Int(id),
		"count":    ir.Int(state.TreatmentCount(ir.StoneID(id))),
	}, nil
}

func lastStoneIDRow(state StateReader, _ ir.Object) (ir.Object, error) {
	return ir.Object{
		"exists":        ir.Bool(true),
		"last_stone_id": ir.Int(state.LastStoneID()),
	}, nil
}

func authorizationRow(state StateReader, where ir.Object) (ir.Object, error) {
	p, err := where.Str("principal")
	if err != nil {
		return nil, err
	}
	return ir.Object{
		"exists":     ir.Bool(true),
		"principal":  ir.String(p),
		"authorized": ir.Bool(state.IsAuthorized(ir.Principal(p))),
	}, nil
}

// assertFinalState reads one row and compares the expected fields.
func assertFinalState(state StateReader, assertion Assertion) error {
	table, ok := stateTables[assertion.Table]
	if !ok {
		return fmt.Errorf("final_state: unknown table %q", assertion.Table)
	}
	where, err := toObject(assertion.Where)
	if err != nil {
		return fmt.Errorf("final_state where: %w", err)
	}
	expected, err := toObject(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_state expect: %w", err)
	}

	row, err := table(state, where)
	if err != nil {
		return fmt.Errorf("final_state %s: %w", assertion.Table, err)
	}

	if exists, _ := row["exists"].(ir.Bool); !exists {
		if want, ok := expected["exists"]; ok && want == ir.Bool(false) {
			return nil
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, describe(where)),
			Actual:   "row not found",
		}
	}

	for _, key := range expected.SortedKeys() {
		actual, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %s", key, assertion.Table),
			}
		}
		if !reflect.DeepEqual(expected[key], actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", assertion.Table, key, ir.ToGo(expected[key])),
				Actual:   fmt.Sprintf("%s.%s = %v", assertion.Table, key, ir.ToGo(actual)),
			}
		}
	}
	return nil
}

// subsetOf reports whether every field of want equals the same field of got.
func subsetOf(want, got ir.Object) bool {
	for key, w := range want {
		g, ok := got[key]
		if !ok || !reflect.DeepEqual(w, g) {
			return false
		}
	}
	return true
}

func describe(where ir.Object) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range where.SortedKeys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ir.ToGo(where[k])))
	}
	return strings.Join(parts, " AND ")
}
