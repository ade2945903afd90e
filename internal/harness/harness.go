package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/host"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/store"
)

// TraceEvent is one logged call as seen by the scenario.
type TraceEvent struct {
	Seq    int64        `json:"seq"`
	TxID   string       `json:"tx_id"`
	Action string       `json:"action"`
	Caller string       `json:"caller"`
	Height int64        `json:"height"`
	Args   ir.Object    `json:"args"`
	Case   string       `json:"case"`
	Code   ir.ErrorCode `json:"code"`
	Result ir.Object    `json:"result"`
}

func traceEvent(r ir.Receipt) TraceEvent {
	return TraceEvent{
		Seq:    r.Seq,
		TxID:   r.TxID,
		Action: string(r.Action),
		Caller: string(r.Caller),
		Height: int64(r.Height),
		Args:   r.Args,
		Case:   r.Case,
		Code:   r.Code,
		Result: r.Result,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every logged call in Seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors describes each failure. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness executes one scenario.
type Harness struct {
	host   *host.Host
	logger *slog.Logger
}

// Run executes scenario in a fresh in-memory call log.
//
// Expectation and assertion failures are reported in the Result. The error
// return is reserved for infrastructure failures: the log could not be
// opened or written.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hst, err := host.Open(ctx, st, ir.Principal(scenario.Owner),
		host.WithTxIDGenerator(host.NewSequentialGenerator("tx")),
		host.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open host: %w", err)
	}

	h := &Harness{host: hst, logger: logger}
	result := NewResult()

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, hst) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps runs every step and checks its expect clause.
// A malformed step is a scenario failure, not an infrastructure error.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		args, err := toObject(step.Args)
		if err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: args: %v", i, err))
			continue
		}

		if step.Height != nil {
			if err := h.host.AdvanceTo(ir.Height(*step.Height)); err != nil {
				result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
				continue
			}
		}

		call := ir.Call{Action: ir.ActionRef(step.Invoke), Args: args}
		receipt, err := h.host.Execute(ctx, ir.Principal(step.As), call)
		if err != nil {
			if errors.Is(err, ir.ErrInvalidCall) {
				result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
				continue
			}
			return fmt.Errorf("steps[%d]: %w", i, err)
		}

		result.Trace = append(result.Trace, traceEvent(receipt))
		h.logger.Debug("scenario step",
			"step", i,
			"action", step.Invoke,
			"case", receipt.Case,
		)

		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, receipt) {
				result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Invoke, msg))
			}
		}
	}
	return nil
}

func checkExpect(want *ExpectClause, got ir.Receipt) []string {
	var errs []string
	if got.Case != want.Case {
		errs = append(errs, fmt.Sprintf("expected case %s, got %s", want.Case, got.Case))
	}
	if (want.Code != 0 || want.Case == ir.CaseSuccess) && ir.ErrorCode(want.Code) != got.Code {
		errs = append(errs, fmt.Sprintf("expected code %d, got %d", want.Code, got.Code))
	}
	if len(want.Result) > 0 {
		expected, err := toObject(want.Result)
		if err != nil {
			return append(errs, fmt.Sprintf("expect.result: %v", err))
		}
		for _, key := range expected.SortedKeys() {
			actual, ok := got.Result[key]
			if !ok {
				errs = append(errs, fmt.Sprintf("result field %q missing", key))
				continue
			}
			if !reflect.DeepEqual(expected[key], actual) {
				errs = append(errs, fmt.Sprintf("result field %q: expected %v, got %v",
					key, ir.ToGo(expected[key]), ir.ToGo(actual)))
			}
		}
	}
	return errs
}

// toObject converts YAML-decoded data into call arguments.
func toObject(m map[string]any) (ir.Object, error) {
	if m == nil {
		return ir.Object{}, nil
	}
	v, err := ir.FromGo(m)
	if err != nil {
		return nil, err
	}
	return v.(ir.Object), nil
}
