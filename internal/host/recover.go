package host

import (
	"context"
	"fmt"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// recover rebuilds the ledger from the log.
//
// Recovery and normal execution share Ledger.Apply, so a log written by this
// host always re-applies to the same state. Each entry is checked for a
// dense Seq, a matching digest and non-decreasing height. Entries without a
// completion (crash between the two writes) get their completion written now.
func (h *Host) recover(ctx context.Context) error {
	entries, err := h.log.ReadEntries(ctx, ir.EntryFilter{})
	if err != nil {
		return fmt.Errorf("read call log: %w", err)
	}

	var (
		seq       int64
		height    ir.Height
		completed int
	)
	for _, e := range entries {
		inv := e.Invocation
		if inv.Seq != seq+1 {
			return fmt.Errorf("%w: expected seq %d, found %d", ErrCorruptLog, seq+1, inv.Seq)
		}
		if inv.Height < height {
			return fmt.Errorf("%w: seq %d height %d is below %d", ErrCorruptLog, inv.Seq, inv.Height, height)
		}
		digest, err := ir.CallDigest(inv.Seq, inv.Action, inv.Args, inv.Context())
		if err != nil {
			return fmt.Errorf("%w: seq %d: %v", ErrCorruptLog, inv.Seq, err)
		}
		if digest != inv.Digest {
			return fmt.Errorf("%w: seq %d digest mismatch", ErrCorruptLog, inv.Seq)
		}

		out, err := h.ledger.Apply(inv.Context(), inv.Call())
		if err != nil {
			return fmt.Errorf("%w: seq %d: %v", ErrCorruptLog, inv.Seq, err)
		}

		if e.Completion == nil {
			comp := ir.Completion{Seq: inv.Seq, Case: out.Case, Code: out.Code, Result: out.Result}
			if err := h.log.WriteCompletion(ctx, comp); err != nil {
				return fmt.Errorf("complete seq %d: %w", inv.Seq, err)
			}
			completed++
		} else if err := sameOutcome(inv, e.Completion.Outcome(), out); err != nil {
			return err
		}

		seq = inv.Seq
		height = inv.Height
	}

	h.seq = seq
	if err := h.clock.AdvanceTo(height); err != nil {
		return err
	}

	if len(entries) > 0 {
		h.logger.Info("call log recovered",
			"entries", len(entries),
			"completed", completed,
			"seq", seq,
			"height", height,
		)
	}
	return nil
}

func sameOutcome(inv ir.Invocation, recorded, derived ir.Outcome) error {
	want, err := ir.OutcomeDigest(recorded)
	if err != nil {
		return fmt.Errorf("%w: seq %d: %v", ErrCorruptLog, inv.Seq, err)
	}
	got, err := ir.OutcomeDigest(derived)
	if err != nil {
		return err
	}
	if want == got {
		return nil
	}
	return &ReplayMismatch{
		Seq:      inv.Seq,
		TxID:     inv.TxID,
		Recorded: describeOutcome(recorded),
		Derived:  describeOutcome(derived),
	}
}

func describeOutcome(o ir.Outcome) string {
	data, err := ir.MarshalCanonical(o.Result)
	if err != nil {
		data = []byte("?")
	}
	return fmt.Sprintf("%s/%d %s", o.Case, o.Code, data)
}
