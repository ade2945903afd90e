package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/contract"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// EntryReader is the read half of a call log.
type EntryReader interface {
	ReadEntries(ctx context.Context, filter ir.EntryFilter) ([]ir.LogEntry, error)
}

// Mismatch is a log entry whose re-applied outcome disagrees with the log.
type Mismatch struct {
	Seq    int64  `json:"seq"`
	TxID   string `json:"tx_id"`
	Reason string `json:"reason"`
}

// ReplayReport is the result of Replay.
type ReplayReport struct {
	Entries       int                  `json:"entries"`
	Pending       int                  `json:"pending"`
	ByAction      map[ir.ActionRef]int `json:"by_action"`
	ByCase        map[string]int       `json:"by_case"`
	LastStoneID   ir.StoneID           `json:"last_stone_id"`
	TraceDigest   string               `json:"trace_digest"`
	Mismatches    []Mismatch           `json:"mismatches"`
	Deterministic bool                 `json:"deterministic"`
}

// Replay rebuilds a fresh ledger for owner from the log, twice.
//
// Each pass re-applies every invocation in seq order at its recorded caller
// and height and compares the derived outcome with the recorded completion.
// The log is deterministic when the first pass finds no mismatch and both
// passes produce the same trace digest. Replay never writes to the log.
func Replay(ctx context.Context, log EntryReader, owner ir.Principal) (ReplayReport, error) {
	entries, err := log.ReadEntries(ctx, ir.EntryFilter{})
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	first, err := replayPass(entries, owner)
	if err != nil {
		return ReplayReport{}, err
	}
	second, err := replayPass(entries, owner)
	if err != nil {
		return ReplayReport{}, err
	}

	first.Deterministic = len(first.Mismatches) == 0 && first.TraceDigest == second.TraceDigest
	return first, nil
}

func replayPass(entries []ir.LogEntry, owner ir.Principal) (ReplayReport, error) {
	report := ReplayReport{
		Entries:    len(entries),
		ByAction:   make(map[ir.ActionRef]int),
		ByCase:     make(map[string]int),
		Mismatches: []Mismatch{},
	}
	ledger := contract.NewLedger(owner)
	trace := sha256.New()

	for _, e := range entries {
		inv := e.Invocation
		mismatch := func(format string, args ...any) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:    inv.Seq,
				TxID:   inv.TxID,
				Reason: fmt.Sprintf(format, args...),
			})
		}

		digest, err := ir.CallDigest(inv.Seq, inv.Action, inv.Args, inv.Context())
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay seq %d: %w", inv.Seq, err)
		}
		if digest != inv.Digest {
			mismatch("call digest %s does not match recorded %s", digest, inv.Digest)
		}

		out, err := ledger.Apply(inv.Context(), inv.Call())
		if err != nil {
			mismatch("call no longer applies: %v", err)
			continue
		}
		report.ByAction[inv.Action]++
		report.ByCase[out.Case]++

		derived, err := ir.OutcomeDigest(out)
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay seq %d: %w", inv.Seq, err)
		}
		trace.Write([]byte(derived))
		trace.Write([]byte{'\n'})

		if e.Completion == nil {
			report.Pending++
			continue
		}
		recorded, err := ir.OutcomeDigest(e.Completion.Outcome())
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay seq %d: %w", inv.Seq, err)
		}
		if recorded != derived {
			mismatch("recorded %s/%d, re-derived %s/%d",
				e.Completion.Case, e.Completion.Code, out.Case, out.Code)
		}
	}

	report.LastStoneID = ledger.Stones.LastID()
	report.TraceDigest = hex.EncodeToString(trace.Sum(nil))
	return report, nil
}
