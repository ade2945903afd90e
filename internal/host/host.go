package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/contract"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// CallLog is the durable append-only record the host writes through.
// Implemented by store.Store (SQLite) and postgres.Store.
type CallLog interface {
	// Genesis returns the owner recorded when the log was created.
	Genesis(ctx context.Context) (owner ir.Principal, ok bool, err error)
	WriteGenesis(ctx context.Context, owner ir.Principal) error
	WriteInvocation(ctx context.Context, inv ir.Invocation) error
	WriteCompletion(ctx context.Context, comp ir.Completion) error
	// ReadEntries returns entries ordered by Seq ascending.
	ReadEntries(ctx context.Context, filter ir.EntryFilter) ([]ir.LogEntry, error)
}

// Host owns the ledger and is its only writer.
//
// Thread-safety: Execute, Mine and AdvanceTo take the write lock; reads
// take the read lock. Calls are applied in a strict total order.
type Host struct {
	mu       sync.RWMutex
	log      CallLog
	ledger   *contract.Ledger
	clock    *Clock
	seq      int64
	txids    TxIDGenerator
	autoMine bool
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithAutoMine runs every logged call one height above the current one.
// Without it the height only moves through Mine and AdvanceTo.
func WithAutoMine(on bool) Option {
	return func(h *Host) {
		h.autoMine = on
	}
}

// WithTxIDGenerator replaces the default UUIDv7 transaction ids.
func WithTxIDGenerator(g TxIDGenerator) Option {
	return func(h *Host) {
		h.txids = g
	}
}

// WithMetrics records calls and height on m.
func WithMetrics(m *Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// Open attaches a host to log for owner.
//
// A fresh log gets a genesis record for owner. An existing log must have been
// created for the same owner (ErrOwnerMismatch otherwise) and is recovered
// before Open returns.
func Open(ctx context.Context, log CallLog, owner ir.Principal, opts ...Option) (*Host, error) {
	if owner == "" {
		return nil, fmt.Errorf("open host: owner is required")
	}

	h := &Host{
		log:    log,
		ledger: contract.NewLedger(owner),
		clock:  NewClock(),
		txids:  UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	recorded, ok, err := log.Genesis(ctx)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	if !ok {
		if err := log.WriteGenesis(ctx, owner); err != nil {
			return nil, fmt.Errorf("write genesis: %w", err)
		}
		h.logger.Info("call log created", "owner", owner)
	} else if recorded != owner {
		return nil, fmt.Errorf("%w: log owner %q, configured %q", ErrOwnerMismatch, recorded, owner)
	}

	if err := h.recover(ctx); err != nil {
		return nil, err
	}
	h.metrics.observeState(h.clock.Current(), h.ledger.Stones.LastID())
	return h, nil
}

// Execute applies call on behalf of caller and returns its receipt.
//
// Contract rejections (Forbidden, Unauthorized) are not errors here: they are
// logged like any other call and reported through the receipt's Case and
// Code. A malformed call returns an error wrapping ir.ErrInvalidCall and is
// never logged. A storage error before the invocation is durable leaves the
// ledger untouched; a failed completion write returns the receipt together
// with the error, and the next Open writes the missing completion.
func (h *Host) Execute(ctx context.Context, caller ir.Principal, call ir.Call) (ir.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := contract.Validate(call); err != nil {
		return ir.Receipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return ir.Receipt{}, err
	}
	if call.Args == nil {
		call.Args = ir.Object{}
	}

	// The clock only moves once the invocation is durable, so a failed
	// write leaves the height where recovery will find it.
	height := h.clock.Current()
	if h.autoMine {
		height++
	}
	cc := ir.At(caller, height)
	seq := h.seq + 1

	digest, err := ir.CallDigest(seq, call.Action, call.Args, cc)
	if err != nil {
		return ir.Receipt{}, err
	}
	inv := ir.Invocation{
		Seq:    seq,
		TxID:   h.txids.Generate(),
		Digest: digest,
		Action: call.Action,
		Args:   call.Args,
		Caller: caller,
		Height: height,
	}

	if err := h.log.WriteInvocation(ctx, inv); err != nil {
		h.logger.Error("invocation write failed",
			"action", call.Action,
			"caller", caller,
			"seq", seq,
			"error", err,
		)
		return ir.Receipt{}, fmt.Errorf("write invocation %d: %w", seq, err)
	}
	h.seq = seq
	if err := h.clock.AdvanceTo(height); err != nil {
		return ir.Receipt{}, err
	}

	out, err := h.ledger.Apply(cc, call)
	if err != nil {
		// Validate accepted the call, so the ledger cannot reject its shape.
		return ir.Receipt{}, fmt.Errorf("apply %s: %w", call.Action, err)
	}

	comp := ir.Completion{Seq: seq, Case: out.Case, Code: out.Code, Result: out.Result}
	receipt := ir.LogEntry{Invocation: inv, Completion: &comp}.Receipt()

	h.metrics.observeCall(call.Action, out.Case)
	h.metrics.observeState(height, h.ledger.Stones.LastID())
	h.logCall(receipt)

	if err := h.log.WriteCompletion(ctx, comp); err != nil {
		h.logger.Error("completion write failed",
			"action", call.Action,
			"seq", seq,
			"tx_id", inv.TxID,
			"error", err,
		)
		return receipt, fmt.Errorf("write completion %d: %w", seq, err)
	}
	return receipt, nil
}

func (h *Host) logCall(r ir.Receipt) {
	attrs := []any{
		"action", r.Action,
		"caller", r.Caller,
		"height", r.Height,
		"seq", r.Seq,
		"case", r.Case,
	}
	if r.Code != ir.CodeNone {
		h.logger.Info("call rejected", append(attrs, "code", int(r.Code))...)
		return
	}
	h.logger.Debug("call applied", attrs...)
}

// Mine advances the height by one and returns it.
func (h *Host) Mine() ir.Height {
	h.mu.Lock()
	defer h.mu.Unlock()

	height := h.clock.Advance()
	h.metrics.observeState(height, h.ledger.Stones.LastID())
	return height
}

// AdvanceTo moves the height to target. Moving backwards is an error.
func (h *Host) AdvanceTo(target ir.Height) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.clock.AdvanceTo(target); err != nil {
		return err
	}
	h.metrics.observeState(target, h.ledger.Stones.LastID())
	return nil
}

// Height returns the current ledger height.
func (h *Host) Height() ir.Height {
	return h.clock.Current()
}

// Seq returns the Seq of the last logged call, 0 for an empty log.
func (h *Host) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// Owner returns the contract owner.
func (h *Host) Owner() ir.Principal {
	return h.ledger.Owner()
}

// Stone returns the stone registered under id.
func (h *Host) Stone(id ir.StoneID) (ir.Stone, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Stones.Get(id)
}

// LastStoneID returns the most recently allocated stone identifier.
func (h *Host) LastStoneID() ir.StoneID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Stones.LastID()
}

// Verification returns the current verification of a stone.
func (h *Host) Verification(id ir.StoneID) (ir.Verification, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Verifications.Get(id)
}

// Treatment returns one disclosed treatment.
func (h *Host) Treatment(id ir.StoneID, tid ir.TreatmentID) (ir.Treatment, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Treatments.Get(id, tid)
}

// TreatmentCount returns the number of disclosures for a stone.
func (h *Host) TreatmentCount(id ir.StoneID) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Treatments.Count(id)
}

// Treatments returns every disclosure for a stone in sequence order.
func (h *Host) Treatments(id ir.StoneID) []ir.Treatment {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Treatments.List(id)
}

// IsAuthorized reports whether p is an authorized laboratory.
func (h *Host) IsAuthorized(p ir.Principal) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Verifications.IsAuthorized(p)
}

// Entries reads the call log through the host.
func (h *Host) Entries(ctx context.Context, filter ir.EntryFilter) ([]ir.LogEntry, error) {
	return h.log.ReadEntries(ctx, filter)
}
