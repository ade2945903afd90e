package host

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/contract"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

const (
	owner   ir.Principal = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	labX    ir.Principal = "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"
	mallory ir.Principal = "ST3AM1A56AK2C1XAFJ4115ZSV26EB49BVQ10MGCS0"
)

var sapphire = ir.StoneAttributes{
	Name: "Blue Sapphire", Weight: 500, Color: "Deep Blue",
	Clarity: "VS1", Cut: "Oval", Origin: "Sri Lanka",
}

// memLog is an in-memory CallLog with injectable write failures.
type memLog struct {
	mu           sync.Mutex
	owner        ir.Principal
	hasGenesis   bool
	entries      []ir.LogEntry
	failInvoke   error
	failComplete error
}

func (m *memLog) Genesis(context.Context) (ir.Principal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner, m.hasGenesis, nil
}

func (m *memLog) WriteGenesis(_ context.Context, owner ir.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner, m.hasGenesis = owner, true
	return nil
}

func (m *memLog) WriteInvocation(_ context.Context, inv ir.Invocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInvoke != nil {
		return m.failInvoke
	}
	m.entries = append(m.entries, ir.LogEntry{Invocation: inv})
	return nil
}

func (m *memLog) WriteCompletion(_ context.Context, comp ir.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failComplete != nil {
		return m.failComplete
	}
	for i := range m.entries {
		if m.entries[i].Invocation.Seq == comp.Seq && m.entries[i].Completion == nil {
			c := comp
			m.entries[i].Completion = &c
		}
	}
	return nil
}

func (m *memLog) ReadEntries(_ context.Context, f ir.EntryFilter) ([]ir.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ir.LogEntry
	for _, e := range m.entries {
		if f.Action != "" && e.Invocation.Action != f.Action {
			continue
		}
		if f.Caller != "" && e.Invocation.Caller != f.Caller {
			continue
		}
		if e.Invocation.Seq <= f.AfterSeq {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openHost(t *testing.T, log CallLog, opts ...Option) *Host {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithTxIDGenerator(NewSequentialGenerator("tx"))}, opts...)
	h, err := Open(context.Background(), log, owner, opts...)
	require.NoError(t, err)
	return h
}

func TestOpen_WritesGenesis(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)

	assert.True(t, log.hasGenesis)
	assert.Equal(t, owner, log.owner)
	assert.Equal(t, owner, h.Owner())
	assert.Equal(t, ir.Height(0), h.Height())
	assert.Equal(t, int64(0), h.Seq())
}

func TestOpen_OwnerMismatch(t *testing.T) {
	log := &memLog{owner: mallory, hasGenesis: true}
	_, err := Open(context.Background(), log, owner, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrOwnerMismatch)
}

func TestOpen_RequiresOwner(t *testing.T) {
	_, err := Open(context.Background(), &memLog{}, "")
	assert.Error(t, err)
}

func TestExecute_StampsContext(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)
	require.NoError(t, h.AdvanceTo(100))

	r, err := h.Execute(context.Background(), owner, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)

	assert.Equal(t, "tx-1", r.TxID)
	assert.Equal(t, int64(1), r.Seq)
	assert.Equal(t, owner, r.Caller)
	assert.Equal(t, ir.Height(100), r.Height)
	assert.Equal(t, ir.CaseSuccess, r.Case)
	assert.Equal(t, ir.Object{"stone_id": ir.Int(1)}, r.Result)
	assert.Len(t, r.Digest, 64)

	stone, ok := h.Stone(1)
	require.True(t, ok)
	assert.Equal(t, owner, stone.Owner)
	assert.Equal(t, ir.Height(100), stone.RegisteredAt)

	require.Len(t, log.entries, 1)
	require.NotNil(t, log.entries[0].Completion)
	assert.Equal(t, r, log.entries[0].Receipt())
}

func TestExecute_AutoMine(t *testing.T) {
	h := openHost(t, &memLog{}, WithAutoMine(true))

	r1, err := h.Execute(context.Background(), owner, contract.AuthorizeLabCall(labX))
	require.NoError(t, err)
	r2, err := h.Execute(context.Background(), labX, contract.VerifyStoneCall(1, ir.VerificationReport{Grade: "AAA"}))
	require.NoError(t, err)

	assert.Equal(t, ir.Height(1), r1.Height)
	assert.Equal(t, ir.Height(2), r2.Height)
	assert.Equal(t, ir.Height(2), h.Height())
}

func TestExecute_RejectionIsLoggedNotError(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)

	r, err := h.Execute(context.Background(), mallory, contract.AuthorizeLabCall(mallory))
	require.NoError(t, err)
	assert.Equal(t, ir.CaseForbidden, r.Case)
	assert.Equal(t, ir.CodeForbidden, r.Code)
	assert.False(t, h.IsAuthorized(mallory))

	r, err = h.Execute(context.Background(), labX, contract.VerifyStoneCall(1, ir.VerificationReport{}))
	require.NoError(t, err)
	assert.Equal(t, ir.CodeUnauthorized, r.Code)
	_, ok := h.Verification(1)
	assert.False(t, ok)

	assert.Len(t, log.entries, 2)
}

func TestExecute_InvalidCallNotLogged(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log, WithAutoMine(true))

	_, err := h.Execute(context.Background(), owner, ir.Call{Action: ir.ActionAuthorizeLab, Args: ir.Object{"lab": ir.Int(1)}})
	assert.ErrorIs(t, err, ir.ErrInvalidCall)
	assert.Empty(t, log.entries)
	assert.Equal(t, int64(0), h.Seq())
	assert.Equal(t, ir.Height(0), h.Height(), "invalid calls do not mine")
}

func TestExecute_InvocationWriteFailureLeavesStateUnchanged(t *testing.T) {
	log := &memLog{failInvoke: errors.New("disk full")}
	h := openHost(t, log, WithAutoMine(true))

	_, err := h.Execute(context.Background(), owner, contract.RegisterStoneCall(sapphire))
	require.Error(t, err)
	assert.Equal(t, ir.StoneID(0), h.LastStoneID())
	assert.Equal(t, int64(0), h.Seq())
	assert.Equal(t, ir.Height(0), h.Height(), "an unlogged call does not mine")

	log.failInvoke = nil
	reopened := openHost(t, log, WithAutoMine(true))
	assert.Equal(t, h.Height(), reopened.Height())

	r, err := h.Execute(context.Background(), owner, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)
	assert.Equal(t, ir.Height(1), r.Height)
	assert.Equal(t, ir.Height(1), h.Height())
}

func TestExecute_CompletionWriteFailureRecoveredOnOpen(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)

	log.failComplete = errors.New("disk full")
	r, err := h.Execute(context.Background(), owner, contract.RegisterStoneCall(sapphire))
	require.Error(t, err)
	assert.Equal(t, ir.CaseSuccess, r.Case, "receipt is returned with the error")
	assert.Equal(t, ir.StoneID(1), h.LastStoneID(), "the mutation stands")
	require.Len(t, log.entries, 1)
	assert.Nil(t, log.entries[0].Completion)

	log.failComplete = nil
	reopened := openHost(t, log)
	require.NotNil(t, log.entries[0].Completion)
	assert.Equal(t, ir.CaseSuccess, log.entries[0].Completion.Case)
	assert.Equal(t, ir.StoneID(1), reopened.LastStoneID())
}

func TestExecute_CancelledContext(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Execute(ctx, owner, contract.AuthorizeLabCall(labX))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log.entries)
}

func TestOpen_RecoversState(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)
	ctx := context.Background()

	require.NoError(t, h.AdvanceTo(100))
	_, err := h.Execute(ctx, owner, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)
	_, err = h.Execute(ctx, owner, contract.AuthorizeLabCall(labX))
	require.NoError(t, err)
	require.NoError(t, h.AdvanceTo(105))
	_, err = h.Execute(ctx, labX, contract.VerifyStoneCall(1, ir.VerificationReport{LabName: "GIA", Grade: "AAA"}))
	require.NoError(t, err)
	_, err = h.Execute(ctx, mallory, contract.DiscloseTreatmentCall(1, ir.TreatmentDisclosure{TreatmentType: "Heat Treatment", PerformedAt: 95}))
	require.NoError(t, err)

	r := openHost(t, log)
	assert.Equal(t, int64(4), r.Seq())
	assert.Equal(t, ir.Height(105), r.Height())
	assert.True(t, r.IsAuthorized(labX))
	assert.Equal(t, int64(1), r.TreatmentCount(1))

	v, ok := r.Verification(1)
	require.True(t, ok)
	assert.Equal(t, labX, v.VerifiedBy)
	assert.Equal(t, ir.Height(105), v.VerifiedAt)

	// Seq continues after the recovered log.
	rec, err := r.Execute(ctx, owner, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Seq)
	assert.Equal(t, ir.Object{"stone_id": ir.Int(2)}, rec.Result)
}

func TestOpen_DetectsNonDeterminism(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)
	_, err := h.Execute(context.Background(), owner, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)

	log.entries[0].Completion.Result = ir.Object{"stone_id": ir.Int(7)}

	_, err = Open(context.Background(), log, owner, WithLogger(quietLogger()))
	require.ErrorIs(t, err, ErrNonDeterministic)

	var mismatch *ReplayMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(1), mismatch.Seq)
	assert.Contains(t, mismatch.Recorded, `"stone_id":7`)
	assert.Contains(t, mismatch.Derived, `"stone_id":1`)
}

func TestOpen_DetectsTamperedInvocation(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)
	_, err := h.Execute(context.Background(), owner, contract.AuthorizeLabCall(labX))
	require.NoError(t, err)

	log.entries[0].Invocation.Caller = mallory

	_, err = Open(context.Background(), log, owner, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrCorruptLog)
}

func TestOpen_DetectsSeqGap(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log)
	_, err := h.Execute(context.Background(), owner, contract.AuthorizeLabCall(labX))
	require.NoError(t, err)
	_, err = h.Execute(context.Background(), owner, contract.AuthorizeLabCall(labX))
	require.NoError(t, err)

	log.entries = log.entries[1:]

	_, err = Open(context.Background(), log, owner, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrCorruptLog)
}

func TestHost_AdvanceToRegression(t *testing.T) {
	h := openHost(t, &memLog{})
	require.NoError(t, h.AdvanceTo(10))
	assert.ErrorIs(t, h.AdvanceTo(9), ErrHeightRegression)
	assert.Equal(t, ir.Height(11), h.Mine())
}

func TestHost_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := openHost(t, &memLog{}, WithMetrics(NewMetrics(reg)), WithAutoMine(true))
	ctx := context.Background()

	_, err := h.Execute(ctx, owner, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)
	_, err = h.Execute(ctx, owner, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)
	_, err = h.Execute(ctx, mallory, contract.AuthorizeLabCall(mallory))
	require.NoError(t, err)

	expected := `
# HELP gemledger_calls_total Executed calls by action and output case.
# TYPE gemledger_calls_total counter
gemledger_calls_total{action="Authorization.authorizeLab",case="Forbidden"} 1
gemledger_calls_total{action="Stones.registerStone",case="Success"} 2
# HELP gemledger_height Current ledger height.
# TYPE gemledger_height gauge
gemledger_height 3
# HELP gemledger_stones_registered Last allocated stone identifier.
# TYPE gemledger_stones_registered gauge
gemledger_stones_registered 2
`
	assert.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected),
		"gemledger_calls_total", "gemledger_height", "gemledger_stones_registered"))
}

func TestHost_LogsRejections(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := openHost(t, &memLog{}, WithLogger(logger))

	_, err := h.Execute(context.Background(), mallory, contract.RevokeLabCall(labX))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "call rejected")
	assert.Contains(t, out, "case=Forbidden")
	assert.Contains(t, out, "code=403")
}

func TestHost_ConcurrentExecuteIsSerialized(t *testing.T) {
	log := &memLog{}
	h := openHost(t, log, WithAutoMine(true))
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Execute(ctx, mallory, contract.RegisterStoneCall(sapphire))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, ir.StoneID(n), h.LastStoneID())
	require.Len(t, log.entries, n)
	for i, e := range log.entries {
		assert.Equal(t, int64(i+1), e.Invocation.Seq)
		assert.Equal(t, ir.Height(i+1), e.Invocation.Height)
		assert.Equal(t, ir.Object{"stone_id": ir.Int(int64(i + 1))}, e.Completion.Result)
	}
}

func TestHost_Entries(t *testing.T) {
	h := openHost(t, &memLog{})
	ctx := context.Background()
	_, err := h.Execute(ctx, owner, contract.AuthorizeLabCall(labX))
	require.NoError(t, err)
	_, err = h.Execute(ctx, mallory, contract.RegisterStoneCall(sapphire))
	require.NoError(t, err)

	entries, err := h.Entries(ctx, ir.EntryFilter{Caller: mallory})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ir.ActionRegisterStone, entries[0].Invocation.Action)
}
