package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/host"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/store"
)

// DiscardLogger drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewStore opens a SQLite call log in t.TempDir(), closed on cleanup.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// NewHost opens a host for Owner over a fresh store. Tx ids are "tx-1",
// "tx-2", ... and nothing is logged. Later opts override these defaults.
func NewHost(t *testing.T, opts ...host.Option) (*host.Host, *store.Store) {
	t.Helper()
	s := NewStore(t)
	return OpenHost(t, s, opts...), s
}

// OpenHost opens a host for Owner over an existing call log.
func OpenHost(t *testing.T, log host.CallLog, opts ...host.Option) *host.Host {
	t.Helper()
	base := []host.Option{
		host.WithTxIDGenerator(host.NewSequentialGenerator("tx")),
		host.WithLogger(DiscardLogger()),
	}
	h, err := host.Open(context.Background(), log, Owner, append(base, opts...)...)
	require.NoError(t, err)
	return h
}

// MustExecute runs call and fails the test on a Go error.
// Contract rejections are returned in the receipt.
func MustExecute(t *testing.T, h *host.Host, caller ir.Principal, call ir.Call) ir.Receipt {
	t.Helper()
	r, err := h.Execute(context.Background(), caller, call)
	require.NoError(t, err)
	return r
}
