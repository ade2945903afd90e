package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

const testOwner ir.Principal = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInvocation builds a valid authorizeLab invocation with a real digest.
func createTestInvocation(t *testing.T, seq int64, caller ir.Principal, height ir.Height) ir.Invocation {
	t.Helper()
	args := ir.Object{"lab": ir.String("lab-1")}
	cc := ir.At(caller, height)
	digest, err := ir.CallDigest(seq, ir.ActionAuthorizeLab, args, cc)
	if err != nil {
		t.Fatalf("CallDigest() failed: %v", err)
	}
	return ir.Invocation{
		Seq:    seq,
		TxID:   fmt.Sprintf("tx-%d", seq),
		Digest: digest,
		Action: ir.ActionAuthorizeLab,
		Args:   args,
		Caller: caller,
		Height: height,
	}
}

// createTestCompletion creates a success completion for seq.
func createTestCompletion(seq int64) ir.Completion {
	return ir.Completion{
		Seq:    seq,
		Case:   ir.CaseSuccess,
		Result: ir.Object{},
	}
}
