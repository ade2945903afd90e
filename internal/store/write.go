package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// Genesis returns the owner the log was created for.
func (s *Store) Genesis(ctx context.Context) (ir.Principal, bool, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT owner FROM genesis WHERE id = 1`).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read genesis: %w", err)
	}
	return ir.Principal(owner), true, nil
}

// WriteGenesis records the contract owner. A second call is a no-op.
func (s *Store) WriteGenesis(ctx context.Context, owner ir.Principal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO genesis (id, owner, ir_version)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, string(owner), ir.IRVersion)
	if err != nil {
		return fmt.Errorf("write genesis: %w", err)
	}
	return nil
}

// WriteInvocation appends an invocation.
//
// Rewriting the same invocation is a no-op, so a retried write is safe.
// Writing different content under an existing seq or tx id returns
// ErrSeqConflict.
func (s *Store) WriteInvocation(ctx context.Context, inv ir.Invocation) error {
	argsJSON, err := EncodeObject(inv.Args)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations
		(seq, tx_id, digest, action, args, caller, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		inv.Seq,
		inv.TxID,
		inv.Digest,
		string(inv.Action),
		argsJSON,
		string(inv.Caller),
		int64(inv.Height),
	)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil || n == 1 {
		return err
	}

	var txID, digest string
	err = s.db.QueryRowContext(ctx,
		`SELECT tx_id, digest FROM invocations WHERE seq = ?`, inv.Seq,
	).Scan(&txID, &digest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("write invocation: %w", err)
	}
	if txID != inv.TxID || digest != inv.Digest {
		return fmt.Errorf("write invocation %d: %w", inv.Seq, ErrSeqConflict)
	}
	return nil
}

// WriteCompletion records the outcome of the invocation with the same seq.
// The invocation must exist (foreign key). Rewriting the same outcome is a
// no-op; a different outcome for a completed seq returns ErrSeqConflict.
func (s *Store) WriteCompletion(ctx context.Context, comp ir.Completion) error {
	resultJSON, err := EncodeObject(comp.Result)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO completions
		(seq, output_case, error_code, result)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		comp.Seq,
		comp.Case,
		int(comp.Code),
		resultJSON,
	)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil || n == 1 {
		return err
	}

	var outputCase, result string
	var code int
	err = s.db.QueryRowContext(ctx,
		`SELECT output_case, error_code, result FROM completions WHERE seq = ?`, comp.Seq,
	).Scan(&outputCase, &code, &result)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	if outputCase != comp.Case || code != int(comp.Code) || result != resultJSON {
		return fmt.Errorf("write completion %d: %w", comp.Seq, ErrSeqConflict)
	}
	return nil
}
