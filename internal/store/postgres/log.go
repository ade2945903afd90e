package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/store"
)

// Genesis returns the owner the log was created for.
func (s *Store) Genesis(ctx context.Context) (ir.Principal, bool, error) {
	var owner string
	err := s.pool.QueryRow(ctx, `SELECT owner FROM genesis WHERE id = 1`).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read genesis: %w", err)
	}
	return ir.Principal(owner), true, nil
}

// WriteGenesis records the contract owner. A second call is a no-op.
func (s *Store) WriteGenesis(ctx context.Context, owner ir.Principal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO genesis (id, owner, ir_version)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING
	`, string(owner), ir.IRVersion)
	if err != nil {
		return fmt.Errorf("write genesis: %w", err)
	}
	return nil
}

// WriteInvocation appends an invocation. Same conflict rules as store.Store.
func (s *Store) WriteInvocation(ctx context.Context, inv ir.Invocation) error {
	args, err := store.EncodeObject(inv.Args)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO invocations (seq, tx_id, digest, action, args, caller, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`, inv.Seq, inv.TxID, inv.Digest, string(inv.Action), args, string(inv.Caller), int64(inv.Height))
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var txID, digest string
	err = s.pool.QueryRow(ctx, `SELECT tx_id, digest FROM invocations WHERE seq = $1`, inv.Seq).Scan(&txID, &digest)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("write invocation: %w", err)
	}
	if txID != inv.TxID || digest != inv.Digest {
		return fmt.Errorf("write invocation %d: %w", inv.Seq, store.ErrSeqConflict)
	}
	return nil
}

// WriteCompletion records the outcome for an existing invocation.
func (s *Store) WriteCompletion(ctx context.Context, comp ir.Completion) error {
	result, err := store.EncodeObject(comp.Result)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO completions (seq, output_case, error_code, result)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (seq) DO NOTHING
	`, comp.Seq, comp.Case, int32(comp.Code), result)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		outputCase, existing string
		code                 int32
	)
	err = s.pool.QueryRow(ctx,
		`SELECT output_case, error_code, result FROM completions WHERE seq = $1`, comp.Seq,
	).Scan(&outputCase, &code, &existing)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	if outputCase != comp.Case || code != int32(comp.Code) || existing != result {
		return fmt.Errorf("write completion %d: %w", comp.Seq, store.ErrSeqConflict)
	}
	return nil
}

const selectEntries = `
	SELECT i.seq, i.tx_id, i.digest, i.action, i.args, i.caller, i.height,
	       c.output_case, c.error_code, c.result
	FROM invocations i
	LEFT JOIN completions c ON c.seq = i.seq`

// ReadEntries returns log entries matching filter, ordered by seq ASC.
func (s *Store) ReadEntries(ctx context.Context, filter ir.EntryFilter) ([]ir.LogEntry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Action != "" {
		where = append(where, "i.action = "+arg(string(filter.Action)))
	}
	if filter.Caller != "" {
		where = append(where, "i.caller = "+arg(string(filter.Caller)))
	}
	if filter.AfterSeq > 0 {
		where = append(where, "i.seq > "+arg(filter.AfterSeq))
	}

	query := selectEntries
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY i.seq ASC"
	if filter.Limit > 0 {
		query += "\n\tLIMIT " + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []ir.LogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ReadEntry returns the entry with the given tx id, or store.ErrNotFound.
func (s *Store) ReadEntry(ctx context.Context, txID string) (ir.LogEntry, error) {
	row := s.pool.QueryRow(ctx, selectEntries+"\n\tWHERE i.tx_id = $1", txID)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ir.LogEntry{}, fmt.Errorf("entry %s: %w", txID, store.ErrNotFound)
	}
	return e, err
}

// Stats counts invocations and completions.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	var (
		st     store.Stats
		height int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM invocations),
			(SELECT COUNT(*) FROM completions),
			COALESCE((SELECT MAX(seq) FROM invocations), 0),
			COALESCE((SELECT MAX(height) FROM invocations), 0)
	`).Scan(&st.Invocations, &st.Completions, &st.LastSeq, &height)
	if err != nil {
		return store.Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.LastHeight = ir.Height(height)
	st.Pending = st.Invocations - st.Completions

	owner, _, err := s.Genesis(ctx)
	if err != nil {
		return store.Stats{}, err
	}
	st.Owner = owner
	return st, nil
}

func scanEntry(row pgx.Row) (ir.LogEntry, error) {
	var (
		inv                  ir.Invocation
		action, caller, args string
		height               int64
		outputCase, result   *string
		code                 *int32
	)
	if err := row.Scan(
		&inv.Seq, &inv.TxID, &inv.Digest, &action, &args, &caller, &height,
		&outputCase, &code, &result,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ir.LogEntry{}, err
		}
		return ir.LogEntry{}, fmt.Errorf("scan entry: %w", err)
	}

	inv.Action = ir.ActionRef(action)
	inv.Caller = ir.Principal(caller)
	inv.Height = ir.Height(height)

	obj, err := store.DecodeObject(args)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("entry %d args: %w", inv.Seq, err)
	}
	inv.Args = obj

	entry := ir.LogEntry{Invocation: inv}
	if outputCase != nil {
		res, err := store.DecodeObject(*result)
		if err != nil {
			return ir.LogEntry{}, fmt.Errorf("entry %d result: %w", inv.Seq, err)
		}
		entry.Completion = &ir.Completion{
			Seq:    inv.Seq,
			Case:   *outputCase,
			Code:   ir.ErrorCode(*code),
			Result: res,
		}
	}
	return entry, nil
}
