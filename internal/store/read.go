package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

const selectEntries = `
	SELECT i.seq, i.tx_id, i.digest, i.action, i.args, i.caller, i.height,
	       c.output_case, c.error_code, c.result
	FROM invocations i
	LEFT JOIN completions c ON c.seq = i.seq`

// ReadEntries returns log entries matching filter, ordered by seq ASC.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ReadEntries(ctx context.Context, filter ir.EntryFilter) ([]ir.LogEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Action != "" {
		where = append(where, "i.action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Caller != "" {
		where = append(where, "i.caller = ?")
		args = append(args, string(filter.Caller))
	}
	if filter.AfterSeq > 0 {
		where = append(where, "i.seq > ?")
		args = append(args, filter.AfterSeq)
	}

	query := selectEntries
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY i.seq ASC"
	if filter.Limit > 0 {
		query += "\n\tLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// ReadEntry returns the entry with the given tx id, or ErrNotFound.
func (s *Store) ReadEntry(ctx context.Context, txID string) (ir.LogEntry, error) {
	row := s.db.QueryRowContext(ctx, selectEntries+"\n\tWHERE i.tx_id = ?", txID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.LogEntry{}, fmt.Errorf("entry %s: %w", txID, ErrNotFound)
	}
	return e, err
}

// Stats summarizes the log.
type Stats struct {
	Invocations int64        `json:"invocations"`
	Completions int64        `json:"completions"`
	Pending     int64        `json:"pending"`
	LastSeq     int64        `json:"last_seq"`
	LastHeight  ir.Height    `json:"last_height"`
	Owner       ir.Principal `json:"owner"`
}

// Stats counts invocations and completions.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM invocations),
			(SELECT COUNT(*) FROM completions),
			COALESCE((SELECT MAX(seq) FROM invocations), 0),
			COALESCE((SELECT MAX(height) FROM invocations), 0)
	`).Scan(&st.Invocations, &st.Completions, &st.LastSeq, &st.LastHeight)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.Pending = st.Invocations - st.Completions

	owner, _, err := s.Genesis(ctx)
	if err != nil {
		return Stats{}, err
	}
	st.Owner = owner
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (ir.LogEntry, error) {
	var (
		inv                  ir.Invocation
		action, caller, args string
		height               int64
		outputCase, result   sql.NullString
		code                 sql.NullInt64
	)
	if err := row.Scan(
		&inv.Seq, &inv.TxID, &inv.Digest, &action, &args, &caller, &height,
		&outputCase, &code, &result,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.LogEntry{}, err
		}
		return ir.LogEntry{}, fmt.Errorf("scan entry: %w", err)
	}

	inv.Action = ir.ActionRef(action)
	inv.Caller = ir.Principal(caller)
	inv.Height = ir.Height(height)

	obj, err := DecodeObject(args)
	if err != nil {
		return ir.LogEntry{}, fmt.Errorf("entry %d args: %w", inv.Seq, err)
	}
	inv.Args = obj

	entry := ir.LogEntry{Invocation: inv}
	if outputCase.Valid {
		res, err := DecodeObject(result.String)
		if err != nil {
			return ir.LogEntry{}, fmt.Errorf("entry %d result: %w", inv.Seq, err)
		}
		entry.Completion = &ir.Completion{
			Seq:    inv.Seq,
			Case:   outputCase.String,
			Code:   ir.ErrorCode(code.Int64),
			Result: res,
		}
	}
	return entry, nil
}
