package host

import (
	"errors"
	"fmt"
)

var (
	// ErrHeightRegression is returned when asked to move the clock backwards.
	ErrHeightRegression = errors.New("height regression")

	// ErrOwnerMismatch is returned by Open when the log was created for a
	// different contract owner.
	ErrOwnerMismatch = errors.New("owner does not match call log genesis")

	// ErrNonDeterministic is returned by Open when re-applying a logged call
	// produces a different outcome from the one recorded.
	ErrNonDeterministic = errors.New("non-deterministic replay")

	// ErrCorruptLog is returned by Open when the log itself is inconsistent:
	// a gap in Seq, a digest that does not match its call, or a call that no
	// longer decodes.
	ErrCorruptLog = errors.New("corrupt call log")
)

// ReplayMismatch describes a logged completion that disagrees with the
// outcome re-derived from its invocation.
type ReplayMismatch struct {
	Seq      int64
	TxID     string
	Recorded string
	Derived  string
}

func (m *ReplayMismatch) Error() string {
	return fmt.Sprintf("seq %d (tx %s): recorded %s, re-derived %s", m.Seq, m.TxID, m.Recorded, m.Derived)
}

// Unwrap lets errors.Is(err, ErrNonDeterministic) match.
func (m *ReplayMismatch) Unwrap() error {
	return ErrNonDeterministic
}
