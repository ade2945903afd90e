// Package store provides the SQLite call log for the gemstone ledger.
//
// The log is append-only:
//   - genesis: the contract owner, written once
//   - invocations: every accepted call with its caller, height and digest
//   - completions: the outcome of the invocation with the same seq
//
// # Ordering
//
// seq is the only ordering key. It is dense and assigned by the host; all
// reads ORDER BY seq ASC. Heights are recorded but never used to order.
//
// # Encoding
//
// Args and results are stored as RFC 8785 canonical JSON TEXT, so a row
// re-encodes to the same bytes and digests stay stable across backends.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Completions must reference an invocation
package store
