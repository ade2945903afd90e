// Package host runs the gemstone ledger as a single-writer execution host.
//
// The core registries in package contract take the caller and height as
// explicit arguments. The host is what supplies them: it owns the height
// clock, serializes every mutating call, and appends each call to a
// durable call log before and after applying it.
//
// WRITE PATH:
//
//  1. take the write lock
//  2. optionally mine a new height (WithAutoMine)
//  3. stamp CallContext{caller, height}, assign Seq and tx id, digest the call
//  4. reject malformed calls before anything is written
//  5. append the invocation
//  6. apply to the ledger
//  7. append the completion
//
// A crash between 5 and 7 leaves an invocation without a completion. Open
// re-applies the whole log in Seq order, writes the missing completions, and
// fails with ErrNonDeterministic if a recorded outcome no longer matches.
//
// Heights come only from Clock. Wall-clock time never enters the log.
package host
