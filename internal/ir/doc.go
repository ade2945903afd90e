// Package ir provides the shared value types of the gemstone provenance ledger.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the identity, record
// and call types the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - weights, heights and identifiers are int64
//   - Every operation receives an explicit CallContext (caller + height)
//   - Business-rule failures are *ContractError values, never panics
//   - All JSON tags use snake_case
//   - Canonical JSON (RFC 8785) is the only serialization used for digests
package ir
