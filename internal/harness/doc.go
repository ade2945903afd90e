// Package harness runs YAML conformance scenarios against the ledger.
//
// A scenario names a contract owner and a list of steps. Each step invokes
// one call as a principal, optionally at an explicit height, and may state
// the expected output case, code and result fields:
//
//	name: provenance
//	description: "Register, grade and disclose one stone"
//	owner: ST1OWNER
//	steps:
//	  - as: ST1OWNER
//	    height: 100
//	    invoke: Stones.registerStone
//	    args: { name: "Blue Sapphire", weight: 500, ... }
//	    expect:
//	      case: Success
//	      result: { stone_id: 1 }
//	assertions:
//	  - type: final_state
//	    table: stone
//	    where: { stone_id: 1 }
//	    expect: { owner: ST1OWNER, registered_at: 100 }
//
// # Assertion Types
//
//   - trace_contains: a call with the action and matching args was logged
//   - trace_order: actions were first logged in the given order
//   - trace_count: an action was logged exactly N times
//   - final_state: a read operation returns the expected fields
//
// final_state tables are stone, verification, treatment, treatment_count,
// last_stone_id and authorization. Every table also reports "exists".
//
// # Determinism
//
// Every scenario runs through a real host over a fresh in-memory SQLite call
// log, with transaction ids "tx-1", "tx-2", ... and no auto-mine. The same
// scenario therefore always yields a byte-identical trace, which RunWithGolden
// compares against testdata/golden/<name>.golden.
package harness
