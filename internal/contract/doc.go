// Package contract implements the gemstone provenance registries.
//
// Four cooperating state machines share one identity model:
//
//   - Authorization: the set of principals allowed to act as laboratories,
//     mutated only by the fixed contract owner (403 otherwise)
//   - Stones: sequential stone identifiers from 1 and immutable provenance records
//   - Verifications: at most one current grading per stone, written only by
//     authorized laboratories (401 otherwise); later writes overwrite
//   - Treatments: an append-only, per-stone numbered disclosure list
//
// Every operation takes an explicit ir.CallContext. Nothing here blocks,
// performs I/O or reads ambient state; callers provide the total order.
// Registries are not safe for concurrent use on their own; the host
// serializes access.
//
// The registries correlate only by the stone identifier value. Verification
// and treatment writes are accepted for identifiers the Stones registry never
// allocated.
package contract
