package contract

import "github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"

type treatmentKey struct {
	stone ir.StoneID
	id    ir.TreatmentID
}

// Treatments is the append-only treatment disclosure registry.
type Treatments struct {
	counts  map[ir.StoneID]ir.TreatmentID
	records map[treatmentKey]ir.Treatment
}

// NewTreatments creates an empty registry.
func NewTreatments() *Treatments {
	return &Treatments{
		counts:  make(map[ir.StoneID]ir.TreatmentID),
		records: make(map[treatmentKey]ir.Treatment),
	}
}

// Disclose appends a treatment for stoneID and returns its per-stone
// sequence number. Any caller may disclose for any identifier.
func (t *Treatments) Disclose(cc ir.CallContext, stoneID ir.StoneID, d ir.TreatmentDisclosure) ir.TreatmentID {
	id := t.counts[stoneID] + 1
	t.counts[stoneID] = id
	t.records[treatmentKey{stone: stoneID, id: id}] = ir.Treatment{
		StoneID:             stoneID,
		ID:                  id,
		TreatmentDisclosure: d,
		DisclosedBy:         cc.Caller,
		DisclosedAt:         cc.Height,
	}
	return id
}

// Get returns treatment id of stoneID.
func (t *Treatments) Get(stoneID ir.StoneID, id ir.TreatmentID) (ir.Treatment, bool) {
	rec, ok := t.records[treatmentKey{stone: stoneID, id: id}]
	return rec, ok
}

// Count returns the number of disclosures for stoneID, 0 when unseen.
func (t *Treatments) Count(stoneID ir.StoneID) int64 {
	return int64(t.counts[stoneID])
}

// List returns every disclosure for stoneID in sequence order.
func (t *Treatments) List(stoneID ir.StoneID) []ir.Treatment {
	n := t.counts[stoneID]
	out := make([]ir.Treatment, 0, n)
	for id := ir.TreatmentID(1); id <= n; id++ {
		out = append(out, t.records[treatmentKey{stone: stoneID, id: id}])
	}
	return out
}
