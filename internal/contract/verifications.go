package contract

import "github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"

// LabAuthority answers whether a principal may act as a laboratory.
type LabAuthority interface {
	IsAuthorized(p ir.Principal) bool
}

// Verifications holds the latest lab verification per stone.
type Verifications struct {
	labs    LabAuthority
	records map[ir.StoneID]ir.Verification
}

// NewVerifications creates an empty registry gated by labs.
func NewVerifications(labs LabAuthority) *Verifications {
	return &Verifications{
		labs:    labs,
		records: make(map[ir.StoneID]ir.Verification),
	}
}

// Verify replaces the verification for stoneID with a record attributed to
// the caller. The caller must be authorized at call time. The stone
// identifier is not checked against the stone registry.
func (v *Verifications) Verify(cc ir.CallContext, stoneID ir.StoneID, report ir.VerificationReport) error {
	if !v.labs.IsAuthorized(cc.Caller) {
		return ir.Unauthorized("caller %q is not an authorized laboratory", cc.Caller)
	}
	v.records[stoneID] = ir.Verification{
		StoneID:            stoneID,
		VerificationReport: report,
		VerifiedBy:         cc.Caller,
		VerifiedAt:         cc.Height,
	}
	return nil
}

// Get returns the current verification for stoneID.
func (v *Verifications) Get(stoneID ir.StoneID) (ir.Verification, bool) {
	rec, ok := v.records[stoneID]
	return rec, ok
}

// IsAuthorized passes through to the lab authority.
func (v *Verifications) IsAuthorized(p ir.Principal) bool {
	return v.labs.IsAuthorized(p)
}
