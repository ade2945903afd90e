package contract

import "github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"

// Authorization is the lab authorization registry.
// The owner is fixed at construction.
type Authorization struct {
	owner ir.Principal
	labs  map[ir.Principal]bool
}

// NewAuthorization creates an empty registry owned by owner.
func NewAuthorization(owner ir.Principal) *Authorization {
	return &Authorization{
		owner: owner,
		labs:  make(map[ir.Principal]bool),
	}
}

// Owner returns the contract owner.
func (a *Authorization) Owner() ir.Principal {
	return a.owner
}

// AuthorizeLab marks lab as authorized. Only the owner may call it.
func (a *Authorization) AuthorizeLab(cc ir.CallContext, lab ir.Principal) error {
	return a.set(cc, lab, true)
}

// RevokeLab marks lab as not authorized. Only the owner may call it.
// Revoking a principal that was never authorized still records false.
func (a *Authorization) RevokeLab(cc ir.CallContext, lab ir.Principal) error {
	return a.set(cc, lab, false)
}

func (a *Authorization) set(cc ir.CallContext, lab ir.Principal, authorized bool) error {
	if cc.Caller != a.owner {
		return ir.Forbidden("caller %q is not the contract owner", cc.Caller)
	}
	a.labs[lab] = authorized
	return nil
}

// IsAuthorized reports the stored flag for p, false when p has no entry.
func (a *Authorization) IsAuthorized(p ir.Principal) bool {
	return a.labs[p]
}

// Entries returns a copy of every recorded flag, including revoked ones.
func (a *Authorization) Entries() map[ir.Principal]bool {
	out := make(map[ir.Principal]bool, len(a.labs))
	for p, v := range a.labs {
		out[p] = v
	}
	return out
}
