package ir

import (
	"fmt"
	"slices"
)

// ActionRef is a typed reference to a mutating operation.
// Format: "Registry.operation".
type ActionRef string

// Mutating operations addressable as calls.
const (
	ActionAuthorizeLab      ActionRef = "Authorization.authorizeLab"
	ActionRevokeLab         ActionRef = "Authorization.revokeLab"
	ActionRegisterStone     ActionRef = "Stones.registerStone"
	ActionVerifyStone       ActionRef = "Verifications.verifyStone"
	ActionDiscloseTreatment ActionRef = "Treatments.discloseTreatment"
)

// Actions lists every ActionRef in a fixed order.
var Actions = []ActionRef{
	ActionAuthorizeLab,
	ActionRevokeLab,
	ActionRegisterStone,
	ActionVerifyStone,
	ActionDiscloseTreatment,
}

// ParseActionRef validates s against the known actions.
func ParseActionRef(s string) (ActionRef, error) {
	ref := ActionRef(s)
	if !slices.Contains(Actions, ref) {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidCall, s)
	}
	return ref, nil
}
