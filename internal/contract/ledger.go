package contract

import (
	"errors"
	"fmt"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// Ledger wires the four registries together around one owner.
type Ledger struct {
	Authorization *Authorization
	Stones        *Stones
	Verifications *Verifications
	Treatments    *Treatments
}

// NewLedger creates empty registries. Verifications are gated by the
// ledger's own Authorization registry.
func NewLedger(owner ir.Principal) *Ledger {
	authz := NewAuthorization(owner)
	return &Ledger{
		Authorization: authz,
		Stones:        NewStones(),
		Verifications: NewVerifications(authz),
		Treatments:    NewTreatments(),
	}
}

// Owner returns the contract owner.
func (l *Ledger) Owner() ir.Principal {
	return l.Authorization.Owner()
}

// handler applies a decoded call. Decoding happens before any mutation.
type handler func(l *Ledger, cc ir.CallContext, args ir.Object) (ir.Outcome, error)

var handlers = map[ir.ActionRef]handler{
	ir.ActionAuthorizeLab:      applyAuthorizeLab,
	ir.ActionRevokeLab:         applyRevokeLab,
	ir.ActionRegisterStone:     applyRegisterStone,
	ir.ActionVerifyStone:       applyVerifyStone,
	ir.ActionDiscloseTreatment: applyDiscloseTreatment,
}

// Apply executes call under cc.
//
// A malformed call (unknown action, missing or mistyped args) returns an
// error wrapping ir.ErrInvalidCall and changes nothing. Otherwise the
// returned Outcome carries the tagged result; contract rejections are
// outcomes, not errors.
func (l *Ledger) Apply(cc ir.CallContext, call ir.Call) (ir.Outcome, error) {
	h, ok := handlers[call.Action]
	if !ok {
		return ir.Outcome{}, fmt.Errorf("%w: unknown action %q", ir.ErrInvalidCall, call.Action)
	}
	return h(l, cc, call.Args)
}

// Validate decodes call without applying it.
func Validate(call ir.Call) error {
	var err error
	switch call.Action {
	case ir.ActionAuthorizeLab, ir.ActionRevokeLab:
		_, err = decodeLab(call.Args)
	case ir.ActionRegisterStone:
		_, err = decodeStone(call.Args)
	case ir.ActionVerifyStone:
		_, _, err = decodeVerification(call.Args)
	case ir.ActionDiscloseTreatment:
		_, _, err = decodeDisclosure(call.Args)
	default:
		err = fmt.Errorf("%w: unknown action %q", ir.ErrInvalidCall, call.Action)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", call.Action, err)
	}
	return nil
}

func outcomeOf(err error) ir.Outcome {
	if err == nil {
		return ir.Succeeded(nil)
	}
	var ce *ir.ContractError
	if !errors.As(err, &ce) {
		// Registries only ever return contract errors.
		panic(fmt.Sprintf("contract: unexpected error type %T", err))
	}
	return ir.Failed(ce)
}

func applyAuthorizeLab(l *Ledger, cc ir.CallContext, args ir.Object) (ir.Outcome, error) {
	lab, err := decodeLab(args)
	if err != nil {
		return ir.Outcome{}, err
	}
	return outcomeOf(l.Authorization.AuthorizeLab(cc, lab)), nil
}

func applyRevokeLab(l *Ledger, cc ir.CallContext, args ir.Object) (ir.Outcome, error) {
	lab, err := decodeLab(args)
	if err != nil {
		return ir.Outcome{}, err
	}
	return outcomeOf(l.Authorization.RevokeLab(cc, lab)), nil
}

func applyRegisterStone(l *Ledger, cc ir.CallContext, args ir.Object) (ir.Outcome, error) {
	attrs, err := decodeStone(args)
	if err != nil {
		return ir.Outcome{}, err
	}
	id := l.Stones.Register(cc, attrs)
	return ir.Succeeded(ir.Object{"stone_id": ir.Int(id)}), nil
}

func applyVerifyStone(l *Ledger, cc ir.CallContext, args ir.Object) (ir.Outcome, error) {
	stoneID, report, err := decodeVerification(args)
	if err != nil {
		return ir.Outcome{}, err
	}
	return outcomeOf(l.Verifications.Verify(cc, stoneID, report)), nil
}

func applyDiscloseTreatment(l *Ledger, cc ir.CallContext, args ir.Object) (ir.Outcome, error) {
	stoneID, d, err := decodeDisclosure(args)
	if err != nil {
		return ir.Outcome{}, err
	}
	id := l.Treatments.Disclose(cc, stoneID, d)
	return ir.Succeeded(ir.Object{"treatment_id": ir.Int(id)}), nil
}
