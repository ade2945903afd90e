package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

const (
	owner   ir.Principal = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	labX    ir.Principal = "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"
	labY    ir.Principal = "ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC"
	mallory ir.Principal = "ST3AM1A56AK2C1XAFJ4115ZSV26EB49BVQ10MGCS0"
)

var sapphire = ir.StoneAttributes{
	Name:    "Blue Sapphire",
	Weight:  500,
	Color:   "Deep Blue",
	Clarity: "VS1",
	Cut:     "Oval",
	Origin:  "Sri Lanka",
}

func mustApply(t *testing.T, l *Ledger, cc ir.CallContext, call ir.Call) ir.Outcome {
	t.Helper()
	out, err := l.Apply(cc, call)
	require.NoError(t, err)
	return out
}

func TestLedger_ProvenanceScenario(t *testing.T) {
	l := NewLedger(owner)

	out := mustApply(t, l, ir.At(owner, 100), RegisterStoneCall(sapphire))
	require.True(t, out.OK())
	assert.Equal(t, ir.Object{"stone_id": ir.Int(1)}, out.Result)

	stone, ok := l.Stones.Get(1)
	require.True(t, ok)
	assert.Equal(t, owner, stone.Owner)
	assert.Equal(t, ir.Height(100), stone.RegisteredAt)
	assert.Equal(t, sapphire, stone.StoneAttributes)

	out = mustApply(t, l, ir.At(owner, 101), AuthorizeLabCall(labX))
	require.True(t, out.OK())

	report := ir.VerificationReport{LabName: "GIA", Grade: "AAA", ReportNumber: "GIA123456789", Notes: "notes"}
	out = mustApply(t, l, ir.At(labX, 102), VerifyStoneCall(1, report))
	require.True(t, out.OK())

	v, ok := l.Verifications.Get(1)
	require.True(t, ok)
	assert.Equal(t, labX, v.VerifiedBy)
	assert.Equal(t, "AAA", v.Grade)
	assert.Equal(t, ir.Height(102), v.VerifiedAt)

	heat := ir.TreatmentDisclosure{
		TreatmentType: "Heat Treatment",
		Description:   "Heated to 1700C to improve color",
		PerformedBy:   "Ratnapura Lapidary",
		PerformedAt:   95,
	}
	out = mustApply(t, l, ir.At(mallory, 103), DiscloseTreatmentCall(1, heat))
	assert.Equal(t, ir.Object{"treatment_id": ir.Int(1)}, out.Result)
	assert.Equal(t, int64(1), l.Treatments.Count(1))

	out = mustApply(t, l, ir.At(mallory, 104), DiscloseTreatmentCall(1, heat))
	assert.Equal(t, ir.Object{"treatment_id": ir.Int(2)}, out.Result)
	assert.Equal(t, int64(2), l.Treatments.Count(1))

	out = mustApply(t, l, ir.At(labX, 105), DiscloseTreatmentCall(2, heat))
	assert.Equal(t, ir.Object{"treatment_id": ir.Int(1)}, out.Result)
	assert.Equal(t, int64(1), l.Treatments.Count(2))
	assert.Equal(t, int64(2), l.Treatments.Count(1))
}

func TestLedger_ForbiddenLeavesStateUnchanged(t *testing.T) {
	l := NewLedger(owner)
	mustApply(t, l, ir.At(owner, 1), AuthorizeLabCall(labX))

	out := mustApply(t, l, ir.At(mallory, 2), RevokeLabCall(labX))
	assert.Equal(t, ir.CaseForbidden, out.Case)
	assert.Equal(t, ir.CodeForbidden, out.Code)
	assert.True(t, l.Authorization.IsAuthorized(labX))

	out = mustApply(t, l, ir.At(mallory, 3), AuthorizeLabCall(mallory))
	assert.Equal(t, ir.CodeForbidden, out.Code)
	assert.False(t, l.Authorization.IsAuthorized(mallory))
	assert.Equal(t, map[ir.Principal]bool{labX: true}, l.Authorization.Entries())
}

func TestLedger_UnauthorizedVerification(t *testing.T) {
	l := NewLedger(owner)
	report := ir.VerificationReport{LabName: "AGL", Grade: "A"}

	out := mustApply(t, l, ir.At(labX, 10), VerifyStoneCall(1, report))
	assert.Equal(t, ir.CaseUnauthorized, out.Case)
	assert.Equal(t, ir.CodeUnauthorized, out.Code)
	_, ok := l.Verifications.Get(1)
	assert.False(t, ok)
}

func TestLedger_InvalidCalls(t *testing.T) {
	tests := []struct {
		name string
		call ir.Call
	}{
		{"unknown action", ir.Call{Action: "Stones.burn", Args: ir.Object{}}},
		{"missing lab", ir.Call{Action: ir.ActionAuthorizeLab, Args: ir.Object{}}},
		{"lab wrong type", ir.Call{Action: ir.ActionAuthorizeLab, Args: ir.Object{"lab": ir.Int(7)}}},
		{"extra arg", ir.Call{Action: ir.ActionRevokeLab, Args: ir.Object{"lab": ir.String("x"), "why": ir.String("y")}}},
		{"weight as string", func() ir.Call {
			c := RegisterStoneCall(sapphire)
			c.Args["weight"] = ir.String("500")
			return c
		}()},
		{"stone id missing", func() ir.Call {
			c := VerifyStoneCall(1, ir.VerificationReport{})
			delete(c.Args, "stone_id")
			return c
		}()},
		{"performed_at as bool", func() ir.Call {
			c := DiscloseTreatmentCall(1, ir.TreatmentDisclosure{})
			c.Args["performed_at"] = ir.Bool(true)
			return c
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(owner)
			_, err := l.Apply(ir.At(owner, 1), tt.call)
			assert.ErrorIs(t, err, ir.ErrInvalidCall)
			assert.ErrorIs(t, Validate(tt.call), ir.ErrInvalidCall)
			assert.Equal(t, ir.StoneID(0), l.Stones.LastID())
			assert.Empty(t, l.Authorization.Entries())
		})
	}
}

func TestValidate_AcceptsBuiltCalls(t *testing.T) {
	calls := []ir.Call{
		AuthorizeLabCall(labX),
		RevokeLabCall(labX),
		RegisterStoneCall(sapphire),
		VerifyStoneCall(1, ir.VerificationReport{LabName: "GIA"}),
		DiscloseTreatmentCall(1, ir.TreatmentDisclosure{TreatmentType: "Oiling"}),
	}
	for _, c := range calls {
		assert.NoError(t, Validate(c), c.Action)
	}
}

func TestLedger_NoDomainValidation(t *testing.T) {
	l := NewLedger(owner)

	odd := ir.StoneAttributes{Name: "", Weight: -3}
	out := mustApply(t, l, ir.At(mallory, 0), RegisterStoneCall(odd))
	require.True(t, out.OK())

	stone, ok := l.Stones.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(-3), stone.Weight)
}

func TestDescribeCall(t *testing.T) {
	assert.Equal(t, `Authorization.authorizeLab({"lab":"lab-1"})`, DescribeCall(AuthorizeLabCall("lab-1")))
}
