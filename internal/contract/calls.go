package contract

import (
	"fmt"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// Argument names used by the call encoding.
const (
	argLab           = "lab"
	argName          = "name"
	argWeight        = "weight"
	argColor         = "color"
	argClarity       = "clarity"
	argCut           = "cut"
	argOrigin        = "origin"
	argStoneID       = "stone_id"
	argLabName       = "lab_name"
	argGrade         = "grade"
	argReportNumber  = "report_number"
	argNotes         = "notes"
	argTreatmentType = "treatment_type"
	argDescription   = "description"
	argPerformedBy   = "performed_by"
	argPerformedAt   = "performed_at"
)

// AuthorizeLabCall encodes authorizeLab(lab).
func AuthorizeLabCall(lab ir.Principal) ir.Call {
	return ir.Call{Action: ir.ActionAuthorizeLab, Args: ir.Object{argLab: ir.String(lab)}}
}

// RevokeLabCall encodes revokeLab(lab).
func RevokeLabCall(lab ir.Principal) ir.Call {
	return ir.Call{Action: ir.ActionRevokeLab, Args: ir.Object{argLab: ir.String(lab)}}
}

// RegisterStoneCall encodes registerStone(attrs).
func RegisterStoneCall(attrs ir.StoneAttributes) ir.Call {
	return ir.Call{Action: ir.ActionRegisterStone, Args: ir.Object{
		argName:    ir.String(attrs.Name),
		argWeight:  ir.Int(attrs.Weight),
		argColor:   ir.String(attrs.Color),
		argClarity: ir.String(attrs.Clarity),
		argCut:     ir.String(attrs.Cut),
		argOrigin:  ir.String(attrs.Origin),
	}}
}

// VerifyStoneCall encodes verifyStone(stoneID, report).
func VerifyStoneCall(stoneID ir.StoneID, report ir.VerificationReport) ir.Call {
	return ir.Call{Action: ir.ActionVerifyStone, Args: ir.Object{
		argStoneID:      ir.Int(stoneID),
		argLabName:      ir.String(report.LabName),
		argGrade:        ir.String(report.Grade),
		argReportNumber: ir.String(report.ReportNumber),
		argNotes:        ir.String(report.Notes),
	}}
}

// DiscloseTreatmentCall encodes discloseTreatment(stoneID, d).
func DiscloseTreatmentCall(stoneID ir.StoneID, d ir.TreatmentDisclosure) ir.Call {
	return ir.Call{Action: ir.ActionDiscloseTreatment, Args: ir.Object{
		argStoneID:       ir.Int(stoneID),
		argTreatmentType: ir.String(d.TreatmentType),
		argDescription:   ir.String(d.Description),
		argPerformedBy:   ir.String(d.PerformedBy),
		argPerformedAt:   ir.Int(d.PerformedAt),
	}}
}

// fieldReader collects the first decoding error so decoders stay linear.
type fieldReader struct {
	args ir.Object
	err  error
}

func (r *fieldReader) str(key string) string {
	if r.err != nil {
		return ""
	}
	s, err := r.args.Str(key)
	r.err = err
	return s
}

func (r *fieldReader) int(key string) int64 {
	if r.err != nil {
		return 0
	}
	n, err := r.args.Int64(key)
	r.err = err
	return n
}

func (r *fieldReader) done(allowed ...string) error {
	if r.err != nil {
		return r.err
	}
	return r.args.Only(allowed...)
}

func decodeLab(args ir.Object) (ir.Principal, error) {
	r := fieldReader{args: args}
	lab := r.str(argLab)
	if err := r.done(argLab); err != nil {
		return "", err
	}
	return ir.Principal(lab), nil
}

func decodeStone(args ir.Object) (ir.StoneAttributes, error) {
	r := fieldReader{args: args}
	attrs := ir.StoneAttributes{
		Name:    r.str(argName),
		Weight:  r.int(argWeight),
		Color:   r.str(argColor),
		Clarity: r.str(argClarity),
		Cut:     r.str(argCut),
		Origin:  r.str(argOrigin),
	}
	if err := r.done(argName, argWeight, argColor, argClarity, argCut, argOrigin); err != nil {
		return ir.StoneAttributes{}, err
	}
	return attrs, nil
}

func decodeVerification(args ir.Object) (ir.StoneID, ir.VerificationReport, error) {
	r := fieldReader{args: args}
	id := ir.StoneID(r.int(argStoneID))
	report := ir.VerificationReport{
		LabName:      r.str(argLabName),
		Grade:        r.str(argGrade),
		ReportNumber: r.str(argReportNumber),
		Notes:        r.str(argNotes),
	}
	if err := r.done(argStoneID, argLabName, argGrade, argReportNumber, argNotes); err != nil {
		return 0, ir.VerificationReport{}, err
	}
	return id, report, nil
}

func decodeDisclosure(args ir.Object) (ir.StoneID, ir.TreatmentDisclosure, error) {
	r := fieldReader{args: args}
	id := ir.StoneID(r.int(argStoneID))
	d := ir.TreatmentDisclosure{
		TreatmentType: r.str(argTreatmentType),
		Description:   r.str(argDescription),
		PerformedBy:   r.str(argPerformedBy),
		PerformedAt:   ir.Height(r.int(argPerformedAt)),
	}
	if err := r.done(argStoneID, argTreatmentType, argDescription, argPerformedBy, argPerformedAt); err != nil {
		return 0, ir.TreatmentDisclosure{}, err
	}
	return id, d, nil
}

// DescribeCall renders a call for logs and text output.
func DescribeCall(call ir.Call) string {
	data, err := ir.MarshalCanonical(call.Args)
	if err != nil {
		return fmt.Sprintf("%s(<invalid args: %v>)", call.Action, err)
	}
	return fmt.Sprintf("%s(%s)", call.Action, data)
}
