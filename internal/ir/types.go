package ir

// Principal is an opaque caller identity. Only equality is meaningful.
type Principal string

// Height is the ledger height active when an operation executed.
// Recorded as an attribute only; ordering comes from call order.
type Height int64

// StoneID identifies a registered stone. Allocation starts at 1;
// the zero value means "no stone allocated".
type StoneID int64

// TreatmentID is the per-stone sequence number of a treatment disclosure.
type TreatmentID int64

// CallContext carries the ambient values the execution host supplies
// for each operation. It is always passed explicitly.
type CallContext struct {
	Caller Principal `json:"caller"`
	Height Height    `json:"height"`
}

// At returns a CallContext for caller at height h.
func At(caller Principal, h Height) CallContext {
	return CallContext{Caller: caller, Height: h}
}

// StoneAttributes are the caller-supplied provenance fields of a stone.
// Weight is in the smallest reporting unit (points, 1/100 carat).
// None of these are validated for domain correctness.
type StoneAttributes struct {
	Name    string `json:"name"`
	Weight  int64  `json:"weight"`
	Color   string `json:"color"`
	Clarity string `json:"clarity"`
	Cut     string `json:"cut"`
	Origin  string `json:"origin"`
}

// Stone is an immutable registration record.
type Stone struct {
	ID StoneID `json:"stone_id"`
	StoneAttributes
	Owner        Principal `json:"owner"`
	RegisteredAt Height    `json:"registered_at"`
}

// VerificationReport is what a laboratory submits when grading a stone.
// LabName is free text and unrelated to the submitting principal.
type VerificationReport struct {
	LabName      string `json:"lab_name"`
	Grade        string `json:"grade"`
	ReportNumber string `json:"report_number"`
	Notes        string `json:"notes"`
}

// Verification is the latest grading record held for a stone.
type Verification struct {
	StoneID StoneID `json:"stone_id"`
	VerificationReport
	VerifiedBy Principal `json:"verified_by"`
	VerifiedAt Height    `json:"verified_at"`
}

// TreatmentDisclosure is what a caller submits when disclosing a treatment.
// PerformedAt is caller-supplied and never checked against the ledger height.
type TreatmentDisclosure struct {
	TreatmentType string `json:"treatment_type"`
	Description   string `json:"description"`
	PerformedBy   string `json:"performed_by"`
	PerformedAt   Height `json:"performed_at"`
}

// Treatment is an append-only disclosure record keyed by (StoneID, ID).
type Treatment struct {
	StoneID StoneID     `json:"stone_id"`
	ID      TreatmentID `json:"treatment_id"`
	TreatmentDisclosure
	DisclosedBy Principal `json:"disclosed_by"`
	DisclosedAt Height    `json:"disclosed_at"`
}
