package ir

// Call is a mutating operation addressed by action, with constrained args.
type Call struct {
	Action ActionRef `json:"action"`
	Args   Object    `json:"args"`
}

// Outcome is the tagged result of an applied call: exactly one of
// success (Code == CodeNone, optional Result payload) or failure (Code != 0).
type Outcome struct {
	Case   string    `json:"case"`
	Code   ErrorCode `json:"code"`
	Result Object    `json:"result"`
}

// OK reports whether the outcome is the success case.
func (o Outcome) OK() bool {
	return o.Code == CodeNone
}

// Err returns the outcome as a *ContractError, or nil on success.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &ContractError{Code: o.Code, Case: o.Case}
}

// Succeeded builds a success outcome with an optional payload.
func Succeeded(result Object) Outcome {
	if result == nil {
		result = Object{}
	}
	return Outcome{Case: CaseSuccess, Code: CodeNone, Result: result}
}

// Failed builds a failure outcome from a contract error.
func Failed(err *ContractError) Outcome {
	return Outcome{Case: err.Case, Code: err.Code, Result: Object{}}
}

// Receipt is what the execution host returns for every executed call.
type Receipt struct {
	TxID   string    `json:"tx_id"`
	Seq    int64     `json:"seq"`
	Digest string    `json:"digest"`
	Action ActionRef `json:"action"`
	Args   Object    `json:"args"`
	Caller Principal `json:"caller"`
	Height Height    `json:"height"`
	Case   string    `json:"case"`
	Code   ErrorCode `json:"code"`
	Result Object    `json:"result"`
}

// Outcome returns the tagged result carried by the receipt.
func (r Receipt) Outcome() Outcome {
	return Outcome{Case: r.Case, Code: r.Code, Result: r.Result}
}
