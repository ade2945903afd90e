package ir

// NOTE: These are call-log types. Seq is the log position assigned by
// the host; it is dense, starts at 1 and never has gaps.

// Invocation is the write-ahead half of a logged call.
type Invocation struct {
	Seq    int64     `json:"seq"`
	TxID   string    `json:"tx_id"`
	Digest string    `json:"digest"`
	Action ActionRef `json:"action"`
	Args   Object    `json:"args"`
	Caller Principal `json:"caller"`
	Height Height    `json:"height"`
}

// Context returns the call context the invocation ran under.
func (inv Invocation) Context() CallContext {
	return CallContext{Caller: inv.Caller, Height: inv.Height}
}

// Call returns the invocation's call.
func (inv Invocation) Call() Call {
	return Call{Action: inv.Action, Args: inv.Args}
}

// Completion records the outcome of the invocation with the same Seq.
type Completion struct {
	Seq    int64     `json:"seq"`
	Case   string    `json:"case"`
	Code   ErrorCode `json:"code"`
	Result Object    `json:"result"`
}

// Outcome returns the completion as an Outcome.
func (c Completion) Outcome() Outcome {
	return Outcome{Case: c.Case, Code: c.Code, Result: c.Result}
}

// LogEntry pairs an invocation with its completion.
// Completion is nil when the host stopped between the two writes.
type LogEntry struct {
	Invocation Invocation  `json:"invocation"`
	Completion *Completion `json:"completion,omitempty"`
}

// Receipt flattens a completed entry. Pending entries report an empty case.
func (e LogEntry) Receipt() Receipt {
	r := Receipt{
		TxID:   e.Invocation.TxID,
		Seq:    e.Invocation.Seq,
		Digest: e.Invocation.Digest,
		Action: e.Invocation.Action,
		Args:   e.Invocation.Args,
		Caller: e.Invocation.Caller,
		Height: e.Invocation.Height,
	}
	if e.Completion != nil {
		r.Case = e.Completion.Case
		r.Code = e.Completion.Code
		r.Result = e.Completion.Result
	}
	return r
}

// EntryFilter narrows a call-log read. Zero values mean "no filter".
type EntryFilter struct {
	Action   ActionRef
	Caller   Principal
	AfterSeq int64
	Limit    int
}
