package ir

// Version constants for the call-log schema and the ledger.
const (
	// IRVersion is the call-log record version stored in the genesis row.
	IRVersion = "1"

	// LedgerVersion is the gemledger release version.
	LedgerVersion = "0.1.0"
)
