package domain

// SafetyVerdict is the outcome of the candidate validation pipeline.
// Computed per signal, never stored.
type SafetyVerdict struct {
	Safe   bool
	Reason string // reason class, one of the Reason* constants
	Detail string // human-readable context for logs
}

// Verdict reason classes.
const (
	ReasonOK               = "OK"
	ReasonFinancialMetrics = "FINANCIAL_METRICS"
	ReasonAuthorityPresent = "AUTHORITY_PRESENT"
	ReasonExternalScore    = "EXTERNAL_SCORE"
	ReasonRPCUnavailable   = "RPC_UNAVAILABLE"
)

// Accept returns an affirmative verdict.
func Accept() SafetyVerdict {
	return SafetyVerdict{Safe: true, Reason: ReasonOK}
}

// Reject returns a fail-closed rejection with the given reason class.
func Reject(reason, detail string) SafetyVerdict {
	return SafetyVerdict{Safe: false, Reason: reason, Detail: detail}
}
