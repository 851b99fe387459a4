package domain

// Execution failure reason classes.
const (
	ExecOK            = "OK"
	ExecNoQuote       = "NO_QUOTE"
	ExecNoRoute       = "NO_ROUTE"
	ExecSigning       = "SIGNING"
	ExecRelayRejected = "RELAY_REJECTED"
	ExecRateLimited   = "RATE_LIMITED"
)

// ExecutionResult reports the outcome of one trade submission.
type ExecutionResult struct {
	Success  bool
	BundleID string // relay bundle identifier when submission succeeded
	Reason   string // failure class, ExecOK on success
}

// ExecSuccess builds a successful result carrying the relay bundle ID.
func ExecSuccess(bundleID string) ExecutionResult {
	return ExecutionResult{Success: true, BundleID: bundleID, Reason: ExecOK}
}

// ExecFailure builds a failed result with the given reason class.
func ExecFailure(reason string) ExecutionResult {
	return ExecutionResult{Success: false, Reason: reason}
}
