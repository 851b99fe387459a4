package solana

// LogsFilter selects which program logs to subscribe to.
type LogsFilter struct {
	// Mentions restricts notifications to transactions mentioning these
	// addresses. Empty subscribes to all transactions.
	Mentions []string
}

// LogNotification is one transaction's log output delivered over the
// subscription.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{} // non-nil when the transaction failed
}
