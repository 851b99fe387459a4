package discovery

import (
	"context"
	"log"
	"strings"

	"titan-sniper/internal/solana"
)

// RaydiumAMMProgram is the mainnet AMM program whose logs announce new
// pools.
const RaydiumAMMProgram = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

// poolInitMarkers are log fragments emitted by pool-creation instructions.
var poolInitMarkers = []string{
	"initialize2",
	"init_pc_amount",
	"InitializeInstruction2",
}

// Waker is nudged when on-chain activity suggests a pool just launched.
type Waker interface {
	Wake()
}

// LogWatcher tails a program-log subscription and pulls the screener scan
// forward when a pool-creation transaction lands, cutting the discovery
// latency below the poll interval.
type LogWatcher struct {
	notifications <-chan solana.LogNotification
	waker         Waker
	logger        *log.Logger
}

func NewLogWatcher(notifications <-chan solana.LogNotification, waker Waker, logger *log.Logger) *LogWatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogWatcher{notifications: notifications, waker: waker, logger: logger}
}

// Run consumes notifications until the context is cancelled or the stream
// closes.
func (w *LogWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case note, ok := <-w.notifications:
			if !ok {
				return nil
			}
			if note.Err != nil {
				continue
			}
			if containsPoolInit(note.Logs) {
				w.logger.Printf("[discovery] pool init seen in tx %s, waking scanner", note.Signature)
				w.waker.Wake()
			}
		}
	}
}

func containsPoolInit(logs []string) bool {
	for _, line := range logs {
		for _, marker := range poolInitMarkers {
			if strings.Contains(line, marker) {
				return true
			}
		}
	}
	return false
}
