package journal

import (
	"math/big"
	"sync"

	"bulktransfer-go/internal/payout"
)

// Ledger stores results in memory for quick inspection.
type Ledger struct {
	mu      sync.Mutex
	results []payout.Result
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{results: make([]payout.Result, 0, capacity)}
}

// Record appends a result to the ledger.
func (l *Ledger) Record(result payout.Result) {
	l.mu.Lock()
	l.results = append(l.results, result)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded results.
func (l *Ledger) Snapshot() []payout.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]payout.Result, len(l.results))
	copy(out, l.results)
	return out
}

// Totals counts attempts by status and sums the wei of accepted sends.
func (l *Ledger) Totals() (sent, failed int, sentWei *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sentWei = new(big.Int)
	for _, r := range l.results {
		switch r.Status {
		case payout.Sent:
			sent++
			if wei, ok := new(big.Int).SetString(r.AmountWei, 10); ok {
				sentWei.Add(sentWei, wei)
			}
		case payout.Failed:
			failed++
		}
	}
	return sent, failed, sentWei
}
