// Package payout standardizes payloads shared between the sequencer and its recorders.
package payout

import (
	"time"

	"bulktransfer-go/internal/amount"
)

// Status is the outcome of a single send attempt.
type Status string

const (
	// Sent means the transaction was accepted by the submission call, not mined.
	Sent Status = "sent"
	// Failed means building, signing or submitting the transaction errored.
	Failed Status = "failed"
)

// Intent is one planned payment, consumed exactly once by the sequencer.
type Intent struct {
	Recipient string
	Amount    amount.Amount
}

// Result records one send attempt.
type Result struct {
	Recipient     string    `json:"recipient"`
	AmountWei     string    `json:"amount_wei"`
	AmountDisplay string    `json:"amount"`
	Nonce         uint64    `json:"nonce"`
	TxHash        string    `json:"tx_hash,omitempty"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	Ts            time.Time `json:"ts"`
}

// NewResult fills the intent-derived fields of a Result.
func NewResult(intent Intent, nonce uint64, ts time.Time) Result {
	return Result{
		Recipient:     intent.Recipient,
		AmountWei:     intent.Amount.Wei.Dec(),
		AmountDisplay: intent.Amount.Display,
		Nonce:         nonce,
		Ts:            ts,
	}
}
