package journal

import (
	"testing"
	"time"

	"bulktransfer-go/internal/amount"
	"bulktransfer-go/internal/payout"
)

func result(recipient string, units uint64, status payout.Status) payout.Result {
	r := payout.NewResult(payout.Intent{Recipient: recipient, Amount: amount.FromTenThousandths(units)}, 0, time.Now())
	r.Status = status
	return r
}

func TestLedgerRecordAndSnapshot(t *testing.T) {
	ledger := NewLedger(-1)
	ledger.Record(result("0x1", 111, payout.Sent))
	ledger.Record(result("0x2", 120, payout.Failed))
	ledger.Record(result("0x3", 199, payout.Sent))

	snap := ledger.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 results, got %d", len(snap))
	}
	snap[0].Recipient = "mutated"
	if ledger.Snapshot()[0].Recipient != "0x1" {
		t.Fatalf("snapshot should be a copy")
	}

	sent, failed, wei := ledger.Totals()
	if sent != 2 || failed != 1 {
		t.Fatalf("expected 2 sent / 1 failed, got %d / %d", sent, failed)
	}
	if wei.String() != "31000000000000000" {
		t.Fatalf("unexpected sent wei: %s", wei)
	}
}
