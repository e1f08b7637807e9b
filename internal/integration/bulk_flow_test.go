package integration

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"bulktransfer-go/internal/amount"
	"bulktransfer-go/internal/chain"
	"bulktransfer-go/internal/chain/chaintest"
	"bulktransfer-go/internal/journal"
	"bulktransfer-go/internal/payout"
	"bulktransfer-go/internal/recipient"
	"bulktransfer-go/internal/risk"
	"bulktransfer-go/internal/transfer"
	"bulktransfer-go/internal/util"
)

// events interleaves recorder and waiter calls so pacing order can be asserted.
type events struct{ seq []string }

func (e *events) Record(result payout.Result) { e.seq = append(e.seq, string(result.Status)) }

func (e *events) Wait(_ context.Context, d time.Duration) error {
	if d < transfer.MinDelaySecs*time.Second || d > transfer.MaxDelaySecs*time.Second {
		e.seq = append(e.seq, "wait-out-of-range")
		return nil
	}
	e.seq = append(e.seq, "wait")
	return nil
}

type harness struct {
	client  *chaintest.Client
	ledger  *journal.Ledger
	events  *events
	fileLog bytes.Buffer
	console bytes.Buffer
	seq     *transfer.Sequencer
	path    string
}

func newHarness(t *testing.T, client *chaintest.Client, lines string) *harness {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet, err := chain.NewWalletFromKey(key, "", big.NewInt(33111))
	require.NoError(t, err)

	h := &harness{client: client, ledger: journal.NewLedger(8), events: &events{}}
	h.path = filepath.Join(t.TempDir(), "recipients.txt")
	if lines != "" {
		require.NoError(t, os.WriteFile(h.path, []byte(lines), 0o644))
	}

	log := util.NewFileLogger(&h.fileLog, "info")
	rng := rand.New(rand.NewSource(99))
	h.seq = transfer.NewSequencer(transfer.Options{
		Client:    client,
		Wallet:    wallet,
		Guard:     risk.NewBalanceGuard(client, "APE", log),
		Amounts:   amount.NewGenerator(rng),
		Rand:      rng,
		Waiter:    h.events,
		Symbol:    "APE",
		Log:       log,
		Console:   util.NewConsole(&h.console, true),
		Recorders: []transfer.Recorder{h.ledger, h.events},
	})
	return h
}

func (h *harness) run(t *testing.T) (transfer.Summary, error) {
	t.Helper()
	recipients := recipient.Load(h.path, rand.New(rand.NewSource(5)), util.NewFileLogger(&h.fileLog, "info"))
	return h.seq.Run(context.Background(), recipients)
}

func addresses(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(common.BigToAddress(big.NewInt(int64(1000 + i))).Hex())
		b.WriteString("\n")
	}
	return b.String()
}

func TestScenarioAllSucceed(t *testing.T) {
	client := chaintest.NewClient(big.NewInt(1e18), 7)
	h := newHarness(t, client, addresses(3))

	summary, err := h.run(t)
	require.NoError(t, err)
	require.Len(t, client.Submitted, 3)
	require.Equal(t, []uint64{7, 8, 9}, client.Nonces())
	require.Equal(t, uint64(10), summary.NextNonce)
	require.Equal(t, []string{"sent", "wait", "sent", "wait", "sent"}, h.events.seq)
	require.Equal(t, 3, strings.Count(h.fileLog.String(), "INFO: transaction sent to "))

	sent, failed, wei := h.ledger.Totals()
	require.Equal(t, 3, sent)
	require.Zero(t, failed)
	require.Zero(t, wei.Cmp(summary.Total.ToBig()))
}

func TestScenarioInsufficientBalance(t *testing.T) {
	// Three transfers need at least 3*0.0111 + 0.001 ether.
	client := chaintest.NewClient(big.NewInt(10_000_000_000_000_000), 0)
	h := newHarness(t, client, addresses(3))

	_, err := h.run(t)
	require.ErrorIs(t, err, transfer.ErrInsufficientBalance)
	require.Empty(t, client.Submitted)
	require.Empty(t, h.events.seq)
	require.Equal(t, 1, strings.Count(h.fileLog.String(), "ERROR: insufficient balance"))
	require.Contains(t, h.console.String(), "insufficient balance, stopping run.")
}

func TestScenarioMiddleFailure(t *testing.T) {
	client := chaintest.NewClient(big.NewInt(1e18), 5)
	client.FailOn[1] = errors.New("network unreachable")
	h := newHarness(t, client, addresses(3))

	summary, err := h.run(t)
	require.NoError(t, err)
	require.Len(t, client.Submitted, 3)
	require.Equal(t, []uint64{5, 6, 6}, client.Nonces())
	require.Equal(t, uint64(7), summary.NextNonce)
	require.Equal(t, 2, summary.Sent)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, []string{"sent", "wait", "failed", "sent"}, h.events.seq)

	results := h.ledger.Snapshot()
	require.Equal(t, payout.Failed, results[1].Status)
	require.Contains(t, results[1].Error, "network unreachable")
	require.Contains(t, h.fileLog.String(), "ERROR: failed to send transaction to "+results[1].Recipient)
	require.Contains(t, h.console.String(), "failed to send transaction to "+results[1].Recipient+". see log for details.")
}

func TestScenarioDuplicatesSentOnce(t *testing.T) {
	client := chaintest.NewClient(big.NewInt(1e18), 0)
	h := newHarness(t, client, addresses(2)+addresses(2)+"\n")

	summary, err := h.run(t)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Planned)
	require.Len(t, client.Submitted, 2)
	require.NotEqual(t, *client.Submitted[0].To(), *client.Submitted[1].To())
}

func TestScenarioNoRecipients(t *testing.T) {
	for name, lines := range map[string]string{"empty": "\n\n", "missing": ""} {
		t.Run(name, func(t *testing.T) {
			client := chaintest.NewClient(big.NewInt(1e18), 0)
			h := newHarness(t, client, lines)

			_, err := h.run(t)
			require.NoError(t, err)
			require.Empty(t, client.Submitted)
			require.Zero(t, client.BalanceCalls)
			require.Contains(t, h.console.String(), "no recipients found.")
		})
	}
}
