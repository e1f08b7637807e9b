// Package transfer plans and submits the bulk payout, one transaction at a time.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"bulktransfer-go/internal/amount"
	"bulktransfer-go/internal/chain"
	"bulktransfer-go/internal/metrics"
	"bulktransfer-go/internal/payout"
	"bulktransfer-go/internal/util"
)

const (
	// GasLimit covers a plain value transfer only; contract recipients fail.
	GasLimit uint64 = 21000

	MinDelaySecs = 15
	MaxDelaySecs = 120
)

// GasPrice is fixed at 5 gwei.
var GasPrice = new(big.Int).Mul(big.NewInt(5), big.NewInt(params.GWei))

var (
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrInvalidRecipient    = errors.New("invalid recipient address")
)

// Guard is consulted once per run before the first send.
type Guard interface {
	Allow(ctx context.Context, sender common.Address, total *uint256.Int) (bool, error)
}

// Recorder receives one result per send attempt.
type Recorder interface {
	Record(result payout.Result)
}

// Options wires a Sequencer. Waiter, Console and Now default when nil.
type Options struct {
	Client    chain.Client
	Wallet    *chain.Wallet
	Guard     Guard
	Amounts   *amount.Generator
	Rand      util.Rand
	Waiter    Waiter
	Symbol    string
	Log       zerolog.Logger
	Console   *util.Console
	Recorders []Recorder
	Now       func() time.Time
}

// Plan is the outcome of the planning and guard phases.
type Plan struct {
	Intents []payout.Intent
	Total   *uint256.Int
	Nonce   uint64
}

// Summary describes a finished run.
type Summary struct {
	Planned    int
	Sent       int
	Failed     int
	StartNonce uint64
	NextNonce  uint64
	Total      *uint256.Int
}

// Sequencer owns the nonce counter for the duration of a run.
type Sequencer struct {
	client    chain.Client
	wallet    *chain.Wallet
	guard     Guard
	amounts   *amount.Generator
	rng       util.Rand
	waiter    Waiter
	symbol    string
	log       zerolog.Logger
	console   *util.Console
	recorders []Recorder
	now       func() time.Time
}

func NewSequencer(opts Options) *Sequencer {
	s := &Sequencer{
		client:    opts.Client,
		wallet:    opts.Wallet,
		guard:     opts.Guard,
		amounts:   opts.Amounts,
		rng:       opts.Rand,
		waiter:    opts.Waiter,
		symbol:    opts.Symbol,
		log:       opts.Log,
		console:   opts.Console,
		recorders: opts.Recorders,
		now:       opts.Now,
	}
	if s.waiter == nil {
		s.waiter = SleepWaiter{}
	}
	if s.console == nil {
		s.console = util.NewConsole(io.Discard, true)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.amounts == nil {
		s.amounts = amount.NewGenerator(s.rng)
	}
	return s
}

// Run prepares and executes a full payout over recipients. An empty list is
// not an error; nothing touches the chain in that case.
func (s *Sequencer) Run(ctx context.Context, recipients []string) (Summary, error) {
	if len(recipients) == 0 {
		s.console.Info("no recipients found.")
		return Summary{}, nil
	}
	plan, err := s.Prepare(ctx, recipients)
	if err != nil {
		return Summary{}, err
	}
	return s.Execute(ctx, plan)
}

// Prepare fetches the starting nonce, plans one intent per unique recipient
// and runs the balance guard against the planned total.
func (s *Sequencer) Prepare(ctx context.Context, recipients []string) (Plan, error) {
	sender := s.wallet.Address()
	nonce, err := s.client.TransactionCount(ctx, sender)
	if err != nil {
		return Plan{}, fmt.Errorf("query transaction count: %w", err)
	}

	intents, total := s.PlanIntents(recipients)
	s.log.Info().Msgf("planned %d transfers totalling %s %s, starting nonce %d",
		len(intents), amount.FormatEther(total.ToBig()), s.symbol, nonce)

	ok, err := s.guard.Allow(ctx, sender, total)
	if err != nil {
		return Plan{}, err
	}
	if !ok {
		s.console.Failure("insufficient balance, stopping run.")
		return Plan{}, ErrInsufficientBalance
	}
	return Plan{Intents: intents, Total: total, Nonce: nonce}, nil
}

// PlanIntents draws an amount for each recipient not seen earlier in the
// list and returns the intents in list order with their sum.
func (s *Sequencer) PlanIntents(recipients []string) ([]payout.Intent, *uint256.Int) {
	processed := make(map[string]struct{}, len(recipients))
	intents := make([]payout.Intent, 0, len(recipients))
	total := new(uint256.Int)
	for _, address := range recipients {
		if _, seen := processed[address]; seen {
			continue
		}
		amt := s.amounts.Next()
		total.Add(total, amt.Wei)
		intents = append(intents, payout.Intent{Recipient: address, Amount: amt})
		processed[address] = struct{}{}
	}
	return intents, total
}

// Execute submits plan.Intents in order. A failed submission is logged and
// skipped without advancing the nonce or pacing.
func (s *Sequencer) Execute(ctx context.Context, plan Plan) (Summary, error) {
	summary := Summary{Planned: len(plan.Intents), StartNonce: plan.Nonce, NextNonce: plan.Nonce, Total: plan.Total}
	nonce := plan.Nonce
	metrics.NextNonce.Set(float64(nonce))

	for i, intent := range plan.Intents {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := payout.NewResult(intent, nonce, s.now())
		hash, err := s.send(ctx, intent, nonce)
		if err != nil {
			result.Status = payout.Failed
			result.Error = err.Error()
			s.record(result)
			summary.Failed++
			metrics.TransfersTotal.WithLabelValues(string(payout.Failed)).Inc()

			s.log.Error().Msgf("failed to send transaction to %s: %v", intent.Recipient, err)
			s.log.Warn().Msgf("nonce %d not advanced after failure", nonce)
			s.console.Failure("failed to send transaction to %s. see log for details.", intent.Recipient)
			continue
		}

		result.Status = payout.Sent
		result.TxHash = hash.Hex()
		s.record(result)
		summary.Sent++
		metrics.TransfersTotal.WithLabelValues(string(payout.Sent)).Inc()
		if f, err := strconv.ParseFloat(intent.Amount.Display, 64); err == nil {
			metrics.AmountSentTotal.Add(f)
		}

		s.console.Success("transaction sent to %s. hash: %s. amount: %s %s", intent.Recipient, hash.Hex(), intent.Amount.Display, s.symbol)
		s.log.Info().Msgf("transaction sent to %s. hash: %s. amount: %s %s", intent.Recipient, hash.Hex(), intent.Amount.Display, s.symbol)

		nonce++
		summary.NextNonce = nonce
		metrics.NextNonce.Set(float64(nonce))

		if i == len(plan.Intents)-1 {
			break
		}
		if err := s.pace(ctx); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (s *Sequencer) send(ctx context.Context, intent payout.Intent, nonce uint64) (common.Hash, error) {
	tx, err := BuildTx(intent, nonce)
	if err != nil {
		return common.Hash{}, err
	}
	signed, err := s.wallet.Sign(tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("submit transaction: %w", err)
	}
	return signed.Hash(), nil
}

func (s *Sequencer) pace(ctx context.Context) error {
	secs := util.IntBetween(s.rng, MinDelaySecs, MaxDelaySecs)
	s.console.Info("waiting %d seconds before the next transaction...", secs)
	s.log.Info().Msgf("waiting %d seconds before the next transaction...", secs)
	metrics.PacingSeconds.Observe(float64(secs))
	return s.waiter.Wait(ctx, time.Duration(secs)*time.Second)
}

func (s *Sequencer) record(result payout.Result) {
	for _, r := range s.recorders {
		r.Record(result)
	}
}

// BuildTx assembles the unsigned legacy transfer for intent. The chain id
// is applied by the signer.
func BuildTx(intent payout.Intent, nonce uint64) (*types.Transaction, error) {
	if !common.IsHexAddress(intent.Recipient) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, intent.Recipient)
	}
	to := common.HexToAddress(intent.Recipient)
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    intent.Amount.Wei.ToBig(),
		Gas:      GasLimit,
		GasPrice: new(big.Int).Set(GasPrice),
	}), nil
}
