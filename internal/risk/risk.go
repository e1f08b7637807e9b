// Package risk holds the pre-flight balance guard.
package risk

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"bulktransfer-go/internal/amount"
)

// GasReserveWei is the flat 0.001 ether fee allowance added on top of the
// payout total. It is an estimate, not a computed gas cost.
var GasReserveWei = uint256.NewInt(1_000_000_000_000_000)

// BalanceReader is the slice of the chain client the guard needs.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// BalanceGuard decides once, before any send, whether a run may proceed.
type BalanceGuard struct {
	Client  BalanceReader
	Reserve *uint256.Int
	Symbol  string
	Log     zerolog.Logger
}

func NewBalanceGuard(client BalanceReader, symbol string, log zerolog.Logger) BalanceGuard {
	return BalanceGuard{Client: client, Reserve: GasReserveWei, Symbol: symbol, Log: log}
}

// Allow queries the sender balance and reports whether it covers total plus
// the reserve.
func (g BalanceGuard) Allow(ctx context.Context, sender common.Address, total *uint256.Int) (bool, error) {
	balance, err := g.Client.BalanceAt(ctx, sender)
	if err != nil {
		return false, fmt.Errorf("query balance: %w", err)
	}
	g.Log.Info().Msgf("sender balance: %s %s", amount.FormatEther(balance), g.Symbol)

	bal, overflow := uint256.FromBig(balance)
	if overflow {
		bal = new(uint256.Int).SetAllOne()
	}
	reserve := g.Reserve
	if reserve == nil {
		reserve = GasReserveWei
	}
	if !Sufficient(bal, total, reserve) {
		required := new(big.Int).Add(total.ToBig(), reserve.ToBig())
		g.Log.Error().Msgf("insufficient balance for transfer: have %s %s, need %s %s",
			amount.FormatEther(balance), g.Symbol, amount.FormatEther(required), g.Symbol)
		return false, nil
	}
	return true, nil
}

// Sufficient reports balance >= total + reserve.
func Sufficient(balance, total, reserve *uint256.Int) bool {
	required, overflow := new(uint256.Int).AddOverflow(total, reserve)
	if overflow {
		return false
	}
	return !balance.Lt(required)
}
