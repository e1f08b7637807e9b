// Package amount generates randomized per-recipient payment amounts and
// converts between wei and ether display strings without floating point.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"bulktransfer-go/internal/util"
)

const (
	// MinDraw and MaxDraw bound the random component, in ten-thousandths of an ether.
	MinDraw = 11
	MaxDraw = 99

	// baseTenThousandths is the fixed 0.01 ether floor.
	baseTenThousandths = 100
	etherDecimals      = 18
)

var (
	weiPerTenThousandth = uint256.NewInt(100_000_000_000_000) // 1e14
	weiPerEther         = new(big.Int).Exp(big.NewInt(10), big.NewInt(etherDecimals), nil)
)

// Amount is one payment in base units (wei) and display units (ether).
type Amount struct {
	Wei     *uint256.Int
	Display string
}

// Generator draws amounts in [0.0111, 0.0199] ether in 0.0001 steps.
type Generator struct {
	rng util.Rand
}

func NewGenerator(rng util.Rand) *Generator {
	return &Generator{rng: rng}
}

// Next is independent of prior calls.
func (g *Generator) Next() Amount {
	draw := util.IntBetween(g.rng, MinDraw, MaxDraw)
	return FromTenThousandths(uint64(baseTenThousandths + draw))
}

// FromTenThousandths builds an Amount of units * 0.0001 ether.
func FromTenThousandths(units uint64) Amount {
	wei := new(uint256.Int).Mul(uint256.NewInt(units), weiPerTenThousandth)
	return Amount{Wei: wei, Display: FormatEther(wei.ToBig())}
}

// FormatEther renders wei as an exact decimal ether string with trailing
// zeros trimmed, e.g. 11100000000000000 -> "0.0111".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Set(wei)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}
	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}
	fracStr := frac.String()
	fracStr = strings.Repeat("0", etherDecimals-len(fracStr)) + fracStr
	return sign + whole.String() + "." + strings.TrimRight(fracStr, "0")
}

// ParseEther converts a decimal ether string to wei, rejecting values with
// more than 18 fractional digits.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, etherDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", etherDecimals-len(frac))
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok || wei.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return wei, nil
}
