// Package chaintest provides an in-memory chain.Client for tests.
package chaintest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"bulktransfer-go/internal/chain"
)

var _ chain.Client = (*Client)(nil)

// Client answers balance and nonce queries from fields and records every
// submitted transaction. FailOn maps a 0-based submission index to the error
// that submission returns.
type Client struct {
	mu sync.Mutex

	Balance    *big.Int
	Nonce      uint64
	BalanceErr error
	NonceErr   error
	FailOn     map[int]error

	BalanceCalls int
	NonceCalls   int
	Submitted    []*types.Transaction
	Accepted     []*types.Transaction
}

func NewClient(balance *big.Int, nonce uint64) *Client {
	return &Client{Balance: balance, Nonce: nonce, FailOn: map[int]error{}}
}

func (c *Client) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BalanceCalls++
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}
	return new(big.Int).Set(c.Balance), nil
}

func (c *Client) TransactionCount(context.Context, common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NonceCalls++
	return c.Nonce, c.NonceErr
}

func (c *Client) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := len(c.Submitted)
	c.Submitted = append(c.Submitted, tx)
	if err, ok := c.FailOn[idx]; ok && err != nil {
		return err
	}
	c.Accepted = append(c.Accepted, tx)
	return nil
}

// Nonces returns the nonce of every submitted transaction in order.
func (c *Client) Nonces() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, len(c.Submitted))
	for i, tx := range c.Submitted {
		out[i] = tx.Nonce()
	}
	return out
}
