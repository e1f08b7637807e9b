// Package chain wraps the EVM JSON-RPC endpoint and the local signing key.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	_ Client = (*EthClient)(nil)
)

// Client is the subset of chain access the transfer run needs.
type Client interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	// TransactionCount returns the sender's transaction count at the latest block.
	TransactionCount(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EthClient implements Client over go-ethereum's ethclient.
type EthClient struct {
	eth *ethclient.Client
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 15 * time.Second,
	}
}

// Dial connects to rpcURL and verifies the endpoint serves wantChainID.
func Dial(ctx context.Context, rpcURL string, wantChainID *big.Int) (*EthClient, error) {
	rpcClient, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(newHTTPClient()))
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}
	cli := ethclient.NewClient(rpcClient)

	if wantChainID != nil {
		got, err := cli.ChainID(ctx)
		if err != nil {
			cli.Close()
			return nil, fmt.Errorf("query chain id: %w", err)
		}
		if got.Cmp(wantChainID) != 0 {
			cli.Close()
			return nil, fmt.Errorf("rpc %s serves chain id %s, expected %s", rpcURL, got, wantChainID)
		}
	}
	return &EthClient{eth: cli}, nil
}

func (e *EthClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return e.eth.BalanceAt(ctx, account, nil)
}

func (e *EthClient) TransactionCount(ctx context.Context, account common.Address) (uint64, error) {
	return e.eth.NonceAt(ctx, account, nil)
}

func (e *EthClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return e.eth.SendTransaction(ctx, tx)
}

func (e *EthClient) Close() {
	e.eth.Close()
}
