package chain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

const (
	EnvPrivateKey    = "PRIVATE_KEY"
	EnvSenderAddress = "SENDER_ADDRESS"
)

var (
	ErrMissingKey     = errors.New(EnvPrivateKey + " not set")
	ErrSenderMismatch = errors.New("sender address does not match private key")
)

// Wallet holds the sender key for the lifetime of the process.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	signer  types.Signer
}

// LoadWalletFromEnv reads PRIVATE_KEY and the optional SENDER_ADDRESS,
// loading a .env file first when one exists.
func LoadWalletFromEnv(chainID *big.Int) (*Wallet, error) {
	LoadDotEnv()
	keyHex := os.Getenv(EnvPrivateKey)
	if keyHex == "" {
		return nil, ErrMissingKey
	}
	return NewWallet(keyHex, os.Getenv(EnvSenderAddress), chainID)
}

// LoadDotEnv merges a .env file from the working directory into the process
// environment without overriding variables that are already set.
func LoadDotEnv() {
	_ = godotenv.Load() // best-effort
}

// NewWallet parses a hex private key. When sender is non-empty it must be
// the key's address.
func NewWallet(keyHex, sender string, chainID *big.Int) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewWalletFromKey(key, sender, chainID)
}

func NewWalletFromKey(key *ecdsa.PrivateKey, sender string, chainID *big.Int) (*Wallet, error) {
	address := crypto.PubkeyToAddress(key.PublicKey)
	if sender = strings.TrimSpace(sender); sender != "" {
		if !common.IsHexAddress(sender) {
			return nil, fmt.Errorf("invalid %s %q", EnvSenderAddress, sender)
		}
		if common.HexToAddress(sender) != address {
			return nil, fmt.Errorf("%w: %s vs %s", ErrSenderMismatch, sender, address.Hex())
		}
	}
	return &Wallet{
		key:     key,
		address: address,
		signer:  types.LatestSignerForChainID(chainID),
	}, nil
}

func (w *Wallet) Address() common.Address { return w.address }

// Sign signs tx for the wallet's chain id.
func (w *Wallet) Sign(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, w.signer, w.key)
}
