package chain

import (
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var testChainID = big.NewInt(33111)

func TestLoadWalletFromEnv(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey)

	t.Setenv(EnvPrivateKey, "0x"+common.Bytes2Hex(crypto.FromECDSA(key)))
	t.Setenv(EnvSenderAddress, address.Hex())

	wallet, err := LoadWalletFromEnv(testChainID)
	require.NoError(t, err)
	require.Equal(t, address, wallet.Address())
}

func TestLoadWalletFromEnvMissing(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	os.Unsetenv(EnvPrivateKey)
	_, err := LoadWalletFromEnv(testChainID)
	require.True(t, errors.Is(err, ErrMissingKey))
}

func TestNewWalletSenderMismatch(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = NewWalletFromKey(key, crypto.PubkeyToAddress(other.PublicKey).Hex(), testChainID)
	require.ErrorIs(t, err, ErrSenderMismatch)

	_, err = NewWalletFromKey(key, "not-an-address", testChainID)
	require.Error(t, err)

	_, err = NewWallet("zz", "", testChainID)
	require.Error(t, err)
}

func TestWalletSign(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet, err := NewWalletFromKey(key, "", testChainID)
	require.NoError(t, err)

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := types.NewTx(&types.LegacyTx{Nonce: 7, To: &to, Value: big.NewInt(1), Gas: 21000, GasPrice: big.NewInt(5_000_000_000)})
	signed, err := wallet.Sign(tx)
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(testChainID), signed)
	require.NoError(t, err)
	require.Equal(t, wallet.Address(), from)
	require.Zero(t, testChainID.Cmp(signed.ChainId()))
	require.Equal(t, uint64(7), signed.Nonce())
}
