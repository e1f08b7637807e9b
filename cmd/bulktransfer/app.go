package main

import (
	"context"
	"io"
	"math/rand"
	"os"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"bulktransfer-go/internal/amount"
	"bulktransfer-go/internal/chain"
	"bulktransfer-go/internal/config"
	"bulktransfer-go/internal/metrics"
	"bulktransfer-go/internal/risk"
	"bulktransfer-go/internal/transfer"
	"bulktransfer-go/internal/util"
)

const EnvRPCURL = "BULKTRANSFER_RPC_URL"

// stdout receives the operator console.
var stdout io.Writer = os.Stdout

// app holds everything built once at startup. wallet and client stay nil
// until connect.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	console *util.Console
	reserve *uint256.Int
	wallet  *chain.Wallet
	client  chain.Client
	rng     *rand.Rand
	closers []func()
}

// setup prepares everything that does not need the key or the network.
func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	reserve, err := cfg.GasReserveWei()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		console: util.NewConsole(stdout, cfg.App.NoColor),
		reserve: reserve,
		rng:     util.NewRand(),
	}
	logFile, err := util.OpenLogFile(cfg.App.LogFile)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = logFile.Close() })
	a.log = util.NewFileLogger(logFile, cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		srv, err := metrics.Serve(cfg.App.MetricsAddr, a.log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = srv.Close() })
		diag := util.NewLogger(cfg.App.LogLevel)
		diag.Info().Str("addr", srv.Addr).Msg("metrics up")
	}
	return a, nil
}

// connect loads the signing key and dials the RPC endpoint.
func (a *app) connect(ctx context.Context) error {
	wallet, err := chain.LoadWalletFromEnv(a.cfg.ChainIDBig())
	if err != nil {
		return err
	}
	client, err := chain.Dial(ctx, a.cfg.Chain.RPCURL, a.cfg.ChainIDBig())
	if err != nil {
		return err
	}
	a.wallet, a.client = wallet, client
	a.closers = append(a.closers, client.Close)
	return nil
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}
	chain.LoadDotEnv()
	cfg.Chain.RPCURL = getEnv(EnvRPCURL, cfg.Chain.RPCURL)
	if recipientsPath != "" {
		cfg.Transfer.RecipientsPath = recipientsPath
	}
	return cfg, cfg.Validate()
}

func (a *app) sequencer(recorders []transfer.Recorder) *transfer.Sequencer {
	guard := risk.NewBalanceGuard(a.client, a.cfg.Chain.Symbol, a.log)
	if a.reserve != nil {
		guard.Reserve = a.reserve
	}
	return transfer.NewSequencer(transfer.Options{
		Client:    a.client,
		Wallet:    a.wallet,
		Guard:     guard,
		Amounts:   amount.NewGenerator(a.rng),
		Rand:      a.rng,
		Waiter:    transfer.SleepWaiter{},
		Symbol:    a.cfg.Chain.Symbol,
		Log:       a.log,
		Console:   a.console,
		Recorders: recorders,
	})
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
