// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"bulktransfer-go/internal/amount"
)

// Deployment defaults for the Curtis network.
const (
	DefaultRPCURL         = "https://curtis.rpc.caldera.xyz/http"
	DefaultChainID        = 33111
	DefaultSymbol         = "APE"
	DefaultRecipientsPath = "recipients.txt"
	DefaultLogFile        = "bulk_transfer.log"
	DefaultGasReserve     = "0.001"
)

// App captures process-wide runtime settings such as name, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
	NoColor     bool   `yaml:"no_color"`
}

// Chain describes the network the run targets.
type Chain struct {
	RPCURL  string `yaml:"rpc_url"`
	ChainID int64  `yaml:"chain_id"`
	Symbol  string `yaml:"symbol"`
	// GasReserve is the fee allowance in ether held back from the payout total.
	GasReserve string `yaml:"gas_reserve"`
}

// Transfer points at the run inputs and optional outputs.
type Transfer struct {
	RecipientsPath string `yaml:"recipients_path"`
	JournalPath    string `yaml:"journal_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Chain    Chain    `yaml:"chain"`
	Transfer Transfer `yaml:"transfer"`
}

// Default returns the built-in deployment configuration.
func Default() Config {
	return Config{
		App:      App{Name: "bulktransfer", LogLevel: "info", LogFile: DefaultLogFile},
		Chain:    Chain{RPCURL: DefaultRPCURL, ChainID: DefaultChainID, Symbol: DefaultSymbol, GasReserve: DefaultGasReserve},
		Transfer: Transfer{RecipientsPath: DefaultRecipientsPath},
	}
}

// Load reads a YAML file from disk on top of Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects configurations the run cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Chain.RPCURL == "" {
		errs = append(errs, errors.New("chain.rpc_url is empty"))
	}
	if c.Chain.ChainID <= 0 {
		errs = append(errs, fmt.Errorf("chain.chain_id must be positive, got %d", c.Chain.ChainID))
	}
	if _, err := c.GasReserveWei(); err != nil {
		errs = append(errs, err)
	}
	if c.Transfer.RecipientsPath == "" {
		errs = append(errs, errors.New("transfer.recipients_path is empty"))
	}
	if c.App.LogFile == "" {
		errs = append(errs, errors.New("app.log_file is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ChainIDBig returns the chain id in the form go-ethereum signers expect.
func (c Config) ChainIDBig() *big.Int {
	return big.NewInt(c.Chain.ChainID)
}

// GasReserveWei parses chain.gas_reserve.
func (c Config) GasReserveWei() (*uint256.Int, error) {
	wei, err := amount.ParseEther(c.Chain.GasReserve)
	if err != nil {
		return nil, fmt.Errorf("chain.gas_reserve: %w", err)
	}
	reserve, overflow := uint256.FromBig(wei)
	if overflow {
		return nil, fmt.Errorf("chain.gas_reserve %q out of range", c.Chain.GasReserve)
	}
	return reserve, nil
}
