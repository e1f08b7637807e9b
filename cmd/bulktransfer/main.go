package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bulktransfer-go/internal/amount"
	"bulktransfer-go/internal/config"
	"bulktransfer-go/internal/journal"
	"bulktransfer-go/internal/recipient"
	"bulktransfer-go/internal/transfer"
)

const (
	FlagConfig     = "config"
	FlagRecipients = "recipients"
)

var (
	configPath     string
	recipientsPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bulktransfer",
		Short: "Distribute randomized native-token payments to a recipient list",
		Long: `Send one native-token transfer to every address in the recipients file.

Each recipient receives a random amount between 0.0111 and 0.0199, and
successful sends are spaced by a random 15-120 second pause. The signing key is
read from PRIVATE_KEY (a .env file in the working directory is honoured).

Example:
  bulktransfer run -c ./config.yaml -r ./recipients.txt`,
		SilenceUsage: true,
		RunE:         runE,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, FlagConfig, "c", "", "Path to a YAML config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().StringVarP(&recipientsPath, FlagRecipients, "r", "", "Path to the recipients file (overrides config)")

	rootCmd.AddCommand(runCmd(), planCmd(), balanceCmd(), initCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Plan, check balance and send all transfers",
		RunE:  runE,
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Plan amounts and check the balance without sending anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, recipients, err := prepare(ctx)
			if a == nil || err != nil {
				return err
			}
			defer a.Close()

			plan, err := a.sequencer(nil).Prepare(ctx, recipients)
			if err != nil {
				return err
			}
			for i, intent := range plan.Intents {
				a.console.Info("%3d  %s  %s %s  nonce %d", i+1, intent.Recipient, intent.Amount.Display, a.cfg.Chain.Symbol, plan.Nonce+uint64(i))
			}
			a.console.Info("%d transfers, total %s %s (+%s reserve)", len(plan.Intents),
				amount.FormatEther(plan.Total.ToBig()), a.cfg.Chain.Symbol, amount.FormatEther(a.reserve.ToBig()))
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the sender balance and transaction count",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.connect(ctx); err != nil {
				return err
			}

			sender := a.wallet.Address()
			balance, err := a.client.BalanceAt(ctx, sender)
			if err != nil {
				return fmt.Errorf("query balance: %w", err)
			}
			nonce, err := a.client.TransactionCount(ctx, sender)
			if err != nil {
				return fmt.Errorf("query transaction count: %w", err)
			}
			a.console.Info("%s: %s %s, nonce %d", sender.Hex(), amount.FormatEther(balance), a.cfg.Chain.Symbol, nonce)
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in defaults to a YAML config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			cfg := config.Default()
			if err := config.Save(path, &cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func runE(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, recipients, err := prepare(ctx)
	if a == nil || err != nil {
		return err
	}
	defer a.Close()
	return a.run(ctx, recipients)
}

// prepare loads the recipients before touching the key or the network. A nil
// app with a nil error means there is nothing to do.
func prepare(ctx context.Context) (*app, []string, error) {
	a, err := setup()
	if err != nil {
		return nil, nil, err
	}
	recipients := recipient.Load(a.cfg.Transfer.RecipientsPath, a.rng, a.log)
	if len(recipients) == 0 {
		a.console.Info("no recipients found.")
		a.Close()
		return nil, nil, nil
	}
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, recipients, nil
}

func (a *app) run(ctx context.Context, recipients []string) error {
	ledger := journal.NewLedger(len(recipients))
	recorders := []transfer.Recorder{ledger}
	if a.cfg.Transfer.JournalPath != "" {
		jr, err := journal.OpenJSONL(a.cfg.Transfer.JournalPath, a.log)
		if err != nil {
			return err
		}
		defer func() {
			if err := jr.Close(); err != nil {
				a.log.Error().Msgf("close journal: %v", err)
			}
		}()
		recorders = append(recorders, jr)
	}

	summary, err := a.sequencer(recorders).Run(ctx, recipients)
	switch {
	case errors.Is(err, context.Canceled):
		a.log.Warn().Msgf("run interrupted; next nonce %d", summary.NextNonce)
		return err
	case errors.Is(err, transfer.ErrInsufficientBalance):
		// The guard has already logged the shortfall.
		return err
	case err != nil:
		a.log.Error().Msgf("run aborted: %v", err)
		return err
	}
	if summary.Planned > 0 {
		sent, failed, sentWei := ledger.Totals()
		a.log.Info().Msgf("run finished: %d sent, %d failed, %s %s submitted, next nonce %d",
			sent, failed, amount.FormatEther(sentWei), a.cfg.Chain.Symbol, summary.NextNonce)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
