// Package main is the entry point for the xrpl-gateway binary.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/runtime"
	"github.com/R3E-Network/xrpl_service_layer/internal/config"
	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "xrpl-gateway",
		Short:         "HTTP gateway for XRPL token, staking and ETF governance operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newAddressCmd(), newFeesCmd())
	return rootCmd
}

// =============================================================================
// serve
// =============================================================================

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Long: `Run the HTTP gateway.

Configuration comes from the environment and an optional .env file in the
working directory (PORT, XRPL_NODE, DATABASE_URL, pool and fee addresses).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	application, err := runtime.NewApplication(ctx, cfg)
	if err != nil {
		return err
	}

	runErr := application.Run(ctx)

	// ctx may already be cancelled; shutdown gets its own budget.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod+time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// =============================================================================
// address
// =============================================================================

func newAddressCmd() *cobra.Command {
	var passphrase string
	cmd := &cobra.Command{
		Use:   "address [seed]",
		Short: "Print the classic address of a family seed",
		Long: `Print the classic address and public key of a family seed.

With --passphrase a deterministic seed is derived first, which is handy for
test wallets. Never use passphrase seeds for funded accounts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed string
			switch {
			case passphrase != "":
				seed = xrpl.SeedFromPassphrase(passphrase)
			case len(args) == 1:
				seed = args[0]
			default:
				return fmt.Errorf("a seed argument or --passphrase is required")
			}
			return printAddress(cmd.OutOrStdout(), seed, passphrase != "")
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "derive the seed from a passphrase")
	return cmd
}

func printAddress(w io.Writer, seed string, showSeed bool) error {
	wallet, err := xrpl.WalletFromSeed(seed)
	if err != nil {
		return err
	}
	out := map[string]string{
		"address":    wallet.ClassicAddress,
		"public_key": wallet.PublicKey,
		"key_type":   string(wallet.KeyType),
	}
	if showSeed {
		out["seed"] = seed
	}
	return yaml.NewEncoder(w).Encode(out)
}

// =============================================================================
// fees
// =============================================================================

func newFeesCmd() *cobra.Command {
	var (
		amount   string
		schedule string
		bps      int64
	)
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Show fee schedules or the fee breakdown of an amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			schedules, err := cfg.FeeSchedules()
			if err != nil {
				return err
			}
			if amount == "" {
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(schedules)
			}
			return printBreakdown(cmd.OutOrStdout(), schedules, schedule, amount, bps)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount in XRP to split")
	cmd.Flags().StringVar(&schedule, "schedule", fees.ScheduleDeposit, "fee schedule name")
	cmd.Flags().Int64Var(&bps, "bps", 0, "fee rate in basis points (default: the schedule's rate)")
	return cmd
}

func printBreakdown(w io.Writer, schedules map[string]fees.Schedule, name, amount string, bps int64) error {
	schedule, ok := schedules[name]
	if !ok {
		return fmt.Errorf("%w: %s", fees.ErrUnknownSchedule, name)
	}
	drops, err := xrpl.XRPToDrops(amount)
	if err != nil {
		return err
	}
	if bps == 0 {
		switch name {
		case fees.ScheduleWithdrawal:
			bps = fees.WithdrawalFeeBps
		default:
			bps = fees.DepositFeeBps
		}
	}
	breakdown, err := fees.Split(drops, bps, schedule)
	if err != nil {
		return err
	}

	type line struct {
		Category string `yaml:"category"`
		XRP      string `yaml:"xrp"`
	}
	out := struct {
		Schedule string `yaml:"schedule"`
		FeeBps   int64  `yaml:"fee_bps"`
		Amount   string `yaml:"amount"`
		Fee      string `yaml:"fee"`
		Net      string `yaml:"net"`
		Payments []line `yaml:"payments"`
	}{
		Schedule: name,
		FeeBps:   bps,
		Amount:   xrpl.DropsToXRP(drops),
		Fee:      xrpl.DropsToXRP(breakdown.FeeDrops),
		Net:      xrpl.DropsToXRP(breakdown.NetDrops),
	}
	for _, a := range breakdown.Allocations {
		out.Payments = append(out.Payments, line{Category: a.Category, XRP: xrpl.DropsToXRP(a.Drops)})
	}
	return yaml.NewEncoder(w).Encode(out)
}
