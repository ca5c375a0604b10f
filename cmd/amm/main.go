package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product pool operations",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create and fund a pool",
		RunE:  runInit,
	}
	addPoolFlags(initCmd)
	initCmd.Flags().Uint16("fee-bps", 30, "swap fee in basis points (0-10000)")
	initCmd.Flags().String("authority", "", "address allowed to lock/unlock (empty disables locking)")
	initCmd.Flags().Uint64("amount-x", 0, "initial x reserve")
	initCmd.Flags().Uint64("amount-y", 0, "initial y reserve")
	initCmd.Flags().Uint8("precision", 6, "share decimal precision")
	root.AddCommand(initCmd)

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit x and the matching y amount",
		RunE:  runDeposit,
	}
	addPoolFlags(depositCmd)
	depositCmd.Flags().Uint64("amount-x", 0, "x amount to deposit")
	depositCmd.Flags().Uint64("max-x", 0, "maximum x to pay")
	depositCmd.Flags().Uint64("max-y", 0, "maximum y to pay")
	root.AddCommand(depositCmd)

	depositSharesCmd := &cobra.Command{
		Use:   "deposit-shares",
		Short: "Mint an exact number of shares",
		RunE:  runDepositShares,
	}
	addPoolFlags(depositSharesCmd)
	depositSharesCmd.Flags().Uint64("shares", 0, "shares to mint")
	depositSharesCmd.Flags().Uint64("max-x", 0, "maximum x to pay")
	depositSharesCmd.Flags().Uint64("max-y", 0, "maximum y to pay")
	root.AddCommand(depositSharesCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn shares for reserves",
		RunE:  runWithdraw,
	}
	addPoolFlags(withdrawCmd)
	withdrawCmd.Flags().Uint64("shares", 0, "shares to burn")
	withdrawCmd.Flags().Uint64("min-x", 0, "minimum x to receive")
	withdrawCmd.Flags().Uint64("min-y", 0, "minimum y to receive")
	root.AddCommand(withdrawCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one asset for the other",
		RunE:  runSwap,
	}
	addPoolFlags(swapCmd)
	swapCmd.Flags().String("side", "x", "input side (x or y)")
	swapCmd.Flags().Uint64("amount", 0, "input amount")
	swapCmd.Flags().Uint64("min-out", 0, "minimum output amount")
	root.AddCommand(swapCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap without executing it",
		RunE:  runQuote,
	}
	addPoolFlags(quoteCmd)
	quoteCmd.Flags().String("side", "x", "input side (x or y)")
	quoteCmd.Flags().Uint64("amount", 0, "input amount")
	root.AddCommand(quoteCmd)

	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Lock a pool (authority only)",
		RunE:  runToggle(true),
	}
	addPoolFlags(lockCmd)
	root.AddCommand(lockCmd)

	unlockCmd := &cobra.Command{
		Use:   "unlock",
		Short: "Unlock a pool (authority only)",
		RunE:  runToggle(false),
	}
	addPoolFlags(unlockCmd)
	root.AddCommand(unlockCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored pool state",
		RunE:  runShow,
	}
	addPoolFlags(showCmd)
	root.AddCommand(showCmd)

	return root
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("seed", 0, "pool seed")
	cmd.Flags().String("mint-x", "", "x asset address")
	cmd.Flags().String("mint-y", "", "y asset address")
	cmd.Flags().String("caller", "", "caller address")
	cmd.Flags().String("store", "file", "pool store (file, postgres, sqlite)")
	cmd.Flags().String("state-file", "./data/pools.json", "pool state file for the file store")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("sqlite-path", "./data/amm.db", "SQLite database path")
	cmd.Flags().String("journal-backend", "file", "settlement journal (file, postgres)")
	cmd.Flags().String("journal", "./data/journal.jsonl", "settlement journal JSONL path")
	cmd.Flags().Int("max-retries", 3, "settlement retry attempts")
	cmd.Flags().Duration("retry-backoff", 200*time.Millisecond, "initial settlement retry backoff")
	cmd.Flags().String("metrics-file", "", "write prometheus metrics to this textfile on exit")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
