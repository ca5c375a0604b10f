package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammcore/internal/amm"
	"ammcore/internal/config"
	"ammcore/internal/metrics"
	"ammcore/internal/pool"
)

// session holds what every subcommand needs once flags and config are resolved.
type session struct {
	ctx      context.Context
	cfg      config.Config
	logger   *zap.Logger
	service  *pool.Service
	backends *backends
	stop     context.CancelFunc
	key      common.Hash
	seed     uint64
	mintX    common.Address
	mintY    common.Address
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	seed, _ := cmd.Flags().GetUint64("seed")
	mintXRaw, _ := cmd.Flags().GetString("mint-x")
	mintYRaw, _ := cmd.Flags().GetString("mint-y")
	mintX, err := pool.ParseIdentity(mintXRaw)
	if err != nil {
		return nil, fmt.Errorf("mint-x: %w", err)
	}
	mintY, err := pool.ParseIdentity(mintYRaw)
	if err != nil {
		return nil, fmt.Errorf("mint-y: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		stop()
		_ = logger.Sync()
		return nil, err
	}

	settler := pool.NewJournalSettler(b.journal)
	service := pool.NewService(pool.Config{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, b.store, settler, settler, logger)

	logger.Debug("session open",
		zap.String("store", cfg.Store),
		zap.String("journal_backend", cfg.JournalBackend),
		zap.Uint64("seed", seed),
		zap.String("mint_x", mintX.Hex()),
		zap.String("mint_y", mintY.Hex()),
	)

	return &session{
		ctx:      ctx,
		cfg:      cfg,
		logger:   logger,
		service:  service,
		backends: b,
		stop:     stop,
		key:      pool.Key(seed, mintX, mintY),
		seed:     seed,
		mintX:    mintX,
		mintY:    mintY,
	}, nil
}

func (s *session) Close() {
	if err := metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.logger.Warn("write metrics", zap.Error(err))
	}
	s.backends.Close()
	s.stop()
	_ = s.logger.Sync()
}

func (s *session) caller() (common.Address, error) {
	if s.cfg.Caller == "" {
		return common.Address{}, fmt.Errorf("caller address is required")
	}
	return pool.ParseIdentity(s.cfg.Caller)
}

func runInit(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	creator, err := s.caller()
	if err != nil {
		return err
	}
	authorityRaw, _ := cmd.Flags().GetString("authority")
	authority, err := pool.ParseOptionalIdentity(authorityRaw)
	if err != nil {
		return fmt.Errorf("authority: %w", err)
	}
	feeBps, _ := cmd.Flags().GetUint16("fee-bps")
	amountX, _ := cmd.Flags().GetUint64("amount-x")
	amountY, _ := cmd.Flags().GetUint64("amount-y")

	receipt, err := s.service.Initialize(s.ctx, pool.InitRequest{
		Seed:      s.seed,
		MintX:     s.mintX,
		MintY:     s.mintY,
		FeeBps:    feeBps,
		Authority: authority,
		Creator:   creator,
		AmountX:   amountX,
		AmountY:   amountY,
		Precision: s.cfg.Precision,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), receipt)
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	return withCaller(cmd, func(s *session, caller common.Address) (any, error) {
		amountX, _ := cmd.Flags().GetUint64("amount-x")
		maxX, _ := cmd.Flags().GetUint64("max-x")
		maxY, _ := cmd.Flags().GetUint64("max-y")
		return s.service.Deposit(s.ctx, s.key, caller, amountX, maxX, maxY)
	})
}

func runDepositShares(cmd *cobra.Command, _ []string) error {
	return withCaller(cmd, func(s *session, caller common.Address) (any, error) {
		shares, _ := cmd.Flags().GetUint64("shares")
		maxX, _ := cmd.Flags().GetUint64("max-x")
		maxY, _ := cmd.Flags().GetUint64("max-y")
		return s.service.DepositShares(s.ctx, s.key, caller, shares, maxX, maxY)
	})
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	return withCaller(cmd, func(s *session, caller common.Address) (any, error) {
		shares, _ := cmd.Flags().GetUint64("shares")
		minX, _ := cmd.Flags().GetUint64("min-x")
		minY, _ := cmd.Flags().GetUint64("min-y")
		return s.service.Withdraw(s.ctx, s.key, caller, shares, minX, minY)
	})
}

func runSwap(cmd *cobra.Command, _ []string) error {
	return withCaller(cmd, func(s *session, caller common.Address) (any, error) {
		sideRaw, _ := cmd.Flags().GetString("side")
		side, err := amm.ParseSide(sideRaw)
		if err != nil {
			return nil, err
		}
		amount, _ := cmd.Flags().GetUint64("amount")
		minOut, _ := cmd.Flags().GetUint64("min-out")
		return s.service.Swap(s.ctx, s.key, caller, side, amount, minOut)
	})
}

func runToggle(lock bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return withCaller(cmd, func(s *session, caller common.Address) (any, error) {
			if lock {
				return s.service.Lock(s.ctx, s.key, caller)
			}
			return s.service.Unlock(s.ctx, s.key, caller)
		})
	}
}

func runQuote(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	sideRaw, _ := cmd.Flags().GetString("side")
	side, err := amm.ParseSide(sideRaw)
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")

	quote, err := s.service.Quote(s.ctx, s.key, side, amount)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), quote)
}

func runShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.service.Pool(s.ctx, s.key)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rec)
}

func withCaller(cmd *cobra.Command, fn func(*session, common.Address) (any, error)) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	caller, err := s.caller()
	if err != nil {
		return err
	}
	out, err := fn(s, caller)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
