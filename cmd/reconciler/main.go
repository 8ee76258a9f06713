// Command reconciler is the timeout job of the escrow workflow. Every
// RECONCILE_INTERVAL it refunds purchases held longer than
// ESCROW_HOLD_WINDOW and compensates purchases stuck in pending.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastprodman/cashcow/internal/config"
	"github.com/fastprodman/cashcow/internal/events"
	"github.com/fastprodman/cashcow/internal/infra/logging"
	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/services/escrow"
	"github.com/fastprodman/cashcow/internal/services/ledger"
	"github.com/fastprodman/cashcow/pkg/envconf"
	"github.com/fastprodman/cashcow/pkg/retry"
	"github.com/fastprodman/cashcow/pkg/shutdownqueue"
)

type reconcilerConfig struct {
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Once            bool          `env:"RECONCILE_ONCE" envDefault:"false"`

	Postgres config.PostgresConfig
	Tx       config.TxConfig
	Escrow   config.EscrowConfig
	Kafka    config.KafkaConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running reconciler: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(reconcilerConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.AddCloser("postgres", db)

	var publisher events.Publisher = events.Nop{}

	// refunds made here still reach downstream consumers
	if cfg.Kafka.Enabled() {
		kafkaPub, kerr := events.NewKafkaPublisher(cfg.Kafka)
		if kerr != nil {
			return fmt.Errorf("init kafka publisher: %w", kerr)
		}

		shutdownqueue.AddCloser("kafka publisher", kafkaPub)

		publisher = kafkaPub
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Tx.MaxAttempts,
		BaseDelay:   cfg.Tx.RetryBaseDelay,
		MaxDelay:    cfg.Tx.RetryMaxDelay,
	}

	escrowSrv := escrow.New(db, ledger.New(db, publisher, policy), publisher, policy)

	opts := escrow.ReconcileOptions{
		HoldWindow:   cfg.Escrow.HoldWindow,
		PendingGrace: cfg.Escrow.PendingGrace,
		Batch:        cfg.Escrow.ReconcileBatch,
	}

	slog.Info("reconciler started",
		"hold_window", cfg.Escrow.HoldWindow,
		"pending_grace", cfg.Escrow.PendingGrace,
		"interval", cfg.Escrow.ReconcileInterval,
	)

	ticker := time.NewTicker(cfg.Escrow.ReconcileInterval)
	defer ticker.Stop()

	for {
		pass(ctx, escrowSrv, opts)

		if cfg.Once {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func pass(ctx context.Context, svc *escrow.EscrowService, opts escrow.ReconcileOptions) {
	start := time.Now()

	res, err := svc.Reconcile(ctx, opts)
	if err != nil {
		slog.Error("reconcile pass failed", "error", err)
		return
	}

	if res.Refunded > 0 || res.Compensated > 0 {
		slog.Info("reconcile pass done",
			"refunded", res.Refunded,
			"compensated", res.Compensated,
			"took", time.Since(start),
		)
	}
}
