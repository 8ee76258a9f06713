package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/cashcow/internal/api"
	"github.com/fastprodman/cashcow/internal/events"
	"github.com/fastprodman/cashcow/internal/infra/logging"
	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/unread"
	unreadredis "github.com/fastprodman/cashcow/internal/repos/unread/redis"
	"github.com/fastprodman/cashcow/internal/services/escrow"
	"github.com/fastprodman/cashcow/internal/services/ledger"
	"github.com/fastprodman/cashcow/internal/services/notifications"
	"github.com/fastprodman/cashcow/pkg/envconf"
	"github.com/fastprodman/cashcow/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

//nolint:funlen
func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

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

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.AddCloser("postgres", db)

	var counter unread.Counter = unread.Nop{}

	if cfg.Redis.Enabled() {
		client, rerr := unreadredis.Connect(ctx, cfg.Redis)
		if rerr != nil {
			return fmt.Errorf("connect redis: %w", rerr)
		}

		shutdownqueue.AddCloser("redis", client)

		counter = unreadredis.New(client, cfg.Redis.TTL)
	}

	// --- Events ---
	bus := events.NewBus(cfg.Events.QueueSize)

	if cfg.Kafka.Enabled() {
		kafkaPub, kerr := events.NewKafkaPublisher(cfg.Kafka)
		if kerr != nil {
			return fmt.Errorf("init kafka publisher: %w", kerr)
		}

		shutdownqueue.AddCloser("kafka publisher", kafkaPub)

		bus.Subscribe(events.Forward(kafkaPub))
	}

	// --- Services ---
	policy := cfg.retryPolicy()
	ledgerSrv := ledger.New(db, bus, policy)
	escrowSrv := escrow.New(db, ledgerSrv, bus, policy)
	notificationSrv := notifications.New(db, counter, policy)
	notificationSrv.Subscribe(bus)

	busCtx, stopBus := context.WithCancel(context.WithoutCancel(ctx))
	go bus.Run(busCtx)

	shutdownqueue.Add("event bus", func(c context.Context) error {
		defer stopBus()

		slog.Info("draining event bus", "dropped", bus.Dropped())

		return bus.Close(c)
	})

	if cfg.Kafka.Enabled() {
		consumer, cerr := events.NewKafkaConsumer(cfg.Kafka, policy)
		if cerr != nil {
			return fmt.Errorf("init kafka consumer: %w", cerr)
		}

		consumerCtx, stopConsumer := context.WithCancel(ctx)
		consumerDone := make(chan struct{})

		go func() {
			defer close(consumerDone)

			rerr := consumer.Run(consumerCtx, escrowSrv.HandleCommand)
			if rerr != nil {
				slog.Error("command consumer stopped", "error", rerr)
			}
		}()

		shutdownqueue.Add("kafka consumer", func(c context.Context) error {
			stopConsumer()

			select {
			case <-consumerDone:
			case <-c.Done():
				return fmt.Errorf("wait for consumer: %w", c.Err())
			}

			return consumer.Close()
		})
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.Services{
		Ledger:        ledgerSrv,
		Escrow:        escrowSrv,
		Notifications: notificationSrv,
	})

	shutdownqueue.Add("http server", func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port, "kafka", cfg.Kafka.Enabled(), "redis", cfg.Redis.Enabled())

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
