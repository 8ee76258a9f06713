package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/cashcow/internal/config"
	"github.com/fastprodman/cashcow/pkg/retry"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Postgres config.PostgresConfig
	Tx       config.TxConfig
	Events   config.EventsConfig
	Kafka    config.KafkaConfig
	Redis    config.RedisConfig
}

func (c *apiConfig) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Tx.MaxAttempts,
		BaseDelay:   c.Tx.RetryBaseDelay,
		MaxDelay:    c.Tx.RetryMaxDelay,
	}
}
