package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// TxConfig bounds the optimistic retry loop around ledger and escrow transactions.
type TxConfig struct {
	MaxAttempts    int           `env:"TX_MAX_ATTEMPTS" envDefault:"5"`
	RetryBaseDelay time.Duration `env:"TX_RETRY_BASE_DELAY" envDefault:"10ms"`
	RetryMaxDelay  time.Duration `env:"TX_RETRY_MAX_DELAY" envDefault:"500ms"`
}

// KafkaConfig is optional; an empty broker list disables Kafka.
type KafkaConfig struct {
	Brokers       []string `env:"KAFKA_BROKERS" envDefault:""`
	EventsTopic   string   `env:"KAFKA_EVENTS_TOPIC" envDefault:"cashcow.escrow.events"`
	CommandsTopic string   `env:"KAFKA_COMMANDS_TOPIC" envDefault:"cashcow.escrow.commands"`
	GroupID       string   `env:"KAFKA_GROUP_ID" envDefault:"cashcow-escrow"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RedisConfig is optional; an empty address disables the unread counter cache.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:""`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_UNREAD_TTL" envDefault:"30s"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type EventsConfig struct {
	QueueSize int `env:"EVENT_QUEUE_SIZE" envDefault:"1024"`
}

// EscrowConfig drives the reconciler.
type EscrowConfig struct {
	HoldWindow        time.Duration `env:"ESCROW_HOLD_WINDOW" envDefault:"336h"`
	PendingGrace      time.Duration `env:"PENDING_GRACE" envDefault:"5m"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	ReconcileBatch    int           `env:"RECONCILE_BATCH" envDefault:"100"`
}
