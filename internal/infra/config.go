package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sabong/platform/internal/policy"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"sabong"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"sabong"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"sabong"`

	// Connection pool. PGPoolMaxConns sizes the writer pool; settlement
	// holds row locks for the whole fight, so the pool stays modest.
	PGPoolMaxConns int32 `env:"PG_POOL_MAX_CONNS" envDefault:"16"`

	// Bet bounds, in centavos. Zero disables the bound.
	MinBetAmount int64 `env:"MIN_BET_AMOUNT" envDefault:"2000"`
	MaxBetAmount int64 `env:"MAX_BET_AMOUNT" envDefault:"50000000"`

	// Per-user bet placement throttle. Zero limit disables it.
	BetRateLimit  int           `env:"BET_RATE_LIMIT" envDefault:"10"`
	BetRateWindow time.Duration `env:"BET_RATE_WINDOW" envDefault:"10s"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Observability
	MetricsPort int `env:"METRICS_PORT" envDefault:"9100"`

	// Outbox relay
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.MinBetAmount < 0 || c.MaxBetAmount < 0 {
		return fmt.Errorf("bet bounds must not be negative (min=%d max=%d)", c.MinBetAmount, c.MaxBetAmount)
	}
	if c.MaxBetAmount > 0 && c.MinBetAmount > c.MaxBetAmount {
		return fmt.Errorf("MIN_BET_AMOUNT %d exceeds MAX_BET_AMOUNT %d", c.MinBetAmount, c.MaxBetAmount)
	}
	if c.PGPoolMaxConns <= 0 {
		return fmt.Errorf("PG_POOL_MAX_CONNS must be positive, got %d", c.PGPoolMaxConns)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.OutboxPollInterval)
	}
	return nil
}

// BetLimits returns the configured stake bounds.
func (c *Config) BetLimits() policy.BetLimits {
	return policy.BetLimits{MinAmount: c.MinBetAmount, MaxAmount: c.MaxBetAmount}
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
