package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabong/platform/internal/guard"
	"github.com/sabong/platform/internal/infra"
	"github.com/sabong/platform/internal/ledger"
	"github.com/sabong/platform/internal/projection"
	"github.com/sabong/platform/internal/repository"
	"github.com/sabong/platform/internal/service"
	"github.com/sabong/platform/internal/settlement"
)

// App wires the repositories, ledger engine, settler and services around a
// shared pgx pool, and owns the background outbox relay and metrics listener.
type App struct {
	Config *infra.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	Derbies      repository.DerbyRepository
	Fights       repository.FightRepository
	Bets         repository.BetRepository
	Wallets      repository.WalletRepository
	Transactions repository.TransactionRepository
	Outbox       repository.OutboxRepository

	Ledger  *ledger.Engine
	Settler *settlement.FightSettler

	FightService  *service.FightService
	BetService    *service.BetService
	WalletService *service.WalletService

	Boards *projection.InMemoryStore

	Metrics  *infra.Metrics
	registry *prometheus.Registry
	poller   *infra.OutboxPoller
	metricsS *http.Server
}

// New assembles the application graph.
func New(cfg *infra.Config, pool *pgxpool.Pool, logger *slog.Logger) *App {
	a := &App{
		Config: cfg,
		Pool:   pool,
		Logger: logger,

		Derbies:      repository.NewDerbyRepository(),
		Fights:       repository.NewFightRepository(),
		Bets:         repository.NewBetRepository(),
		Wallets:      repository.NewWalletRepository(),
		Transactions: repository.NewTransactionRepository(),
		Outbox:       repository.NewOutboxRepository(),
	}

	a.Ledger = ledger.NewEngine(a.Wallets, a.Transactions, a.Outbox)
	a.Settler = settlement.NewFightSettler(a.Ledger, a.Bets, a.Fights, a.Outbox)

	a.FightService = service.NewFightService(pool, a.Derbies, a.Fights, a.Outbox, a.Settler, logger)
	limiter := guard.NewRateLimiter(cfg.BetRateLimit, cfg.BetRateWindow)
	a.BetService = service.NewBetService(pool, a.Fights, a.Bets, a.Ledger, a.Outbox, cfg.BetLimits(), limiter, logger)
	a.WalletService = service.NewWalletService(pool, a.Wallets, a.Transactions, a.Ledger, logger)

	a.Metrics, a.registry = infra.NewMetrics()

	a.Boards = projection.NewInMemoryStore()
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	a.poller = infra.NewOutboxPoller(pool, a.Outbox, producer, a.Metrics, logger,
		cfg.OutboxPollInterval, cfg.OutboxBatchSize,
		projection.NewProjector(a.Boards))

	return a
}

// Start launches the outbox relay and the metrics listener. Both stop when
// ctx is cancelled or Shutdown is called.
func (a *App) Start(ctx context.Context) {
	a.poller.Start(ctx)
	a.metricsS = infra.StartMetricsServer(a.Config.MetricsPort, a.registry, func(ctx context.Context) error {
		return infra.HealthCheck(ctx, a.Pool)
	})
	a.Logger.Info("app started", "metrics_port", a.Config.MetricsPort)
}

// Shutdown stops the metrics listener and closes the pool.
func (a *App) Shutdown(ctx context.Context) {
	if a.metricsS != nil {
		_ = a.metricsS.Shutdown(ctx)
	}
	a.Pool.Close()
	a.Logger.Info("app stopped")
}
