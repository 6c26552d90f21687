package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tokenledger "custodia/contexts/asset-core/token-ledger"
	postgresadapter "custodia/contexts/asset-core/token-ledger/adapters/postgres"
	workerapp "custodia/contexts/asset-core/token-ledger/application/workers"
	"custodia/contexts/asset-core/token-ledger/domain/entities"
	domainerrors "custodia/contexts/asset-core/token-ledger/domain/errors"
	"custodia/contexts/asset-core/token-ledger/ports"
	"custodia/internal/platform/config"
	"custodia/internal/platform/db"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/messaging"
	"custodia/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	registry     *metrics.Registry
	metricsAddr  string
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

// countingPublisher wraps the bus publisher so every relayed event lands in
// the worker's metrics.
type countingPublisher struct {
	inner    ports.EventPublisher
	registry *metrics.Registry
}

func (p countingPublisher) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if err := p.inner.Publish(ctx, topic, event); err != nil {
		return err
	}
	p.registry.EventsRelayed.Inc()
	return nil
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(postgresadapter.Models()...); err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := tokenledger.NewModule(tokenledger.Dependencies{
		Store:       repo,
		Clock:       postgresadapter.SystemClock{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Logger:      logger,
	})

	if err := seedGenesis(cfg, module, logger); err != nil {
		_ = pg.Close()
		return nil, err
	}

	registry := metrics.New(cfg.ServiceName)
	server := httpserver.New(module, registry, logger, normalizeAddr(cfg.HTTPPort), cfg.EnableSwaggerUI)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

// seedGenesis applies the configured genesis state exactly once. A ledger
// that is already initialized keeps its persisted owner and supply.
func seedGenesis(cfg config.Config, module tokenledger.Module, logger *slog.Logger) error {
	if strings.TrimSpace(cfg.OwnerAddress) == "" {
		return errors.New("OWNER_ADDRESS is required")
	}
	owner, err := entities.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		return err
	}
	supply, err := entities.ParseAmount(cfg.InitialSupply)
	if err != nil {
		return err
	}
	metadata, err := entities.NewTokenMetadata(cfg.TokenName, cfg.TokenSymbol)
	if err != nil {
		return err
	}

	err = module.Service.Initialize(context.Background(), metadata, owner, supply)
	if errors.Is(err, domainerrors.ErrAlreadyInitialized) {
		logger.Info("ledger already initialized",
			"event", "bootstrap_genesis_skipped",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return nil
	}
	return err
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	registry := metrics.New(cfg.ServiceName)
	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: countingPublisher{inner: kafka, registry: registry},
			Clock:     postgresadapter.SystemClock{},
			Topic:     "ledger.events",
			BatchSize: 100,
			Logger:    logger,
		},
		registry:     registry,
		metricsAddr:  normalizeAddr(cfg.MetricsPort),
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	go w.serveMetrics()

	if !w.relayEnabled {
		w.logger.Info("outbox relay disabled",
			"event", "bootstrap_worker_idle",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", w.registry.Handler())
	if err := http.ListenAndServe(w.metricsAddr, mux); err != nil {
		w.logger.Error("worker metrics server stopped",
			"event", "bootstrap_worker_metrics_stopped",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
