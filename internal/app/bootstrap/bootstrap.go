package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	airdropregistry "almoner/contexts/distribution-core/airdrop-registry"
	boltadapter "almoner/contexts/distribution-core/airdrop-registry/adapters/bolt"
	"almoner/contexts/distribution-core/airdrop-registry/adapters/memory"
	postgresadapter "almoner/contexts/distribution-core/airdrop-registry/adapters/postgres"
	workerapp "almoner/contexts/distribution-core/airdrop-registry/application/workers"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
	"almoner/internal/platform/config"
	"almoner/internal/platform/db"
	"almoner/internal/platform/httpserver"
	"almoner/internal/platform/messaging"
	"almoner/internal/platform/treasury"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	bolt     *boltadapter.Store
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bolt         *boltadapter.Store
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	authority := treasury.NewAuthority(cfg.AuthoritySeed, treasury.DefaultBump)

	app := &APIApp{logger: logger}
	deps := airdropregistry.Dependencies{
		Authority:         authority,
		Clock:             postgresadapter.SystemClock{},
		IDGenerator:       postgresadapter.UUIDGenerator{},
		IdempotencyTTL:    7 * 24 * time.Hour,
		StrictReplayGuard: cfg.EnableClaimReplayGuard,
		Logger:            logger,
	}

	// The settlement ledger is in-process while runtime wiring is finalized
	// for the external chain gateway.
	ledger := memory.NewLedger(authority.Verify)
	deps.Native = ledger
	deps.Assets = ledger

	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres backend")
		}
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.AutoMigrate(); err != nil {
			_ = pg.Close()
			return nil, err
		}
		app.postgres = pg
		deps.Registry = repo
		deps.Campaigns = repo
		deps.Idempotency = repo
		deps.Outbox = repo
	case config.StoreBackendBolt:
		store, err := boltadapter.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		app.bolt = store
		deps.Registry = store
		deps.Campaigns = store
		deps.Idempotency = store
		deps.Outbox = store
	default:
		store := memory.NewStore()
		deps.Registry = store
		deps.Campaigns = store
		deps.Idempotency = store
		deps.Outbox = store
	}
	if !cfg.EnableCampaignEventEmission {
		deps.Outbox = nil
	}

	module := airdropregistry.NewModule(deps)
	module.Ledger = ledger
	app.server = httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	app := &WorkerApp{
		pollInterval: 2 * time.Second,
		logger:       logger,
	}

	var outbox ports.OutboxRepository
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres backend")
		}
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		app.postgres = pg
		outbox = postgresadapter.NewRepository(pg.DB, logger)
	case config.StoreBackendBolt:
		store, err := boltadapter.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		app.bolt = store
		outbox = store
	default:
		outbox = memory.NewStore()
	}

	app.outboxRelay = workerapp.OutboxRelay{
		Outbox:    outbox,
		Publisher: kafka,
		Clock:     postgresadapter.SystemClock{},
		BatchSize: 100,
		Logger:    logger,
	}
	return app, nil
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
	if a.bolt != nil {
		return a.bolt.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
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

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	if w.bolt != nil {
		return w.bolt.Close()
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
