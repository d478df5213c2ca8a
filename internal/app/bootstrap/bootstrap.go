package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	thermostatengine "thermasense/contexts/building-comfort/thermostat-engine"
	actuatoradapter "thermasense/contexts/building-comfort/thermostat-engine/adapters/actuator"
	influxadapter "thermasense/contexts/building-comfort/thermostat-engine/adapters/influx"
	postgresadapter "thermasense/contexts/building-comfort/thermostat-engine/adapters/postgres"
	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"
	workerapp "thermasense/contexts/building-comfort/thermostat-engine/application/workers"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
	"thermasense/internal/platform/config"
	"thermasense/internal/platform/db"
	"thermasense/internal/platform/httpserver"
	"thermasense/internal/platform/influx"
	"thermasense/internal/platform/messaging"
	"thermasense/internal/platform/metrics"
	"thermasense/internal/platform/supervisor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const bootstrapModule = "internal/app/bootstrap"

type APIApp struct {
	tree     *supervisor.Tree
	server   *httpserver.Server
	bus      *messaging.Bus
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	tree     *supervisor.Tree
	bus      *messaging.Bus
	nats     *messaging.NATSPublisher
	influx   *influx.Client
	postgres *db.Postgres
	logger   *slog.Logger
}

// EngineApp exposes the engine without any long-running services.
// thermactl drives it for one-shot maintenance commands.
type EngineApp struct {
	Module   thermostatengine.Module
	repo     *postgresadapter.Repository
	postgres *db.Postgres
}

// engineParts is what every process shares: storage, actuator and metrics.
type engineParts struct {
	cfg      config.Config
	logger   *slog.Logger
	postgres *db.Postgres
	repo     *postgresadapter.Repository
	actuator ports.Actuator
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func buildEngineParts(ctx context.Context, process string) (*engineParts, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel).With("service", cfg.ServiceName, "process", process)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{
		MaxOpenConns:    cfg.PostgresMaxOpenConns,
		MaxIdleConns:    cfg.PostgresMaxIdleConns,
		ConnMaxLifetime: cfg.PostgresConnMaxLifetime,
		Quiet:           !strings.EqualFold(strings.TrimSpace(cfg.LogLevel), "debug"),
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.New(registry)

	actuator, err := buildActuator(cfg, engineMetrics, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &engineParts{
		cfg:      cfg,
		logger:   logger,
		postgres: pg,
		repo:     postgresadapter.NewRepository(pg.DB, logger),
		actuator: actuator,
		metrics:  engineMetrics,
		registry: registry,
	}, nil
}

func (p *engineParts) module(dispatcher ports.CycleDispatcher) thermostatengine.Module {
	return thermostatengine.NewModule(thermostatengine.Dependencies{
		Zones:        p.repo,
		Votes:        p.repo,
		Users:        p.repo,
		History:      p.repo,
		Writer:       p.repo,
		Actuator:     p.actuator,
		Dispatcher:   dispatcher,
		Observer:     p.metrics,
		VoteObserver: p.metrics,
		Clock:        postgresadapter.SystemClock{},
		IDGen:        postgresadapter.UUIDGenerator{},
		Policy:       p.cfg.Engine.Policy(),
		Logger:       p.logger,
	})
}

// prepare creates the schema and provisions the default zones.
func (p *engineParts) prepare(ctx context.Context, module thermostatengine.Module) error {
	if err := p.repo.Migrate(ctx); err != nil {
		return err
	}
	if _, err := module.Provisioner.ProvisionZones(ctx, DefaultZoneSeeds()); err != nil {
		return err
	}
	return nil
}

func buildActuator(cfg config.Config, observer actuatoradapter.BreakerObserver, logger *slog.Logger) (ports.Actuator, error) {
	switch cfg.ActuatorKind {
	case "", "logging":
		return actuatoradapter.NewLoggingActuator(logger), nil
	case "http":
		actuator, err := actuatoradapter.NewHTTPActuator(actuatoradapter.HTTPConfig{
			BaseURL: cfg.ActuatorURL,
			Token:   cfg.ActuatorToken,
			Timeout: cfg.ActuatorTimeout,
		}, observer, logger)
		if err != nil {
			return nil, err
		}
		return actuator, nil
	default:
		return nil, fmt.Errorf("unknown ACTUATOR_KIND %q", cfg.ActuatorKind)
	}
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	parts, err := buildEngineParts(ctx, "api")
	if err != nil {
		return nil, err
	}
	cfg, logger := parts.cfg, parts.logger

	bus := messaging.NewBus(cfg.BusPartitions, logger)
	module := parts.module(workerapp.BusDispatcher{
		Publisher: bus,
		Clock:     postgresadapter.SystemClock{},
		IDGen:     postgresadapter.UUIDGenerator{},
		Logger:    logger,
	})
	if err := parts.prepare(ctx, module); err != nil {
		_ = bus.Close()
		_ = parts.postgres.Close()
		return nil, err
	}

	server := httpserver.New(module, logger, httpserver.Options{
		Addr:           normalizeAddr(cfg.HTTPPort),
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		VoteRateLimit:  cfg.VoteRateLimit,
		VoteRateWindow: cfg.VoteRateWindow,
		MetricsHandler: promhttp.HandlerFor(parts.registry, promhttp.HandlerOpts{}),
		HealthCheck:    parts.postgres.Ping,
	})

	consumer := workerapp.CycleConsumer{
		Subscriber: bus,
		Cycles:     module.Cycles,
		Logger:     logger,
	}
	tree := supervisor.NewTree(cfg.ServiceName+"-api", logger, supervisor.DefaultTreeConfig())
	tree.AddWorker(supervisor.StartService{Name: "cycle-consumer", Start: consumer.Start})
	tree.AddAPI(supervisor.HTTPServerService{Server: server.HTTPServer()})

	return &APIApp{
		tree:     tree,
		server:   server,
		bus:      bus,
		postgres: parts.postgres,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	parts, err := buildEngineParts(ctx, "worker")
	if err != nil {
		return nil, err
	}
	cfg, logger := parts.cfg, parts.logger
	app := &WorkerApp{postgres: parts.postgres, logger: logger}

	// Sweeps run cycles inline, so the worker module has no dispatcher.
	module := parts.module(nil)
	if err := parts.prepare(ctx, module); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.bus = messaging.NewBus(cfg.BusPartitions, logger)
	var publisher ports.EventPublisher = app.bus
	if strings.TrimSpace(cfg.NATSURL) != "" {
		app.nats, err = messaging.ConnectNATS(cfg.NATSURL, cfg.ServiceName, logger)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		publisher = messaging.Fanout{
			Primary: app.bus,
			Mirrors: []ports.EventPublisher{app.nats},
			Logger:  logger,
		}
	}

	relay := workerapp.OutboxRelay{
		Outbox:    parts.repo,
		Publisher: publisher,
		Clock:     postgresadapter.SystemClock{},
		BatchSize: cfg.OutboxBatchSize,
		Logger:    logger,
	}
	sweeper := workerapp.Sweeper{Cycles: module.Cycles, Logger: logger}

	tree := supervisor.NewTree(cfg.ServiceName+"-worker", logger, supervisor.DefaultTreeConfig())
	tree.AddWorker(supervisor.LoopService{
		Name:     "outbox-relay",
		Interval: cfg.OutboxPollInterval,
		Run: func(ctx context.Context) error {
			err := relay.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				parts.metrics.ObserveOutboxFailure()
			}
			return err
		},
		Logger: logger,
	})
	tree.AddWorker(supervisor.LoopService{
		Name:     "cycle-sweeper",
		Interval: cfg.SweepInterval,
		Run:      sweeper.RunOnce,
		Logger:   logger,
	})

	if strings.TrimSpace(cfg.InfluxURL) != "" {
		app.influx, err = influx.Connect(ctx, cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		telemetry := workerapp.TelemetryConsumer{
			Subscriber: app.bus,
			Sink:       influxadapter.NewSink(app.influx.WriteAPI(), logger),
			Logger:     logger,
		}
		tree.AddWorker(supervisor.StartService{Name: "telemetry-consumer", Start: telemetry.Start})
	} else {
		logger.Warn("influx telemetry disabled",
			"event", "bootstrap_influx_disabled",
			"module", bootstrapModule,
			"layer", "platform",
		)
	}

	app.tree = tree
	return app, nil
}

// BuildEngine connects storage and prepares the schema without starting
// any services.
func BuildEngine(ctx context.Context) (*EngineApp, error) {
	parts, err := buildEngineParts(ctx, "cli")
	if err != nil {
		return nil, err
	}
	module := parts.module(nil)
	if err := parts.repo.Migrate(ctx); err != nil {
		_ = parts.postgres.Close()
		return nil, err
	}
	return &EngineApp{
		Module:   module,
		repo:     parts.repo,
		postgres: parts.postgres,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", bootstrapModule,
			"layer", "platform",
			"addr", a.server.HTTPServer().Addr,
		)
	}
	return a.tree.Serve(ctx)
}

func (a *APIApp) Close() error {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", bootstrapModule,
		"layer", "platform",
		"nats_mirror", w.nats != nil,
		"influx_telemetry", w.influx != nil,
	)
	return w.tree.Serve(ctx)
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.nats != nil {
		w.nats.Close()
	}
	if w.influx != nil {
		errs = append(errs, w.influx.Close())
	}
	if w.bus != nil {
		errs = append(errs, w.bus.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func (e *EngineApp) Migrate(ctx context.Context) error {
	return e.repo.Migrate(ctx)
}

func (e *EngineApp) ListZones(ctx context.Context) ([]entities.Zone, error) {
	return e.Module.Handler.Queries.ListZones(ctx)
}

func (e *EngineApp) SeedZones(ctx context.Context) (commands.ProvisionResult, error) {
	return e.Module.Provisioner.ProvisionZones(ctx, DefaultZoneSeeds())
}

func (e *EngineApp) RunCycle(ctx context.Context, zoneID string) (entities.CycleResult, error) {
	return e.Module.Cycles.RunCycle(ctx, zoneID)
}

func (e *EngineApp) RunAllCycles(ctx context.Context) ([]entities.CycleResult, error) {
	return e.Module.Cycles.RunAllCycles(ctx)
}

func (e *EngineApp) Close() error {
	if e.postgres != nil {
		return e.postgres.Close()
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
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
