package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	rankingengine "bountyboard/contexts/community-experience/ranking-engine"
	rankingcache "bountyboard/contexts/community-experience/ranking-engine/adapters/cache"
	rankinglock "bountyboard/contexts/community-experience/ranking-engine/adapters/lock"
	rankingmemory "bountyboard/contexts/community-experience/ranking-engine/adapters/memory"
	rankingmetrics "bountyboard/contexts/community-experience/ranking-engine/adapters/metrics"
	postgresadapter "bountyboard/contexts/community-experience/ranking-engine/adapters/postgres"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
	"bountyboard/internal/platform/config"
	"bountyboard/internal/platform/db"
	"bountyboard/internal/platform/httpserver"
	"bountyboard/internal/platform/messaging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	module   rankingengine.Module
	postgres *db.Postgres
	redis    *redis.Client
	cfg      config.Config
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres   *db.Postgres
	redis      *redis.Client
	module     rankingengine.Module
	subscriber ports.EventSubscriber
	scheduler  *cron.Cron
	cfg        config.Config
	logger     *slog.Logger
}

// infra holds the process-wide handles that must be closed on shutdown.
type infra struct {
	postgres *db.Postgres
	redis    *redis.Client
}

func (i infra) close() error {
	var firstErr error
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if i.postgres != nil {
		if err := i.postgres.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", "api")

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	module, handles, err := buildRanking(cfg, logger, kafka, registry)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, registry, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		module:   module,
		postgres: handles.postgres,
		redis:    handles.redis,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", "worker")

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	module, handles, err := buildRanking(cfg, logger, kafka, prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:   handles.postgres,
		redis:      handles.redis,
		module:     module,
		subscriber: kafka,
		scheduler: cron.New(
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.Recover(cronLogger{logger: logger})),
		),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// buildRanking selects storage, cache and locking from cfg. Redis backs the
// cache when configured; otherwise it stays in-process. See newLocker for the
// lock choice.
func buildRanking(
	cfg config.Config,
	logger *slog.Logger,
	publisher ports.EventPublisher,
	registry prometheus.Registerer,
) (rankingengine.Module, infra, error) {
	var handles infra
	deps := rankingengine.Dependencies{
		Publisher: publisher,
		Metrics:   rankingmetrics.NewPrometheus(registry),
		Logger:    logger,
	}

	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		if cfg.PostgresMigrate {
			if err := db.Migrate(cfg.PostgresDSN, logger); err != nil {
				return rankingengine.Module{}, handles, err
			}
		}
		pg, err := db.Connect(cfg.PostgresDSN, logger)
		if err != nil {
			return rankingengine.Module{}, handles, err
		}
		handles.postgres = pg
		repo := postgresadapter.NewRepository(pg.DB, logger)
		deps.Repository = repo
		deps.UnitOfWork = repo
		deps.Outbox = repo
		deps.Clock = postgresadapter.SystemClock{}
		deps.IDGenerator = postgresadapter.UUIDGenerator{}
	default:
		store := rankingmemory.NewStore(nil)
		deps.Repository = store
		deps.UnitOfWork = store
		deps.Outbox = store
		deps.Clock = rankingmemory.SystemClock{}
		deps.IDGenerator = rankingmemory.UUIDGenerator{}
	}

	if cfg.RedisURL != "" {
		options, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			_ = handles.close()
			return rankingengine.Module{}, infra{}, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(options)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr := client.Ping(ctx).Err()
		cancel()
		if pingErr != nil {
			_ = client.Close()
			_ = handles.close()
			return rankingengine.Module{}, infra{}, fmt.Errorf("ping redis: %w", pingErr)
		}
		handles.redis = client
		deps.Cache = rankingcache.NewRedis(client, cfg.LeaderboardCacheTTL)
	} else {
		lru, err := rankingcache.NewLRU(cfg.LeaderboardCacheSize, cfg.LeaderboardCacheTTL)
		if err != nil {
			_ = handles.close()
			return rankingengine.Module{}, infra{}, err
		}
		deps.Cache = lru
	}
	deps.Locker = newLocker(cfg, handles)

	logger.Info("ranking engine wired",
		"event", "bootstrap_ranking_wired",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"storage_driver", cfg.StorageDriver,
		"redis", handles.redis != nil,
		"locker", fmt.Sprintf("%T", deps.Locker),
	)
	return rankingengine.NewModule(deps), handles, nil
}

// newLocker picks the narrowest lock that still spans every process sharing
// the state: redis leases when redis is up, postgres advisory locks when only
// the database is shared, and a keyed mutex for the in-memory store.
func newLocker(cfg config.Config, handles infra) ports.KeyLocker {
	switch {
	case handles.redis != nil:
		return rankinglock.NewRedisLocker(handles.redis, cfg.LockTTL, cfg.LockTTL)
	case handles.postgres != nil:
		return rankinglock.NewPostgresLocker(handles.postgres.DB, cfg.LockTTL)
	default:
		return rankingmemory.NewKeyLocker()
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	// The in-memory outbox is only visible to this process, so the API drains
	// it itself. With postgres the worker owns the relay.
	if a.cfg.StorageDriver == config.StorageDriverMemory {
		go a.module.OutboxRelay(a.cfg.OutboxBatchSize).Run(ctx, a.cfg.OutboxPollInterval)
	}
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	return infra{postgres: a.postgres, redis: a.redis}.close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.cfg.EnableSubmissionConsumer {
		if err := w.module.SubmissionConsumer(w.subscriber).Start(ctx); err != nil {
			return err
		}
	}
	if w.cfg.EnablePeriodReset {
		if _, err := w.scheduler.AddJob(w.cfg.WeeklyResetCron, w.module.PeriodResetJob(entities.PeriodWeekly)); err != nil {
			return fmt.Errorf("schedule weekly reset: %w", err)
		}
		if _, err := w.scheduler.AddJob(w.cfg.MonthlyResetCron, w.module.PeriodResetJob(entities.PeriodMonthly)); err != nil {
			return fmt.Errorf("schedule monthly reset: %w", err)
		}
	}
	w.scheduler.Start()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		w.module.OutboxRelay(w.cfg.OutboxBatchSize).Run(ctx, w.cfg.OutboxPollInterval)
	}()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"submission_consumer", w.cfg.EnableSubmissionConsumer,
		"period_reset", w.cfg.EnablePeriodReset,
		"outbox_poll_interval", w.cfg.OutboxPollInterval.String(),
	)

	<-ctx.Done()
	<-w.scheduler.Stop().Done()
	<-relayDone
	return nil
}

func (w *WorkerApp) Close() error {
	return infra{postgres: w.postgres, redis: w.redis}.close()
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, options))
}

// cronLogger adapts slog to the scheduler's logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, append([]any{"module", "internal/app/bootstrap", "layer", "scheduler"}, keysAndValues...)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{"module", "internal/app/bootstrap", "layer", "scheduler", "error", err.Error()}, keysAndValues...)...)
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
