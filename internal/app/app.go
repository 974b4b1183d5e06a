package app

import (
	"context"
	"database/sql"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sensormon/internal/audit"
	"sensormon/internal/clients"
	"sensormon/internal/config"
	"sensormon/internal/db"
	"sensormon/internal/etl"
	"sensormon/internal/queue"
	redisconn "sensormon/internal/redis"
	"sensormon/internal/repository"
	"sensormon/internal/service"
)

// App wires the ETL worker dependencies.
type App struct {
	consumer *queue.Consumer
	ingest   *service.IngestService
	db       *sql.DB
	redis    *goredis.Client
	audit    *audit.Store
	logger   *zap.Logger
}

// New constructs application components.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	app := &App{db: sqlDB, logger: logger}

	var results service.ResultStore
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		client, err := redisconn.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redis = client
		results = queue.NewResultStore(client, cfg.Redis.ResultTTL)
	}

	var auditStore service.AuditStore
	if strings.TrimSpace(cfg.Audit.URI) != "" {
		store, err := audit.New(ctx, cfg.Audit.URI, cfg.Audit.Database, cfg.Audit.Collection)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.audit = store
		auditStore = store
	}

	var notifier service.Notifier
	if strings.TrimSpace(cfg.Notify.BaseURL) != "" {
		notifier = clients.NewNotifyClient(cfg.Notify.BaseURL, clients.NewDefaultHTTPClient(10*time.Second))
	}

	store := repository.NewSQLStore(sqlDB)
	coordinator := etl.NewCoordinator(store, logger)
	app.ingest = service.NewIngestService(coordinator, auditStore, results, notifier, logger)

	consumer, err := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Name, app.ingest, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.consumer = consumer

	return app, nil
}

// Run consumes jobs until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.consumer.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.ingest != nil {
		a.ingest.Wait()
	}
	if a.consumer != nil {
		a.consumer.Close()
	}
	if a.audit != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.audit.Close(ctx); err != nil {
			a.logger.Warn("failed to close audit store", zap.Error(err))
		}
		cancel()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
