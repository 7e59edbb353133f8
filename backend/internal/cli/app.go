package cli

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"plantao/backend/config"
	"plantao/backend/internal/notify"
	"plantao/backend/internal/repository"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/database"
	applogger "plantao/backend/pkg/logger"
	"plantao/backend/pkg/redis"
)

// app the process-wide dependencies shared by the commands
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	rdb    *redis.Client
	repo   *repository.Repository
	svc    *service.Service
}

// loadConfig reads configuration and builds the logger.
func loadConfig(opts *RootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("falha ao carregar configuração: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("falha ao iniciar log: %w", err)
	}
	return cfg, logger, nil
}

// newApp connects to the database and builds repositories and services.
// Redis is optional: when it is unreachable the app runs without it.
func newApp(opts *RootOptions, withRedis bool) (*app, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	if withRedis {
		a.rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis indisponível, rate limit e blacklist de tokens desativados", zap.Error(err))
			a.rdb = nil
		}
	}

	a.repo = repository.NewRepository(db)
	publisher := notify.NewPublisher(a.repo.Outbox, logger)
	a.svc = service.NewService(cfg, a.repo, publisher, logger)

	return a, nil
}

// dispatcher builds the outbox dispatcher with the configured sink.
func (a *app) dispatcher() *notify.Dispatcher {
	return notify.NewDispatcher(a.repo.Outbox, buildSink(&a.cfg.Notify, a.logger), a.cfg.Notify.BatchSize, a.cfg.Notify.MaxAttempts, a.logger)
}

// buildSink routes WhatsApp to the HTTP sink when configured; everything else is logged.
func buildSink(cfg *config.NotifyConfig, logger *zap.Logger) notify.Sink {
	router := notify.NewRouter(notify.NewLogSink(logger))
	if cfg.Sink == "whatsapp" {
		router.Route(notify.ChannelWhatsApp, notify.NewWhatsAppSink(cfg.WhatsAppURL, cfg.WhatsAppToken, cfg.Timeout))
	}
	return router
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
	a.logger.Sync()
}
