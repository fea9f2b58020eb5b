package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/selivandex/finsights/internal/adapters/ai"
	"github.com/selivandex/finsights/internal/adapters/config"
	"github.com/selivandex/finsights/internal/adapters/database"
	newsadapter "github.com/selivandex/finsights/internal/adapters/news"
	redisAdapter "github.com/selivandex/finsights/internal/adapters/redis"
	"github.com/selivandex/finsights/internal/adapters/telegram"
	"github.com/selivandex/finsights/internal/cache"
	"github.com/selivandex/finsights/internal/pipeline"
	"github.com/selivandex/finsights/internal/scenario"
	"github.com/selivandex/finsights/internal/scheduler"
	"github.com/selivandex/finsights/internal/server"
	"github.com/selivandex/finsights/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting finsights",
		zap.String("timezone", cfg.Scheduler.Timezone),
		zap.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
	)

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		return err
	}

	// Redis is optional: without it job fires are guarded only
	// in-process, which is fine for single-pod deployments
	var lockFactory redisAdapter.LockFactory
	var redisClient *redisAdapter.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisAdapter.New(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		lockFactory = redisClient.LockFactory()
	}

	// Ops alerts are optional
	var notifier *telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return err
		}
	}

	// Core components
	genClient := ai.NewClient(&cfg.AI)
	cacheStore := cache.New()
	repo := newsadapter.NewRepository(db.DB())
	hub := server.NewHub()
	loc := cfg.Scheduler.Location()

	pipe := pipeline.New(genClient, repo, cacheStore, loc).
		WithTTLs(cfg.Cache.SummaryTTL, cache.TTLNewsDigest).
		WithBroadcaster(hub)
	if notifier != nil {
		pipe.WithAlerter(notifier)
	}

	engine := scenario.NewEngine(genClient, repo, cacheStore).
		WithScenarioTTL(cfg.Cache.ScenarioTTL)
	if notifier != nil {
		engine.WithAlerter(notifier)
	}

	sched := scheduler.New(loc, pipe, scheduler.Options{
		LockFactory:  lockFactory,
		DrainTimeout: cfg.Scheduler.DrainTimeout,
	})
	for _, job := range scheduler.DefaultJobs() {
		sched.Register(job)
	}

	srv := server.New(cfg, engine, repo, cacheStore, hub)
	srv.AddHealthCheck("database", db)
	if redisClient != nil {
		srv.AddHealthCheck("redis", redisClient)
	}

	// Run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	schedDone := make(chan struct{})
	if cfg.Scheduler.Enabled {
		go func() {
			defer close(schedDone)
			if err := sched.Run(ctx); err != nil {
				logger.Error("scheduler error", zap.Error(err))
			}
		}()
	} else {
		close(schedDone)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	// Stop issuing new fires but let in-flight runs finish
	sched.Cancel()
	<-schedDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}

	logger.Info("finsights stopped")
	return nil
}
