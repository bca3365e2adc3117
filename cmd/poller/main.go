package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"feed_poller/internal/config"
	"feed_poller/internal/feed"
	"feed_poller/internal/publisher"
	"feed_poller/internal/scheduler"
	"feed_poller/internal/service"
	"feed_poller/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Publisher is optional; no URL means entries are only stored.
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	feedStore := postgres.NewFeedStore(db)
	entryStore := postgres.NewEntryStore(db)
	filterStore := postgres.NewFilterStore(db)
	statusStore := postgres.NewStatusStore(db)
	txManager := postgres.NewTransactionManager(db)

	resolver := feed.NewResolver(cfg.Validate.ResolveTimeout, logger)
	fetcher := feed.NewFetcher(feed.FetcherConfig{
		Timeout:     cfg.HTTP.Timeout,
		MaxAttempts: cfg.HTTP.Retry.MaxAttempts,
		Backoff:     cfg.HTTP.Retry.Backoff,
	}, logger)
	validator := feed.NewValidator(cfg.Validate.Timeout, resolver, logger)

	tracker := service.NewTracker(statusStore, feedStore, logger)

	sweepService := service.NewSweepService(
		feedStore,
		entryStore,
		filterStore,
		statusStore,
		txManager,
		resolver,
		fetcher,
		tracker,
		pub,
		logger,
	)

	validateService := service.NewValidateService(
		feedStore,
		validator,
		tracker,
		cfg.Validate.Pause,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting feed poller",
		"sweep_interval", cfg.Sweep.Interval,
		"validate_interval", cfg.Validate.Interval,
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sched := scheduler.New("sweep", sweepService, cfg.Sweep.Interval, logger)
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sweep scheduler error", "error", err)
		}
	}()

	if cfg.Validate.Interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched := scheduler.New("validate", validateService, cfg.Validate.Interval, logger)
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("validate scheduler error", "error", err)
			}
		}()
	}

	wg.Wait()
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
