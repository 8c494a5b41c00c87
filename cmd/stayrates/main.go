package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	quoteapp "stayrates/internal/app/handlers/quote"
	"stayrates/internal/app/queries"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/infra/broker/kafka"
	"stayrates/internal/infra/config"
	mongodb "stayrates/internal/infra/db/mongo"
	ginserver "stayrates/internal/infra/http/gin"
	"stayrates/internal/infra/obs"
	"stayrates/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	stores, ready, err := buildStores(cfg, logger)
	if err != nil {
		logger.Error("store setup failed", "error", err)
		os.Exit(1)
	}

	sinks := []pricing.WarningSink{pricing.LoggerSink{Logger: logger}}
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		sinks = append(sinks, &kafka.AlertPublisher{
			Producer: producer,
			Topic:    cfg.WarningsTopic(),
			Logger:   logger,
		})
		logger.Info("config warnings publishing enabled", "topic", cfg.WarningsTopic())
	}

	evaluator := &pricing.NightEvaluator{
		Matrix:       stores.matrix,
		Overrides:    stores.overrides,
		Rules:        stores.rules,
		Alerts:       pricing.MultiSink(sinks...),
		Logger:       logger,
		StoreTimeout: cfg.StoreTimeout,
	}
	pricer := &pricing.StayPricer{
		Evaluator:      evaluator,
		MaxAdvanceDays: cfg.MaxAdvanceDays,
	}
	quoteSvc := &pricing.QuoteService{
		Matrix:       stores.matrix,
		Logger:       logger,
		StoreTimeout: cfg.StoreTimeout,
	}

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, quoteapp.StayQuoteQuery{}.Key(), &quoteapp.StayQuoteHandler{
		Pricer:       pricer,
		Logger:       logger,
		RetryBackoff: cfg.RetryBackoff,
	})
	queries.RegisterHandler(queryBus, quoteapp.ListingQuoteQuery{}.Key(), &quoteapp.ListingQuoteHandler{
		Quotes:       quoteSvc,
		Logger:       logger,
		RetryBackoff: cfg.RetryBackoff,
	})

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready:   ready,
		Backend: cfg.RatesMode,
	}, ginserver.Handlers{
		Quote: ginserver.QuoteHandler{Queries: queryBus},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "rates_mode", cfg.RatesMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type engineStores struct {
	matrix    rates.MatrixStore
	overrides rates.OverrideStore
	rules     rates.RuleStore
}

func buildStores(cfg config.Config, logger *slog.Logger) (engineStores, func() error, error) {
	if cfg.RatesMode == "mongo" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return engineStores{}, nil, err
		}
		ready := func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		return engineStores{
			matrix:    mongodb.NewMatrixRepository(client.DB),
			overrides: mongodb.NewOverrideRepository(client.DB),
			rules:     mongodb.NewRuleRepository(client.DB),
		}, ready, nil
	}

	matrix := memory.NewRateMatrixStore()
	overrides := memory.NewOverrideStore()
	rules := memory.NewRuleStore()
	if cfg.FixturesPath != "" {
		if err := memory.LoadFixtures(cfg.FixturesPath, matrix, overrides, rules, logger); err != nil {
			logger.Warn("rate fixtures load failed", "error", err, "path", cfg.FixturesPath)
		}
	}
	return engineStores{
		matrix:    matrix,
		overrides: overrides,
		rules:     rules,
	}, func() error { return nil }, nil
}
