// Package main wires together the broker daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/api"
	"github.com/openhire/brokerd/internal/broker"
	"github.com/openhire/brokerd/internal/clock/system"
	"github.com/openhire/brokerd/internal/config"
	"github.com/openhire/brokerd/internal/dispatcher"
	"github.com/openhire/brokerd/internal/enrich"
	"github.com/openhire/brokerd/internal/language"
	"github.com/openhire/brokerd/internal/logging"
	"github.com/openhire/brokerd/internal/metrics"
	queueMemory "github.com/openhire/brokerd/internal/queue/memory"
	queuePubsub "github.com/openhire/brokerd/internal/queue/pubsub"
	"github.com/openhire/brokerd/internal/resolver"
	storeMemory "github.com/openhire/brokerd/internal/store/memory"
	storePostgres "github.com/openhire/brokerd/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store broker.Store
	switch cfg.Store.Provider {
	case "postgres":
		pgStore, err := storePostgres.NewStore(ctx, storePostgres.Config{
			DSN:      cfg.Store.DSN,
			MaxConns: int32(cfg.Store.MaxConns),
		})
		if err != nil {
			logger.Fatal("store init failed", zap.Error(err))
		}
		defer pgStore.Close()
		store = pgStore
	default:
		store = storeMemory.NewStore()
	}

	var (
		consumer  broker.Consumer
		publisher broker.Publisher
	)
	switch cfg.Queue.Provider {
	case "pubsub":
		pubsubConsumer, err := queuePubsub.NewConsumer(ctx, cfg.Queue.ProjectID, cfg.Queue.Subscriptions, cfg.Queue.Depth, logger.Named("pubsub"))
		if err != nil {
			logger.Fatal("queue consumer init failed", zap.Error(err))
		}
		defer pubsubConsumer.Close()
		pubsubPublisher, err := queuePubsub.NewPublisher(ctx, cfg.Queue.ProjectID)
		if err != nil {
			logger.Fatal("queue publisher init failed", zap.Error(err))
		}
		defer func() {
			if closeErr := pubsubPublisher.Close(); closeErr != nil {
				logger.Warn("queue publisher close failed", zap.Error(closeErr))
			}
		}()
		consumer = pubsubConsumer
		publisher = pubsubPublisher
	default:
		// Dev mode: inbound messages come from the in-process queue while
		// outbound requests go to a recorder so they cannot loop back.
		queue := queueMemory.NewQueue(cfg.Queue.Depth)
		defer queue.Close()
		consumer = queue
		publisher = queueMemory.NewPublisher()
	}

	clock := system.New()
	detector := language.New()

	matcher := resolver.NewMatcher(store, publisher, cfg.Channels.CompanyInput, clock, logger)
	orchestrator := enrich.New(publisher, store, store, enrich.Channels{
		EmbeddingInput: cfg.Channels.EmbeddingInput,
		SentimentInput: cfg.Channels.SentimentInput,
	}, logger)
	companyResolver := resolver.NewCompanyResolver(store, matcher, clock, logger)
	jobResolver := resolver.NewJobResolver(store, matcher, orchestrator, detector, clock, logger)
	reviewResolver := resolver.NewReviewResolver(store, orchestrator, detector, clock, logger)

	dispatch := dispatcher.New(consumer, dispatcher.Channels{
		CrawlerOutput:   cfg.Channels.CrawlerOutput,
		EmbeddingOutput: cfg.Channels.EmbeddingOutput,
		SentimentOutput: cfg.Channels.SentimentOutput,
	}, companyResolver, jobResolver, reviewResolver, orchestrator, logger)

	apiServer := api.NewServer(cfg.Server.Port, logger)

	go func() {
		apiServer.SetReady(true)
		if err := dispatch.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("dispatcher error", zap.Error(err))
			stop()
		}
	}()

	go func() {
		if err := apiServer.Run(); err != nil {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")
	apiServer.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
