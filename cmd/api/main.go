package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/classifier"
	"github.com/kevinhe012597/calendar-analytics/internal/config"
	"github.com/kevinhe012597/calendar-analytics/internal/handler"
	"github.com/kevinhe012597/calendar-analytics/internal/ics"
	"github.com/kevinhe012597/calendar-analytics/internal/logger"
	"github.com/kevinhe012597/calendar-analytics/internal/queue"
	"github.com/kevinhe012597/calendar-analytics/internal/queue/sqs"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
	"github.com/kevinhe012597/calendar-analytics/internal/repository/clickhouse"
	"github.com/kevinhe012597/calendar-analytics/internal/repository/memory"
	"github.com/kevinhe012597/calendar-analytics/internal/repository/sqlite"
	"github.com/kevinhe012597/calendar-analytics/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Calendar Analytics API
// @version 1.0
// @description API for classifying calendar events and reporting where the time goes
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.String("store_driver", cfg.Store.Driver))

	location, err := cfg.Service.Location()
	if err != nil {
		log.Fatal("Failed to resolve timezone", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize event store
	store, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer func(store repository.Store) {
		if err := store.Close(); err != nil {
			log.Error("Failed to close store", zap.Error(err))
		}
	}(store)

	// Initialize change feed publisher
	var publisher queue.ChangePublisher = queue.NopPublisher{}
	if cfg.SQS.QueueURL != "" {
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		publisher = sqsClient
	} else {
		log.Info("SQS queue URL not configured, event changes will not be published")
	}

	// Initialize history store
	var history repository.HistoryRepository
	if cfg.ClickHouse.Host != "" {
		clickhouseClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
		if err != nil {
			log.Fatal("Failed to create ClickHouse client", zap.Error(err))
		}
		defer func(clickhouseClient *clickhouse.Client) {
			if err := clickhouseClient.Close(); err != nil {
				log.Error("Failed to close ClickHouse client", zap.Error(err))
			}
		}(clickhouseClient)

		history = clickhouse.NewRepository(clickhouseClient, log)
	} else {
		log.Info("ClickHouse host not configured, history analytics disabled")
	}

	// Initialize services
	cls := classifier.New(cfg.Classifier, log.Named("classifier"))
	calendarService := service.NewCalendarService(store, log)
	eventService := service.NewEventService(calendarService, store, cls, publisher, log)
	analyticsService := service.NewAnalyticsService(store, history, cfg.Service.AnalyticsWindow, location, log)
	sessionService := service.NewSessionService(store, cfg.Service.DemoUsername, cfg.Service.SessionTTL, log)
	importer := ics.NewImporter(calendarService, eventService, ics.NewFetcher(cfg.ICS, log), cfg.ICS, log.Named("ics"))

	// Initialize handler
	h := handler.NewHandler(handler.Services{
		Calendars: calendarService,
		Events:    eventService,
		Analytics: analyticsService,
		Sessions:  sessionService,
		Imports:   importer,
	}, store, cfg.Service.SecureCookies, log)

	pruneCtx, stopPruner := context.WithCancel(ctx)
	defer stopPruner()
	if cfg.Service.SessionPruneInterval > 0 {
		go sessionService.RunPruner(pruneCtx, cfg.Service.SessionPruneInterval)
	}

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API server gracefully")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
}

func openStore(cfg config.Store) (repository.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.New(cfg.SqlitePath)
	default:
		return memory.NewStore(), nil
	}
}
