package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/config"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/services"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	// Initialize Services
	collectors := metrics.New()
	linkService := services.NewLinkService(repo, log)
	recorder := services.NewEventRecorder(repo, services.RecorderConfig{
		Workers:      cfg.AnalyticsWorkers,
		QueueSize:    cfg.AnalyticsQueueSize,
		WriteTimeout: cfg.AnalyticsWriteTimeout,
	}, collectors, log)
	resolver := services.NewResolver(linkService, recorder, collectors, log)

	// Initialize Router
	mux := handler.NewRouter(cfg, linkService, resolver, collectors.Handler(), log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	// Flush pending analytics after the last request has been served.
	if err := recorder.Close(ctx); err != nil {
		log.Warn("Analytics queue not fully drained", zap.Error(err))
	}
}
