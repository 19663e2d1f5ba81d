package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/config"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/services"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, the sqlite file is ephemeral unless DATABASE_URL points at Turso
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		panic(err)
	}

	collectors := metrics.New()
	linkService := services.NewLinkService(repo, log)
	// The recorder is never closed here; the platform freezes the instance
	// between invocations and queued events are written on the next thaw.
	recorder := services.NewEventRecorder(repo, services.RecorderConfig{
		Workers:      cfg.AnalyticsWorkers,
		QueueSize:    cfg.AnalyticsQueueSize,
		WriteTimeout: cfg.AnalyticsWriteTimeout,
	}, collectors, log)
	resolver := services.NewResolver(linkService, recorder, collectors, log)

	mux = handler.NewRouter(cfg, linkService, resolver, collectors.Handler(), log)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
