package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/qrcode"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/render"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/config"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

// NewRouter creates and configures the main application router. metrics may be
// nil when no /metrics endpoint is wanted.
func NewRouter(cfg *config.Config, links ports.LinkService, resolver ports.Resolver, metrics http.Handler, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	// Initialize Handlers
	h := NewHTTPHandler(links, resolver, render.New(cfg.IOSFallbackTimeout), qrcode.NewEncoder(0), Options{
		BaseURL:    cfg.BaseURL,
		TrustProxy: cfg.TrustProxy,
	}, log)

	// Initialize Middleware
	mw := NewMiddleware(cfg, log)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /r/{id}", h.Resolve)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Protected Routes (link management API)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /api/links", h.Create)
	protectedMux.HandleFunc("GET /api/links/{id}", h.Get)
	protectedMux.HandleFunc("GET /api/analytics/{id}", h.Analytics)

	if cfg.AuthEnabled() {
		authHandler := NewAuthHandler(cfg, log)
		mux.HandleFunc("GET /auth/google/login", authHandler.Login)
		mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
		mux.HandleFunc("GET /auth/logout", authHandler.Logout)

		mux.Handle("/api/", mw.AuthMiddleware(protectedMux))
	} else {
		log.Warn("Google login not configured, link API is unauthenticated")
		mux.Handle("/api/", protectedMux)
	}

	return mw.RequestLogger(mux)
}
