package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/emi-voice-agent/internal/callrecord"
	httpmiddleware "github.com/wolfman30/emi-voice-agent/internal/http/middleware"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	StreamHandler  http.Handler
	CallsHandler   *callrecord.Handler
	MetricsHandler http.Handler

	// TokenSecret enables the signed-token check on /stream and /calls.
	TokenSecret   string
	StreamLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Compress is left out: it wraps the ResponseWriter and breaks the
	// websocket hijack on /stream.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.StreamHandler != nil {
		r.With(
			httpmiddleware.RateLimit(cfg.StreamLimiter),
			httpmiddleware.RequireToken(cfg.TokenSecret),
		).Get("/stream", cfg.StreamHandler.ServeHTTP)
	}
	if cfg.CallsHandler != nil {
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireToken(cfg.TokenSecret))
			admin.Mount("/calls", cfg.CallsHandler.Routes())
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
