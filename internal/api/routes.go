package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pairup-backend/internal/api/handlers"
)

// Pinger reports the health of the backing stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Storage        Pinger
	MatchHandler   *handlers.MatchHandler
	HistoryHandler *handlers.HistoryHandler
	SpaceHandler   *handlers.SpaceHandler
	WebSocket      http.HandlerFunc
	Log            *slog.Logger
}

func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Log))
	r.Use(middleware.Recoverer)

	// CORS middleware for browser clients
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-Id")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.Storage != nil {
			if err := deps.Storage.Ping(r.Context()); err != nil {
				deps.Log.Warn("Health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded","service":"pairup-backend"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"pairup-backend"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// websocket route stays outside Timeout and Compress
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))

		r.Post("/queue", deps.MatchHandler.RequestMatch)
		r.Delete("/queue/{userID}", deps.MatchHandler.Leave)
		r.Post("/next", deps.MatchHandler.Next)
		r.Get("/stats", deps.MatchHandler.GetStats)
		r.Get("/session/{userID}", deps.MatchHandler.GetSession)

		if deps.HistoryHandler != nil {
			r.Get("/history/{userID}", deps.HistoryHandler.GetHistory)
		}

		if deps.SpaceHandler != nil {
			r.Get("/spaces/{handle}", deps.SpaceHandler.GetSpace)
			r.Post("/spaces/{handle}/archive", deps.SpaceHandler.ArchiveSpace)
		}
	})

	if deps.WebSocket != nil {
		r.Get("/ws/{userID}", deps.WebSocket)
	}

	return r
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
