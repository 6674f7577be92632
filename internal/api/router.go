package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/api/handlers"
	mw "github.com/Harshitk-cp/proofstream/internal/api/middleware"
	"github.com/Harshitk-cp/proofstream/internal/buildconfig"
	"github.com/Harshitk-cp/proofstream/internal/orchestrator"
	"github.com/Harshitk-cp/proofstream/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options wires the application. Registry receives the HTTP and stream
// metrics and is served on /metrics. Ping, when set, backs /health.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Proofs       *service.ProofService
	Registry     *prometheus.Registry
	Ping         func(ctx context.Context) error

	UnlockKey      string
	KeepAlive      time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router.
type App struct {
	Router    *chi.Mux
	startTime time.Time
	ping      func(ctx context.Context) error
}

// NewApp builds the router. Background work started here stops when ctx is done.
func NewApp(ctx context.Context, opts Options, logger *zap.Logger) *App {
	keepAlives := promauto.With(opts.Registry).NewCounter(prometheus.CounterOpts{
		Name: "proofstream_sse_keepalives_total",
		Help: "Keep-alive comment frames written to open streams.",
	})

	streamHandler := handlers.NewStreamHandler(opts.Orchestrator, opts.KeepAlive, keepAlives, logger)
	proofHandler := handlers.NewProofHandler(opts.Proofs)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		startTime: time.Now(),
		ping:      opts.Ping,
	}

	metricsCollector := mw.NewMetricsCollector(opts.Registry)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(ctx, opts.RateLimitRPS, opts.RateLimitBurst))

	// Health and metrics (no auth)
	r.Get("/health", app.healthHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.UnlockGate(opts.UnlockKey))

		r.Route("/proofs", func(r chi.Router) {
			r.Post("/attempt", streamHandler.Attempt)
			r.Post("/review", streamHandler.Review)
			r.Post("/revise", streamHandler.Revise)

			r.Route("/{proofID}", func(r chi.Router) {
				r.Get("/versions", proofHandler.List)
				r.Post("/versions/raw", proofHandler.AppendRaw)
				r.Post("/versions/structured", proofHandler.AppendStructured)
				r.Get("/versions/user-edited", proofHandler.UserEdited)
				r.Post("/reconcile", proofHandler.Reconcile)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", streamHandler.Chat)
			r.Post("/extract", streamHandler.Extract)
		})
	})

	return app
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"status":         "ok",
			"version":        buildconfig.Version(),
			"commit":         buildconfig.Commit(),
			"uptime_seconds": time.Since(app.startTime).Seconds(),
		}
		status := http.StatusOK
		if app.ping != nil {
			if err := app.ping(r.Context()); err != nil {
				body["status"] = "error"
				body["error"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
