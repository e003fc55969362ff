// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/okian/weekboard/internal/adapters/http/swagger"
	"github.com/okian/weekboard/internal/domain/artifact"
	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	WeeklyLeaderboard(ctx context.Context, slug, week, country string, page, limit int) (model.Page, error)
	LeaderboardArtifact(ctx context.Context, slug, week, country string, force, raw bool) (artifact.Result, error)
	CollectionItems(ctx context.Context, slug, country string, page, limit int, sort, order string) (model.Page, error)
	Weeks(ctx context.Context, slug string) ([]string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	imageHandler       *ImageHandler
	logger             logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	renderLimit rate.Limit
	renderBurst int
	logger      logger.Logger
}

// WithRenderRate limits image requests to perSecond with the given burst.
func WithRenderRate(perSecond float64, burst int) Option {
	return func(c *serverConfig) {
		if perSecond > 0 {
			c.renderLimit = rate.Limit(perSecond)
		}
		if burst > 0 {
			c.renderBurst = burst
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{renderLimit: 2, renderBurst: 4, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.logger),
		imageHandler:       NewImageHandler(deps, rate.NewLimiter(cfg.renderLimit, cfg.renderBurst), cfg.logger),
		logger:             cfg.logger,
	}
}

// Routes returns the router serving every endpoint.
func (s *Server) Routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware, MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/collections/{slug}", func(r chi.Router) {
		r.Get("/weeks", s.leaderboardHandler.HandleWeeks)
		r.Get("/weeks/{week}", s.leaderboardHandler.HandleWeekly)
		r.Get("/weeks/{week}/image", s.imageHandler.HandleImage)
		r.Get("/items", s.leaderboardHandler.HandleItems)
	})

	swagger.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes the {code, message} body.
// Server-side failures are logged with the request id.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	} else {
		log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
