package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	thermostatengine "thermasense/contexts/building-comfort/thermostat-engine"
	_ "thermasense/internal/platform/httpserver/docs"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Addr           string
	ServiceName    string
	CORSOrigins    []string
	VoteRateLimit  int
	VoteRateWindow time.Duration
	// MetricsHandler serves /metrics. Nil uses the default Prometheus registry.
	MetricsHandler http.Handler
	// HealthCheck backs /healthz. Nil always reports ok.
	HealthCheck func(ctx context.Context) error
}

type Server struct {
	mux        *http.ServeMux
	handler    http.Handler
	logger     *slog.Logger
	addr       string
	options    Options
	thermostat thermostatengine.Module
}

func New(thermostat thermostatengine.Module, logger *slog.Logger, options Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Addr == "" {
		options.Addr = ":8080"
	}
	if options.ServiceName == "" {
		options.ServiceName = "thermasense"
	}
	if options.VoteRateWindow <= 0 {
		options.VoteRateWindow = time.Minute
	}
	if options.MetricsHandler == nil {
		options.MetricsHandler = promhttp.Handler()
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       options.Addr,
		options:    options,
		thermostat: thermostat,
	}
	s.registerRoutes()

	origins := options.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(s.mux)
	return s
}

// Handler returns the routed mux behind the CORS middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer builds the net/http server the supervisor runs.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return s.HTTPServer().ListenAndServe()
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", s.options.MetricsHandler)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	voteHandler := http.Handler(http.HandlerFunc(s.handleSubmitVote))
	if s.options.VoteRateLimit > 0 {
		voteHandler = httprate.Limit(
			s.options.VoteRateLimit,
			s.options.VoteRateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeThermostatError(w, http.StatusTooManyRequests, "rate_limited", "too many votes, slow down")
			}),
		)(voteHandler)
	}
	s.mux.Handle("POST /api/vote", voteHandler)
	s.mux.Handle("POST /api/vote/{$}", voteHandler)
	s.mux.HandleFunc("GET /api/zones", s.handleListZones)
	s.mux.HandleFunc("GET /api/zones/{$}", s.handleListZones)
	s.mux.HandleFunc("GET /api/zones/{zone_id}/status", s.handleZoneStatus)
	s.mux.HandleFunc("GET /api/zones/{zone_id}/stats", s.handleVoteStats)

	s.mux.HandleFunc("GET /admin/history", s.handleHistory)
	s.mux.HandleFunc("POST /admin/zones/{zone_id}/cycle", s.handleRunCycle)
	s.mux.HandleFunc("POST /admin/cycles", s.handleRunAllCycles)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
