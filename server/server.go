package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/armon/go-metrics"
	metricsprom "github.com/armon/go-metrics/prometheus"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/xydata/oracle/app"
	"github.com/xydata/oracle/indexer"
)

// Config configures the API server.
type Config struct {
	Address        string        `mapstructure:"address" toml:"address"`
	AllowedOrigins []string      `mapstructure:"allowed-origins" toml:"allowed-origins"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout" toml:"read-timeout"`
	WriteTimeout   time.Duration `mapstructure:"write-timeout" toml:"write-timeout"`
	EnableMetrics  bool          `mapstructure:"enable-metrics" toml:"enable-metrics"`
}

// DefaultConfig returns the API defaults.
func DefaultConfig() Config {
	return Config{
		Address:        "127.0.0.1:1317",
		AllowedOrigins: []string{"*"},
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		EnableMetrics:  true,
	}
}

var metricsOnce sync.Once

// enableMetrics installs a global go-metrics sink backed by the default
// prometheus registry.
func enableMetrics(logger log.Logger) {
	metricsOnce.Do(func() {
		sink, err := metricsprom.NewPrometheusSink()
		if err != nil {
			logger.Error("failed to create prometheus sink", "err", err)
			return
		}
		cfg := metrics.DefaultConfig("xydata")
		cfg.EnableHostname = false
		cfg.EnableRuntimeMetrics = true
		if _, err := metrics.NewGlobal(cfg, sink); err != nil {
			logger.Error("failed to install metrics sink", "err", err)
		}
	})
}

// StatsSource serves per data type analytics from the read model.
type StatsSource interface {
	Stats(ctx context.Context) ([]indexer.FeedStats, error)
}

// Server exposes the application over HTTP and websocket.
type Server struct {
	cfg    Config
	app    *app.App
	logger log.Logger
	hub    *eventHub
	stats  StatsSource

	router *mux.Router
	srv    *http.Server
}

func New(cfg Config, a *app.App, logger log.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		app:    a,
		logger: logger.With("module", "api"),
		router: mux.NewRouter(),
	}
	s.hub = newEventHub(a, s.logger)

	if cfg.EnableMetrics {
		enableMetrics(s.logger)
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	s.registerRoutes()
	return s
}

// SetStats enables /v1/stats. Without a source the route answers 503.
func (s *Server) SetStats(src StatsSource) {
	s.stats = src
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/txs", s.handleBroadcast).Methods(http.MethodPost)
	v1.HandleFunc("/txs", s.handleTxs).Methods(http.MethodGet)
	v1.HandleFunc("/registry", s.handleRegistry).Methods(http.MethodGet)
	v1.HandleFunc("/params", s.handleParams).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{address}", s.handleAccount).Methods(http.MethodGet)
	v1.HandleFunc("/requests", s.handleRequests).Methods(http.MethodGet)
	v1.HandleFunc("/requests/{address}", s.handleRequest).Methods(http.MethodGet)
	v1.HandleFunc("/requests/{address}/proof", s.handleRequestProof).Methods(http.MethodGet)
	v1.HandleFunc("/proofs/{address}", s.handleProof).Methods(http.MethodGet)
	v1.HandleFunc("/proof-hash", s.handleProofHash).Methods(http.MethodGet)
	v1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.hub.serveWS).Methods(http.MethodGet)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "address", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.close()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down API server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
