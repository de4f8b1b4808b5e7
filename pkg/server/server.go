// Package server is the backend behind the browser UI: the Collection Store
// REST API and the proxy execution endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/postboy/postboy/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server settings.
type Config struct {
	Addr    string        `mapstructure:"addr"`
	APIKey  string        `mapstructure:"api_key"`
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Server serves the store API and the proxy endpoint.
type Server struct {
	cfg     Config
	store   storage.Store
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

type Option func(*Server)

// WithClient sets the client used for outbound proxy calls.
func WithClient(c *http.Client) Option {
	return func(s *Server) { s.client = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a server over store. A non-positive RPS disables rate limiting.
func New(cfg Config, store storage.Store, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	root := mux.NewRouter()
	root.Use(recoverer(s.logger))
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "no such route")
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "")
	})

	root.HandleFunc("/proxy/execute", s.handleProxyExecute).Methods("POST")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	root.HandleFunc("/collections", s.handleListCollections).Methods("GET")

	api := root.NewRoute().Subrouter()
	api.Use(requireAPIKey(s.cfg.APIKey))
	api.HandleFunc("/collections", s.handleCreateCollection).Methods("POST")
	api.HandleFunc("/collections/{id:[0-9]+}/requests", s.handleListRequests).Methods("GET")
	api.HandleFunc("/collections/{id:[0-9]+}/requests", s.handleCreateRequest).Methods("POST")
	api.HandleFunc("/requests/{id}", s.handleGetRequest).Methods("GET")
	api.HandleFunc("/requests/{id}", s.handleUpdateRequest).Methods("PUT")
	api.HandleFunc("/requests/{id}", s.handleDeleteRequest).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowOriginFunc: func(string) bool { return true },
		AllowedHeaders:  []string{"*"},
		ExposedHeaders:  []string{"Content-Type"},
	})
	return accessLog(s.logger)(c.Handler(root))
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		s.logger.Info().Msg("server exited")
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	}
}
