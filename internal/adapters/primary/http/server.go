package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// StatsSource reports cache statistics for the stats endpoint.
type StatsSource interface {
	Stats() entities.CacheStats
}

// Server exposes the watched namespace over HTTP: file metadata and
// directory listings from the provider, plus a WebSocket stream of change
// events. It implements the ChangeNotifier port so the change feed service
// can publish straight into it.
type Server struct {
	server   *http.Server
	connMgr  *ConnectionManager
	provider ports.FileProvider
	stats    StatsSource
	config   *entities.ServerConfig
	logger   *slog.Logger
	mu       sync.Mutex
	running  bool
}

// NewServer creates a new HTTP server. config must not be nil.
func NewServer(provider ports.FileProvider, config *entities.ServerConfig, logger *slog.Logger) *Server {
	if config == nil {
		panic("server config cannot be nil - provide a valid ServerConfig")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		provider: provider,
		connMgr:  NewConnectionManager(),
		config:   config,
		logger:   logger.With("component", "http_server"),
	}
}

// SetStatsSource attaches a cache statistics source for /api/stats.
func (s *Server) SetStatsSource(source StatsSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = source
}

// NotifyChange broadcasts a change event to every connected client.
func (s *Server) NotifyChange(event entities.ChangeEvent) {
	s.connMgr.Broadcast(event)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}

	go s.connMgr.Run(ctx)

	router := s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	handler := c.Handler(s.loggingMiddleware(router))

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.GetReadTimeout(),
		WriteTimeout: s.config.GetWriteTimeout(),
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("serving", slog.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	server := s.server
	s.mu.Unlock()

	s.connMgr.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.GetShutdownTimeout())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// setupRoutes wires the HTTP routes.
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/api/files/{subpath:.*}", s.handleFileInfo).Methods(http.MethodGet)
	router.HandleFunc("/api/dirs/{subpath:.*}", s.handleDirectory).Methods(http.MethodGet)
	router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	return router
}
