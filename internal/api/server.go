package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/smartfactory/smartfactory/internal/alerter"
	"github.com/smartfactory/smartfactory/internal/broadcast"
	"github.com/smartfactory/smartfactory/internal/config"
	"github.com/smartfactory/smartfactory/internal/factory"
	"github.com/smartfactory/smartfactory/internal/metrics"
	"github.com/smartfactory/smartfactory/internal/storage"
	"github.com/smartfactory/smartfactory/internal/webui"
)

// Deps are the components the API serves
type Deps struct {
	Alerts      *storage.AlertStore
	Areas       *storage.AreaStore
	Devices     *storage.DeviceStore
	Connections *storage.ConnectionStore
	Generator   *alerter.Generator
	// Broadcaster announces deletions made through the API
	Broadcaster alerter.Broadcaster
	Factory     *factory.Service
	Hub         *broadcast.Hub
	Metrics     *metrics.Metrics
	Logs        *webui.LogBuffer
}

// Server provides HTTP API endpoints, the websocket and the web UI
type Server struct {
	Deps
	cfg       *config.Config
	logger    zerolog.Logger
	startTime time.Time
	http      *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		Deps:      deps,
		cfg:       cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
	s.http = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler builds the routed handler with CORS and request logging
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api", s.handleIndex).Methods("GET")
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", s.handleHealth).Methods("GET")
	apiRouter.HandleFunc("/stats", s.handleStats).Methods("GET")
	apiRouter.HandleFunc("/factory/data", s.handleFactoryData).Methods("GET")
	apiRouter.HandleFunc("/factory/layout", s.handleFactoryLayout).Methods("GET")
	apiRouter.HandleFunc("/logs", s.handleLogs).Methods("GET")

	s.registerAlertRoutes(apiRouter)
	s.registerAreaRoutes(apiRouter)
	s.registerDeviceRoutes(apiRouter)
	s.registerConnectionRoutes(apiRouter)

	if s.Hub != nil {
		router.HandleFunc(s.cfg.WebSocket.Path, s.Hub.ServeWS)
	}
	if s.cfg.Metrics.Enabled {
		router.Handle(s.cfg.Metrics.Path, s.Metrics.Handler()).Methods("GET")
	}
	router.HandleFunc("/", s.handleWebUI).Methods("GET")

	return s.cors(s.logRequests(router))
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.http.Addr).
		Str("websocket", s.cfg.WebSocket.Path).
		Msg("Starting API server with Web UI")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	if d < 24*time.Hour {
		return d.Round(time.Minute).String()
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}
