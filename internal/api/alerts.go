package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/smartfactory/smartfactory/internal/storage"
	"github.com/smartfactory/smartfactory/internal/types"
)

// defaultRecentWindow is used when /alerts/recent has no window
const defaultRecentWindow = time.Hour

// registerAlertRoutes registers alert and generator routes. Fixed paths
// come before /alerts/{id}.
func (s *Server) registerAlertRoutes(router *mux.Router) {
	router.HandleFunc("/alerts", s.handleListAlerts).Methods("GET")
	router.HandleFunc("/alerts", s.handleCreateAlert).Methods("POST")
	router.HandleFunc("/alerts/recent", s.handleRecentAlerts).Methods("GET")
	router.HandleFunc("/alerts/stats", s.handleAlertStats).Methods("GET")

	router.HandleFunc("/alerts/generator/start", s.handleGeneratorStart).Methods("POST")
	router.HandleFunc("/alerts/generator/stop", s.handleGeneratorStop).Methods("POST")
	router.HandleFunc("/alerts/generator/status", s.handleGeneratorStatus).Methods("GET")
	router.HandleFunc("/alerts/generator/clear", s.handleGeneratorClear).Methods("DELETE")

	router.HandleFunc("/alerts/{id:[0-9]+}", s.handleGetAlert).Methods("GET")
	router.HandleFunc("/alerts/{id:[0-9]+}", s.handleDeleteAlert).Methods("DELETE")
	router.HandleFunc("/alerts/{id:[0-9]+}/read", s.handleMarkAlertRead).Methods("PUT")
}

// idParam parses the numeric id path variable
func idParam(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id %q: %w", raw, storage.ErrInvalid)
	}
	return uint(id), nil
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.Alerts.ListRecent(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	window := defaultRecentWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			s.respondWithError(w, r, fmt.Errorf("bad window %q: %w", raw, storage.ErrInvalid))
			return
		}
		window = d
	}

	alerts, err := s.Alerts.ListSince(r.Context(), time.Now().Add(-window))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAlertStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Alerts.Stats(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	alert, err := s.Alerts.Get(r.Context(), id)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, alert)
}

// createAlertRequest is the body of POST /alerts
type createAlertRequest struct {
	Message  string         `json:"message"`
	Severity types.Severity `json:"severity"`
	DeviceID string         `json:"deviceId"`
	AreaID   string         `json:"areaId"`
}

// handleCreateAlert stores the alert through the generator so it is
// announced and the retention cap still holds
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	alert := &types.Alert{
		OccurredAt: time.Now(),
		Message:    req.Message,
		Severity:   req.Severity,
		DeviceRef:  types.StrPtr(req.DeviceID),
		AreaRef:    types.StrPtr(req.AreaID),
	}
	if err := s.Generator.Record(r.Context(), alert); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, alert)
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if err := s.Alerts.MarkRead(r.Context(), id); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"id": id, "isRead": true})
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if err := s.Alerts.Delete(r.Context(), id); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if s.Broadcaster != nil {
		s.Broadcaster.BroadcastDeleted(id)
	}
	respondWithJSON(w, http.StatusOK, map[string]uint{"id": id})
}

func (s *Server) handleGeneratorStart(w http.ResponseWriter, r *http.Request) {
	s.logger.Info().Msg("Alert generator start requested")
	respondWithJSON(w, http.StatusOK, s.Generator.Start(r.Context()))
}

func (s *Server) handleGeneratorStop(w http.ResponseWriter, r *http.Request) {
	s.logger.Info().Msg("Alert generator stop requested")
	respondWithJSON(w, http.StatusOK, s.Generator.Stop())
}

func (s *Server) handleGeneratorStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.Generator.Status())
}

func (s *Server) handleGeneratorClear(w http.ResponseWriter, r *http.Request) {
	result, err := s.Generator.ClearAll(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
