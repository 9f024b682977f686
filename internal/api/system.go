package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/smartfactory/smartfactory/internal/layout"
	"github.com/smartfactory/smartfactory/internal/storage"
	"github.com/smartfactory/smartfactory/internal/version"
	"github.com/smartfactory/smartfactory/internal/webui"
)

// defaultLogLimit caps /api/logs when no limit is given
const defaultLogLimit = 200

// handleIndex lists the API entry points
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "smartfactory",
		"version": version.Get().Version,
		"endpoints": []string{
			"/api/health",
			"/api/areas",
			"/api/devices",
			"/api/connections",
			"/api/alerts",
			"/api/alerts/generator/status",
			"/api/stats",
			"/api/factory/data",
			"/api/factory/layout",
			"/api/logs",
			s.cfg.WebSocket.Path,
		},
	})
}

// handleHealth returns service health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"uptime":  formatDuration(time.Since(s.startTime)),
		"version": version.Get(),
	}
	if s.Generator != nil {
		health["generator"] = s.Generator.Status()
	}
	if s.Hub != nil {
		health["observers"] = s.Hub.Len()
	}
	respondWithJSON(w, http.StatusOK, health)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Factory.Stats(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleFactoryData(w http.ResponseWriter, r *http.Request) {
	data, err := s.Factory.Data(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, data)
}

// floatParam parses an optional positive query parameter; 0 means unset
func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("bad %s %q: %w", name, raw, storage.ErrInvalid)
	}
	return v, nil
}

func (s *Server) handleFactoryLayout(w http.ResponseWriter, r *http.Request) {
	gridSize, err := floatParam(r, "gridSize")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	height, err := floatParam(r, "height")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	data, err := s.Factory.Data(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, layout.Build(data, gridSize, height))
}

// handleLogs returns recent log entries, optionally filtered
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultLogLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondWithError(w, r, fmt.Errorf("bad limit %q: %w", raw, storage.ErrInvalid))
			return
		}
		limit = n
	}

	entries := []webui.LogEntry{}
	if s.Logs != nil {
		entries = s.Logs.Recent(limit, q.Get("level"), q.Get("component"))
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleWebUI renders the dashboard
func (s *Server) handleWebUI(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	data := webui.PageData{
		Version:     info.Version,
		Commit:      info.Commit,
		Uptime:      formatDuration(time.Since(s.startTime)),
		WSPath:      s.cfg.WebSocket.Path,
		GeneratedAt: time.Now(),
	}

	if s.Generator != nil {
		st := s.Generator.Status()
		data.Generator = webui.GeneratorInfo{Enabled: st.Enabled, MaxAlerts: st.MaxAlerts}
	}

	ctx := r.Context()
	if stats, err := s.Factory.Stats(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load device stats for dashboard")
	} else {
		data.Devices = webui.DeviceSummary{
			Total:      stats.TotalDevices,
			Running:    stats.RunningDevices,
			Errors:     stats.ErrorDevices,
			Efficiency: stats.Efficiency,
		}
	}
	if alerts, err := s.Alerts.ListRecent(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load alerts for dashboard")
	} else {
		data.Alerts = alerts
	}
	if s.Logs != nil {
		data.Logs = s.Logs.Recent(100, "", "")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Templates.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
