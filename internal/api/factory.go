package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smartfactory/smartfactory/internal/types"
)

func (s *Server) registerAreaRoutes(router *mux.Router) {
	router.HandleFunc("/areas", s.handleListAreas).Methods("GET")
	router.HandleFunc("/areas", s.handleCreateArea).Methods("POST")
	router.HandleFunc("/areas/{id}", s.handleGetArea).Methods("GET")
	router.HandleFunc("/areas/{id}", s.handleUpdateArea).Methods("PUT")
	router.HandleFunc("/areas/{id}", s.handleDeleteArea).Methods("DELETE")
}

func (s *Server) registerDeviceRoutes(router *mux.Router) {
	router.HandleFunc("/devices", s.handleListDevices).Methods("GET")
	router.HandleFunc("/devices", s.handleCreateDevice).Methods("POST")
	router.HandleFunc("/devices/{id}", s.handleGetDevice).Methods("GET")
	router.HandleFunc("/devices/{id}", s.handleUpdateDevice).Methods("PUT")
	router.HandleFunc("/devices/{id}", s.handleDeleteDevice).Methods("DELETE")
	router.HandleFunc("/devices/{id}/control", s.handleControlDevice).Methods("POST")
	router.HandleFunc("/devices/{id}/logs", s.handleDeviceLogs).Methods("GET")
}

func (s *Server) registerConnectionRoutes(router *mux.Router) {
	router.HandleFunc("/connections", s.handleListConnections).Methods("GET")
	router.HandleFunc("/connections", s.handleCreateConnection).Methods("POST")
	router.HandleFunc("/connections/{id:[0-9]+}", s.handleGetConnection).Methods("GET")
	router.HandleFunc("/connections/{id:[0-9]+}", s.handleUpdateConnection).Methods("PUT")
	router.HandleFunc("/connections/{id:[0-9]+}", s.handleDeleteConnection).Methods("DELETE")
}

// mergeInto returns an update func that overlays the JSON body on the
// loaded record. Fields absent from the body keep their stored value.
func mergeInto[T any](body []byte) func(*T) error {
	return func(rec *T) error {
		return json.Unmarshal(body, rec)
	}
}

// Areas

func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.Areas.List(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, areas)
}

func (s *Server) handleGetArea(w http.ResponseWriter, r *http.Request) {
	area, err := s.Areas.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, area)
}

func (s *Server) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	var area types.Area
	if err := decodeBody(w, r, &area); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	area.Devices = nil
	if err := s.Areas.Create(r.Context(), &area); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, area)
}

func (s *Server) handleUpdateArea(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	area, err := s.Areas.Update(r.Context(), mux.Vars(r)["id"], mergeInto[types.Area](body))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, area)
}

func (s *Server) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.Areas.Delete(r.Context(), id); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Devices

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.Devices.List(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, devices)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.Devices.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, device)
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var device types.Device
	if err := decodeBody(w, r, &device); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if err := s.Devices.Create(r.Context(), &device); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, device)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	device, err := s.Devices.Update(r.Context(), mux.Vars(r)["id"], mergeInto[types.Device](body))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, device)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.Devices.Delete(r.Context(), id); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"id": id})
}

type controlRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleControlDevice(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	result, err := s.Factory.ControlDevice(r.Context(), mux.Vars(r)["id"], req.Action)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeviceLogs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.Devices.Get(r.Context(), id); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	logs, err := s.Devices.Logs(r.Context(), id)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, logs)
}

// Connections

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.Connections.List(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conns)
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	conn, err := s.Connections.Get(r.Context(), id)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conn)
}

func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn types.Connection
	if err := decodeBody(w, r, &conn); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if err := s.Connections.Create(r.Context(), &conn); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, conn)
}

func (s *Server) handleUpdateConnection(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	conn, err := s.Connections.Update(r.Context(), id, mergeInto[types.Connection](body))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conn)
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if err := s.Connections.Delete(r.Context(), id); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]uint{"id": id})
}
