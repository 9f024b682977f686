package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/smartfactory/smartfactory/internal/storage"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Envelope wraps every JSON response
type Envelope struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// respondWithJSON sends data wrapped in the envelope
func respondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	writeEnvelope(w, Envelope{Code: code, Data: data, Message: "success"})
}

// respondWithError maps err onto a status code and sends it in the envelope
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeEnvelope(w, Envelope{Code: code, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Code)
	w.Write(body)
}

// readBody returns the request body, rejecting oversized payloads
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %v: %w", err, storage.ErrInvalid)
	}
	return body, nil
}

// decodeBody unmarshals a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding request body: %v: %w", err, storage.ErrInvalid)
	}
	return nil
}
