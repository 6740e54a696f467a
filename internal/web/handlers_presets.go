package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// presetRequest is the body of create and update.
type presetRequest struct {
	Name    string           `json:"name"`
	Mapping importer.Mapping `json:"mapping"`
	Headers []string         `json:"headers"`
}

func decodePreset(r *http.Request) (presetRequest, error) {
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return req, nil
}

// handleListPresets returns the saved mappings of a schema.
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.Presets(r.Context(), chi.URLParam(r, "schemaID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

// handleMatchPresets finds presets fitting the comma separated "headers"
// query parameter.
func (s *Server) handleMatchPresets(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("headers")
	if raw == "" {
		respondError(w, r, fmt.Errorf("%w: missing headers parameter", ErrInvalidBody), http.StatusBadRequest)
		return
	}
	headers := strings.Split(raw, ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	matches, err := s.service.MatchPresets(r.Context(), chi.URLParam(r, "schemaID"), headers)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	req, err := decodePreset(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	p, err := s.service.CreatePreset(r.Context(), chi.URLParam(r, "schemaID"), req.Name, req.Mapping, req.Headers)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Preset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePreset(w http.ResponseWriter, r *http.Request) {
	req, err := decodePreset(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	p, err := s.service.UpdatePreset(r.Context(), chi.URLParam(r, "id"), req.Name, req.Mapping, req.Headers)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeletePreset(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
