package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/importjob"
	"github.com/JonMunkholm/solarimport/internal/report"
)

// handleDetect analyzes an upload and suggests a column mapping.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	d, err := s.service.Detect(r.Context(), chi.URLParam(r, "schemaID"), up)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleProcess runs a full import of an upload.
//
// Form fields: file, mapping (JSON), strategy, dry_run, tenant.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	mapping, err := parseMapping(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	strategy, err := importer.ParseDuplicateStrategy(r.FormValue("strategy"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	sum, err := s.service.Execute(r.Context(), importjob.Request{
		SchemaID: chi.URLParam(r, "schemaID"),
		TenantID: tenantID(r),
		Upload:   up,
		Mapping:  mapping,
		Strategy: strategy,
		DryRun:   parseBool(r.FormValue("dry_run")),
	})
	if err != nil {
		var rl *importjob.RateLimitError
		if errors.As(err, &rl) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.Wait.Seconds())+1))
		}
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// validateRequest is the body of the validate endpoint: rows already
// decoded by the client, keyed by column name.
type validateRequest struct {
	Rows    any              `json:"rows"`
	Mapping importer.Mapping `json:"mapping"`
}

// handleValidate processes JSON rows without persisting anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	limits := s.service.Limits()
	if limits.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFileSize)
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", ErrInvalidBody, err), 0)
		return
	}
	if rows, ok := req.Rows.([]any); ok {
		if err := limits.CheckRows(len(rows)); err != nil {
			respondError(w, r, err, 0)
			return
		}
	}

	res, err := s.service.Validate(chi.URLParam(r, "schemaID"), req.Rows, req.Mapping)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleReport returns an Excel workbook describing every invalid row of
// an upload.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	mapping, err := parseMapping(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	schemaID := chi.URLParam(r, "schemaID")
	table, res, err := s.service.Check(schemaID, up, mapping)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	data, err := report.ErrorReport(res, table.Headers)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeFile(w, schemaID+"_errores.xlsx", data)
}
