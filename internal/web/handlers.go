package web

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// schemaSummary is one entry of the schema listing.
type schemaSummary struct {
	ID                       string                     `json:"id"`
	TargetModel              string                     `json:"targetModel"`
	Label                    string                     `json:"label"`
	FieldCount               int                        `json:"fieldCount"`
	IdentityFields           []string                   `json:"identityFields"`
	DefaultDuplicateStrategy importer.DuplicateStrategy `json:"defaultDuplicateStrategy"`
}

type fieldView struct {
	Key         string             `json:"key"`
	Label       string             `json:"label"`
	Type        importer.FieldType `json:"type"`
	Required    bool               `json:"required"`
	Aliases     []string           `json:"aliases"`
	Options     []importer.Option  `json:"options,omitempty"`
	Default     any                `json:"default,omitempty"`
	Description string             `json:"description,omitempty"`
}

type schemaView struct {
	schemaSummary
	Fields []fieldView `json:"fields"`
}

func summarize(s *importer.Schema) schemaSummary {
	identity := s.IdentityFields
	if identity == nil {
		identity = []string{}
	}
	return schemaSummary{
		ID:                       s.ID,
		TargetModel:              s.TargetModel,
		Label:                    s.Label,
		FieldCount:               len(s.Fields),
		IdentityFields:           identity,
		DefaultDuplicateStrategy: s.Strategy(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"schemas": s.service.Registry().Count(),
		"imports": s.service.LimiterStatus(),
	})
}

// handleListSchemas returns every registered schema, sorted by ID.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	all := s.service.Registry().All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	out := make([]schemaSummary, 0, len(all))
	for _, sc := range all {
		out = append(out, summarize(sc))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetSchema returns the field list of one schema.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	sc, err := s.service.Registry().Lookup(chi.URLParam(r, "schemaID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	view := schemaView{schemaSummary: summarize(sc), Fields: make([]fieldView, 0, len(sc.Fields))}
	for _, f := range sc.Fields {
		aliases := f.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		view.Fields = append(view.Fields, fieldView{
			Key:         f.Key,
			Label:       f.Label,
			Type:        f.Type,
			Required:    f.Required,
			Aliases:     aliases,
			Options:     f.Options,
			Default:     f.Default,
			Description: f.Description,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// handleTemplate serves the blank Excel template of a schema.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	sc, err := s.service.Registry().Lookup(chi.URLParam(r, "schemaID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	data, err := report.Template(sc)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeFile(w, sc.ID+"_plantilla.xlsx", data)
}

// handleListJobs returns recent jobs, optionally for one tenant.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 0)
	jobs, err := s.service.Jobs(r.Context(), tenantID(r), limit)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func writeFile(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
