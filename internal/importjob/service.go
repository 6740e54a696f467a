// Package importjob runs imports end to end: it checks limits, parses the
// upload, runs the row processor and writes the valid records through a
// store.Repository according to the duplicate strategy.
package importjob

import (
	"context"
	"time"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/logging"
	"github.com/JonMunkholm/solarimport/internal/parser"
	"github.com/JonMunkholm/solarimport/internal/store"
)

// DefaultTimeout bounds a single job when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Minute

// Options tunes a Service. Zero values select defaults.
type Options struct {
	Limits        importer.Limits
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration
}

// Service orchestrates import jobs.
type Service struct {
	repo     store.Repository
	registry *importer.Registry
	limits   importer.Limits
	limiter  *Limiter
	quota    *Quota
	timeout  time.Duration
	now      func() time.Time
}

// NewService creates a Service. A nil registry uses importer.Default().
func NewService(repo store.Repository, registry *importer.Registry, opts Options) *Service {
	if registry == nil {
		registry = importer.Default()
	}
	if opts.Limits == (importer.Limits{}) {
		opts.Limits = importer.DefaultLimits()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{
		repo:     repo,
		registry: registry,
		limits:   opts.Limits,
		limiter:  NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		quota:    NewQuota(opts.Limits.ImportsPerHour, time.Hour),
		timeout:  opts.Timeout,
		now:      time.Now,
	}
}

// Registry returns the schemas this service imports into.
func (s *Service) Registry() *importer.Registry { return s.registry }

// Limits returns the bounds applied to uploads.
func (s *Service) Limits() importer.Limits { return s.limits }

// Upload is a file as received from a client.
type Upload struct {
	FileName string
	Data     []byte
}

// Detection is the column analysis of an upload plus how it was read.
type Detection struct {
	*importer.Detection
	SchemaID string   `json:"schemaId"`
	FileName string   `json:"fileName"`
	Format   string   `json:"format"`
	Encoding string   `json:"encoding,omitempty"`
	Sheet    string   `json:"sheet,omitempty"`
	Headers  []string `json:"headers"`

	// Presets are saved mappings whose headers fit this upload.
	Presets []PresetMatch `json:"presets"`
}

// ReadFile validates and parses an upload.
func (s *Service) ReadFile(up Upload) (*parser.Table, error) {
	if err := s.limits.CheckFile(up.FileName, int64(len(up.Data))); err != nil {
		return nil, err
	}
	table, err := parser.Parse(up.FileName, up.Data)
	if err != nil {
		return nil, err
	}
	if err := s.limits.CheckRows(len(table.Rows)); err != nil {
		return nil, err
	}
	return table, nil
}

// Detect parses up and suggests a mapping onto schemaID, along with any
// saved presets that fit its headers.
func (s *Service) Detect(ctx context.Context, schemaID string, up Upload) (*Detection, error) {
	schema, err := s.registry.Lookup(schemaID)
	if err != nil {
		return nil, err
	}
	table, err := s.ReadFile(up)
	if err != nil {
		return nil, err
	}

	d := importer.Detect(table.Rows, table.Headers, schema, importer.DetectOptions{
		FileSize: int64(len(up.Data)),
		MaxRows:  s.limits.MaxRows,
	})
	d.Warnings = append(table.Warnings, d.Warnings...)

	out := &Detection{
		Detection: d,
		SchemaID:  schema.ID,
		FileName:  up.FileName,
		Format:    table.Format,
		Encoding:  table.Encoding,
		Sheet:     table.Sheet,
		Headers:   table.Headers,
		Presets:   []PresetMatch{},
	}
	if s.repo != nil {
		matches, err := s.MatchPresets(ctx, schema.ID, table.Headers)
		if err != nil {
			logging.FromContext(ctx).Warn("preset lookup failed", "schema", schema.ID, "error", err)
		} else {
			out.Presets = matches
		}
	}
	return out, nil
}

// Validate runs the processor over already-parsed rows without persisting.
func (s *Service) Validate(schemaID string, rows any, mapping importer.Mapping) (*importer.Result, error) {
	schema, err := s.registry.Lookup(schemaID)
	if err != nil {
		return nil, err
	}
	return importer.Process(rows, schema, mapping), nil
}

// Check parses up and processes its rows against schemaID without
// touching the store. Invalid row numbers are spreadsheet rows, so the
// header is row 1.
func (s *Service) Check(schemaID string, up Upload, mapping importer.Mapping) (*parser.Table, *importer.Result, error) {
	schema, err := s.registry.Lookup(schemaID)
	if err != nil {
		return nil, nil, err
	}
	return s.check(schema, up, mapping)
}

func (s *Service) check(schema *importer.Schema, up Upload, mapping importer.Mapping) (*parser.Table, *importer.Result, error) {
	table, err := s.ReadFile(up)
	if err != nil {
		return nil, nil, err
	}
	res := importer.Process(table.Rows, schema, mapping)
	for i := range res.InvalidData {
		res.InvalidData[i].Row = spreadsheetRow(table.Lines, res.InvalidData[i].Row-1)
	}
	return table, res, nil
}

// Jobs lists recent job history.
func (s *Service) Jobs(ctx context.Context, tenantID string, limit int) ([]store.Job, error) {
	return s.repo.ListJobs(ctx, tenantID, limit)
}

// LimiterStatus reports concurrent job usage.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForImports blocks until running jobs finish, for graceful shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
