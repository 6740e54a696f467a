// Package store persists imported records and import job history.
//
// Records of every target model share one table keyed by model and
// identity key; the payload is stored as JSON. Two backends implement
// Repository: PostgreSQL through pgxpool and SQLite through database/sql.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/solarimport/internal/config"
	"github.com/JonMunkholm/solarimport/internal/importer"
)

var (
	// ErrDuplicate is returned by Insert when another record of the same
	// model already holds the identity key.
	ErrDuplicate = errors.New("duplicate record")

	ErrNotFound = errors.New("record not found")
)

// DefaultJobLimit caps ListJobs when no limit is given.
const DefaultJobLimit = 50

// Record is one persisted row.
type Record struct {
	ID          string          `json:"id"`
	TargetModel string          `json:"targetModel"`
	IdentityKey string          `json:"identityKey,omitempty"`
	Data        importer.Record `json:"data"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// JobStatus is the final state of an import job.
type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobDryRun    JobStatus = "dry_run"
)

// Job is the history entry of one import run.
type Job struct {
	ID          string                     `json:"id"`
	TenantID    string                     `json:"tenantId,omitempty"`
	SchemaID    string                     `json:"schemaId"`
	FileName    string                     `json:"fileName"`
	Strategy    importer.DuplicateStrategy `json:"strategy"`
	Status      JobStatus                  `json:"status"`
	TotalRows   int                        `json:"totalRows"`
	ValidRows   int                        `json:"validRows"`
	InvalidRows int                        `json:"invalidRows"`
	Inserted    int                        `json:"inserted"`
	Updated     int                        `json:"updated"`
	Skipped     int                        `json:"skipped"`
	Pending     int                        `json:"pending"`
	Failed      int                        `json:"failed"`
	Error       string                     `json:"error,omitempty"`
	StartedAt   time.Time                  `json:"startedAt"`
	FinishedAt  time.Time                  `json:"finishedAt"`
}

// Repository is the persistence boundary of the import job service.
type Repository interface {
	// FindExisting returns the record ID for each of keys already stored
	// under model. Keys with no record are absent from the map.
	FindExisting(ctx context.Context, model string, keys []string) (map[string]string, error)

	// Insert stores rec, assigning ID and timestamps when unset.
	Insert(ctx context.Context, rec *Record) error

	// Update overlays data onto the stored payload of record id. Keys
	// absent from data keep their stored value.
	Update(ctx context.Context, model, id string, data importer.Record) error

	Get(ctx context.Context, model, id string) (*Record, error)

	SaveJob(ctx context.Context, job *Job) error

	// ListJobs returns the newest jobs first. An empty tenantID lists
	// every tenant.
	ListJobs(ctx context.Context, tenantID string, limit int) ([]Job, error)

	// PruneJobs deletes jobs started before cutoff and returns how many
	// were removed.
	PruneJobs(ctx context.Context, cutoff time.Time) (int64, error)

	// SavePreset inserts preset when its ID is empty and replaces the
	// stored one otherwise. A name already taken within the schema returns
	// ErrDuplicate.
	SavePreset(ctx context.Context, preset *Preset) error

	GetPreset(ctx context.Context, id string) (*Preset, error)

	// ListPresets returns the presets of schemaID ordered by name.
	ListPresets(ctx context.Context, schemaID string) ([]Preset, error)

	DeletePreset(ctx context.Context, id string) error

	Close() error
}

// Open connects the backend selected by cfg.Driver and applies migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg)
	case "sqlite", "":
		return OpenSQLite(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// mergeData overlays next onto prev, shallowly.
func mergeData(prev, next importer.Record) importer.Record {
	out := make(importer.Record, len(prev)+len(next))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range next {
		out[k] = v
	}
	return out
}

func jobLimit(limit int) int {
	if limit <= 0 {
		return DefaultJobLimit
	}
	return limit
}
