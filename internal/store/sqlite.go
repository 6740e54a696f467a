package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// Fixed-width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is the embedded Repository used by importctl and tests.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	for _, stmt := range sqliteMigrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) FindExisting(ctx context.Context, model string, keys []string) (map[string]string, error) {
	found := make(map[string]string)
	if len(keys) == 0 {
		return found, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, model)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := fmt.Sprintf(
		"SELECT identity_key, id FROM import_records WHERE target_model = ? AND identity_key IN (%s)",
		placeholders,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find existing %s: %w", model, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			return nil, fmt.Errorf("scan existing: %w", err)
		}
		found[key] = id
	}
	return found, rows.Err()
}

func (s *SQLite) Insert(ctx context.Context, rec *Record) error {
	prepareRecord(rec)
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO import_records (id, target_model, identity_key, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TargetModel, rec.IdentityKey, string(data),
		rec.CreatedAt.UTC().Format(sqliteTimeLayout), rec.UpdatedAt.UTC().Format(sqliteTimeLayout),
	)
	if isSQLiteUnique(err) {
		return fmt.Errorf("%w: %s %q", ErrDuplicate, rec.TargetModel, rec.IdentityKey)
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.TargetModel, err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, model, id string, data importer.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM import_records WHERE target_model = ? AND id = ?`, model, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s %s: %w", model, id, err)
	}

	var prev importer.Record
	if err := json.Unmarshal([]byte(raw), &prev); err != nil {
		return fmt.Errorf("decode %s %s: %w", model, id, err)
	}
	merged, err := json.Marshal(mergeData(prev, data))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE import_records SET data = ?, updated_at = ? WHERE id = ?`,
		string(merged), time.Now().UTC().Format(sqliteTimeLayout), id,
	); err != nil {
		return fmt.Errorf("update %s %s: %w", model, id, err)
	}
	return tx.Commit()
}

func (s *SQLite) Get(ctx context.Context, model, id string) (*Record, error) {
	var (
		rec              = Record{ID: id, TargetModel: model}
		raw              string
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT identity_key, data, created_at, updated_at
		 FROM import_records WHERE target_model = ? AND id = ?`, model, id,
	).Scan(&rec.IdentityKey, &raw, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", model, id, err)
	}
	if err := json.Unmarshal([]byte(raw), &rec.Data); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", model, id, err)
	}
	rec.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
	rec.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updated)
	return &rec, nil
}

func (s *SQLite) SaveJob(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_jobs (id, tenant_id, schema_id, file_name, strategy, status,
			total_rows, valid_rows, invalid_rows, inserted, updated, skipped, pending, failed,
			error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			status = excluded.status, total_rows = excluded.total_rows,
			valid_rows = excluded.valid_rows, invalid_rows = excluded.invalid_rows,
			inserted = excluded.inserted, updated = excluded.updated,
			skipped = excluded.skipped, pending = excluded.pending, failed = excluded.failed,
			error = excluded.error, finished_at = excluded.finished_at`,
		job.ID, job.TenantID, job.SchemaID, job.FileName, string(job.Strategy), string(job.Status),
		job.TotalRows, job.ValidRows, job.InvalidRows, job.Inserted, job.Updated,
		job.Skipped, job.Pending, job.Failed, job.Error,
		job.StartedAt.UTC().Format(sqliteTimeLayout), job.FinishedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLite) ListJobs(ctx context.Context, tenantID string, limit int) ([]Job, error) {
	query := `SELECT id, tenant_id, schema_id, file_name, strategy, status,
			total_rows, valid_rows, invalid_rows, inserted, updated, skipped, pending, failed,
			error, started_at, finished_at
		FROM import_jobs`
	args := []any{}
	if tenantID != "" {
		query += ` WHERE tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, jobLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var (
			j                 Job
			strategy, status  string
			started, finished string
		)
		if err := rows.Scan(&j.ID, &j.TenantID, &j.SchemaID, &j.FileName, &strategy, &status,
			&j.TotalRows, &j.ValidRows, &j.InvalidRows, &j.Inserted, &j.Updated,
			&j.Skipped, &j.Pending, &j.Failed, &j.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Strategy = importer.DuplicateStrategy(strategy)
		j.Status = JobStatus(status)
		j.StartedAt, _ = time.Parse(sqliteTimeLayout, started)
		j.FinishedAt, _ = time.Parse(sqliteTimeLayout, finished)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// PruneJobs compares the stored text form, which sorts chronologically
// because every timestamp is written in UTC with a fixed-width layout.
func (s *SQLite) PruneJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM import_jobs WHERE started_at < ?`,
		cutoff.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

func prepareRecord(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	if rec.Data == nil {
		rec.Data = importer.Record{}
	}
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
