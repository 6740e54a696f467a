package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/solarimport/internal/config"
	"github.com/JonMunkholm/solarimport/internal/importer"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Postgres is the Repository used by the HTTP service.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres builds a pool from cfg, verifies the connection and applies
// migrations.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing pool. Call Migrate before first use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the tables and indexes if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range postgresMigrations {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) FindExisting(ctx context.Context, model string, keys []string) (map[string]string, error) {
	found := make(map[string]string)
	if len(keys) == 0 {
		return found, nil
	}

	rows, err := p.pool.Query(ctx,
		`SELECT identity_key, id::text FROM import_records
		 WHERE target_model = $1 AND identity_key = ANY($2)`,
		model, keys,
	)
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

func (p *Postgres) Insert(ctx context.Context, rec *Record) error {
	return insertPg(ctx, p.pool, rec)
}

func insertPg(ctx context.Context, db DBTX, rec *Record) error {
	prepareRecord(rec)
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO import_records (id, target_model, identity_key, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		rec.ID, rec.TargetModel, rec.IdentityKey, string(data), rec.CreatedAt, rec.UpdatedAt,
	)
	if isPgUnique(err) {
		return fmt.Errorf("%w: %s %q", ErrDuplicate, rec.TargetModel, rec.IdentityKey)
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.TargetModel, err)
	}
	return nil
}

// Update merges with jsonb concatenation, which is shallow like mergeData.
func (p *Postgres) Update(ctx context.Context, model, id string, data importer.Record) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	patch, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE import_records SET data = data || $1::jsonb, updated_at = $2
		 WHERE target_model = $3 AND id = $4`,
		string(patch), time.Now().UTC(), model, id,
	)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", model, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, model, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	rec := Record{ID: id, TargetModel: model}
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT identity_key, data, created_at, updated_at
		 FROM import_records WHERE target_model = $1 AND id = $2`, model, id,
	).Scan(&rec.IdentityKey, &raw, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", model, id, err)
	}
	if err := json.Unmarshal(raw, &rec.Data); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", model, id, err)
	}
	return &rec, nil
}

func (p *Postgres) SaveJob(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO import_jobs (id, tenant_id, schema_id, file_name, strategy, status,
			total_rows, valid_rows, invalid_rows, inserted, updated, skipped, pending, failed,
			error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status, total_rows = EXCLUDED.total_rows,
			valid_rows = EXCLUDED.valid_rows, invalid_rows = EXCLUDED.invalid_rows,
			inserted = EXCLUDED.inserted, updated = EXCLUDED.updated,
			skipped = EXCLUDED.skipped, pending = EXCLUDED.pending, failed = EXCLUDED.failed,
			error = EXCLUDED.error, finished_at = EXCLUDED.finished_at`,
		job.ID, job.TenantID, job.SchemaID, job.FileName, string(job.Strategy), string(job.Status),
		job.TotalRows, job.ValidRows, job.InvalidRows, job.Inserted, job.Updated,
		job.Skipped, job.Pending, job.Failed, job.Error, job.StartedAt, job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (p *Postgres) ListJobs(ctx context.Context, tenantID string, limit int) ([]Job, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id::text, tenant_id, schema_id, file_name, strategy, status,
			total_rows, valid_rows, invalid_rows, inserted, updated, skipped, pending, failed,
			error, started_at, finished_at
		 FROM import_jobs
		 WHERE $1 = '' OR tenant_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`,
		tenantID, jobLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var (
			j                Job
			strategy, status string
		)
		if err := rows.Scan(&j.ID, &j.TenantID, &j.SchemaID, &j.FileName, &strategy, &status,
			&j.TotalRows, &j.ValidRows, &j.InvalidRows, &j.Inserted, &j.Updated,
			&j.Skipped, &j.Pending, &j.Failed, &j.Error, &j.StartedAt, &j.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Strategy = importer.DuplicateStrategy(strategy)
		j.Status = JobStatus(status)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (p *Postgres) PruneJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM import_jobs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func isPgUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
