package store

// Statements are applied one at a time on every start; each is idempotent.
// An empty identity key means the record never takes part in duplicate
// detection, so the unique index skips it.

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS import_records (
		id           TEXT PRIMARY KEY,
		target_model TEXT NOT NULL,
		identity_key TEXT NOT NULL DEFAULT '',
		data         TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS import_records_identity
		ON import_records (target_model, identity_key) WHERE identity_key <> ''`,
	`CREATE TABLE IF NOT EXISTS import_jobs (
		id           TEXT PRIMARY KEY,
		tenant_id    TEXT NOT NULL DEFAULT '',
		schema_id    TEXT NOT NULL,
		file_name    TEXT NOT NULL DEFAULT '',
		strategy     TEXT NOT NULL,
		status       TEXT NOT NULL,
		total_rows   INTEGER NOT NULL DEFAULT 0,
		valid_rows   INTEGER NOT NULL DEFAULT 0,
		invalid_rows INTEGER NOT NULL DEFAULT 0,
		inserted     INTEGER NOT NULL DEFAULT 0,
		updated      INTEGER NOT NULL DEFAULT 0,
		skipped      INTEGER NOT NULL DEFAULT 0,
		pending      INTEGER NOT NULL DEFAULT 0,
		failed       INTEGER NOT NULL DEFAULT 0,
		error        TEXT NOT NULL DEFAULT '',
		started_at   TEXT NOT NULL,
		finished_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS import_jobs_tenant_started
		ON import_jobs (tenant_id, started_at)`,
	`CREATE TABLE IF NOT EXISTS import_presets (
		id         TEXT PRIMARY KEY,
		schema_id  TEXT NOT NULL,
		name       TEXT NOT NULL,
		mapping    TEXT NOT NULL,
		headers    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (schema_id, name)
	)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS import_records (
		id           UUID PRIMARY KEY,
		target_model TEXT NOT NULL,
		identity_key TEXT NOT NULL DEFAULT '',
		data         JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS import_records_identity
		ON import_records (target_model, identity_key) WHERE identity_key <> ''`,
	`CREATE TABLE IF NOT EXISTS import_jobs (
		id           UUID PRIMARY KEY,
		tenant_id    TEXT NOT NULL DEFAULT '',
		schema_id    TEXT NOT NULL,
		file_name    TEXT NOT NULL DEFAULT '',
		strategy     TEXT NOT NULL,
		status       TEXT NOT NULL,
		total_rows   INTEGER NOT NULL DEFAULT 0,
		valid_rows   INTEGER NOT NULL DEFAULT 0,
		invalid_rows INTEGER NOT NULL DEFAULT 0,
		inserted     INTEGER NOT NULL DEFAULT 0,
		updated      INTEGER NOT NULL DEFAULT 0,
		skipped      INTEGER NOT NULL DEFAULT 0,
		pending      INTEGER NOT NULL DEFAULT 0,
		failed       INTEGER NOT NULL DEFAULT 0,
		error        TEXT NOT NULL DEFAULT '',
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS import_jobs_tenant_started
		ON import_jobs (tenant_id, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS import_presets (
		id         UUID PRIMARY KEY,
		schema_id  TEXT NOT NULL,
		name       TEXT NOT NULL,
		mapping    JSONB NOT NULL,
		headers    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT import_presets_schema_name_unique UNIQUE (schema_id, name)
	)`,
}
