package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// Preset is a saved column mapping for one schema, together with the
// headers of the file it was built from so later uploads can be matched
// against it.
type Preset struct {
	ID        string           `json:"id"`
	SchemaID  string           `json:"schemaId"`
	Name      string           `json:"name"`
	Mapping   importer.Mapping `json:"mapping"`
	Headers   []string         `json:"headers"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// encodePreset stamps timestamps and marshals the JSON columns.
func encodePreset(p *Preset, isNew bool) (mapping, headers []byte, err error) {
	now := time.Now().UTC()
	if isNew {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Mapping == nil {
		p.Mapping = importer.Mapping{}
	}
	if p.Headers == nil {
		p.Headers = []string{}
	}

	if mapping, err = json.Marshal(p.Mapping); err != nil {
		return nil, nil, fmt.Errorf("marshal mapping: %w", err)
	}
	if headers, err = json.Marshal(p.Headers); err != nil {
		return nil, nil, fmt.Errorf("marshal headers: %w", err)
	}
	return mapping, headers, nil
}

func decodePreset(p *Preset, mapping, headers []byte) error {
	if err := json.Unmarshal(mapping, &p.Mapping); err != nil {
		return fmt.Errorf("unmarshal mapping: %w", err)
	}
	if err := json.Unmarshal(headers, &p.Headers); err != nil {
		return fmt.Errorf("unmarshal headers: %w", err)
	}
	return nil
}

func (s *SQLite) SavePreset(ctx context.Context, p *Preset) error {
	isNew := p.ID == ""
	mapping, headers, err := encodePreset(p, isNew)
	if err != nil {
		return err
	}

	var res sql.Result
	if isNew {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO import_presets (id, schema_id, name, mapping, headers, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.SchemaID, p.Name, string(mapping), string(headers),
			p.CreatedAt.Format(sqliteTimeLayout), p.UpdatedAt.Format(sqliteTimeLayout),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE import_presets SET name = ?, mapping = ?, headers = ?, updated_at = ?
			 WHERE id = ?`,
			p.Name, string(mapping), string(headers), p.UpdatedAt.Format(sqliteTimeLayout), p.ID,
		)
	}
	if isSQLiteUnique(err) {
		return fmt.Errorf("%w: preset %q already exists for %s", ErrDuplicate, p.Name, p.SchemaID)
	}
	if err != nil {
		return fmt.Errorf("save preset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) GetPreset(ctx context.Context, id string) (*Preset, error) {
	rows, err := s.queryPresets(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *SQLite) ListPresets(ctx context.Context, schemaID string) ([]Preset, error) {
	return s.queryPresets(ctx, `WHERE schema_id = ? ORDER BY name`, schemaID)
}

func (s *SQLite) queryPresets(ctx context.Context, where string, args ...any) ([]Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, schema_id, name, mapping, headers, created_at, updated_at
		 FROM import_presets `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		var (
			p                Preset
			mapping, headers string
			created, updated string
		)
		if err := rows.Scan(&p.ID, &p.SchemaID, &p.Name, &mapping, &headers, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		if err := decodePreset(&p, []byte(mapping), []byte(headers)); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.ID, err)
		}
		p.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
		p.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updated)
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

func (s *SQLite) DeletePreset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM import_presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SavePreset(ctx context.Context, pr *Preset) error {
	isNew := pr.ID == ""
	if !isNew {
		if _, err := uuid.Parse(pr.ID); err != nil {
			return ErrNotFound
		}
	}
	mapping, headers, err := encodePreset(pr, isNew)
	if err != nil {
		return err
	}

	var rowsAffected int64
	if isNew {
		_, err = p.pool.Exec(ctx,
			`INSERT INTO import_presets (id, schema_id, name, mapping, headers, created_at, updated_at)
			 VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7)`,
			pr.ID, pr.SchemaID, pr.Name, string(mapping), string(headers), pr.CreatedAt, pr.UpdatedAt,
		)
		rowsAffected = 1
	} else {
		tag, execErr := p.pool.Exec(ctx,
			`UPDATE import_presets SET name = $1, mapping = $2::jsonb, headers = $3::jsonb, updated_at = $4
			 WHERE id = $5`,
			pr.Name, string(mapping), string(headers), pr.UpdatedAt, pr.ID,
		)
		err = execErr
		rowsAffected = tag.RowsAffected()
	}
	if isPgUnique(err) {
		return fmt.Errorf("%w: preset %q already exists for %s", ErrDuplicate, pr.Name, pr.SchemaID)
	}
	if err != nil {
		return fmt.Errorf("save preset: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetPreset(ctx context.Context, id string) (*Preset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	presets, err := p.queryPresets(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(presets) == 0 {
		return nil, ErrNotFound
	}
	return &presets[0], nil
}

func (p *Postgres) ListPresets(ctx context.Context, schemaID string) ([]Preset, error) {
	return p.queryPresets(ctx, `WHERE schema_id = $1 ORDER BY name`, schemaID)
}

func (p *Postgres) queryPresets(ctx context.Context, where string, args ...any) ([]Preset, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id::text, schema_id, name, mapping, headers, created_at, updated_at
		 FROM import_presets `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		var (
			pr               Preset
			mapping, headers []byte
		)
		if err := rows.Scan(&pr.ID, &pr.SchemaID, &pr.Name, &mapping, &headers, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		if err := decodePreset(&pr, mapping, headers); err != nil {
			return nil, fmt.Errorf("preset %s: %w", pr.ID, err)
		}
		presets = append(presets, pr)
	}
	return presets, rows.Err()
}

func (p *Postgres) DeletePreset(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM import_presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
