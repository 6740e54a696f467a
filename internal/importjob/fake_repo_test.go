package importjob

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/store"
)

// memRepo is an in-memory store.Repository.
type memRepo struct {
	mu      sync.Mutex
	records map[string]*store.Record
	keys    map[string]string // model|key -> id
	jobs    []store.Job
	presets map[string]store.Preset
	nextID  int

	insertErr error
	findErr   error
	pruneErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{
		records: map[string]*store.Record{},
		keys:    map[string]string{},
		presets: map[string]store.Preset{},
	}
}

func (m *memRepo) seed(model, key string, data importer.Record) string {
	rec := &store.Record{TargetModel: model, IdentityKey: key, Data: data}
	if err := m.Insert(context.Background(), rec); err != nil {
		panic(err)
	}
	return rec.ID
}

func (m *memRepo) FindExisting(_ context.Context, model string, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := map[string]string{}
	for _, k := range keys {
		if id, ok := m.keys[model+"|"+k]; ok {
			out[k] = id
		}
	}
	return out, nil
}

func (m *memRepo) Insert(_ context.Context, rec *store.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if rec.IdentityKey != "" {
		if _, ok := m.keys[rec.TargetModel+"|"+rec.IdentityKey]; ok {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	rec.ID = fmt.Sprintf("rec-%d", m.nextID)
	cp := *rec
	m.records[rec.ID] = &cp
	if rec.IdentityKey != "" {
		m.keys[rec.TargetModel+"|"+rec.IdentityKey] = rec.ID
	}
	return nil
}

func (m *memRepo) Update(_ context.Context, model, id string, data importer.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.TargetModel != model {
		return store.ErrNotFound
	}
	for k, v := range data {
		rec.Data[k] = v
	}
	return nil
}

func (m *memRepo) Get(_ context.Context, model, id string) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.TargetModel != model {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRepo) SaveJob(_ context.Context, job *store.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, *job)
	return nil
}

func (m *memRepo) ListJobs(_ context.Context, tenantID string, limit int) ([]store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Job{}
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if tenantID == "" || m.jobs[i].TenantID == tenantID {
			out = append(out, m.jobs[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) PruneJobs(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pruneErr != nil {
		return 0, m.pruneErr
	}
	kept := m.jobs[:0]
	for _, j := range m.jobs {
		if !j.StartedAt.Before(cutoff) {
			kept = append(kept, j)
		}
	}
	n := int64(len(m.jobs) - len(kept))
	m.jobs = kept
	return n, nil
}

func (m *memRepo) SavePreset(_ context.Context, p *store.Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID != "" {
		if _, ok := m.presets[p.ID]; !ok {
			return store.ErrNotFound
		}
	}
	for id, other := range m.presets {
		if id != p.ID && other.SchemaID == p.SchemaID && other.Name == p.Name {
			return store.ErrDuplicate
		}
	}
	if p.ID == "" {
		m.nextID++
		p.ID = fmt.Sprintf("preset-%d", m.nextID)
	}
	m.presets[p.ID] = *p
	return nil
}

func (m *memRepo) GetPreset(_ context.Context, id string) (*store.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.presets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memRepo) ListPresets(_ context.Context, schemaID string) ([]store.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Preset{}
	for _, p := range m.presets {
		if p.SchemaID == schemaID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) DeletePreset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.presets, id)
	return nil
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) count(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.TargetModel == model {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")
