package importer

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrSchemaNotFound is returned when no schema matches an id or model.
var ErrSchemaNotFound = errors.New("import schema not found")

// Registry holds import schemas keyed by id. Schemas are registered during
// program initialization and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register validates and adds a schema.
// Panics on an invalid schema or a duplicate id.
func (r *Registry) Register(s *Schema) {
	if err := r.Add(s); err != nil {
		panic(err.Error())
	}
}

// Add is Register returning an error instead of panicking. Used by loaders
// whose input comes from files rather than code.
func (r *Registry) Add(s *Schema) error {
	if s == nil {
		return errors.New("nil schema")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.ID]; exists {
		return fmt.Errorf("schema already registered: %s", s.ID)
	}
	r.schemas[s.ID] = s
	return nil
}

// Get returns a schema by id.
func (r *Registry) Get(id string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[id]
	return s, ok
}

// Lookup returns a schema by id, or ErrSchemaNotFound.
func (r *Registry) Lookup(id string) (*Schema, error) {
	s, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, id)
	}
	return s, nil
}

// ByTargetModel returns the schema importing into model. When several
// versions target the same model the highest _vN suffix wins, so
// import_customers_v10 is preferred over import_customers_v2.
func (r *Registry) ByTargetModel(model string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Schema
	for _, s := range r.schemas {
		if s.TargetModel != model {
			continue
		}
		if best == nil || newerSchema(s.ID, best.ID) {
			best = s
		}
	}
	return best, best != nil
}

// newerSchema reports whether id a outranks id b: the higher version
// number first, then the greater id.
func newerSchema(a, b string) bool {
	if va, vb := schemaVersion(a), schemaVersion(b); va != vb {
		return va > vb
	}
	return a > b
}

// schemaVersion returns N for an id ending in _vN, or 0.
func schemaVersion(id string) int {
	i := strings.LastIndex(id, "_v")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(id[i+2:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// All returns every schema sorted by id.
func (r *Registry) All() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Count returns the number of registered schemas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// defaultRegistry is populated by init functions in the schemas package.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds a schema to the default registry. Panics on error.
func Register(s *Schema) { defaultRegistry.Register(s) }

// Get returns a schema from the default registry.
func Get(id string) (*Schema, bool) { return defaultRegistry.Get(id) }

// ByTargetModel looks up the default registry by target model.
func ByTargetModel(model string) (*Schema, bool) { return defaultRegistry.ByTargetModel(model) }

// All returns every schema in the default registry.
func All() []*Schema { return defaultRegistry.All() }
