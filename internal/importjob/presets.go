package importjob

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/store"
)

// PresetMatchThreshold is the share of a preset's headers an upload must
// carry for the preset to be suggested.
const PresetMatchThreshold = 0.8

var (
	ErrInvalidPreset  = errors.New("invalid mapping preset")
	ErrPresetNotFound = errors.New("mapping preset not found")
)

// PresetMatch is a saved preset that fits an upload's headers.
type PresetMatch struct {
	Preset store.Preset `json:"preset"`
	Score  float64      `json:"score"`
}

// CreatePreset saves a named mapping for schemaID.
func (s *Service) CreatePreset(ctx context.Context, schemaID, name string, mapping importer.Mapping, headers []string) (*store.Preset, error) {
	schema, err := s.registry.Lookup(schemaID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := checkPreset(schema, name, mapping); err != nil {
		return nil, err
	}

	p := &store.Preset{
		SchemaID: schema.ID,
		Name:     name,
		Mapping:  mapping,
		Headers:  headers,
	}
	if err := s.repo.SavePreset(ctx, p); err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	return p, nil
}

// Preset returns a saved preset by ID.
func (s *Service) Preset(ctx context.Context, id string) (*store.Preset, error) {
	p, err := s.repo.GetPreset(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPresetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preset: %w", err)
	}
	return p, nil
}

// Presets lists the presets saved for schemaID.
func (s *Service) Presets(ctx context.Context, schemaID string) ([]store.Preset, error) {
	if _, err := s.registry.Lookup(schemaID); err != nil {
		return nil, err
	}
	presets, err := s.repo.ListPresets(ctx, schemaID)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return presets, nil
}

// UpdatePreset replaces the name, mapping and headers of a preset. The
// schema it belongs to never changes.
func (s *Service) UpdatePreset(ctx context.Context, id, name string, mapping importer.Mapping, headers []string) (*store.Preset, error) {
	p, err := s.Preset(ctx, id)
	if err != nil {
		return nil, err
	}
	schema, err := s.registry.Lookup(p.SchemaID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := checkPreset(schema, name, mapping); err != nil {
		return nil, err
	}

	p.Name = name
	p.Mapping = mapping
	p.Headers = headers
	if err := s.repo.SavePreset(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("update preset: %w", err)
	}
	return p, nil
}

// DeletePreset removes a preset.
func (s *Service) DeletePreset(ctx context.Context, id string) error {
	err := s.repo.DeletePreset(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPresetNotFound
	}
	return err
}

// MatchPresets returns the presets of schemaID whose headers are covered
// by headers, best match first.
func (s *Service) MatchPresets(ctx context.Context, schemaID string, headers []string) ([]PresetMatch, error) {
	presets, err := s.Presets(ctx, schemaID)
	if err != nil {
		return nil, err
	}

	matches := []PresetMatch{}
	for _, p := range presets {
		score := matchPresetHeaders(headers, p.Headers)
		if score >= PresetMatchThreshold {
			matches = append(matches, PresetMatch{Preset: p, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// matchPresetHeaders is the share of presetHeaders present in headers,
// compared by normalized column name.
func matchPresetHeaders(headers, presetHeaders []string) float64 {
	if len(presetHeaders) == 0 {
		return 0
	}

	have := make(map[string]bool, len(headers))
	for _, h := range headers {
		have[importer.NormalizeColumnName(h)] = true
	}

	matched := 0
	for _, h := range presetHeaders {
		if have[importer.NormalizeColumnName(h)] {
			matched++
		}
	}
	return float64(matched) / float64(len(presetHeaders))
}

// checkPreset requires a name and a mapping whose targets exist in schema.
func checkPreset(schema *importer.Schema, name string, mapping importer.Mapping) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if len(mapping) == 0 {
		return fmt.Errorf("%w: mapping is empty", ErrInvalidPreset)
	}
	for col, target := range mapping {
		switch {
		case target == importer.Ignore:
		case strings.HasPrefix(target, importer.CustomPrefix) && len(target) > len(importer.CustomPrefix):
		case schema.Field(target) != nil:
		default:
			return fmt.Errorf("%w: column %q maps to unknown field %q", ErrInvalidPreset, col, target)
		}
	}
	return nil
}
