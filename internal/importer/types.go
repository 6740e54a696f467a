package importer

import (
	"context"
	"fmt"
	"strings"
)

// FieldType describes the kind of value a field holds. It drives the
// detector's type hints and the UI, not validation on its own.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldBoolean  FieldType = "boolean"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldCurrency FieldType = "currency"
	FieldSelect   FieldType = "select"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldNumber, FieldDate, FieldBoolean,
		FieldEmail, FieldPhone, FieldCurrency, FieldSelect:
		return true
	}
	return false
}

// DuplicateStrategy decides what happens to a row whose identity fields
// match an existing record.
type DuplicateStrategy string

const (
	StrategySkip   DuplicateStrategy = "skip"
	StrategyUpdate DuplicateStrategy = "update"
	StrategyError  DuplicateStrategy = "error"
	StrategyAppend DuplicateStrategy = "append"
	StrategyAsk    DuplicateStrategy = "ask"
)

// ParseDuplicateStrategy converts user input to a DuplicateStrategy.
// An empty string returns "" with no error so callers can fall back to the
// schema default.
func ParseDuplicateStrategy(s string) (DuplicateStrategy, error) {
	switch ds := DuplicateStrategy(strings.ToLower(strings.TrimSpace(s))); ds {
	case "":
		return "", nil
	case StrategySkip, StrategyUpdate, StrategyError, StrategyAppend, StrategyAsk:
		return ds, nil
	default:
		return "", fmt.Errorf("unknown duplicate strategy %q", s)
	}
}

// Row is one raw row as produced by the spreadsheet parser: source column
// name to raw scalar.
type Row map[string]any

// Record is a processed row keyed by field key.
type Record map[string]any

// UnmappedKey is the Record key holding source columns no field consumed.
const UnmappedKey = "unmapped_data"

// Option is one allowed value of a select field.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Validator checks a resolved value and returns it in coerced form.
type Validator interface {
	Validate(value any) (any, error)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(value any) (any, error)

func (f ValidatorFunc) Validate(value any) (any, error) { return f(value) }

// TransformFunc converts a raw cell into its coerced form before validation.
type TransformFunc func(value any) (any, error)

// Field describes one importable attribute of a target entity.
type Field struct {
	Key         string
	Label       string
	Type        FieldType
	Required    bool
	Validator   Validator
	Transform   TransformFunc
	Aliases     []string
	Options     []Option
	Default     any
	Description string
}

// HasDefault reports whether the field declares a default value.
func (f *Field) HasDefault() bool {
	return f.Default != nil
}

// Schema bundles the fields of one importable entity with its
// deduplication policy.
type Schema struct {
	ID                       string
	TargetModel              string
	Label                    string
	Fields                   []Field
	IdentityFields           []string
	DefaultDuplicateStrategy DuplicateStrategy
	BatchSize                int

	// TransformRow runs on the assembled record of a valid row. An error
	// invalidates the row.
	TransformRow func(Record) (Record, error)

	// BeforeInsert runs in the orchestrator right before persistence.
	BeforeInsert func(ctx context.Context, rec Record) (Record, error)
}

// Field returns the field with the given key, or nil.
func (s *Schema) Field(key string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i]
		}
	}
	return nil
}

// Strategy returns the schema's duplicate strategy, defaulting to skip.
func (s *Schema) Strategy() DuplicateStrategy {
	if s.DefaultDuplicateStrategy == "" {
		return StrategySkip
	}
	return s.DefaultDuplicateStrategy
}

// IdentityKey joins the identity field values of rec with "|".
// Returns "" when the schema has no identity fields or every part is empty,
// which callers treat as "never a duplicate".
func (s *Schema) IdentityKey(rec Record) string {
	if len(s.IdentityFields) == 0 {
		return ""
	}
	parts := make([]string, len(s.IdentityFields))
	found := false
	for i, key := range s.IdentityFields {
		v := rec[key]
		if IsEmpty(v) {
			continue
		}
		parts[i] = strings.ToLower(strings.TrimSpace(toString(v)))
		found = true
	}
	if !found {
		return ""
	}
	return strings.Join(parts, "|")
}

// Validate checks the schema for structural problems that would make
// column resolution ambiguous.
func (s *Schema) Validate() error {
	var errs []string

	if s.ID == "" {
		errs = append(errs, "id is required")
	}
	if s.TargetModel == "" {
		errs = append(errs, "target model is required")
	}
	if len(s.Fields) == 0 {
		errs = append(errs, "at least one field is required")
	}
	if s.DefaultDuplicateStrategy != "" {
		if _, err := ParseDuplicateStrategy(string(s.DefaultDuplicateStrategy)); err != nil {
			errs = append(errs, err.Error())
		}
	}

	// owner maps a normalized name (key or alias) to the field key that
	// claims it.
	owner := make(map[string]string)
	keys := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Key == "" {
			errs = append(errs, "field with empty key")
			continue
		}
		if keys[f.Key] {
			errs = append(errs, fmt.Sprintf("duplicate field key %q", f.Key))
			continue
		}
		keys[f.Key] = true
		if f.Type != "" && !f.Type.Valid() {
			errs = append(errs, fmt.Sprintf("field %q: unknown type %q", f.Key, f.Type))
		}
		if f.Type == FieldSelect && len(f.Options) == 0 {
			errs = append(errs, fmt.Sprintf("field %q: select field without options", f.Key))
		}
		names := append([]string{f.Key}, f.Aliases...)
		for _, name := range names {
			folded := NormalizeColumnName(name)
			if prev, ok := owner[folded]; ok && prev != f.Key {
				errs = append(errs, fmt.Sprintf("field %q: name %q already used by field %q", f.Key, name, prev))
				continue
			}
			owner[folded] = f.Key
		}
	}

	for _, key := range s.IdentityFields {
		if s.Field(key) == nil {
			errs = append(errs, fmt.Sprintf("identity field %q is not a schema field", key))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("schema %q invalid:\n  - %s", s.ID, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Mapping is a user-confirmed pairing of source column to field key.
// Columns absent from the mapping fall back to alias resolution.
type Mapping map[string]string

// Ignore as a Mapping target drops the column entirely.
const Ignore = "-"

// FieldError is one problem found while processing a row.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// InvalidRow is a row that failed processing, with every error found.
type InvalidRow struct {
	Row          int          `json:"row"`
	OriginalData any          `json:"originalData"`
	Errors       []FieldError `json:"errors"`
}

// Result is the outcome of processing one batch of rows.
type Result struct {
	Success       bool         `json:"success"`
	ProcessedRows int          `json:"processedRows"`
	ValidRows     int          `json:"validRows"`
	InvalidRows   int          `json:"invalidRows"`
	ValidData     []Record     `json:"validData"`
	InvalidData   []InvalidRow `json:"invalidData"`
	Warnings      []string     `json:"warnings"`
}

// DetectedColumn is the inferred shape of one source column.
type DetectedColumn struct {
	OriginalName string    `json:"originalName"`
	DataType     FieldType `json:"dataType"`
	SampleValues []any     `json:"sampleValues"`
	NullCount    int       `json:"nullCount"`
	Confidence   float64   `json:"confidence"`
}

// MatchBasis records how a suggestion was produced.
type MatchBasis string

const (
	MatchExact  MatchBasis = "exact"
	MatchAlias  MatchBasis = "alias"
	MatchFuzzy  MatchBasis = "fuzzy"
	MatchCustom MatchBasis = "custom"
)

// Suggestion pairs a source column with a field key, or flags it custom.
type Suggestion struct {
	SourceColumn  string     `json:"sourceColumn"`
	TargetField   string     `json:"targetField"`
	IsCustomField bool       `json:"isCustomField"`
	Basis         MatchBasis `json:"basis"`
	Score         float64    `json:"score"`
}

// Detection is the result of inspecting a parsed file before mapping.
type Detection struct {
	Columns     []DetectedColumn `json:"columns"`
	TotalRows   int              `json:"totalRows"`
	PreviewRows []Row            `json:"previewRows"`
	Suggestions []Suggestion     `json:"suggestions"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// Mapping converts non-custom suggestions into a Mapping.
func (d *Detection) Mapping() Mapping {
	m := make(Mapping, len(d.Suggestions))
	for _, s := range d.Suggestions {
		if s.IsCustomField || s.TargetField == "" {
			continue
		}
		m[s.SourceColumn] = s.TargetField
	}
	return m
}
