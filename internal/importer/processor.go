package importer

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
)

// User-facing messages. The product is used in Spain, so these stay in
// Spanish; clients match on them.
const (
	GeneralField = "general"

	msgNotAnObject   = "Fila inválida (no es un objeto)"
	msgNoData        = "No hay datos para procesar"
	msgInvalidInput  = "Datos de entrada vacíos o inválidos"
	msgTransform     = "Error de transformación"
	msgRowHook       = "Error en transformación manual: %s"
	msgRequired      = "Campo obligatorio '%s' faltante"
	msgUnexpected    = "Error inesperado procesando la fila"
	msgUnknownTarget = "Mapeo ignorado: la columna '%s' apunta al campo desconocido '%s'"
)

// CustomPrefix marks a mapping target that stores the column as custom
// data under the suffix, e.g. "custom_attributes.roof_type".
const CustomPrefix = "custom_attributes."

// Process converts raw rows into typed records for schema.
//
// rows is normally []Row, but anything a decoder may produce is accepted:
// nil, a non-slice value, or a slice whose elements are not objects. A
// non-slice or empty input returns an unsuccessful result with a warning
// and no rows. Every element of a slice is reported either in ValidData or
// InvalidData, in input order, with 1-based row numbers.
//
// mapping pins source columns to field keys. Columns it does not mention
// are resolved by field key and aliases.
func Process(rows any, schema *Schema, mapping Mapping) *Result {
	result := &Result{
		ValidData:   []Record{},
		InvalidData: []InvalidRow{},
		Warnings:    []string{},
	}

	items, ok := asItems(rows)
	if !ok {
		result.Warnings = append(result.Warnings, msgInvalidInput)
		return result
	}
	if len(items) == 0 {
		result.Warnings = append(result.Warnings, msgNoData)
		return result
	}
	if schema == nil {
		result.Warnings = append(result.Warnings, msgInvalidInput)
		return result
	}

	plan := newMappingPlan(schema, mapping)
	result.Warnings = append(result.Warnings, plan.warnings...)

	for i, item := range items {
		rowNum := i + 1
		result.ProcessedRows++

		rec, errs := processItem(item, schema, plan)
		if len(errs) == 0 {
			result.ValidRows++
			result.ValidData = append(result.ValidData, rec)
			continue
		}
		result.InvalidRows++
		result.InvalidData = append(result.InvalidData, InvalidRow{
			Row:          rowNum,
			OriginalData: item,
			Errors:       errs,
		})
	}

	result.Success = result.InvalidRows == 0
	return result
}

// processItem never panics; a panic inside a transform or validator
// surfaces as a general error for that row.
func processItem(item any, schema *Schema, plan *mappingPlan) (rec Record, errs []FieldError) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("recovered panic while processing row", "schema", schema.ID, "panic", r)
			rec = nil
			errs = []FieldError{{Field: GeneralField, Message: msgUnexpected}}
		}
	}()

	row, ok := asRow(item)
	if !ok {
		return nil, []FieldError{{Field: GeneralField, Message: msgNotAnObject, Value: item}}
	}
	return processRow(row, schema, plan)
}

func processRow(row Row, schema *Schema, plan *mappingPlan) (Record, []FieldError) {
	keys := sortedKeys(row)
	index := foldIndex(keys)
	consumed := make(map[string]bool)
	rec := make(Record, len(schema.Fields)+1)
	var errs []FieldError

	for i := range schema.Fields {
		f := &schema.Fields[i]

		col, found := plan.resolve(f, row, index)
		var value any
		if found {
			consumed[col] = true
			value = row[col]
		}

		if f.Transform != nil && !IsEmpty(value) {
			out, err := f.Transform(value)
			if err != nil {
				errs = append(errs, FieldError{Field: f.Key, Message: msgTransform, Value: value})
				continue
			}
			value = out
		}

		if IsEmpty(value) {
			value = nil
			if f.HasDefault() {
				value = f.Default
			}
		}

		if value == nil {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Key, Message: fmt.Sprintf(msgRequired, f.Label)})
			}
			continue
		}

		if f.Validator != nil {
			out, err := f.Validator.Validate(value)
			if err != nil {
				msg := err.Error()
				if strings.TrimSpace(msg) == "" {
					msg = DefaultInvalidMessage
				}
				errs = append(errs, FieldError{Field: f.Key, Message: msg, Value: value})
				continue
			}
			value = out
		}

		rec[f.Key] = value
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if schema.TransformRow != nil {
		out, err := schema.TransformRow(rec)
		if err != nil {
			return nil, []FieldError{{Field: GeneralField, Message: fmt.Sprintf(msgRowHook, err.Error())}}
		}
		if out != nil {
			rec = out
		}
	}

	if extra := plan.unmapped(row, keys, consumed); len(extra) > 0 {
		rec[UnmappedKey] = extra
	}
	return rec, nil
}

// mappingPlan is the per-call view of a Mapping against one schema.
type mappingPlan struct {
	explicit  map[string][]string // field key -> source columns, sorted
	pinned    map[string]string   // source column -> target (field key, Ignore or custom)
	fieldKeys map[string]bool
	warnings  []string
}

func newMappingPlan(schema *Schema, mapping Mapping) *mappingPlan {
	p := &mappingPlan{
		explicit:  make(map[string][]string),
		pinned:    make(map[string]string, len(mapping)),
		fieldKeys: make(map[string]bool, len(schema.Fields)),
	}
	for _, f := range schema.Fields {
		p.fieldKeys[f.Key] = true
	}

	sources := make([]string, 0, len(mapping))
	for src := range mapping {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		target := strings.TrimSpace(mapping[src])
		switch {
		case target == "" || target == Ignore:
			p.pinned[src] = Ignore
		case strings.HasPrefix(target, CustomPrefix):
			p.pinned[src] = target
		case p.fieldKeys[target]:
			p.pinned[src] = target
			p.explicit[target] = append(p.explicit[target], src)
		default:
			p.warnings = append(p.warnings, fmt.Sprintf(msgUnknownTarget, src, target))
		}
	}
	return p
}

// resolve finds the column supplying f: an explicitly mapped column first,
// then the exact key, the normalized key, and each alias in declaration
// order. Names compare after NormalizeColumnName, so "Código Postal"
// matches the alias "codigo_postal". Columns pinned elsewhere by the mapping are skipped.
func (p *mappingPlan) resolve(f *Field, row Row, index map[string]string) (string, bool) {
	for _, src := range p.explicit[f.Key] {
		if _, ok := row[src]; ok {
			return src, true
		}
	}

	if _, ok := row[f.Key]; ok && p.free(f.Key, f.Key) {
		return f.Key, true
	}
	if col, ok := index[NormalizeColumnName(f.Key)]; ok && p.free(col, f.Key) {
		return col, true
	}
	for _, alias := range f.Aliases {
		if col, ok := index[NormalizeColumnName(alias)]; ok && p.free(col, f.Key) {
			return col, true
		}
	}
	return "", false
}

// free reports whether col may be used for field key.
func (p *mappingPlan) free(col, key string) bool {
	target, pinned := p.pinned[col]
	return !pinned || target == key
}

// unmapped collects the columns that no field consumed, blank cells
// included. A column mapped to a custom target is kept under that name even
// when it shares its name with a field key.
func (p *mappingPlan) unmapped(row Row, keys []string, consumed map[string]bool) map[string]any {
	var extra map[string]any
	for _, k := range keys {
		name := k
		switch target, pinned := p.pinned[k]; {
		case pinned && target == Ignore:
			continue
		case pinned && strings.HasPrefix(target, CustomPrefix):
			name = strings.TrimPrefix(target, CustomPrefix)
		case consumed[k] || p.fieldKeys[k]:
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[name] = row[k]
	}
	return extra
}

// foldIndex maps normalized column names to the first matching source
// column in sorted order.
func foldIndex(keys []string) map[string]string {
	index := make(map[string]string, len(keys))
	for _, k := range keys {
		folded := NormalizeColumnName(k)
		if _, exists := index[folded]; !exists {
			index[folded] = k
		}
	}
	return index
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asItems flattens any slice into []any. ok is false for non-slices.
func asItems(rows any) ([]any, bool) {
	switch v := rows.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []Row:
		out := make([]any, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out, true
	}

	rv := reflect.ValueOf(rows)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	SafeForEach(rows, func(item any, i int) { out[i] = item })
	return out, true
}

// asRow accepts Row, Record, map[string]any and other string-keyed maps.
func asRow(item any) (Row, bool) {
	switch v := item.(type) {
	case nil:
		return nil, false
	case Row:
		return v, v != nil
	case map[string]any:
		return Row(v), v != nil
	case Record:
		return Row(v), v != nil
	}

	rv := reflect.ValueOf(item)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}
	row := make(Row, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		row[iter.Key().String()] = iter.Value().Interface()
	}
	return row, true
}
