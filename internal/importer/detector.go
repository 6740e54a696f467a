package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/asaskevich/govalidator"
)

// Detection defaults.
const (
	DefaultSampleSize   = 10
	DefaultPreviewSize  = 5
	DefaultMaxColumns   = 50
	DefaultSoftFileSize = 5 * 1024 * 1024

	// fuzzyThreshold is the minimum normalized similarity for a fuzzy match.
	fuzzyThreshold = 0.6
	// fuzzyMaxLenDiff skips the edit-distance check for very different lengths.
	fuzzyMaxLenDiff = 5
	substringScore  = 0.8
)

var (
	phoneLike    = regexp.MustCompile(`^[\d\s\+\-\(\)]{9,}$`)
	currencyLike = regexp.MustCompile(`^-?[\d.]+(,\d{1,2})?\s*(€|\$|£|eur|EUR)$|^(€|\$|£)\s*-?[\d.,]+$`)
	formulaLike  = regexp.MustCompile(`^[=+\-@][A-Za-z(]`)
)

// DetectOptions tunes Detect. Zero values select the defaults.
type DetectOptions struct {
	SampleSize   int
	PreviewSize  int
	MaxColumns   int
	MaxRows      int
	FileSize     int64
	SoftFileSize int64
}

func (o DetectOptions) withDefaults() DetectOptions {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.PreviewSize <= 0 {
		o.PreviewSize = DefaultPreviewSize
	}
	if o.MaxColumns <= 0 {
		o.MaxColumns = DefaultMaxColumns
	}
	if o.SoftFileSize <= 0 {
		o.SoftFileSize = DefaultSoftFileSize
	}
	return o
}

// Detect infers a type per column and proposes a field for each one.
// headers gives the column order; when empty it is taken from the rows.
// schema may be nil, in which case every column is reported as custom.
func Detect(rows []Row, headers []string, schema *Schema, opts DetectOptions) *Detection {
	opts = opts.withDefaults()
	d := &Detection{
		Columns:     []DetectedColumn{},
		PreviewRows: []Row{},
		Suggestions: []Suggestion{},
		Warnings:    []string{},
		TotalRows:   len(rows),
	}

	if len(headers) == 0 {
		headers = headersFromRows(rows)
	}
	if len(rows) == 0 {
		d.Warnings = append(d.Warnings, "El archivo no contiene filas de datos")
	}
	if len(headers) == 0 {
		d.Warnings = append(d.Warnings, "No se detectaron columnas en el archivo")
		return d
	}

	if opts.FileSize > opts.SoftFileSize {
		d.Warnings = append(d.Warnings, fmt.Sprintf(
			"Archivo grande (%.1f MB): el procesamiento puede tardar", float64(opts.FileSize)/(1024*1024)))
	}
	if len(headers) > opts.MaxColumns {
		d.Warnings = append(d.Warnings, fmt.Sprintf(
			"El archivo tiene %d columnas (máximo recomendado %d)", len(headers), opts.MaxColumns))
	}
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		d.Warnings = append(d.Warnings, fmt.Sprintf(
			"El archivo tiene %d filas y supera el máximo de %d", len(rows), opts.MaxRows))
	}

	for _, h := range headers {
		col, formulas := inspectColumn(rows, h, opts.SampleSize)
		d.Columns = append(d.Columns, col)
		if formulas {
			d.Warnings = append(d.Warnings, fmt.Sprintf(
				"La columna '%s' contiene valores que parecen fórmulas", h))
		}
	}

	n := opts.PreviewSize
	if n > len(rows) {
		n = len(rows)
	}
	for _, r := range rows[:n] {
		preview := make(Row, len(r))
		for k, v := range r {
			preview[k] = v
		}
		d.PreviewRows = append(d.PreviewRows, preview)
	}

	d.Suggestions = suggest(headers, schema)
	d.Warnings = append(d.Warnings, unmappedRequired(d.Suggestions, schema)...)
	return d
}

// inspectColumn samples non-empty values of one column. The second return
// reports whether any sampled value looks like a spreadsheet formula.
func inspectColumn(rows []Row, header string, sampleSize int) (DetectedColumn, bool) {
	col := DetectedColumn{OriginalName: header, DataType: FieldString, SampleValues: []any{}}
	counts := make(map[FieldType]int)
	formulas := false

	for _, r := range rows {
		v := r[header]
		if IsEmpty(v) {
			col.NullCount++
			continue
		}
		if len(col.SampleValues) >= sampleSize {
			continue
		}
		col.SampleValues = append(col.SampleValues, v)
		counts[InferType(v)]++
		if s, ok := v.(string); ok && formulaLike.MatchString(strings.TrimSpace(s)) {
			formulas = true
		}
	}

	if len(col.SampleValues) == 0 {
		return col, formulas
	}

	best, bestCount, tie := FieldString, 0, false
	for _, t := range sortedTypes(counts) {
		c := counts[t]
		switch {
		case c > bestCount:
			best, bestCount, tie = t, c, false
		case c == bestCount:
			tie = true
		}
	}
	if tie {
		best = FieldString
	}
	col.DataType = best
	col.Confidence = float64(counts[best]) / float64(len(col.SampleValues))
	return col, formulas
}

// InferType classifies one non-empty raw value.
func InferType(v any) FieldType {
	switch v.(type) {
	case bool:
		return FieldBoolean
	case float64, float32, int, int64, int32:
		return FieldNumber
	}

	s := strings.TrimSpace(toString(v))
	switch {
	case s == "":
		return FieldString
	case govalidator.IsEmail(s):
		return FieldEmail
	case phoneLike.MatchString(s) && countDigits(s) >= 9:
		return FieldPhone
	case currencyLike.MatchString(s):
		return FieldCurrency
	}
	if _, err := ParseNumber(s); err == nil {
		return FieldNumber
	}
	if _, err := NormalizeDate(s); err == nil {
		return FieldDate
	}
	switch FoldName(s) {
	case "true", "false", "yes", "no", "si":
		return FieldBoolean
	}
	return FieldString
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func sortedTypes(counts map[FieldType]int) []FieldType {
	out := make([]FieldType, 0, len(counts))
	for t := range counts {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func headersFromRows(rows []Row) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)
	return headers
}

// suggest maps headers to fields in three passes (exact, alias, fuzzy) so
// a stronger match always claims a field before a weaker one.
func suggest(headers []string, schema *Schema) []Suggestion {
	out := make([]Suggestion, len(headers))
	for i, h := range headers {
		out[i] = Suggestion{SourceColumn: h}
	}
	if schema == nil {
		return finishCustom(out)
	}

	claimed := make(map[string]bool)
	assign := func(i int, key string, basis MatchBasis, score float64) {
		out[i].TargetField = key
		out[i].Basis = basis
		out[i].Score = score
		claimed[key] = true
	}

	// exact key
	for i, h := range headers {
		norm := NormalizeColumnName(h)
		for _, f := range schema.Fields {
			if !claimed[f.Key] && NormalizeColumnName(f.Key) == norm {
				assign(i, f.Key, MatchExact, 1)
				break
			}
		}
	}

	// alias
	for i, h := range headers {
		if out[i].TargetField != "" {
			continue
		}
		norm := NormalizeColumnName(h)
	fields:
		for _, f := range schema.Fields {
			if claimed[f.Key] {
				continue
			}
			for _, a := range f.Aliases {
				if NormalizeColumnName(a) == norm {
					assign(i, f.Key, MatchAlias, 1)
					break fields
				}
			}
		}
	}

	// fuzzy
	for i, h := range headers {
		if out[i].TargetField != "" {
			continue
		}
		norm := NormalizeColumnName(h)
		bestKey, bestScore := "", 0.0
		for _, f := range schema.Fields {
			if claimed[f.Key] {
				continue
			}
			for _, name := range append([]string{f.Key}, f.Aliases...) {
				if score := similarity(norm, NormalizeColumnName(name)); score > bestScore {
					bestKey, bestScore = f.Key, score
				}
			}
		}
		if bestKey != "" && bestScore > fuzzyThreshold {
			assign(i, bestKey, MatchFuzzy, bestScore)
		}
	}

	return finishCustom(out)
}

func finishCustom(out []Suggestion) []Suggestion {
	for i := range out {
		if out[i].TargetField != "" {
			continue
		}
		out[i].IsCustomField = true
		out[i].Basis = MatchCustom
		out[i].TargetField = CustomPrefix + NormalizeColumnName(out[i].SourceColumn)
	}
	return out
}

// similarity scores two normalized names in [0,1]. Containment of one in
// the other scores substringScore; otherwise it is one minus the edit
// distance over the longer length.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if len(a) >= 3 && len(b) >= 3 && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return substringScore
	}
	la, lb := len([]rune(a)), len([]rune(b))
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if diff > fuzzyMaxLenDiff {
		return 0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

func unmappedRequired(suggestions []Suggestion, schema *Schema) []string {
	if schema == nil {
		return nil
	}
	mapped := make(map[string]bool, len(suggestions))
	for _, s := range suggestions {
		if !s.IsCustomField {
			mapped[s.TargetField] = true
		}
	}
	var warnings []string
	for _, f := range schema.Fields {
		if f.Required && !f.HasDefault() && !mapped[f.Key] {
			warnings = append(warnings, fmt.Sprintf("Campo obligatorio '%s' sin columna asignada", f.Label))
		}
	}
	return warnings
}
