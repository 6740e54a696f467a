package importer

// limits.go enforces the preconditions checked before Process runs: file
// size and type, row count, and the amount of custom data a row may carry.
// It also neutralizes cell values that spreadsheet software would execute
// as formulas when the data is exported again.

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Default limits.
const (
	DefaultMaxFileSize     = 10 * 1024 * 1024
	DefaultMaxRows         = 10000
	DefaultMaxCustomFields = 20
	DefaultMaxFieldSize    = 1000
	DefaultImportsPerHour  = 5
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("empty file")
	ErrTooManyRows     = errors.New("too many rows")
)

// AllowedExtensions lists the spreadsheet formats the parser understands.
var AllowedExtensions = []string{".csv", ".xlsx", ".xls"}

// Limits bounds a single import.
type Limits struct {
	MaxFileSize     int64
	MaxRows         int
	MaxCustomFields int
	MaxFieldSize    int
	ImportsPerHour  int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:     DefaultMaxFileSize,
		MaxRows:         DefaultMaxRows,
		MaxCustomFields: DefaultMaxCustomFields,
		MaxFieldSize:    DefaultMaxFieldSize,
		ImportsPerHour:  DefaultImportsPerHour,
	}
}

// CheckFile validates the name and size of an upload.
func (l Limits) CheckFile(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedFile, ext, strings.Join(AllowedExtensions, ", "))
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if l.MaxFileSize > 0 && size > l.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, l.MaxFileSize)
	}
	return nil
}

// CheckRows validates the number of data rows.
func (l Limits) CheckRows(n int) error {
	if l.MaxRows > 0 && n > l.MaxRows {
		return fmt.Errorf("%w: %d rows exceeds limit of %d", ErrTooManyRows, n, l.MaxRows)
	}
	return nil
}

// LimitCustomFields caps the unmapped data of rec in place. Keys beyond
// MaxCustomFields (in sorted order) are dropped and long values truncated.
// It returns a description of what was changed, or "" if nothing was.
func (l Limits) LimitCustomFields(rec Record) string {
	extra, ok := rec[UnmappedKey].(map[string]any)
	if !ok || len(extra) == 0 {
		return ""
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var notes []string
	if l.MaxCustomFields > 0 && len(keys) > l.MaxCustomFields {
		for _, k := range keys[l.MaxCustomFields:] {
			delete(extra, k)
		}
		notes = append(notes, fmt.Sprintf("%d campos personalizados descartados", len(keys)-l.MaxCustomFields))
		keys = keys[:l.MaxCustomFields]
	}

	truncated := 0
	for _, k := range keys {
		s, ok := extra[k].(string)
		if !ok || l.MaxFieldSize <= 0 {
			continue
		}
		if r := []rune(s); len(r) > l.MaxFieldSize {
			extra[k] = string(r[:l.MaxFieldSize]) + "..."
			truncated++
		}
	}
	if truncated > 0 {
		notes = append(notes, fmt.Sprintf("%d campos personalizados truncados", truncated))
	}
	return strings.Join(notes, "; ")
}

// SanitizeCell prefixes values that spreadsheet software would evaluate as
// a formula with a single quote.
func SanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '\n':
		if isPlainNumber(s) {
			return s
		}
		return "'" + s
	}
	if strings.Contains(s, "|!") || strings.Contains(strings.ToLower(s), "cmd|") {
		return "'" + s
	}
	return s
}

// isPlainNumber keeps negative amounts ("-12,50") and international phone
// numbers ("+34 612 345 678") untouched.
func isPlainNumber(s string) bool {
	if len(s) < 2 || (s[0] != '-' && s[0] != '+') {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == ',', r == ' ', r == '(', r == ')':
		default:
			return false
		}
	}
	return true
}

// SanitizeValues applies SanitizeCell to every string value of m, in place.
func SanitizeValues(m map[string]any) {
	for k, v := range m {
		if s, ok := v.(string); ok {
			m[k] = SanitizeCell(s)
		}
	}
}

// Batches splits items into consecutive chunks of at most size elements.
func Batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
