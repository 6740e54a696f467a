package importer

// coerce.go converts raw spreadsheet cells into typed values.
//
// Spreadsheets from Spanish customers follow the es-ES conventions: "." as
// thousands separator, "," as decimal separator, day-first dates. Every
// function here accepts the raw cell as `any` since parsers may hand us
// strings, float64 or bool depending on the file format.

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	phonePattern = regexp.MustCompile(`^\+?\d{9,15}$`)
	taxIDPattern = regexp.MustCompile(`^[A-Z0-9]{8,12}[A-Z]?$`)
	timePattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	datePattern  = regexp.MustCompile(`^(\d{1,4})[/-](\d{1,2})[/-](\d{1,4})$`)

	phoneStrip = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrInvalidCurrency = errors.New("invalid currency amount")
	ErrInvalidBoolean  = errors.New("invalid boolean")
)

// NormalizePhone strips spaces, dashes and parentheses.
func NormalizePhone(v any) string {
	return phoneStrip.Replace(strings.TrimSpace(toString(v)))
}

// IsValidPhone reports whether s is 9 to 15 digits with an optional "+".
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// NormalizeTaxID uppercases and trims a NIF/CIF.
func NormalizeTaxID(v any) string {
	return strings.ToUpper(strings.TrimSpace(toString(v)))
}

// IsValidTaxID checks the loose NIF/CIF shape: 8 to 12 alphanumerics and
// an optional trailing letter. It does not verify the control letter; see
// ValidateSpanishNIF for that.
func IsValidTaxID(s string) bool {
	return taxIDPattern.MatchString(s)
}

// ParseCurrencyStrict parses a Spanish-formatted amount such as
// "1.500,00 €". Numeric inputs pass through unchanged.
func ParseCurrencyStrict(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32, int, int32, int64, uint, uint32, uint64:
		return cast.ToFloat64(n), nil
	}

	raw := strings.TrimSpace(toString(v))
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '-':
			b.WriteRune(r)
		case r == '.':
			// thousands separator
		}
	}
	cleaned := strings.Replace(b.String(), ",", ".", 1)
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
	return f, nil
}

// ParseCurrency is ParseCurrencyStrict with unparseable input mapped to 0.
// Use the StrictCurrency validator when a zero would hide a typo.
func ParseCurrency(v any) float64 {
	f, err := ParseCurrencyStrict(v)
	if err != nil {
		return 0
	}
	return f
}

// ParseNumber parses a plain number, accepting "," as decimal separator.
func ParseNumber(v any) (float64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if strings.Contains(s, ",") && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNumber, v)
	}
	return f, nil
}

// NormalizeDate converts DD/MM/YYYY, DD-MM-YYYY or YYYY-MM-DD to
// YYYY-MM-DD. A three-part date is year-first only when its first segment
// has four digits.
func NormalizeDate(v any) (string, error) {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly), nil
	}
	raw := strings.TrimSpace(toString(v))
	// Drop a trailing time component ("05/03/2024 10:30").
	if i := strings.IndexAny(raw, " T"); i > 0 {
		raw = raw[:i]
	}
	m := datePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	var y, mo, d string
	if len(m[1]) == 4 {
		y, mo, d = m[1], m[2], m[3]
	} else {
		d, mo, y = m[1], m[2], m[3]
	}
	if len(y) != 4 || len(d) > 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(mo)
	day, _ := strconv.Atoi(d)

	out := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if _, err := time.Parse(time.DateOnly, out); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return out, nil
}

// NormalizeTime zero-pads the hour of H:MM or HH:MM(:SS) and drops seconds.
func NormalizeTime(v any) (string, error) {
	raw := strings.TrimSpace(toString(v))
	m := timePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ParseBool accepts the spellings found in Spanish and English exports.
func ParseBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	switch FoldName(toString(v)) {
	case "true", "yes", "si", "s", "y", "1", "x", "verdadero":
		return true, nil
	case "false", "no", "n", "0", "falso":
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrInvalidBoolean, v)
}

// Transforms usable as Field.Transform.

func TransformPhone(v any) (any, error) { return NormalizePhone(v), nil }

func TransformTaxID(v any) (any, error) { return NormalizeTaxID(v), nil }

func TransformCurrency(v any) (any, error) { return ParseCurrency(v), nil }

func TransformDate(v any) (any, error) { return NormalizeDate(v) }

func TransformTime(v any) (any, error) { return NormalizeTime(v) }

func TransformTrim(v any) (any, error) { return strings.TrimSpace(toString(v)), nil }

func TransformUpper(v any) (any, error) {
	return strings.ToUpper(strings.TrimSpace(toString(v))), nil
}

func TransformLower(v any) (any, error) {
	return strings.ToLower(strings.TrimSpace(toString(v))), nil
}
