package importer

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DefaultInvalidMessage is reported when a validator fails without a message.
const DefaultInvalidMessage = "Dato inválido"

// MinLength requires a string of at least n runes after trimming.
func MinLength(n int, msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		s := strings.TrimSpace(toString(v))
		if s == "" {
			return nil, errors.New(msg)
		}
		if err := validation.Validate(s, validation.RuneLength(n, 0).Error(msg)); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Email checks the address format. It does not resolve MX records.
func Email(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		s := strings.ToLower(strings.TrimSpace(toString(v)))
		if err := validation.Validate(s, is.EmailFormat.Error(msg)); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Phone normalizes the number and requires 9 to 15 digits.
func Phone(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		s := NormalizePhone(v)
		if s == "" {
			return nil, errors.New(msg)
		}
		if err := validation.Validate(s, validation.Match(phonePattern).Error(msg)); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// TaxID uppercases the value and checks the loose NIF/CIF shape.
func TaxID(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		s := NormalizeTaxID(v)
		if s == "" {
			return nil, errors.New(msg)
		}
		if err := validation.Validate(s, validation.Match(taxIDPattern).Error(msg)); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// SpanishNIF additionally verifies the DNI/NIE/CIF control character.
func SpanishNIF(msg string) Validator {
	rule := validation.By(func(value interface{}) error {
		if s, _ := value.(string); !ValidateSpanishNIF(s) {
			return errors.New(msg)
		}
		return nil
	})
	return ValidatorFunc(func(v any) (any, error) {
		s := strings.NewReplacer(" ", "", "-", "").Replace(NormalizeTaxID(v))
		if err := validation.Validate(s, rule); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// OneOf accepts one of values, compared case-insensitively, and returns the
// canonical spelling.
func OneOf(msg string, values ...string) Validator {
	lowered := make([]interface{}, len(values))
	canonical := make(map[string]string, len(values))
	for i, v := range values {
		l := strings.ToLower(v)
		lowered[i] = l
		canonical[l] = v
	}
	return ValidatorFunc(func(v any) (any, error) {
		s := strings.ToLower(strings.TrimSpace(toString(v)))
		if err := validation.Validate(s, validation.In(lowered...).Error(msg)); err != nil {
			return nil, err
		}
		return canonical[s], nil
	})
}

// OptionsValidator builds a OneOf over a select field's option values.
func OptionsValidator(msg string, opts []Option) Validator {
	values := make([]string, 0, len(opts))
	for _, o := range opts {
		values = append(values, toString(o.Value))
	}
	return OneOf(msg, values...)
}

// Number parses a numeric cell.
func Number(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		f, err := ParseNumber(v)
		if err != nil {
			return nil, errors.New(msg)
		}
		return f, nil
	})
}

// NonNegative parses a number and rejects values below zero.
func NonNegative(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		f, err := ParseNumber(v)
		if err != nil {
			return nil, errors.New(msg)
		}
		if err := validation.Validate(f, validation.Min(0.0).Error(msg)); err != nil {
			return nil, err
		}
		return f, nil
	})
}

// StrictCurrency rejects amounts ParseCurrency would silently turn into 0.
func StrictCurrency(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		f, err := ParseCurrencyStrict(v)
		if err != nil {
			return nil, errors.New(msg)
		}
		return f, nil
	})
}

// Date normalizes to YYYY-MM-DD.
func Date(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		s, err := NormalizeDate(v)
		if err != nil {
			return nil, errors.New(msg)
		}
		return s, nil
	})
}

// Time normalizes to HH:MM.
func Time(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		s, err := NormalizeTime(v)
		if err != nil {
			return nil, errors.New(msg)
		}
		return s, nil
	})
}

// Boolean parses yes/no style cells.
func Boolean(msg string) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		b, err := ParseBool(v)
		if err != nil {
			return nil, errors.New(msg)
		}
		return b, nil
	})
}

// Chain runs validators in order, feeding each the previous output. The
// first failure wins.
func Chain(validators ...Validator) Validator {
	return ValidatorFunc(func(v any) (any, error) {
		cur := v
		for _, val := range validators {
			next, err := val.Validate(cur)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return cur, nil
	})
}
