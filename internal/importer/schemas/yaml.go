package schemas

// yaml.go loads declarative schemas. A definition looks like:
//
//	id: import_installers_v1
//	target_model: installers
//	label: Importación de Instaladores
//	identity_fields: [tax_id]
//	duplicate_strategy: update
//	fields:
//	  - key: name
//	    label: Nombre
//	    required: true
//	    aliases: [nombre, empresa]
//	    validate: ["min_length:2"]
//	    message: El nombre es muy corto
//	  - key: tax_id
//	    label: CIF
//	    transform: tax_id
//	    validate: [nif]
//
// Validators and transforms are referenced by name; see validatorNames and
// transformNames for the vocabulary.

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

type schemaDef struct {
	ID                string     `yaml:"id"`
	TargetModel       string     `yaml:"target_model"`
	Label             string     `yaml:"label"`
	IdentityFields    []string   `yaml:"identity_fields"`
	DuplicateStrategy string     `yaml:"duplicate_strategy"`
	BatchSize         int        `yaml:"batch_size"`
	Fields            []fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Key         string            `yaml:"key"`
	Label       string            `yaml:"label"`
	Type        string            `yaml:"type"`
	Required    bool              `yaml:"required"`
	Aliases     []string          `yaml:"aliases"`
	Default     any               `yaml:"default"`
	Options     []importer.Option `yaml:"options"`
	Description string            `yaml:"description"`
	Transform   string            `yaml:"transform"`
	Validate    []string          `yaml:"validate"`
	Message     string            `yaml:"message"`
}

var transformNames = map[string]importer.TransformFunc{
	"trim":           importer.TransformTrim,
	"upper":          importer.TransformUpper,
	"lower":          importer.TransformLower,
	"phone":          importer.TransformPhone,
	"tax_id":         importer.TransformTaxID,
	"currency":       importer.TransformCurrency,
	"date":           importer.TransformDate,
	"time":           importer.TransformTime,
	"province":       TransformProvince,
	"lead_status":    importer.LeadStatus.Transform,
	"visit_status":   importer.VisitStatus.Transform,
	"sale_status":    importer.SaleStatus.Transform,
	"stock_type":     importer.StockType.Transform,
	"project_status": importer.ProjectStatus.Transform,
}

// validatorNames lists the accepted validator names. Arguments follow a
// colon: "min_length:2", "one_of:a,b,c".
var validatorNames = []string{
	"min_length", "email", "phone", "tax_id", "nif", "one_of", "options",
	"number", "non_negative", "currency", "date", "time", "boolean", "postal_code",
}

// Parse decodes one YAML schema definition. Unknown keys are rejected so a
// typo in a field attribute does not silently drop a rule.
func Parse(data []byte) (*importer.Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def schemaDef
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return def.build()
}

// LoadFile reads and parses a single schema file.
func LoadFile(path string) (*importer.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// LoadDir adds every *.yaml and *.yml schema in dir to reg, in file name
// order. It stops at the first invalid file and returns how many schemas
// were added before it.
func LoadDir(reg *importer.Registry, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read schema dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	added := 0
	for _, name := range names {
		s, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return added, err
		}
		if err := reg.Add(s); err != nil {
			return added, fmt.Errorf("%s: %w", name, err)
		}
		added++
	}
	return added, nil
}

func (d schemaDef) build() (*importer.Schema, error) {
	strategy, err := importer.ParseDuplicateStrategy(d.DuplicateStrategy)
	if err != nil {
		return nil, err
	}

	s := &importer.Schema{
		ID:                       d.ID,
		TargetModel:              d.TargetModel,
		Label:                    d.Label,
		IdentityFields:           d.IdentityFields,
		DefaultDuplicateStrategy: strategy,
		BatchSize:                d.BatchSize,
		Fields:                   make([]importer.Field, 0, len(d.Fields)),
	}

	var errs []error
	for _, fd := range d.Fields {
		f, err := fd.build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Fields = append(s.Fields, f)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func (fd fieldDef) build() (importer.Field, error) {
	f := importer.Field{
		Key:         fd.Key,
		Label:       fd.Label,
		Type:        importer.FieldType(fd.Type),
		Required:    fd.Required,
		Aliases:     fd.Aliases,
		Default:     fd.Default,
		Options:     fd.Options,
		Description: fd.Description,
	}
	if f.Label == "" {
		f.Label = fd.Key
	}
	if f.Type == "" {
		f.Type = importer.FieldString
	}

	if fd.Transform != "" {
		t, ok := transformNames[fd.Transform]
		if !ok {
			return f, fmt.Errorf("field %q: unknown transform %q", fd.Key, fd.Transform)
		}
		f.Transform = t
	}

	msg := fd.Message
	if msg == "" {
		msg = importer.DefaultInvalidMessage
	}
	validators := make([]importer.Validator, 0, len(fd.Validate))
	for _, spec := range fd.Validate {
		v, err := namedValidator(spec, msg, fd.Options)
		if err != nil {
			return f, fmt.Errorf("field %q: %w", fd.Key, err)
		}
		validators = append(validators, v)
	}
	switch len(validators) {
	case 0:
	case 1:
		f.Validator = validators[0]
	default:
		f.Validator = importer.Chain(validators...)
	}
	return f, nil
}

func namedValidator(spec, msg string, opts []importer.Option) (importer.Validator, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(spec), ":")
	switch name {
	case "min_length":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("min_length needs a positive length, got %q", arg)
		}
		return importer.MinLength(n, msg), nil
	case "email":
		return importer.Email(msg), nil
	case "phone":
		return importer.Phone(msg), nil
	case "tax_id":
		return importer.TaxID(msg), nil
	case "nif":
		return importer.SpanishNIF(msg), nil
	case "one_of":
		if arg == "" {
			return nil, errors.New("one_of needs a comma-separated list of values")
		}
		values := strings.Split(arg, ",")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		return importer.OneOf(msg, values...), nil
	case "options":
		if len(opts) == 0 {
			return nil, errors.New("options validator on a field without options")
		}
		return importer.OptionsValidator(msg, opts), nil
	case "number":
		return importer.Number(msg), nil
	case "non_negative":
		return importer.NonNegative(msg), nil
	case "currency":
		return importer.StrictCurrency(msg), nil
	case "date":
		return importer.Date(msg), nil
	case "time":
		return importer.Time(msg), nil
	case "boolean":
		return importer.Boolean(msg), nil
	case "postal_code":
		return PostalCode(msg), nil
	}
	return nil, fmt.Errorf("unknown validator %q (known: %s)", name, strings.Join(validatorNames, ", "))
}
