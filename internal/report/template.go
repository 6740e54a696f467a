package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// Sheet names used by Template.
const (
	TemplateSheet     = "Datos"
	InstructionsSheet = "Instrucciones"
)

// RequiredMarker is appended to the header of required fields.
const RequiredMarker = " *"

// Template renders a blank workbook for schema. The header row uses field
// labels, which the detector maps back through aliases and fuzzy matching.
// Select fields get a drop-down of their option values.
func Template(schema *importer.Schema) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	required, err := headerStyle(f, colorRequired)
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	optional, err := headerStyle(f, colorOptional)
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	cols := columnLetters(len(schema.Fields))
	for i, field := range schema.Fields {
		cell := cols[i] + "1"
		style := optional
		header := field.Label
		if field.Required && !field.HasDefault() {
			header += RequiredMarker
			style = required
		}
		f.SetCellValue(TemplateSheet, cell, header)
		f.SetCellStyle(TemplateSheet, cell, cell, style)
		f.SetColWidth(TemplateSheet, cols[i], cols[i], columnWidth(header))

		if len(field.Options) > 0 {
			dv := excelize.NewDataValidation(true)
			dv.Sqref = fmt.Sprintf("%s2:%s1048576", cols[i], cols[i])
			if err := dv.SetDropList(optionValues(field.Options)); err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Key, err)
			}
			if err := f.AddDataValidation(TemplateSheet, dv); err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Key, err)
			}
		}
	}

	if err := freezeHeader(f, TemplateSheet); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	if err := addInstructions(f, schema); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

// addInstructions documents every field on a second sheet.
func addInstructions(f *excelize.File, schema *importer.Schema) error {
	if _, err := f.NewSheet(InstructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}

	title, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	header, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{colorHeader}, Pattern: 1},
	})

	f.SetCellValue(InstructionsSheet, "A1", schema.Label+" - Instrucciones")
	f.SetCellStyle(InstructionsSheet, "A1", "A1", title)

	cols := columnLetters(6)
	for i, h := range []string{"Columna", "Obligatorio", "Tipo", "Valor por defecto", "Otros nombres aceptados", "Descripción"} {
		cell := cols[i] + "3"
		f.SetCellValue(InstructionsSheet, cell, h)
		f.SetCellStyle(InstructionsSheet, cell, cell, header)
	}

	for i, field := range schema.Fields {
		row := fmt.Sprint(i + 4)
		req := "No"
		if field.Required {
			req = "Sí"
		}
		desc := field.Description
		if len(field.Options) > 0 {
			desc = strings.TrimSpace(desc + " Valores: " + strings.Join(optionValues(field.Options), ", "))
		}
		f.SetCellValue(InstructionsSheet, cols[0]+row, field.Label)
		f.SetCellValue(InstructionsSheet, cols[1]+row, req)
		f.SetCellValue(InstructionsSheet, cols[2]+row, string(field.Type))
		f.SetCellValue(InstructionsSheet, cols[3]+row, cast.ToString(field.Default))
		f.SetCellValue(InstructionsSheet, cols[4]+row, strings.Join(field.Aliases, ", "))
		f.SetCellValue(InstructionsSheet, cols[5]+row, desc)
	}

	for i, w := range []float64{24, 12, 12, 18, 40, 50} {
		f.SetColWidth(InstructionsSheet, cols[i], cols[i], w)
	}
	return nil
}

func optionValues(opts []importer.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = cast.ToString(o.Value)
	}
	return out
}
