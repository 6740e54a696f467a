package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// Sheet names used by ErrorReport.
const (
	SummarySheet = "Resumen"
	ErrorsSheet  = "Errores"
	RowsSheet    = "Filas rechazadas"
)

// ErrorReport renders the invalid rows of result. The "Errores" sheet has
// one line per field error; "Filas rechazadas" reproduces each rejected row
// with its errors appended, so it can be corrected and uploaded again.
// headers fixes the column order of the second sheet; when empty the keys
// of the rejected rows are used, sorted.
//
// Cell text is passed through importer.SanitizeCell.
func ErrorReport(result *importer.Result, headers []string) ([]byte, error) {
	if result == nil {
		result = &importer.Result{}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, result); err != nil {
		return nil, err
	}
	if err := writeErrors(f, result); err != nil {
		return nil, err
	}
	if err := writeRejectedRows(f, result, headers); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, r *importer.Result) error {
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	rows := [][]any{
		{"Filas procesadas", r.ProcessedRows},
		{"Filas válidas", r.ValidRows},
		{"Filas con errores", r.InvalidRows},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		f.SetCellStyle(SummarySheet, cell, cell, bold)
	}
	for i, w := range r.Warnings {
		cell := fmt.Sprintf("A%d", len(rows)+2+i)
		f.SetCellValue(SummarySheet, cell, importer.SanitizeCell(w))
	}
	f.SetColWidth(SummarySheet, "A", "A", 24)
	return nil
}

func writeErrors(f *excelize.File, r *importer.Result) error {
	if _, err := f.NewSheet(ErrorsSheet); err != nil {
		return fmt.Errorf("create errors sheet: %w", err)
	}
	style, err := headerStyle(f, colorError)
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	headers := []any{"Fila", "Campo", "Error", "Valor"}
	if err := f.SetSheetRow(ErrorsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write errors header: %w", err)
	}
	f.SetCellStyle(ErrorsSheet, "A1", "D1", style)

	line := 2
	for _, inv := range r.InvalidData {
		for _, e := range inv.Errors {
			row := []any{
				inv.Row,
				e.Field,
				importer.SanitizeCell(e.Message),
				importer.SanitizeCell(cellText(e.Value)),
			}
			if err := f.SetSheetRow(ErrorsSheet, fmt.Sprintf("A%d", line), &row); err != nil {
				return fmt.Errorf("write error line: %w", err)
			}
			line++
		}
	}

	for i, w := range []float64{8, 20, 50, 30} {
		col := columnLetters(4)[i]
		f.SetColWidth(ErrorsSheet, col, col, w)
	}
	return freezeHeader(f, ErrorsSheet)
}

func writeRejectedRows(f *excelize.File, r *importer.Result, headers []string) error {
	if _, err := f.NewSheet(RowsSheet); err != nil {
		return fmt.Errorf("create rows sheet: %w", err)
	}
	if len(headers) == 0 {
		headers = rowKeys(r.InvalidData)
	}

	style, err := headerStyle(f, colorOptional)
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	errStyle, err := headerStyle(f, colorError)
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	cols := columnLetters(len(headers) + 1)
	for i, h := range headers {
		f.SetCellValue(RowsSheet, cols[i]+"1", h)
		f.SetCellStyle(RowsSheet, cols[i]+"1", cols[i]+"1", style)
		f.SetColWidth(RowsSheet, cols[i], cols[i], columnWidth(h))
	}
	errCol := cols[len(headers)]
	f.SetCellValue(RowsSheet, errCol+"1", "Errores")
	f.SetCellStyle(RowsSheet, errCol+"1", errCol+"1", errStyle)
	f.SetColWidth(RowsSheet, errCol, errCol, 60)

	for i, inv := range r.InvalidData {
		line := fmt.Sprint(i + 2)
		orig := rowMap(inv.OriginalData)
		for j, h := range headers {
			f.SetCellValue(RowsSheet, cols[j]+line, importer.SanitizeCell(cellText(orig[h])))
		}
		msgs := make([]string, len(inv.Errors))
		for k, e := range inv.Errors {
			msgs[k] = e.Field + ": " + e.Message
		}
		f.SetCellValue(RowsSheet, errCol+line, importer.SanitizeCell(strings.Join(msgs, "; ")))
	}
	return freezeHeader(f, RowsSheet)
}

func rowKeys(rows []importer.InvalidRow) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, inv := range rows {
		for k := range rowMap(inv.OriginalData) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func rowMap(v any) map[string]any {
	switch m := v.(type) {
	case importer.Row:
		return m
	case map[string]any:
		return m
	}
	return nil
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
