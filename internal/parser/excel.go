package parser

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseExcel reads the active sheet of an xlsx workbook. Legacy .xls files
// are rejected by excelize and reported as ErrInvalidSpreadsheet.
func ParseExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidSpreadsheet)
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, sheet, err)
	}

	t, err := buildTable(records, nil)
	if err != nil {
		return nil, err
	}
	t.Format = "xlsx"
	t.Sheet = sheet
	if len(sheets) > 1 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("El archivo tiene %d hojas; solo se importa '%s'", len(sheets), sheet))
	}
	return t, nil
}
