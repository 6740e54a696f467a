package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

var (
	ErrInvalidCSV         = errors.New("invalid csv")
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
)

// MaxHeaderSearchRows bounds how many leading blank rows are skipped while
// looking for the header row.
const MaxHeaderSearchRows = 20

// Table is a parsed upload: the header row and one Row per data line keyed
// by header. Lines holds the spreadsheet row (1-based, header included) each
// Row came from, since blank lines are dropped.
type Table struct {
	Headers  []string
	Rows     []importer.Row
	Lines    []int
	Warnings []string
	Format   string // "csv" or "xlsx"
	Encoding string // CSV only
	Sheet    string // Excel only
}

// Parse dispatches on the file extension.
func Parse(name string, data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, importer.ErrEmptyFile
	}
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return ParseCSV(data)
	case ".xlsx", ".xls":
		return ParseExcel(data)
	default:
		return nil, fmt.Errorf("%w: %q", importer.ErrUnsupportedFile, ext)
	}
}

// buildTable turns raw records into a Table. The first non-blank record
// within MaxHeaderSearchRows is the header; blank records after it are
// skipped. lines gives the source row of each record; when nil, record i
// is row i+1.
func buildTable(records [][]string, lines []int) (*Table, error) {
	t := &Table{Rows: []importer.Row{}, Lines: []int{}, Warnings: []string{}}
	lineOf := func(i int) int {
		if i < len(lines) {
			return lines[i]
		}
		return i + 1
	}

	start := -1
	for i := 0; i < len(records) && i < MaxHeaderSearchRows; i++ {
		if !isEmptyRow(records[i]) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, importer.ErrEmptyFile
	}

	t.Headers = cleanHeaders(records[start], t)

	extra := 0
	for j := start + 1; j < len(records); j++ {
		rec := records[j]
		if isEmptyRow(rec) {
			continue
		}
		row := make(importer.Row, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		for _, cell := range rec[min(len(rec), len(t.Headers)):] {
			if strings.TrimSpace(cell) != "" {
				extra++
				break
			}
		}
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, lineOf(j))
	}

	if extra > 0 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("%d filas tienen más celdas que columnas; se ignoraron los valores sobrantes", extra))
	}
	return t, nil
}

// cleanHeaders trims header cells, names blank ones after their position
// and makes repeated names unique with a numeric suffix.
func cleanHeaders(raw []string, t *Table) []string {
	// Trailing blank header cells are padding left by spreadsheet tools.
	last := len(raw)
	for last > 0 && cleanCell(raw[last-1]) == "" {
		last--
	}

	headers := make([]string, last)
	seen := make(map[string]int, last)
	for i, h := range raw[:last] {
		h = cleanCell(h)
		if h == "" {
			h = fmt.Sprintf("columna_%d", i+1)
			t.Warnings = append(t.Warnings, fmt.Sprintf("La columna %d no tiene cabecera; se usará '%s'", i+1, h))
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			renamed := fmt.Sprintf("%s_%d", h, n)
			t.Warnings = append(t.Warnings, fmt.Sprintf("Cabecera duplicada '%s' renombrada a '%s'", h, renamed))
			h = renamed
		}
		headers[i] = h
	}
	return headers
}

// cleanCell removes artifacts spreadsheet exports leave around header
// names: whitespace, surrounding quotes and the ="..." text guard.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
