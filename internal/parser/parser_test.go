package parser

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// ----------------------------------------------------------------------------
// Encoding
// ----------------------------------------------------------------------------

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"file with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "nombre,email"...), "nombre,email"},
		{"file without BOM", []byte("nombre,email"), "nombre,email"},
		{"empty file", []byte{}, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"short file", []byte("ab"), "ab"},
		{"partial BOM at start", []byte{0xEF, 0xBB, 'a', 'b'}, string([]byte{0xEF, 0xBB, 'a', 'b'})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDecodeText_Windows1252(t *testing.T) {
	// "Teléfono;Población" as saved by Excel on Windows
	data := []byte("Tel\xe9fono;Poblaci\xf3n\n612345678;M\xe1laga\n")

	tbl, err := ParseCSV(data)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if tbl.Encoding != EncodingWindows1252 {
		t.Errorf("Encoding = %q", tbl.Encoding)
	}
	if want := []string{"Teléfono", "Población"}; !reflect.DeepEqual(tbl.Headers, want) {
		t.Errorf("Headers = %q, want %q", tbl.Headers, want)
	}
	if got := tbl.Rows[0]["Población"]; got != "Málaga" {
		t.Errorf("Población = %q", got)
	}
}

// ----------------------------------------------------------------------------
// CSV
// ----------------------------------------------------------------------------

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"a,b,c\n1,2,3", ','},
		{"a;b;c\n1;2;3", ';'},
		{"a\tb\tc", '\t'},
		{"\n\n\"x;y\",b,c\n", ','},
		{"nombre;importe\nAna;\"1.500,00\"", ';'},
		{"single", ','},
		{"", ','},
	}
	for _, tt := range tests {
		if got := sniffDelimiter([]byte(tt.in)); got != tt.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCSV(t *testing.T) {
	data := "\ufeff\n" +
		"Nombre;Teléfono;Importe;;\n" +
		"Ana Ruiz;612 345 678;\"1.500,00 €\";;\n" +
		";;;;\n" +
		"Luis;611222333\n" +
		"Eva;600000000;10;extra\n"

	tbl, err := ParseCSV([]byte(data))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	if tbl.Format != "csv" || tbl.Encoding != EncodingUTF8 {
		t.Errorf("Format/Encoding = %s/%s", tbl.Format, tbl.Encoding)
	}
	if want := []string{"Nombre", "Teléfono", "Importe"}; !reflect.DeepEqual(tbl.Headers, want) {
		t.Errorf("Headers = %q, want %q", tbl.Headers, want)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(tbl.Rows))
	}

	want := []importer.Row{
		{"Nombre": "Ana Ruiz", "Teléfono": "612 345 678", "Importe": "1.500,00 €"},
		{"Nombre": "Luis", "Teléfono": "611222333", "Importe": ""},
		{"Nombre": "Eva", "Teléfono": "600000000", "Importe": "10"},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("Rows = %v, want %v", tbl.Rows, want)
	}
	// the blank first line and the separator-only row still count
	if want := []int{3, 5, 6}; !reflect.DeepEqual(tbl.Lines, want) {
		t.Errorf("Lines = %v, want %v", tbl.Lines, want)
	}
	if len(tbl.Warnings) != 1 || !strings.Contains(tbl.Warnings[0], "1 filas tienen más celdas") {
		t.Errorf("Warnings = %v", tbl.Warnings)
	}
}

func TestParseCSV_Headers(t *testing.T) {
	tbl, err := ParseCSV([]byte("email,,Email,email\na,b,c,d\n"))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if want := []string{"email", "columna_2", "Email", "email_2"}; !reflect.DeepEqual(tbl.Headers, want) {
		t.Errorf("Headers = %q, want %q", tbl.Headers, want)
	}
	if len(tbl.Warnings) != 2 {
		t.Errorf("Warnings = %v, want 2", tbl.Warnings)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	if _, err := ParseCSV([]byte("\n \n,,\n")); !errors.Is(err, importer.ErrEmptyFile) {
		t.Errorf("blank file err = %v, want ErrEmptyFile", err)
	}

	tbl, err := ParseCSV([]byte("nombre,email\n"))
	if err != nil {
		t.Fatalf("header only: %v", err)
	}
	if len(tbl.Rows) != 0 || tbl.Rows == nil {
		t.Errorf("header only Rows = %#v", tbl.Rows)
	}
}

// ----------------------------------------------------------------------------
// Excel
// ----------------------------------------------------------------------------

func buildWorkbook(t *testing.T, sheets map[string][][]any, active string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}
	idx, err := f.GetSheetIndex(active)
	if err != nil {
		t.Fatal(err)
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseExcel(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Clientes": {
			{"Nombre", "Teléfono", "Importe"},
			{"Ana Ruiz", "612345678", 1500.5},
			{nil, nil, nil},
			{"Luis", nil, 20},
		},
	}, "Clientes")

	tbl, err := Parse("clientes.xlsx", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Format != "xlsx" || tbl.Sheet != "Clientes" {
		t.Errorf("Format/Sheet = %s/%s", tbl.Format, tbl.Sheet)
	}
	if want := []string{"Nombre", "Teléfono", "Importe"}; !reflect.DeepEqual(tbl.Headers, want) {
		t.Errorf("Headers = %q", tbl.Headers)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2: %v", len(tbl.Rows), tbl.Rows)
	}
	if tbl.Rows[0]["Importe"] != "1500.5" || tbl.Rows[1]["Teléfono"] != "" {
		t.Errorf("Rows = %v", tbl.Rows)
	}
	if len(tbl.Warnings) != 0 {
		t.Errorf("Warnings = %v", tbl.Warnings)
	}
}

func TestParseExcel_ActiveSheet(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Datos": {{"sku"}, {"PAN-1"}},
	}, "Datos")

	tbl, err := ParseExcel(data)
	if err != nil {
		t.Fatalf("ParseExcel: %v", err)
	}
	if tbl.Sheet != "Datos" || tbl.Rows[0]["sku"] != "PAN-1" {
		t.Errorf("table = %+v", tbl)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"empty", "a.csv", nil, importer.ErrEmptyFile},
		{"pdf", "a.pdf", []byte("%PDF"), importer.ErrUnsupportedFile},
		{"corrupt xlsx", "a.xlsx", []byte("not a zip"), ErrInvalidSpreadsheet},
		{"legacy xls", "a.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, ErrInvalidSpreadsheet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.file, tt.data); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
