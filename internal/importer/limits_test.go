package importer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestLimits_CheckFile(t *testing.T) {
	l := DefaultLimits()

	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr error
	}{
		{"csv", "clientes.csv", 1024, nil},
		{"upper-case xlsx", "CLIENTES.XLSX", 1024, nil},
		{"xls", "old.xls", 1024, nil},
		{"pdf", "clientes.pdf", 1024, ErrUnsupportedFile},
		{"no extension", "clientes", 1024, ErrUnsupportedFile},
		{"empty", "clientes.csv", 0, ErrEmptyFile},
		{"at limit", "clientes.csv", DefaultMaxFileSize, nil},
		{"over limit", "clientes.csv", DefaultMaxFileSize + 1, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.CheckFile(tt.file, tt.size)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLimits_CheckRows(t *testing.T) {
	l := DefaultLimits()
	if err := l.CheckRows(DefaultMaxRows); err != nil {
		t.Errorf("CheckRows(max) = %v", err)
	}
	if err := l.CheckRows(DefaultMaxRows + 1); !errors.Is(err, ErrTooManyRows) {
		t.Errorf("CheckRows(max+1) = %v, want ErrTooManyRows", err)
	}
	if err := (Limits{}).CheckRows(1 << 20); err != nil {
		t.Errorf("zero Limits CheckRows = %v, want unlimited", err)
	}
}

func TestLimits_LimitCustomFields(t *testing.T) {
	l := Limits{MaxCustomFields: 3, MaxFieldSize: 5}

	extra := map[string]any{}
	for i := 0; i < 5; i++ {
		extra[fmt.Sprintf("c%d", i)] = "v"
	}
	extra["c0"] = "abcdefgh"
	rec := Record{"full_name": "Ana", UnmappedKey: extra}

	note := l.LimitCustomFields(rec)

	if len(extra) != 3 {
		t.Errorf("custom fields = %d, want 3", len(extra))
	}
	if _, ok := extra["c4"]; ok {
		t.Error("c4 kept; keys beyond the cap should be dropped in sorted order")
	}
	if extra["c0"] != "abcde..." {
		t.Errorf("c0 = %q, want truncated", extra["c0"])
	}
	if !strings.Contains(note, "2 campos personalizados descartados") || !strings.Contains(note, "1 campos personalizados truncados") {
		t.Errorf("note = %q", note)
	}

	if note := l.LimitCustomFields(Record{"full_name": "Ana"}); note != "" {
		t.Errorf("note without custom data = %q", note)
	}
}

func TestSanitizeCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Madrid", "Madrid"},
		{"=1+1", "'=1+1"},
		{"=HYPERLINK(\"http://x\")", "'=HYPERLINK(\"http://x\")"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"+cmd", "'+cmd"},
		{"-2+3", "'-2+3"},
		{"\tdata", "'\tdata"},
		{"x cmd|' /C calc'!A0", "'x cmd|' /C calc'!A0"},
		{"-12,50", "-12,50"},
		{"+34 612 345 678", "+34 612 345 678"},
		{"command line", "command line"},
	}

	for _, tt := range tests {
		if got := SanitizeCell(tt.in); got != tt.want {
			t.Errorf("SanitizeCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeValues(t *testing.T) {
	m := map[string]any{"a": "=1+1", "b": 3, "c": "ok"}
	SanitizeValues(m)
	if m["a"] != "'=1+1" || m["b"] != 3 || m["c"] != "ok" {
		t.Errorf("SanitizeValues = %v", m)
	}
}

func TestBatches(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{0, 3, nil},
		{5, 2, []int{2, 2, 1}},
		{4, 2, []int{2, 2}},
		{3, 0, []int{3}},
		{2, 10, []int{2}},
	}

	for _, tt := range tests {
		items := make([]int, tt.n)
		got := Batches(items, tt.size)
		var sizes []int
		for _, b := range got {
			sizes = append(sizes, len(b))
		}
		if fmt.Sprint(sizes) != fmt.Sprint(tt.want) {
			t.Errorf("Batches(%d, %d) sizes = %v, want %v", tt.n, tt.size, sizes, tt.want)
		}
	}
}
