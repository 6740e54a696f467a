// Package report renders import artifacts as Excel workbooks: blank
// templates users fill in, and error reports for rejected rows.
package report

import "github.com/xuri/excelize/v2"

const (
	colorRequired = "#1D4ED8"
	colorOptional = "#6B7280"
	colorError    = "#B91C1C"
	colorHeader   = "#E5E7EB"
)

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#D1D5DB", Style: 1},
		{Type: "right", Color: "#D1D5DB", Style: 1},
		{Type: "top", Color: "#D1D5DB", Style: 1},
		{Type: "bottom", Color: "#D1D5DB", Style: 1},
	}
}

func headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// columnLetters returns Excel column letters for n columns: A, B, ... Z, AA ...
func columnLetters(n int) []string {
	cols := make([]string, n)
	for i := 0; i < n; i++ {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cols[i] = name
	}
	return cols
}

func columnWidth(label string) float64 {
	w := float64(len([]rune(label))) * 1.3
	if w < 15 {
		w = 15
	}
	return w
}
