package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// candidate delimiters in preference order for ties
var delimiters = []rune{',', ';', '\t', '|'}

// ParseCSV parses CSV data, detecting the encoding and delimiter.
func ParseCSV(data []byte) (*Table, error) {
	src, enc := decodeText(data)

	r := csv.NewReader(src)
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	// encoding/csv skips blank lines, so keep each record's starting line
	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	t, err := buildTable(records, lines)
	if err != nil {
		return nil, err
	}
	t.Format = "csv"
	t.Encoding = enc
	return t, nil
}

// sniffDelimiter picks the delimiter occurring most often outside quotes in
// the first non-blank line.
func sniffDelimiter(data []byte) rune {
	line := firstLine(data)
	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, c := range string(line) {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range delimiters {
			if c == d {
				counts[d]++
			}
		}
	}

	best := delimiters[0]
	for _, d := range delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

func firstLine(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		var line []byte
		if i < 0 {
			line, data = data, nil
		} else {
			line, data = data[:i], data[i+1:]
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return line
		}
	}
	return nil
}
