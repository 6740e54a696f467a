package parser

// encoding.go normalizes the byte stream of a text upload before the CSV
// reader sees it:
//
//   - BOMSkippingReader drops the UTF-8 byte order mark Windows tools add
//   - decodeText falls back to Windows-1252 when the data is not UTF-8
//
// Spanish Excel exports are the usual source of both.

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding names reported in Table.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips a leading UTF-8 BOM.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	buf     [3]byte
	pending []byte
}

// NewBOMSkippingReader returns a reader that drops a leading BOM from r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if n < 3 || !bytes.Equal(r.buf[:], utf8BOM) {
			r.pending = r.buf[:n]
		}
		if err == io.EOF && len(r.pending) == 0 {
			return 0, io.EOF
		}
	}

	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	return r.reader.Read(p)
}

// decodeText returns a UTF-8 reader over data with any BOM removed, and the
// name of the source encoding. Data that is not valid UTF-8 is decoded as
// Windows-1252, which maps every byte to a rune and therefore never fails.
func decodeText(data []byte) (io.Reader, string) {
	r := NewBOMSkippingReader(bytes.NewReader(data))
	if utf8.Valid(data) {
		return r, EncodingUTF8
	}
	return transform.NewReader(r, charmap.Windows1252.NewDecoder()), EncodingWindows1252
}
