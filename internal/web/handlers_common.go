package web

// handlers_common.go holds request parsing shared by the handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/importjob"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope and the other form fields.
const multipartOverhead = 1 << 20

// TenantHeader identifies the company an import belongs to.
const TenantHeader = "X-Tenant-ID"

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// readUpload reads the "file" part of a multipart request, bounded by the
// configured file size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (importjob.Upload, error) {
	maxSize := s.service.Limits().MaxFileSize
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return importjob.Upload{}, importer.ErrFileTooLarge
		}
		return importjob.Upload{}, fmt.Errorf("%w: %v", ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return importjob.Upload{}, ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return importjob.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	return importjob.Upload{FileName: header.Filename, Data: data}, nil
}

// parseMapping decodes the optional "mapping" form field, a JSON object of
// source column to field key.
func parseMapping(r *http.Request) (importer.Mapping, error) {
	raw := strings.TrimSpace(r.FormValue("mapping"))
	if raw == "" {
		return nil, nil
	}
	var m importer.Mapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	return m, nil
}

// parseBool accepts the usual form spellings; anything unparsable is false.
func parseBool(v string) bool {
	b, err := cast.ToBoolE(strings.TrimSpace(v))
	return err == nil && b
}

// tenantID reads the tenant from the header, falling back to the form.
func tenantID(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(TenantHeader)); t != "" {
		return t
	}
	return strings.TrimSpace(r.FormValue("tenant"))
}

// clientIP strips the port from r.RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
