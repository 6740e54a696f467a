package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/solarimport/internal/importjob"
	"github.com/JonMunkholm/solarimport/internal/store"
)

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPresets(t *testing.T) {
	s := newTestServer(t, testConfig())

	body := `{"name":"CRM","mapping":{"Nombre":"full_name","Correo":"email"},"headers":["Nombre","Correo"]}`
	rec := serve(s, jsonRequest(http.MethodPost, "/api/schemas/import_contacts_v1/mappings", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[store.Preset](t, rec)
	if created.ID == "" || created.SchemaID != "import_contacts_v1" || created.Mapping["Correo"] != "email" {
		t.Errorf("created = %+v", created)
	}

	rec = serve(s, jsonRequest(http.MethodPost, "/api/schemas/import_contacts_v1/mappings", body))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", rec.Code)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/schemas/import_contacts_v1/mappings", nil))
	if list := decode[[]store.Preset](t, rec); len(list) != 1 || list[0].Name != "CRM" {
		t.Errorf("list = %+v", list)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/schemas/import_contacts_v1/mappings/match?headers=nombre,%20CORREO,Tejado", nil))
	matches := decode[[]importjob.PresetMatch](t, rec)
	if len(matches) != 1 || matches[0].Score != 1 || matches[0].Preset.ID != created.ID {
		t.Errorf("matches = %+v", matches)
	}

	// detecting a matching upload offers the preset
	rec = serve(s, multipartRequest(t, "/api/imports/import_contacts_v1/detect", "contactos.csv", contactsCSV, nil))
	if d := decode[importjob.Detection](t, rec); len(d.Presets) != 1 || d.Presets[0].Preset.Name != "CRM" {
		t.Errorf("detect presets = %+v", d.Presets)
	}

	rec = serve(s, jsonRequest(http.MethodPut, "/api/mappings/"+created.ID, `{"name":"CRM v2","mapping":{"Correo":"email"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/mappings/"+created.ID, nil))
	if got := decode[store.Preset](t, rec); got.Name != "CRM v2" || len(got.Mapping) != 1 {
		t.Errorf("after update = %+v", got)
	}

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/mappings/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/mappings/"+created.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "IMP005" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestPresets_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name     string
		req      *http.Request
		want     int
		wantCode string
	}{
		{"bad json", jsonRequest(http.MethodPost, "/api/schemas/import_contacts_v1/mappings", `{`), http.StatusBadRequest, "ERR000"},
		{"no name", jsonRequest(http.MethodPost, "/api/schemas/import_contacts_v1/mappings", `{"mapping":{"a":"email"}}`), http.StatusBadRequest, "IMP004"},
		{"unknown field", jsonRequest(http.MethodPost, "/api/schemas/import_contacts_v1/mappings", `{"name":"x","mapping":{"a":"phone"}}`), http.StatusBadRequest, "IMP004"},
		{"unknown schema", jsonRequest(http.MethodPost, "/api/schemas/nope/mappings", `{"name":"x","mapping":{"a":"email"}}`), http.StatusNotFound, "IMP001"},
		{"match without headers", httptest.NewRequest(http.MethodGet, "/api/schemas/import_contacts_v1/mappings/match", nil), http.StatusBadRequest, "ERR000"},
		{"update missing", jsonRequest(http.MethodPut, "/api/mappings/8d1f6c36-7a54-4c8e-9a0f-2f6f1c0f9d11", `{"name":"x","mapping":{"a":"email"}}`), http.StatusNotFound, "IMP005"},
		{"delete missing", httptest.NewRequest(http.MethodDelete, "/api/mappings/nope", nil), http.StatusNotFound, "IMP005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if resp := decode[ErrorResponse](t, rec); resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}
