package importer

import "testing"

func TestFoldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Teléfono", "telefono"},
		{"  MÓVIL ", "movil"},
		{"Año", "ano"},
		{"email", "email"},
	}
	for _, tt := range tests {
		if got := FoldName(tt.in); got != tt.want {
			t.Errorf("FoldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Teléfono (móvil)", "telefono_movil"},
		{"Nombre completo", "nombre_completo"},
		{"  E-mail  ", "e_mail"},
		{"full_name", "full_name"},
		{"Código Postal #2", "codigo_postal_2"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := NormalizeColumnName(tt.in); got != tt.want {
			t.Errorf("NormalizeColumnName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
