package importer

import (
	"errors"
	"strings"
	"testing"
)

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Schema)
		wantErr string
	}{
		{name: "valid", mutate: func(*Schema) {}},
		{
			name:    "missing id",
			mutate:  func(s *Schema) { s.ID = "" },
			wantErr: "id is required",
		},
		{
			name:    "duplicate key",
			mutate:  func(s *Schema) { s.Fields = append(s.Fields, Field{Key: "email"}) },
			wantErr: `duplicate field key "email"`,
		},
		{
			name:    "alias collides with other field",
			mutate:  func(s *Schema) { s.Fields[2].Aliases = append(s.Fields[2].Aliases, "Córreo") },
			wantErr: `name "Córreo" already used by field "email"`,
		},
		{
			name:    "alias collides with other key",
			mutate:  func(s *Schema) { s.Fields[0].Aliases = append(s.Fields[0].Aliases, "EMAIL") },
			wantErr: "already used by field",
		},
		{
			name:    "select without options",
			mutate:  func(s *Schema) { s.Fields[3].Options = nil },
			wantErr: "select field without options",
		},
		{
			name:    "unknown type",
			mutate:  func(s *Schema) { s.Fields[0].Type = "blob" },
			wantErr: `unknown type "blob"`,
		},
		{
			name:    "unknown identity field",
			mutate:  func(s *Schema) { s.IdentityFields = []string{"dni"} },
			wantErr: `identity field "dni"`,
		},
		{
			name:    "unknown strategy",
			mutate:  func(s *Schema) { s.DefaultDuplicateStrategy = "merge" },
			wantErr: "unknown duplicate strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSchema()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaIdentityKey(t *testing.T) {
	s := testSchema()
	s.IdentityFields = []string{"email", "phone"}

	tests := []struct {
		rec  Record
		want string
	}{
		{Record{"email": " Ana@Example.com ", "phone": "611"}, "ana@example.com|611"},
		{Record{"email": "ana@example.com"}, "ana@example.com|"},
		{Record{"full_name": "Ana"}, ""},
	}
	for _, tt := range tests {
		if got := s.IdentityKey(tt.rec); got != tt.want {
			t.Errorf("IdentityKey(%v) = %q, want %q", tt.rec, got, tt.want)
		}
	}

	s.IdentityFields = nil
	if got := s.IdentityKey(Record{"email": "a@b.c"}); got != "" {
		t.Errorf("IdentityKey without identity fields = %q", got)
	}
}

func TestParseDuplicateStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    DuplicateStrategy
		wantErr bool
	}{
		{"", "", false},
		{"skip", StrategySkip, false},
		{" UPDATE ", StrategyUpdate, false},
		{"ask", StrategyAsk, false},
		{"merge", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDuplicateStrategy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDuplicateStrategy(%q) = %q, %v", tt.in, got, err)
		}
	}

	if got := testSchema().Strategy(); got != StrategySkip {
		t.Errorf("default Strategy() = %q, want skip", got)
	}
}

// ----------------------------------------------------------------------------
// Registry
// ----------------------------------------------------------------------------

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	v1 := testSchema()
	v1.ID = "import_contacts_v1"
	v2 := testSchema()
	v2.ID = "import_contacts_v2"
	other := testSchema()
	other.ID = "import_leads_v1"
	other.TargetModel = "leads"

	r.Register(v2)
	r.Register(v1)
	r.Register(other)

	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}

	if s, ok := r.Get("import_contacts_v1"); !ok || s != v1 {
		t.Errorf("Get(v1) = %v, %v", s, ok)
	}
	if s, ok := r.ByTargetModel("contacts"); !ok || s.ID != "import_contacts_v2" {
		t.Errorf("ByTargetModel(contacts) = %v, %v", s, ok)
	}
	if _, ok := r.ByTargetModel("invoices"); ok {
		t.Error("ByTargetModel(invoices) found a schema")
	}

	all := r.All()
	var ids []string
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != "import_contacts_v1,import_contacts_v2,import_leads_v1" {
		t.Errorf("All() ids = %v", ids)
	}

	if _, err := r.Lookup("nope"); !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("Lookup(nope) err = %v, want ErrSchemaNotFound", err)
	}
}

func TestNewerSchema(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"import_customers_v10", "import_customers_v2", true},
		{"import_customers_v2", "import_customers_v10", false},
		{"import_customers_v2", "import_customers_v1", true},
		{"import_customers_v1", "import_customers", true},
		{"import_customers_vx", "import_customers_v1", false},
		{"import_b_v1", "import_a_v1", true},
	}

	for _, tt := range tests {
		if got := newerSchema(tt.a, tt.b); got != tt.want {
			t.Errorf("newerSchema(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegistry_ByTargetModelComparesVersionNumbers(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"import_contacts_v2", "import_contacts_v10", "import_contacts_v9"} {
		s := testSchema()
		s.ID = id
		r.Register(s)
	}
	if s, ok := r.ByTargetModel("contacts"); !ok || s.ID != "import_contacts_v10" {
		t.Errorf("ByTargetModel(contacts) = %v, %v, want import_contacts_v10", s, ok)
	}
}

func TestRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	r := NewRegistry()
	r.Register(testSchema())

	if err := r.Add(testSchema()); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("Add(duplicate) err = %v", err)
	}

	bad := testSchema()
	bad.ID = "bad"
	bad.Fields[0].Aliases = []string{"correo"}
	if err := r.Add(bad); err == nil {
		t.Error("Add(alias collision) succeeded")
	}

	if err := r.Add(nil); err == nil {
		t.Error("Add(nil) succeeded")
	}

	defer func() {
		if recover() == nil {
			t.Error("Register(duplicate) did not panic")
		}
	}()
	r.Register(testSchema())
}
