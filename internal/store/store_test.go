package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/solarimport/internal/config"
	"github.com/JonMunkholm/solarimport/internal/importer"
)

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "imports.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) Repository { return openSQLite(t) })
}

// Postgres runs the same suite when a scratch database is provided.
func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("SOLARIMPORT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SOLARIMPORT_TEST_DATABASE_URL not set")
	}
	runRepositoryTests(t, func(t *testing.T) Repository {
		ctx := context.Background()
		repo, err := OpenPostgres(ctx, config.DatabaseConfig{URL: url, MaxConns: 4})
		if err != nil {
			t.Fatalf("OpenPostgres: %v", err)
		}
		if _, err := repo.pool.Exec(ctx, `TRUNCATE import_records, import_jobs, import_presets`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func runRepositoryTests(t *testing.T, open func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		repo := open(t)
		rec := &Record{
			TargetModel: "customers",
			IdentityKey: "ana@example.com",
			Data:        importer.Record{"full_name": "Ana", "email": "ana@example.com"},
		}
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if _, err := uuid.Parse(rec.ID); err != nil {
			t.Errorf("ID = %q, want a uuid", rec.ID)
		}

		got, err := repo.Get(ctx, "customers", rec.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Data["full_name"] != "Ana" || got.IdentityKey != "ana@example.com" {
			t.Errorf("Get = %+v", got)
		}
		if got.CreatedAt.IsZero() {
			t.Error("CreatedAt not stored")
		}

		if _, err := repo.Get(ctx, "projects", rec.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(other model) err = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate identity", func(t *testing.T) {
		repo := open(t)
		first := &Record{TargetModel: "customers", IdentityKey: "k1", Data: importer.Record{"n": 1}}
		if err := repo.Insert(ctx, first); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		dup := &Record{TargetModel: "customers", IdentityKey: "k1"}
		if err := repo.Insert(ctx, dup); !errors.Is(err, ErrDuplicate) {
			t.Errorf("Insert(dup) err = %v, want ErrDuplicate", err)
		}

		// same key under another model is fine
		if err := repo.Insert(ctx, &Record{TargetModel: "leads", IdentityKey: "k1"}); err != nil {
			t.Errorf("Insert(other model) = %v", err)
		}

		// empty identity never collides
		for i := 0; i < 2; i++ {
			if err := repo.Insert(ctx, &Record{TargetModel: "customers"}); err != nil {
				t.Errorf("Insert(no identity) #%d = %v", i, err)
			}
		}
	})

	t.Run("find existing", func(t *testing.T) {
		repo := open(t)
		a := &Record{TargetModel: "stock", IdentityKey: "sku-1"}
		b := &Record{TargetModel: "stock", IdentityKey: "sku-2"}
		for _, r := range []*Record{a, b} {
			if err := repo.Insert(ctx, r); err != nil {
				t.Fatalf("Insert: %v", err)
			}
		}

		found, err := repo.FindExisting(ctx, "stock", []string{"sku-1", "sku-3", "sku-2"})
		if err != nil {
			t.Fatalf("FindExisting: %v", err)
		}
		if len(found) != 2 || found["sku-1"] != a.ID || found["sku-2"] != b.ID {
			t.Errorf("FindExisting = %v", found)
		}

		found, err = repo.FindExisting(ctx, "stock", nil)
		if err != nil || len(found) != 0 {
			t.Errorf("FindExisting(nil) = %v, %v", found, err)
		}
	})

	t.Run("update merges", func(t *testing.T) {
		repo := open(t)
		rec := &Record{
			TargetModel: "stock",
			IdentityKey: "sku-1",
			Data:        importer.Record{"model": "Panel 400W", "price": 120.0},
		}
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		if err := repo.Update(ctx, "stock", rec.ID, importer.Record{"price": 99.5}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := repo.Get(ctx, "stock", rec.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Data["model"] != "Panel 400W" || got.Data["price"] != 99.5 {
			t.Errorf("Data after update = %v", got.Data)
		}

		if err := repo.Update(ctx, "stock", uuid.NewString(), importer.Record{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(missing) err = %v, want ErrNotFound", err)
		}
	})

	t.Run("jobs", func(t *testing.T) {
		repo := open(t)
		base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

		for i, tenant := range []string{"acme", "acme", "solar"} {
			job := &Job{
				ID:         uuid.NewString(),
				TenantID:   tenant,
				SchemaID:   "import_customers_v2",
				FileName:   "clientes.csv",
				Strategy:   importer.StrategySkip,
				Status:     JobCompleted,
				TotalRows:  10,
				Inserted:   i,
				StartedAt:  base.Add(time.Duration(i) * time.Minute),
				FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
			}
			if err := repo.SaveJob(ctx, job); err != nil {
				t.Fatalf("SaveJob: %v", err)
			}
		}

		all, err := repo.ListJobs(ctx, "", 0)
		if err != nil {
			t.Fatalf("ListJobs: %v", err)
		}
		if len(all) != 3 || all[0].TenantID != "solar" || all[0].Inserted != 2 {
			t.Errorf("ListJobs(all) = %+v", all)
		}
		if !all[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
			t.Errorf("StartedAt = %v", all[0].StartedAt)
		}

		acme, err := repo.ListJobs(ctx, "acme", 1)
		if err != nil {
			t.Fatalf("ListJobs(acme): %v", err)
		}
		if len(acme) != 1 || acme[0].Inserted != 1 || acme[0].Strategy != importer.StrategySkip {
			t.Errorf("ListJobs(acme, 1) = %+v", acme)
		}

		// saving again updates in place
		acme[0].Status = JobFailed
		acme[0].Error = "boom"
		if err := repo.SaveJob(ctx, &acme[0]); err != nil {
			t.Fatalf("SaveJob(update): %v", err)
		}
		again, _ := repo.ListJobs(ctx, "acme", 0)
		if len(again) != 2 || again[0].Status != JobFailed || again[0].Error != "boom" {
			t.Errorf("after resave = %+v", again)
		}

		n, err := repo.PruneJobs(ctx, base.Add(90*time.Second))
		if err != nil {
			t.Fatalf("PruneJobs: %v", err)
		}
		if n != 2 {
			t.Errorf("PruneJobs removed %d, want 2", n)
		}
		left, _ := repo.ListJobs(ctx, "", 0)
		if len(left) != 1 || left[0].TenantID != "solar" {
			t.Errorf("after prune = %+v", left)
		}
	})

	t.Run("presets", func(t *testing.T) {
		repo := open(t)
		p := &Preset{
			SchemaID: "import_leads_v1",
			Name:     "CRM export",
			Mapping:  importer.Mapping{"Nombre": "name", "Tejado": "custom_attributes.tejado"},
			Headers:  []string{"Nombre", "Tejado"},
		}
		if err := repo.SavePreset(ctx, p); err != nil {
			t.Fatalf("SavePreset: %v", err)
		}
		if _, err := uuid.Parse(p.ID); err != nil {
			t.Errorf("ID = %q, want a uuid", p.ID)
		}

		got, err := repo.GetPreset(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetPreset: %v", err)
		}
		if got.Name != "CRM export" || got.Mapping["Tejado"] != "custom_attributes.tejado" || len(got.Headers) != 2 {
			t.Errorf("GetPreset = %+v", got)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Error("timestamps not stored")
		}

		// names are unique per schema only
		dup := &Preset{SchemaID: "import_leads_v1", Name: "CRM export", Mapping: importer.Mapping{}}
		if err := repo.SavePreset(ctx, dup); !errors.Is(err, ErrDuplicate) {
			t.Errorf("SavePreset(dup) err = %v, want ErrDuplicate", err)
		}
		other := &Preset{SchemaID: "import_customers_v2", Name: "CRM export", Mapping: importer.Mapping{}}
		if err := repo.SavePreset(ctx, other); err != nil {
			t.Errorf("SavePreset(other schema) = %v", err)
		}
		early := &Preset{SchemaID: "import_leads_v1", Name: "Alta manual", Mapping: importer.Mapping{"x": "-"}}
		if err := repo.SavePreset(ctx, early); err != nil {
			t.Fatalf("SavePreset: %v", err)
		}

		list, err := repo.ListPresets(ctx, "import_leads_v1")
		if err != nil {
			t.Fatalf("ListPresets: %v", err)
		}
		if len(list) != 2 || list[0].Name != "Alta manual" || list[1].Name != "CRM export" {
			t.Errorf("ListPresets = %+v", list)
		}

		p.Name = "CRM export v2"
		p.Mapping = importer.Mapping{"Nombre": "name"}
		if err := repo.SavePreset(ctx, p); err != nil {
			t.Fatalf("SavePreset(update): %v", err)
		}
		got, _ = repo.GetPreset(ctx, p.ID)
		if got.Name != "CRM export v2" || len(got.Mapping) != 1 {
			t.Errorf("after update = %+v", got)
		}

		missing := &Preset{ID: uuid.NewString(), SchemaID: "import_leads_v1", Name: "x"}
		if err := repo.SavePreset(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("SavePreset(missing) err = %v, want ErrNotFound", err)
		}

		if err := repo.DeletePreset(ctx, p.ID); err != nil {
			t.Fatalf("DeletePreset: %v", err)
		}
		if _, err := repo.GetPreset(ctx, p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetPreset(deleted) err = %v, want ErrNotFound", err)
		}
		if err := repo.DeletePreset(ctx, p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeletePreset(again) err = %v, want ErrNotFound", err)
		}
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Error("Open(mysql) succeeded")
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")
	repo, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", URL: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestMergeData(t *testing.T) {
	prev := importer.Record{"a": 1, "b": 2}
	got := mergeData(prev, importer.Record{"b": 3, "c": 4})
	if got["a"] != 1 || got["b"] != 3 || got["c"] != 4 {
		t.Errorf("mergeData = %v", got)
	}
	if prev["b"] != 2 {
		t.Error("mergeData modified its input")
	}
}
