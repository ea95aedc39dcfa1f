package repository

import (
	"testing"
	"testing/fstest"

	"github.com/mailtriage/mailtriage/migrations"
)

func TestLoadMigrations_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("CREATE TABLE b ();")},
		"000002_b.down.sql": {Data: []byte("DROP TABLE b;")},
		"000001_a.up.sql":   {Data: []byte("CREATE TABLE a ();")},
		"README.md":         {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("LoadMigrations failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(got))
	}
	if got[0].Version != "000001" || got[1].Version != "000002" {
		t.Errorf("unexpected order: %s, %s", got[0].Version, got[1].Version)
	}
	if got[0].Down != "" {
		t.Errorf("expected empty down for 000001, got %q", got[0].Down)
	}
	if got[1].Down != "DROP TABLE b;" {
		t.Errorf("unexpected down for 000002: %q", got[1].Down)
	}
}

func TestLoadMigrations_MissingUp(t *testing.T) {
	fsys := fstest.MapFS{
		"000003_c.down.sql": {Data: []byte("DROP TABLE c;")},
	}

	if _, err := LoadMigrations(fsys); err == nil {
		t.Error("expected error for migration without up file")
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	got, err := LoadMigrations(migrations.FS)
	if err != nil {
		t.Fatalf("LoadMigrations failed: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected embedded migrations, got %d", len(got))
	}
	for _, m := range got {
		if m.Down == "" {
			t.Errorf("migration %s has no down file", m.Version)
		}
	}
}
