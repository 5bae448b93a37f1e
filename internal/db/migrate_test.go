package db_test

import (
	"context"
	"testing"
	"testing/fstest"

	dbfs "github.com/garnizeh/showcase/db"
	"github.com/garnizeh/showcase/internal/db"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("scan schema_migrations count: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least 1 migration recorded, got %d", count)
	}

	for _, table := range []string{"projects", "blog_posts", "services", "team_members", "admin_users", "contact_submissions", "company_info", "seo_metadata", "analytics_events", "jobs", "dead_letter_jobs"} {
		var name string
		if err := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Fatalf("expected %s table exists: %v", table, err)
		}
	}

	// seeds run on every start without duplicating rows
	var keys int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM company_info WHERE key = 'company_name'`).Scan(&keys); err != nil {
		t.Fatalf("count seeded keys: %v", err)
	}
	if keys != 1 {
		t.Fatalf("expected one seeded company_name, got %d", keys)
	}
}

func TestMigrate_SeedKeepsEditedValues(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := d.Exec(ctx, `UPDATE company_info SET value = 'Acme' WHERE key = 'company_name'`); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	var v string
	if err := d.QueryRow(ctx, `SELECT value FROM company_info WHERE key = 'company_name'`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "Acme" {
		t.Fatalf("seed overwrote edited value: %q", v)
	}
}

func TestMigrate_FailedMigrationNotRecorded(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	bad := fstest.MapFS{"migrations/0001_bad.sql": {Data: []byte(`CREATE TABLE broken (`)}}
	if err := db.Migrate(ctx, d, bad, nil); err == nil {
		t.Fatalf("expected migration error")
	}

	var count int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed migration was recorded")
	}
}
