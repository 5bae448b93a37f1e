package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	dbpkg "github.com/garnizeh/showcase/internal/db"
)

func TestNew_Close_GetConn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d, err := dbpkg.New(ctx, "file::memory:?cache=shared", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if d.GetConn() == nil {
		t.Fatalf("expected non-nil sql.DB from GetConn")
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestExec_QueryRow_QueryRows(t *testing.T) {
	ctx := context.Background()
	d, err := dbpkg.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(ctx, `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`); err != nil {
		t.Fatalf("Exec create table returned error: %v", err)
	}

	res, err := d.Exec(ctx, `INSERT INTO items (name) VALUES (?), (?)`, "foo", "bar")
	if err != nil {
		t.Fatalf("Exec insert returned error: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 2 {
		t.Fatalf("expected 2 rows affected, got %d", n)
	}

	var name string
	if err := d.QueryRow(ctx, `SELECT name FROM items WHERE id = 1`).Scan(&name); err != nil {
		t.Fatalf("QueryRow scan returned error: %v", err)
	}
	if name != "foo" {
		t.Fatalf("expected name 'foo' got %q", name)
	}

	rows, err := d.QueryRows(ctx, `SELECT name FROM items ORDER BY id`)
	if err != nil {
		t.Fatalf("QueryRows returned error: %v", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names = append(names, n)
	}
	if len(names) != 2 || names[1] != "bar" {
		t.Fatalf("unexpected rows: %v", names)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	ctx := context.Background()
	d, err := dbpkg.New(ctx, filepath.Join(t.TempDir(), "fk.db"), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	var on int
	if err := d.QueryRow(ctx, `PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if on != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", on)
	}

	var mode string
	if err := d.QueryRow(ctx, `PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", mode)
	}
}

func TestNew_BadDSN(t *testing.T) {
	_, err := dbpkg.New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"), nil)
	if err == nil {
		t.Fatalf("expected error for unreachable path, got nil")
	}
}
