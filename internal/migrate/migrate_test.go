package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

func TestRun_EmbeddedCreatesSnapshots(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := Run(ctx, db, nil); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	cols := map[string]bool{}
	rows, err := db.Query(`SELECT name FROM pragma_table_info('snapshots')`)
	if err != nil {
		t.Fatalf("table info: %v", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols[name] = true
	}
	for _, want := range []string{"id", "sensor_index", "aqi", "trend", "fetched_at", "avg_10min", "missing_fields"} {
		if !cols[want] {
			t.Errorf("snapshots is missing column %q", want)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := Run(ctx, db, nil); err != nil {
		t.Fatalf("first Run() = %v", err)
	}
	if err := Run(ctx, db, nil); err != nil {
		t.Fatalf("second Run() = %v", err)
	}
	pending, err := Pending(ctx, db, nil)
	if err != nil {
		t.Fatalf("Pending() = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Pending() = %v; want none after Run", pending)
	}
}

func TestRun_OrdersByVersionAndSkipsOtherFiles(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"sql/0002_second.sql": {Data: []byte(`INSERT INTO t (v) VALUES (2);`)},
		"sql/0001_first.sql":  {Data: []byte(`CREATE TABLE t (v INTEGER); INSERT INTO t (v) VALUES (1);`)},
		"sql/README.md":       {Data: []byte(`not a migration`)},
		"sql/12_short.sql":    {Data: []byte(`SELECT nonsense FROM nowhere;`)},
	}

	if err := run(context.Background(), db, fsys, nil); err != nil {
		t.Fatalf("run() = %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("rows = %d; want 2", n)
	}
	var versions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if versions != 2 {
		t.Errorf("schema_migrations rows = %d; want 2", versions)
	}
}

func TestRun_FailedMigrationIsNotRecorded(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"sql/0001_ok.sql":     {Data: []byte(`CREATE TABLE t (v INTEGER);`)},
		"sql/0002_broken.sql": {Data: []byte(`INSERT INTO missing (v) VALUES (1);`)},
	}

	if err := run(context.Background(), db, fsys, nil); err == nil {
		t.Fatal("run() = nil; want error from broken migration")
	}
	pending, err := Pending(context.Background(), db, fsys)
	if err != nil {
		t.Fatalf("Pending() = %v", err)
	}
	if len(pending) != 1 || pending[0].Version != "0002" {
		t.Errorf("Pending() = %+v; want only 0002", pending)
	}
}

func TestRun_MissingDir(t *testing.T) {
	db := openMemory(t)
	if err := run(context.Background(), db, fstest.MapFS{}, nil); err == nil {
		t.Fatal("run() with no sql dir = nil; want error")
	}
}
