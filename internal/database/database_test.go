package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bakeplan/bakeplan/internal/config"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   int
	}{
		{"Single statement", "CREATE TABLE a (id TEXT);", 1},
		{"Two statements", "CREATE TABLE a (id TEXT);\nCREATE TABLE b (id TEXT);", 2},
		{"Semicolon inside string", "INSERT INTO a VALUES ('x;y');", 1},
		{"Semicolon inside comment", "-- drop a; drop b\nCREATE TABLE a (id TEXT);", 1},
		{"Comment only", "-- nothing here\n-- still nothing", 0},
		{"Trailing statement without semicolon", "CREATE TABLE a (id TEXT); SELECT 1", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.script)
			if len(got) != tt.want {
				t.Errorf("expected %d statements, got %d: %q", tt.want, len(got), got)
			}
		})
	}
}

func TestParseMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	up, down := parseMigration(content)
	if up != "CREATE TABLE a (id TEXT);" {
		t.Errorf("unexpected up SQL %q", up)
	}
	if down != "DROP TABLE a;" {
		t.Errorf("unexpected down SQL %q", down)
	}

	up, down = parseMigration("CREATE TABLE b (id TEXT);")
	if up != "CREATE TABLE b (id TEXT);" || down != "" {
		t.Errorf("markerless migration parsed as up=%q down=%q", up, down)
	}
}

func TestMigrator_UpAndDown(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	m, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("failed to create migrator: %v", err)
	}

	result, err := m.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("migrate up failed: %v", err)
	}
	if len(result.Applied) != 3 || result.TargetVersion != 3 {
		t.Fatalf("expected 3 migrations applied to version 3, got %d to %d",
			len(result.Applied), result.TargetVersion)
	}

	// Idempotent.
	result, err = m.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}
	if len(result.Applied) != 0 {
		t.Errorf("expected no migrations on second run, got %d", len(result.Applied))
	}

	for _, table := range []string{"inventory_items", "compositions", "production_consumptions"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}

	result, err = m.MigrateDown(ctx)
	if err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	if result.TargetVersion != 2 {
		t.Errorf("expected version 2 after rollback, got %d", result.TargetVersion)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name='events'").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Error("expected events table dropped after rollback")
	}

	status, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if len(status) != 3 || !status[0].Applied || !status[1].Applied || status[2].Applied {
		t.Errorf("unexpected status after rollback: %+v", status)
	}
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.Exec("CREATE TABLE t (v TEXT)"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO t VALUES ('a')"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM t").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback, found %d rows", count)
	}

	db.Close()
	if err := db.WithTransaction(ctx, func(*sql.Tx) error { return nil }); err == nil {
		t.Error("expected error on closed database")
	}
}

func TestOpen_BackupAndStats(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	if err := os.MkdirAll(backupDir, 0750); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	db, err := Open(filepath.Join(dir, "bakeplan.db"), &config.DatabaseConfig{}, backupDir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	m, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("migrator failed: %v", err)
	}
	if _, err := m.MigrateUp(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	path, err := db.Backup(ctx)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), backupPrefix) {
		t.Errorf("backup %s missing prefix", path)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.SchemaVersion != 3 {
		t.Errorf("expected schema version 3, got %d", stats.SchemaVersion)
	}
	if strings.ToLower(stats.JournalMode) != "wal" {
		t.Errorf("expected WAL journal mode, got %s", stats.JournalMode)
	}
	if stats.LastBackup.IsZero() {
		t.Error("expected last backup time")
	}
}

func TestListBackups_NewestFirstAndFiltered(t *testing.T) {
	dir := t.TempDir()
	files := map[string]time.Time{
		"bakeplan-20240101-000000.db": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"bakeplan-20240301-000000.db": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"other.db":                    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"bakeplan-notes.txt":          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for name, mod := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes failed: %v", err)
		}
	}

	backups, err := listBackups(dir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if filepath.Base(backups[0].path) != "bakeplan-20240301-000000.db" {
		t.Errorf("expected newest first, got %s", backups[0].path)
	}
}

func TestAttemptRecovery(t *testing.T) {
	t.Run("Missing file is healthy", func(t *testing.T) {
		report, err := AttemptRecovery(filepath.Join(t.TempDir(), "none.db"), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Result != RecoveryHealthy {
			t.Errorf("expected healthy, got %s", report.Result)
		}
	})

	t.Run("Valid file is healthy", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bakeplan.db")
		db, err := Open(path, &config.DatabaseConfig{}, "")
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if _, err := db.Exec("CREATE TABLE t (v TEXT)"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		db.Close()

		report, err := AttemptRecovery(path, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Result != RecoveryHealthy {
			t.Errorf("expected healthy, got %s", report.Result)
		}
	})

	t.Run("Garbage file with no backups fails", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bakeplan.db")
		if err := os.WriteFile(path, []byte(strings.Repeat("not a database ", 512)), 0600); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		report, err := AttemptRecovery(path, dir)
		if err == nil {
			t.Fatal("expected recovery failure")
		}
		if report.Result != RecoveryFailed {
			t.Errorf("expected failed, got %s", report.Result)
		}
	})
}
