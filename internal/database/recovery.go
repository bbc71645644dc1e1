package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RecoveryResult indicates the outcome of a recovery attempt.
type RecoveryResult int

const (
	// RecoveryHealthy means the database was fine or did not exist yet.
	RecoveryHealthy RecoveryResult = iota
	// RecoveryWALReplayed means a checkpoint of the WAL repaired the file.
	RecoveryWALReplayed
	// RecoveryFromBackup means the newest good backup replaced the file.
	RecoveryFromBackup
	// RecoveryFailed means all recovery attempts failed.
	RecoveryFailed
)

func (r RecoveryResult) String() string {
	switch r {
	case RecoveryHealthy:
		return "healthy"
	case RecoveryWALReplayed:
		return "wal_replayed"
	case RecoveryFromBackup:
		return "restored_from_backup"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryReport contains details about a recovery attempt.
type RecoveryReport struct {
	Result       RecoveryResult
	DatabasePath string
	BackupUsed   string
	Steps        []RecoveryStep
}

// RecoveryStep is a single phase of the recovery process.
type RecoveryStep struct {
	Name      string
	Succeeded bool
	Message   string
	Duration  time.Duration
}

// AttemptRecovery checks the database file before it is opened for use and
// repairs it if it can: integrity check, then WAL checkpoint, then restore
// from the newest backup that passes its own integrity check.
func AttemptRecovery(dbPath, backupDir string) (*RecoveryReport, error) {
	report := &RecoveryReport{DatabasePath: dbPath}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		report.Result = RecoveryHealthy
		report.record("check_exists", func() (string, error) {
			return "database does not exist (first run)", nil
		})
		return report, nil
	}

	if report.record("integrity_check", func() (string, error) {
		return "ok", checkFileIntegrity(dbPath)
	}) {
		report.Result = RecoveryHealthy
		return report, nil
	}
	slog.Warn("database integrity check failed", "path", dbPath)

	if _, err := os.Stat(dbPath + "-wal"); err == nil {
		replayed := report.record("wal_checkpoint", func() (string, error) {
			return "checkpoint complete", checkpointFile(dbPath)
		})
		if replayed && report.record("post_wal_integrity", func() (string, error) {
			return "ok", checkFileIntegrity(dbPath)
		}) {
			report.Result = RecoveryWALReplayed
			slog.Info("database recovered via WAL checkpoint", "path", dbPath)
			return report, nil
		}
	}

	if backupDir != "" {
		var used string
		if report.record("backup_restore", func() (string, error) {
			var err error
			used, err = restoreNewestBackup(dbPath, backupDir)
			return used, err
		}) {
			report.Result = RecoveryFromBackup
			report.BackupUsed = used
			slog.Info("database restored from backup", "path", dbPath, "backup", used)
			return report, nil
		}
	}

	report.Result = RecoveryFailed
	slog.Error("database recovery failed", "path", dbPath, "steps", len(report.Steps))
	return report, errors.New("all recovery attempts failed")
}

// record runs one step, appends it to the report and returns whether it succeeded.
func (r *RecoveryReport) record(name string, fn func() (string, error)) bool {
	start := time.Now()
	msg, err := fn()
	step := RecoveryStep{Name: name, Duration: time.Since(start), Succeeded: err == nil, Message: msg}
	if err != nil {
		step.Message = err.Error()
	}
	r.Steps = append(r.Steps, step)
	return step.Succeeded
}

func checkFileIntegrity(dbPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return integrityCheck(ctx, db)
}

func checkpointFile(dbPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate", dbPath))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}

type backupFile struct {
	path    string
	modTime time.Time
}

// listBackups returns bakeplan backups in dir, newest first.
func listBackups(dir string) ([]backupFile, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []backupFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})
	return backups, nil
}

// restoreNewestBackup replaces dbPath with the newest backup that passes an
// integrity check. The damaged file is kept alongside with a .corrupted suffix.
func restoreNewestBackup(dbPath, backupDir string) (string, error) {
	backups, err := listBackups(backupDir)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", errors.New("no backup files found")
	}

	for _, b := range backups {
		if err := checkFileIntegrity(b.path); err != nil {
			slog.Debug("skipping damaged backup", "path", b.path, "error", err)
			continue
		}

		corrupted := dbPath + ".corrupted." + time.Now().Format("20060102-150405")
		if err := os.Rename(dbPath, corrupted); err != nil {
			slog.Warn("failed to preserve corrupted database", "path", dbPath, "error", err)
		}
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")

		if err := copyFile(b.path, dbPath); err != nil {
			return "", fmt.Errorf("copying backup: %w", err)
		}
		return b.path, nil
	}

	return "", errors.New("no valid backup found")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return out.Sync()
}
