package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gridops/logsweep/internal/sweep"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Journal is the optional SQLite audit trail of reclamation runs.
type Journal struct {
	db *sql.DB
}

// Run is one recorded reclamation run.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Verdict        string
	FreeBefore     int64
	FreeAfter      int64
	FilesDeleted   int
	FilesSkipped   int
	BytesReclaimed int64
}

// Open opens (or creates) the journal database at path and applies pending
// schema migrations.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare journal migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to init journal migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRun persists a finished run and its deletions. It returns the
// generated run id.
func (j *Journal) RecordRun(ctx context.Context, started, finished time.Time, report *sweep.Report) (string, error) {
	id := uuid.NewString()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, verdict, free_before,
			free_after, files_deleted, files_skipped, bytes_reclaimed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, started.UTC(), finished.UTC(), report.Verdict.String(),
		report.FreeBefore, report.FreeAfter,
		report.Deleted, report.Skipped, report.BytesReclaimed)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	for _, c := range report.Deletions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deletions (run_id, rule, path, size, mtime)
			VALUES (?, ?, ?, ?, ?)`,
			id, c.Rule, c.File.Path, c.File.Size, c.File.ModTime.UTC())
		if err != nil {
			return "", fmt.Errorf("failed to record deletion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit journal transaction: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, verdict, free_before, free_after,
			files_deleted, files_skipped, bytes_reclaimed
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Verdict,
			&r.FreeBefore, &r.FreeAfter,
			&r.FilesDeleted, &r.FilesSkipped, &r.BytesReclaimed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
