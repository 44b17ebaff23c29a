// Package sqlite provides a SQLite-backed ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dreamware/dailyword/internal/storage"
	"github.com/dreamware/dailyword/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const migrationTable = "schema_migrations"

// Store persists the daily word ledger in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.LedgerStore = (*Store)(nil)

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns every recorded day.
func (s *Store) Load(ctx context.Context) (storage.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, storage.ErrStoreClosed
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT day, word FROM daily_words`)
	if err != nil {
		return nil, fmt.Errorf("query daily words: %w", err)
	}
	defer rows.Close()

	ledger := make(storage.Ledger)
	for rows.Next() {
		var day, word string
		if err := rows.Scan(&day, &word); err != nil {
			return nil, fmt.Errorf("scan daily word: %w", err)
		}
		ledger[day] = word
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily words: %w", err)
	}
	return ledger, nil
}

// Save replaces the recorded days inside one transaction.
// Days already present keep their original assigned_at.
func (s *Store) Save(ctx context.Context, ledger storage.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ErrStoreClosed
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing := make(map[string]struct{})
	rows, err := tx.QueryContext(ctx, `SELECT day FROM daily_words`)
	if err != nil {
		return fmt.Errorf("query days: %w", err)
	}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan day: %w", err)
		}
		existing[day] = struct{}{}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close day rows: %w", err)
	}

	for day := range existing {
		if _, keep := ledger[day]; keep {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_words WHERE day = ?`, day); err != nil {
			return fmt.Errorf("delete day %s: %w", day, err)
		}
	}

	now := time.Now().UTC().UnixMilli()
	for _, day := range ledger.Days() {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO daily_words (day, word, assigned_at) VALUES (?, ?, ?)
			 ON CONFLICT(day) DO UPDATE SET word = excluded.word`,
			day,
			ledger[day],
			now,
		); err != nil {
			return fmt.Errorf("upsert day %s: %w", day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}

// applyMigrations executes each embedded migration at most once.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := sqlDB.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, file).Scan(&found)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upSection(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			file,
			time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// upSection returns the SQL between "-- +migrate Up" and "-- +migrate Down".
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, up)
	if start == -1 {
		return content
	}
	content = content[start+len(up):]
	if end := strings.Index(content, down); end != -1 {
		content = content[:end]
	}
	return content
}
