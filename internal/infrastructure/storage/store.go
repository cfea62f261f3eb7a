// Package storage persists the post queue and the sent-article history in an
// embedded SQLite database. Every operation runs as a short auto-committing
// statement; status transitions carry their guard in the WHERE clause.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle shared by the queue, moderation, and history
// operations. It is the sole writer of post statuses and timestamps.
type Store struct {
	db     *sql.DB
	sq     sq.StatementBuilderType
	now    func() time.Time
	logger *slog.Logger
}

// Open creates or opens the database at path and applies pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("missing database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &Store{
		db:     db,
		sq:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now:    time.Now,
		logger: logger,
	}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the handle is still usable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func timeToUnix(value time.Time) int64 {
	return value.Unix()
}

func timePtrToUnix(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.Unix()
}

func timeFromUnix(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := time.Unix(value.Int64, 0).UTC()
	return &t
}
