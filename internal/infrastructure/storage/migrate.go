package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// migration is one versioned schema step. Versions apply once, in order, and
// are recorded in schema_migrations; normal read/write paths never probe the
// schema.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "sent_articles",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS sent_articles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				article_link TEXT UNIQUE NOT NULL,
				title TEXT,
				title_normalized TEXT,
				url_normalized TEXT,
				relevance_score INTEGER DEFAULT 0,
				category TEXT,
				status TEXT DEFAULT 'published',
				sent_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sent_articles_link ON sent_articles(article_link)`,
			`CREATE INDEX IF NOT EXISTS idx_sent_articles_sent_at ON sent_articles(sent_at)`,
		},
	},
	{
		version: 2,
		name:    "post_queue",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS post_queue (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				article_url TEXT,
				article_title TEXT,
				post_text TEXT NOT NULL,
				image_url TEXT,
				image_prompt TEXT,
				rubric TEXT DEFAULT 'ai_news',
				hashtags TEXT,
				scheduled_at INTEGER,
				published_at INTEGER,
				status TEXT NOT NULL DEFAULT 'pending',
				created_at INTEGER NOT NULL,
				error_message TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_post_queue_status ON post_queue(status)`,
			`CREATE INDEX IF NOT EXISTS idx_post_queue_scheduled ON post_queue(scheduled_at)`,
		},
	},
	{
		version: 3,
		name:    "moderation_columns",
		stmts: []string{
			`ALTER TABLE post_queue ADD COLUMN approved_at INTEGER`,
			`ALTER TABLE post_queue ADD COLUMN approved_by TEXT`,
			`ALTER TABLE post_queue ADD COLUMN rejection_reason TEXT`,
		},
	},
}

// migrate applies all pending migrations inside transactions.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migration ledger: %w", err)
	}

	current, err := s.currentVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		s.info("applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

func (s *Store) currentVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}

func (s *Store) apply(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, timeToUnix(s.now()),
	); err != nil {
		return err
	}
	return tx.Commit()
}
