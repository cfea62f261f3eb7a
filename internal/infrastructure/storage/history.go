package storage

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsPlanner/internal/dedup"
	"NewsPlanner/internal/domain"
)

// MarkSent records an article as published so later runs skip it. The link is
// unique; marking the same article twice is a no-op and reports false.
func (s *Store) MarkSent(article domain.Article, score int, category string) (bool, error) {
	query, args, err := s.sq.Insert("sent_articles").
		Options("OR IGNORE").
		Columns("article_link", "title", "title_normalized", "url_normalized",
			"relevance_score", "category", "status", "sent_at").
		Values(article.Link, article.Title, dedup.NormalizeTitle(article.Title),
			dedup.NormalizeURL(article.Link), score, category,
			string(domain.StatusPublished), timeToUnix(s.now())).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("mark sent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsSent reports whether the link is already in the history.
func (s *Store) IsSent(link string) (bool, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT id FROM sent_articles WHERE article_link = ?`, link,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup sent: %w", err)
	}
	return true, nil
}

// FilterUnsent keeps only the articles whose link has no history record,
// preserving input order.
func (s *Store) FilterUnsent(articles []domain.Article) ([]domain.Article, error) {
	unsent := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		sent, err := s.IsSent(a.Link)
		if err != nil {
			return nil, err
		}
		if !sent {
			unsent = append(unsent, a)
		}
	}
	return unsent, nil
}

// RecentTitles returns raw titles sent within the window, newest first. It
// seeds the in-memory duplicate detector on startup.
func (s *Store) RecentTitles(days int, limit uint64) ([]string, error) {
	cutoff := s.now().AddDate(0, 0, -days)
	query, args, err := s.sq.Select("title").
		From("sent_articles").
		Where(sq.And{
			sq.GtOrEq{"sent_at": timeToUnix(cutoff)},
			sq.NotEq{"title": ""},
		}).
		OrderBy("sent_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title sql.NullString
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		if title.String != "" {
			titles = append(titles, title.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}
	return titles, nil
}

// CleanupHistory removes history records older than the cutoff.
func (s *Store) CleanupHistory(olderThanDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	query, args, err := s.sq.Delete("sent_articles").
		Where(sq.Lt{"sent_at": timeToUnix(cutoff)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	return s.execAffected(query, args, "old history removed")
}

// HistoryStats summarizes the sent-article ledger.
type HistoryStats struct {
	Total      int
	SentToday  int
	ByCategory map[string]int
}

// History aggregates sent-article counters for monitoring.
func (s *Store) History() (HistoryStats, error) {
	stats := HistoryStats{ByCategory: make(map[string]int)}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sent_articles`).Scan(&stats.Total); err != nil {
		return HistoryStats{}, fmt.Errorf("history total: %w", err)
	}

	midnight := startOfDay(s.now())
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sent_articles WHERE sent_at >= ?`,
		timeToUnix(midnight),
	).Scan(&stats.SentToday); err != nil {
		return HistoryStats{}, fmt.Errorf("history today: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT COALESCE(category, ''), COUNT(*) FROM sent_articles GROUP BY category`,
	)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("history categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return HistoryStats{}, fmt.Errorf("scan category: %w", err)
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return HistoryStats{}, fmt.Errorf("iterate categories: %w", err)
	}
	return stats, nil
}
