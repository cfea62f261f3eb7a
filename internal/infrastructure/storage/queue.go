package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsPlanner/internal/domain"
	"NewsPlanner/internal/schedule"
)

// postColumns is the select list shared by every post query, in scan order.
var postColumns = []string{
	"id", "article_url", "article_title", "post_text", "image_url",
	"image_prompt", "rubric", "hashtags", "scheduled_at", "published_at",
	"status", "created_at", "error_message", "approved_at", "approved_by",
	"rejection_reason",
}

// nonTerminal guards transitions that are legal from any live state.
var nonTerminal = sq.NotEq{"status": []string{
	string(domain.StatusPublished),
	string(domain.StatusRejected),
	string(domain.StatusFailed),
}}

// AddPost inserts a new post with status pending. Deduplication is the
// caller's responsibility; the queue accepts whatever it is given.
func (s *Store) AddPost(d domain.Draft, scheduledAt *time.Time) (int64, error) {
	return s.insertPost(d, scheduledAt, domain.StatusPending)
}

// AddDraft inserts a new post with status draft, the entry point of the
// moderation workflow.
func (s *Store) AddDraft(d domain.Draft) (int64, error) {
	return s.insertPost(d, nil, domain.StatusDraft)
}

func (s *Store) insertPost(d domain.Draft, scheduledAt *time.Time, status domain.Status) (int64, error) {
	rubric := d.Rubric
	if !rubric.Valid() {
		rubric = domain.DefaultRubric
	}

	query, args, err := s.sq.Insert("post_queue").
		Columns("article_url", "article_title", "post_text", "image_url",
			"image_prompt", "rubric", "hashtags", "scheduled_at", "status", "created_at").
		Values(d.ArticleURL, d.ArticleTitle, d.Text, d.ImageRef,
			d.ImagePrompt, string(rubric), d.Hashtags, timePtrToUnix(scheduledAt),
			string(status), timeToUnix(s.now())).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}

	s.info("post enqueued", "id", id, "status", status, "rubric", rubric)
	return id, nil
}

// NextPending returns the earliest due pending post, or nil when none is due.
// Posts scheduled in the future are never returned.
func (s *Store) NextPending() (*domain.Post, error) {
	query, args, err := s.sq.Select(postColumns...).
		From("post_queue").
		Where(sq.And{
			sq.Eq{"status": string(domain.StatusPending)},
			sq.Or{
				sq.Eq{"scheduled_at": nil},
				sq.LtOrEq{"scheduled_at": timeToUnix(s.now())},
			},
		}).
		OrderBy("scheduled_at ASC", "created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	post, err := scanPost(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return post, nil
}

// PostByID fetches one post, or nil when the id is unknown.
func (s *Store) PostByID(id int64) (*domain.Post, error) {
	query, args, err := s.sq.Select(postColumns...).
		From("post_queue").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	post, err := scanPost(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("post by id: %w", err)
	}
	return post, nil
}

// MarkPublished finalizes a post after a successful publish. The guard keeps
// terminal rows untouched; callers that care check the returned count.
func (s *Store) MarkPublished(id int64) (int64, error) {
	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusPublished)).
		Set("published_at", timeToUnix(s.now())).
		Where(sq.And{sq.Eq{"id": id}, nonTerminal}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "post published", "id", id)
}

// MarkFailed records a publish failure with its error message.
func (s *Store) MarkFailed(id int64, message string) (int64, error) {
	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusFailed)).
		Set("error_message", message).
		Where(sq.And{sq.Eq{"id": id}, nonTerminal}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "post failed", "id", id, "error", message)
}

// UpdateImageRef replaces the stored image reference for a post.
func (s *Store) UpdateImageRef(id int64, ref string) error {
	query, args, err := s.sq.Update("post_queue").
		Set("image_url", ref).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("update image ref: %w", err)
	}
	return nil
}

// ScheduleBatch pairs drafts with the slot grid and inserts them as pending
// posts with future timestamps. When drafts outnumber slots the assignment
// wraps onto following days; nothing is dropped.
func (s *Store) ScheduleBatch(drafts []domain.Draft, slotTimes []string) ([]int64, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	if len(slotTimes) == 0 {
		slotTimes = schedule.DefaultSlots
	}
	slots, err := schedule.ParseSlots(slotTimes)
	if err != nil {
		return nil, fmt.Errorf("parse slots: %w", err)
	}

	assigned := schedule.Assign(len(drafts), slots, s.now())
	ids := make([]int64, 0, len(drafts))
	for i, draft := range drafts {
		at := assigned[i]
		id, err := s.AddPost(draft, &at)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RetryFailed resets all failed posts to pending, clearing their error
// message. This is the explicit operator recovery path; nothing retries
// automatically.
func (s *Store) RetryFailed() (int64, error) {
	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusPending)).
		Set("error_message", nil).
		Where(sq.Eq{"status": string(domain.StatusFailed)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "failed posts reset")
}

// CleanupPosts removes published and failed posts older than the cutoff.
func (s *Store) CleanupPosts(olderThanDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	query, args, err := s.sq.Delete("post_queue").
		Where(sq.And{
			sq.Eq{"status": []string{string(domain.StatusPublished), string(domain.StatusFailed)}},
			sq.Lt{"created_at": timeToUnix(cutoff)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	return s.execAffected(query, args, "old posts removed")
}

// PendingCount reports how many posts are waiting in the simple queue.
func (s *Store) PendingCount() (int, error) {
	return s.countWhere(sq.Eq{"status": string(domain.StatusPending)})
}

// AllPending lists pending posts ordered by schedule, capped at limit.
func (s *Store) AllPending(limit uint64) ([]domain.Post, error) {
	query, args, err := s.sq.Select(postColumns...).
		From("post_queue").
		Where(sq.Eq{"status": string(domain.StatusPending)}).
		OrderBy("scheduled_at ASC", "id ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.queryPosts(query, args)
}

// QueueHealth describes the forward buffer of scheduled work.
type QueueHealth struct {
	PostsInBuffer int
	NextPost      *time.Time
	LastScheduled *time.Time
}

// Health summarizes pending posts scheduled in the future.
func (s *Store) Health() (QueueHealth, error) {
	var health QueueHealth
	var next, last sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), MIN(scheduled_at), MAX(scheduled_at)
		 FROM post_queue
		 WHERE status = ? AND scheduled_at > ?`,
		string(domain.StatusPending), timeToUnix(s.now()),
	).Scan(&health.PostsInBuffer, &next, &last)
	if err != nil {
		return QueueHealth{}, fmt.Errorf("queue health: %w", err)
	}
	health.NextPost = timeFromUnix(next)
	health.LastScheduled = timeFromUnix(last)
	return health, nil
}

// QueueStats is a per-status breakdown plus today's throughput.
type QueueStats struct {
	ByStatus        map[domain.Status]int
	PublishedToday  int
	ScheduledFuture int
}

// Stats aggregates queue counters for monitoring.
func (s *Store) Stats() (QueueStats, error) {
	stats := QueueStats{ByStatus: make(map[domain.Status]int)}

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM post_queue GROUP BY status`)
	if err != nil {
		return QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			_ = rows.Close()
			return QueueStats{}, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[domain.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return QueueStats{}, fmt.Errorf("iterate status counts: %w", err)
	}
	if err := rows.Close(); err != nil {
		return QueueStats{}, fmt.Errorf("close rows: %w", err)
	}

	midnight := startOfDay(s.now())
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM post_queue WHERE published_at >= ?`,
		timeToUnix(midnight),
	).Scan(&stats.PublishedToday); err != nil {
		return QueueStats{}, fmt.Errorf("published today: %w", err)
	}

	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM post_queue WHERE status = ? AND scheduled_at >= ?`,
		string(domain.StatusPending), timeToUnix(s.now()),
	).Scan(&stats.ScheduledFuture); err != nil {
		return QueueStats{}, fmt.Errorf("scheduled future: %w", err)
	}

	return stats, nil
}

func (s *Store) countWhere(cond sq.Sqlizer) (int, error) {
	query, args, err := s.sq.Select("COUNT(*)").From("post_queue").Where(cond).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (s *Store) execAffected(query string, args []any, msg string, logArgs ...any) (int64, error) {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec update: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		s.info(msg, append(logArgs, "affected", affected)...)
	}
	return affected, nil
}

func (s *Store) queryPosts(query string, args []any) ([]domain.Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close rows: %w", err)
	}
	return posts, nil
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (*domain.Post, error) {
	var post domain.Post
	var articleURL, articleTitle, imageURL, imagePrompt, rubric, hashtags sql.NullString
	var errorMessage, approvedBy, rejectionReason sql.NullString
	var scheduledAt, publishedAt, approvedAt sql.NullInt64
	var createdAt int64
	var status string

	err := scanner.Scan(&post.ID, &articleURL, &articleTitle, &post.Text,
		&imageURL, &imagePrompt, &rubric, &hashtags, &scheduledAt, &publishedAt,
		&status, &createdAt, &errorMessage, &approvedAt, &approvedBy,
		&rejectionReason)
	if err != nil {
		return nil, err
	}

	post.ArticleURL = articleURL.String
	post.ArticleTitle = articleTitle.String
	post.ImageRef = imageURL.String
	post.ImagePrompt = imagePrompt.String
	post.Rubric = domain.Rubric(rubric.String)
	post.Hashtags = hashtags.String
	post.Status = domain.Status(status)
	post.ScheduledAt = timeFromUnix(scheduledAt)
	post.PublishedAt = timeFromUnix(publishedAt)
	post.CreatedAt = time.Unix(createdAt, 0).UTC()
	post.ApprovedAt = timeFromUnix(approvedAt)
	post.ApprovedBy = approvedBy.String
	post.ErrorMessage = errorMessage.String
	post.RejectionReason = rejectionReason.String
	return &post, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
