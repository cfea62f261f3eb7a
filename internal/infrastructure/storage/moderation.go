package storage

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsPlanner/internal/domain"
)

// SendForApproval moves a draft or pending post into the moderation inbox.
func (s *Store) SendForApproval(id int64) (int64, error) {
	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusPendingApproval)).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"status": []string{string(domain.StatusDraft), string(domain.StatusPending)}},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "post sent for approval", "id", id)
}

// Approve accepts a post awaiting moderation. The post stays off the publish
// path until it is scheduled. Approving anything not in pending_approval
// affects zero rows.
func (s *Store) Approve(id int64, approvedBy string) (int64, error) {
	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusApproved)).
		Set("approved_at", timeToUnix(s.now())).
		Set("approved_by", approvedBy).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"status": string(domain.StatusPendingApproval)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "post approved", "id", id, "by", approvedBy)
}

// Schedule approves a moderated post and pins it to a publication time in one
// step. A time that already passed today is pushed to the same clock time
// tomorrow.
func (s *Store) Schedule(id int64, approvedBy string, at time.Time) (int64, error) {
	now := s.now()
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}

	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusScheduled)).
		Set("scheduled_at", timeToUnix(at)).
		Set("approved_at", timeToUnix(now)).
		Set("approved_by", approvedBy).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"status": string(domain.StatusPendingApproval)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "post scheduled", "id", id, "at", at)
}

// Reject declines a post awaiting moderation, recording the reason.
func (s *Store) Reject(id int64, reason string) (int64, error) {
	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusRejected)).
		Set("rejection_reason", reason).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"status": string(domain.StatusPendingApproval)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "post rejected", "id", id, "reason", reason)
}

// EditText rewrites the body of a post still awaiting moderation. Posts that
// left the inbox are immutable.
func (s *Store) EditText(id int64, text string) (int64, error) {
	query, args, err := s.sq.Update("post_queue").
		Set("post_text", text).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"status": string(domain.StatusPendingApproval)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "post text edited", "id", id)
}

// PendingApproval lists the moderation inbox, oldest first.
func (s *Store) PendingApproval(limit uint64) ([]domain.Post, error) {
	query, args, err := s.sq.Select(postColumns...).
		From("post_queue").
		Where(sq.Eq{"status": string(domain.StatusPendingApproval)}).
		OrderBy("created_at ASC", "id ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.queryPosts(query, args)
}

// ApprovedPosts lists posts accepted by a moderator but not yet scheduled.
func (s *Store) ApprovedPosts() ([]domain.Post, error) {
	query, args, err := s.sq.Select(postColumns...).
		From("post_queue").
		Where(sq.Eq{"status": string(domain.StatusApproved)}).
		OrderBy("approved_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.queryPosts(query, args)
}

// DueScheduled lists moderator-scheduled posts whose time has arrived.
func (s *Store) DueScheduled() ([]domain.Post, error) {
	query, args, err := s.sq.Select(postColumns...).
		From("post_queue").
		Where(sq.And{
			sq.Eq{"status": string(domain.StatusScheduled)},
			sq.LtOrEq{"scheduled_at": timeToUnix(s.now())},
		}).
		OrderBy("scheduled_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.queryPosts(query, args)
}

// AutoRejectStale rejects every post that sat in the moderation inbox longer
// than maxAge, so the inbox cannot grow without bound.
func (s *Store) AutoRejectStale(maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge)
	reason := fmt.Sprintf("auto-rejected: not approved within %d hours", int(maxAge.Hours()))

	query, args, err := s.sq.Update("post_queue").
		Set("status", string(domain.StatusRejected)).
		Set("rejection_reason", reason).
		Where(sq.And{
			sq.Eq{"status": string(domain.StatusPendingApproval)},
			sq.Lt{"created_at": timeToUnix(cutoff)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return s.execAffected(query, args, "stale posts auto-rejected")
}

// ModerationStats summarizes the moderation funnel.
type ModerationStats struct {
	PendingApproval int
	Approved        int
	Scheduled       int
	Rejected        int
	RejectionRate   float64
}

// Moderation aggregates the moderation counters. RejectionRate is the share
// of decided posts that were rejected.
func (s *Store) Moderation() (ModerationStats, error) {
	stats, err := s.Stats()
	if err != nil {
		return ModerationStats{}, err
	}

	m := ModerationStats{
		PendingApproval: stats.ByStatus[domain.StatusPendingApproval],
		Approved:        stats.ByStatus[domain.StatusApproved],
		Scheduled:       stats.ByStatus[domain.StatusScheduled],
		Rejected:        stats.ByStatus[domain.StatusRejected],
	}
	decided := m.Approved + m.Scheduled + m.Rejected +
		stats.ByStatus[domain.StatusPublished]
	if decided > 0 {
		m.RejectionRate = float64(m.Rejected) / float64(decided)
	}
	return m, nil
}
