package domain

import "time"

// Status enumerates the post lifecycle states.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPending         Status = "pending"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusScheduled       Status = "scheduled"
	StatusPublished       Status = "published"
	StatusRejected        Status = "rejected"
	StatusFailed          Status = "failed"
)

// Terminal reports whether a status ends the lifecycle for retention purposes.
// Failed posts can still be reset to pending via an explicit retry.
func (s Status) Terminal() bool {
	switch s {
	case StatusPublished, StatusRejected, StatusFailed:
		return true
	case StatusDraft, StatusPending, StatusPendingApproval, StatusApproved, StatusScheduled:
		return false
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal step of the
// moderation state machine. MarkPublished and MarkFailed are permitted from
// any non-terminal state, matching the publisher's success/failure reporting.
func (s Status) CanTransition(next Status) bool {
	switch next {
	case StatusPendingApproval:
		return s == StatusDraft || s == StatusPending
	case StatusApproved, StatusScheduled, StatusRejected:
		return s == StatusPendingApproval
	case StatusPublished, StatusFailed:
		return !s.Terminal()
	case StatusPending:
		return s == StatusFailed
	case StatusDraft:
		return false
	}
	return false
}

// Post is the durable unit moving through the queue: generated text plus
// scheduling and moderation metadata.
type Post struct {
	ID              int64
	ArticleURL      string
	ArticleTitle    string
	Text            string
	ImageRef        string
	ImagePrompt     string
	Rubric          Rubric
	Hashtags        string
	Status          Status
	ScheduledAt     *time.Time
	PublishedAt     *time.Time
	CreatedAt       time.Time
	ApprovedAt      *time.Time
	ApprovedBy      string
	ErrorMessage    string
	RejectionReason string
}

// Draft carries the fields a caller supplies when enqueueing a new post.
type Draft struct {
	Text         string
	ArticleURL   string
	ArticleTitle string
	ImageRef     string
	ImagePrompt  string
	Rubric       Rubric
	Hashtags     string
}
