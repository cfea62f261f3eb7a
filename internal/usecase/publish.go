package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPlanner/internal/infrastructure/storage"
	"NewsPlanner/internal/ports"
)

// PublishDeps wires the adapters driving the publication workflow.
type PublishDeps struct {
	Store     *storage.Store
	Publisher ports.Publisher
	Logger    *slog.Logger
}

// PublishOptions tunes the maintenance done on each tick.
type PublishOptions struct {
	AutoRejectAfter time.Duration
	RetentionDays   int
}

func (o PublishOptions) withDefaults() PublishOptions {
	if o.AutoRejectAfter <= 0 {
		o.AutoRejectAfter = 48 * time.Hour
	}
	if o.RetentionDays <= 0 {
		o.RetentionDays = 30
	}
	return o
}

// Publish drains due posts from the queue into the channel.
type Publish struct {
	store     *storage.Store
	publisher ports.Publisher
	opts      PublishOptions
	logger    *slog.Logger
}

// NewPublish constructs the publication workflow.
func NewPublish(deps PublishDeps, opts PublishOptions) *Publish {
	return &Publish{
		store:     deps.Store,
		publisher: deps.Publisher,
		opts:      opts.withDefaults(),
		logger:    deps.Logger,
	}
}

// Tick publishes everything due right now: moderator-scheduled posts first,
// then the next pending post. Each post's outcome lands in the store as
// published or failed; a failure never blocks the rest of the tick.
func (p *Publish) Tick(ctx context.Context) error {
	if p.store == nil || p.publisher == nil {
		return fmt.Errorf("publish not wired")
	}

	due, err := p.store.DueScheduled()
	if err != nil {
		return fmt.Errorf("load due posts: %w", err)
	}
	for _, post := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.deliver(ctx, post.ID)
	}

	next, err := p.store.NextPending()
	if err != nil {
		return fmt.Errorf("load next pending: %w", err)
	}
	if next != nil {
		p.deliver(ctx, next.ID)
	}
	return nil
}

// Maintain runs periodic queue hygiene: auto-rejecting stale moderation
// items and trimming old terminal posts and history records.
func (p *Publish) Maintain(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("publish not wired")
	}

	rejected, err := p.store.AutoRejectStale(p.opts.AutoRejectAfter)
	if err != nil {
		return fmt.Errorf("auto-reject: %w", err)
	}
	if rejected > 0 {
		p.info("stale posts auto-rejected", "count", rejected)
	}

	if _, err := p.store.CleanupPosts(p.opts.RetentionDays); err != nil {
		return fmt.Errorf("cleanup posts: %w", err)
	}
	if _, err := p.store.CleanupHistory(p.opts.RetentionDays); err != nil {
		return fmt.Errorf("cleanup history: %w", err)
	}
	return nil
}

func (p *Publish) deliver(ctx context.Context, id int64) {
	post, err := p.store.PostByID(id)
	if err != nil || post == nil {
		p.warn("post lookup failed", "id", id, "error", err)
		return
	}

	if err := p.publisher.Publish(ctx, *post); err != nil {
		p.warn("publish failed", "id", id, "error", err)
		if _, mErr := p.store.MarkFailed(id, err.Error()); mErr != nil {
			p.warn("mark failed errored", "id", id, "error", mErr)
		}
		return
	}

	if _, err := p.store.MarkPublished(id); err != nil {
		p.warn("mark published errored", "id", id, "error", err)
		return
	}
	p.info("post published", "id", id, "rubric", post.Rubric)
}

func (p *Publish) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Publish) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
