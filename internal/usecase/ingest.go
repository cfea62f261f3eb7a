// Package usecase orchestrates the content pipeline: ingesting feed
// articles into the post queue and publishing due posts to the channel.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPlanner/internal/dedup"
	"NewsPlanner/internal/domain"
	"NewsPlanner/internal/infrastructure/storage"
	"NewsPlanner/internal/ports"
)

// IngestDeps wires the adapters driving the ingestion workflow.
type IngestDeps struct {
	Source        ports.ArticleSource
	Deduplicator  *dedup.Deduplicator
	Generator     ports.Generator
	ImageResolver ports.ImageResolver
	Store         *storage.Store
	Logger        *slog.Logger
}

// IngestOptions tunes a single ingestion run.
type IngestOptions struct {
	LookBack       time.Duration
	MaxPosts       int
	Slots          []string
	Rubrics        []domain.Rubric
	ModerationMode bool
}

func (o IngestOptions) withDefaults() IngestOptions {
	if o.LookBack <= 0 {
		o.LookBack = 24 * time.Hour
	}
	if o.MaxPosts <= 0 {
		o.MaxPosts = 5
	}
	if len(o.Rubrics) == 0 {
		o.Rubrics = []domain.Rubric{domain.DefaultRubric}
	}
	return o
}

// Ingest pulls fresh articles, drops duplicates, generates post drafts, and
// queues them for publication.
type Ingest struct {
	source    ports.ArticleSource
	dedup     *dedup.Deduplicator
	generator ports.Generator
	images    ports.ImageResolver
	store     *storage.Store
	opts      IngestOptions
	logger    *slog.Logger
}

// NewIngest constructs the ingestion workflow.
func NewIngest(deps IngestDeps, opts IngestOptions) *Ingest {
	return &Ingest{
		source:    deps.Source,
		dedup:     deps.Deduplicator,
		generator: deps.Generator,
		images:    deps.ImageResolver,
		store:     deps.Store,
		opts:      opts.withDefaults(),
		logger:    deps.Logger,
	}
}

// Run executes one ingestion cycle and reports how many posts were queued.
// A failing article is logged and skipped; one bad item never kills the run.
func (i *Ingest) Run(ctx context.Context) (int, error) {
	if i.source == nil || i.store == nil {
		return 0, fmt.Errorf("ingest not wired")
	}

	since := time.Now().Add(-i.opts.LookBack)
	articles, err := i.source.FetchRecent(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("fetch articles: %w", err)
	}
	i.info("articles fetched", "count", len(articles))

	articles, err = i.store.FilterUnsent(articles)
	if err != nil {
		return 0, fmt.Errorf("filter sent: %w", err)
	}

	var drafts []domain.Draft
	for idx, article := range articles {
		if len(drafts) >= i.opts.MaxPosts {
			break
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if i.dedup != nil {
			verdict := i.dedup.Check(article.Title, article.Link, article.Summary)
			if verdict.IsDuplicate {
				i.info("duplicate skipped", "title", article.Title,
					"reason", verdict.Reason, "similarity", verdict.Similarity)
				continue
			}
		}

		rubric := i.opts.Rubrics[idx%len(i.opts.Rubrics)]
		draft, err := i.generate(ctx, article, rubric)
		if err != nil {
			i.warn("generation failed", "title", article.Title, "error", err)
			continue
		}
		drafts = append(drafts, draft)

		if _, err := i.store.MarkSent(article, 0, string(rubric)); err != nil {
			return len(drafts), fmt.Errorf("mark sent %s: %w", article.Link, err)
		}
	}

	if len(drafts) == 0 {
		i.info("nothing to queue")
		return 0, nil
	}

	if i.opts.ModerationMode {
		queued := 0
		for _, draft := range drafts {
			id, err := i.store.AddDraft(draft)
			if err != nil {
				return queued, fmt.Errorf("enqueue draft: %w", err)
			}
			if _, err := i.store.SendForApproval(id); err != nil {
				return queued, fmt.Errorf("send for approval: %w", err)
			}
			queued++
		}
		i.info("drafts sent for approval", "count", queued)
		return queued, nil
	}

	ids, err := i.store.ScheduleBatch(drafts, i.opts.Slots)
	if err != nil {
		return len(ids), fmt.Errorf("schedule batch: %w", err)
	}
	i.info("posts scheduled", "count", len(ids))
	return len(ids), nil
}

func (i *Ingest) generate(ctx context.Context, article domain.Article, rubric domain.Rubric) (domain.Draft, error) {
	if i.generator == nil {
		return domain.Draft{}, fmt.Errorf("no generator configured")
	}

	if article.ImageURL == "" && i.images != nil {
		image, err := i.images.Resolve(ctx, article.Link)
		if err != nil {
			i.warn("image lookup failed", "link", article.Link, "error", err)
		} else {
			article.ImageURL = image
		}
	}

	return i.generator.Generate(ctx, article, rubric)
}

func (i *Ingest) info(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

func (i *Ingest) warn(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}
