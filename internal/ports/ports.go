package ports

import (
	"context"
	"time"

	"NewsPlanner/internal/domain"
)

// ArticleSource pulls fresh articles from upstream feeds.
type ArticleSource interface {
	FetchRecent(ctx context.Context, since time.Time) ([]domain.Article, error)
}

// Generator turns an article into a ready-to-publish post draft.
type Generator interface {
	Generate(ctx context.Context, article domain.Article, rubric domain.Rubric) (domain.Draft, error)
}

// ImageResolver finds a cover image for an article page.
type ImageResolver interface {
	Resolve(ctx context.Context, pageURL string) (string, error)
}

// Publisher delivers a finished post to the channel.
type Publisher interface {
	Publish(ctx context.Context, post domain.Post) error
}

// Scheduler controls when pipeline jobs execute.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
