// Package rss adapts configured RSS/Atom feeds to the article source port.
package rss

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsPlanner/internal/domain"
	"NewsPlanner/internal/ports"
)

// Feed names one upstream RSS/Atom endpoint.
type Feed struct {
	Name string
	URL  string
}

// Fetcher pulls items from every configured feed and maps them to domain
// articles. A failing feed is logged and skipped; the rest still deliver.
type Fetcher struct {
	feeds  []Feed
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.ArticleSource = (*Fetcher)(nil)

// NewFetcher builds a fetcher over the configured feed list.
func NewFetcher(feeds []Feed, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// FetchRecent returns articles published after since, across all feeds.
// Items without any timestamp are kept; a missing date is not a reason to
// drop a fresh item.
func (f *Fetcher) FetchRecent(ctx context.Context, since time.Time) ([]domain.Article, error) {
	var articles []domain.Article
	for _, feed := range f.feeds {
		parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			f.warn("feed fetch failed", "feed", feed.Name, "url", feed.URL, "error", err)
			continue
		}

		for _, item := range parsed.Items {
			article, ok := mapItem(feed.Name, item, since)
			if !ok {
				continue
			}
			articles = append(articles, article)
		}
		f.debug("feed fetched", "feed", feed.Name, "items", len(parsed.Items))
	}
	return articles, nil
}

func mapItem(source string, item *gofeed.Item, since time.Time) (domain.Article, bool) {
	if item == nil || item.Link == "" || item.Title == "" {
		return domain.Article{}, false
	}

	published := itemTime(item)
	if published != nil && published.Before(since) {
		return domain.Article{}, false
	}

	article := domain.Article{
		Title:   item.Title,
		Link:    item.Link,
		Summary: item.Description,
		Source:  source,
	}
	if published != nil {
		article.PublishedAt = *published
	}
	if item.Image != nil {
		article.ImageURL = item.Image.URL
	}
	return article, true
}

func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
