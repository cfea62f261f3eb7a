package domain

import "time"

// Article is a core entity describing one item fetched from an RSS feed.
type Article struct {
	Title       string
	Link        string
	Summary     string
	Source      string
	ImageURL    string
	PublishedAt time.Time
}

// SentArticle is the durable record of an article that already went through
// the pipeline; these rows re-seed the deduplicator on startup.
type SentArticle struct {
	ID              int64
	Link            string
	Title           string
	TitleNormalized string
	URLNormalized   string
	RelevanceScore  int
	Category        string
	Status          string
	SentAt          time.Time
}
