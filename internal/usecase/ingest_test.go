package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"NewsPlanner/internal/dedup"
	"NewsPlanner/internal/domain"
	"NewsPlanner/internal/infrastructure/storage"
)

type fakeSource struct {
	articles []domain.Article
	err      error
}

func (f fakeSource) FetchRecent(_ context.Context, _ time.Time) ([]domain.Article, error) {
	return f.articles, f.err
}

type fakeGenerator struct {
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, article domain.Article, rubric domain.Rubric) (domain.Draft, error) {
	f.calls++
	if f.err != nil {
		return domain.Draft{}, f.err
	}
	return domain.Draft{
		Text:         "post about " + article.Title,
		ArticleURL:   article.Link,
		ArticleTitle: article.Title,
		Rubric:       rubric,
		Hashtags:     rubric.Hashtags(),
	}, nil
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// sampleTitles share no vocabulary, so none of them fuzzy-match another.
var sampleTitles = []string{
	"Canva Launches Photo Editor",
	"Quantum Breakthrough Announced",
	"Python Overtakes Java Popularity",
	"Robots Deliver Groceries Downtown",
	"Startup Raises Series Funding",
	"Browser Adds Vertical Tabs",
	"Satellite Maps Ocean Plastic",
	"Museum Digitizes Rare Archives",
}

func article(n int) domain.Article {
	return domain.Article{
		Title:  sampleTitles[n%len(sampleTitles)],
		Link:   fmt.Sprintf("https://example.com/story-%d", n),
		Source: "test",
	}
}

func TestIngestQueuesUniqueArticles(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	gen := &fakeGenerator{}
	ingest := NewIngest(IngestDeps{
		Source:       fakeSource{articles: []domain.Article{article(1), article(2)}},
		Deduplicator: dedup.New(dedup.Config{}, nil),
		Generator:    gen,
		Store:        store,
	}, IngestOptions{})

	queued, err := ingest.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if queued != 2 {
		t.Fatalf("expected 2 queued posts, got %d", queued)
	}

	pending, err := store.AllPending(10)
	if err != nil {
		t.Fatalf("AllPending error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending posts, got %d", len(pending))
	}
	for _, post := range pending {
		if post.ScheduledAt == nil {
			t.Fatalf("queued post must have a slot: %+v", post)
		}
	}
}

func TestIngestSkipsDuplicates(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	dup := article(1)
	dup.Link = "https://example.com/story-1?utm_source=mirror"

	gen := &fakeGenerator{}
	ingest := NewIngest(IngestDeps{
		Source:       fakeSource{articles: []domain.Article{article(1), dup}},
		Deduplicator: dedup.New(dedup.Config{}, nil),
		Generator:    gen,
		Store:        store,
	}, IngestOptions{})

	queued, err := ingest.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if queued != 1 {
		t.Fatalf("mirror URL must dedupe, got %d queued", queued)
	}
	if gen.calls != 1 {
		t.Fatalf("generator must not run for duplicates, calls %d", gen.calls)
	}
}

func TestIngestSkipsAlreadySent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	seen := article(1)
	if _, err := store.MarkSent(seen, 0, "news"); err != nil {
		t.Fatalf("MarkSent error: %v", err)
	}

	ingest := NewIngest(IngestDeps{
		Source:    fakeSource{articles: []domain.Article{seen, article(2)}},
		Generator: &fakeGenerator{},
		Store:     store,
	}, IngestOptions{})

	queued, err := ingest.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if queued != 1 {
		t.Fatalf("sent article must be skipped, got %d queued", queued)
	}
}

func TestIngestGenerationFailureSkipsArticle(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ingest := NewIngest(IngestDeps{
		Source:    fakeSource{articles: []domain.Article{article(1)}},
		Generator: &fakeGenerator{err: fmt.Errorf("model down")},
		Store:     store,
	}, IngestOptions{})

	queued, err := ingest.Run(context.Background())
	if err != nil {
		t.Fatalf("generation failure must not kill the run: %v", err)
	}
	if queued != 0 {
		t.Fatalf("expected 0 queued, got %d", queued)
	}

	// Failed generation leaves the article unsent so a later run retries it.
	sent, err := store.IsSent(article(1).Link)
	if err != nil {
		t.Fatalf("IsSent error: %v", err)
	}
	if sent {
		t.Fatal("failed article must stay unsent")
	}
}

func TestIngestModerationMode(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ingest := NewIngest(IngestDeps{
		Source:    fakeSource{articles: []domain.Article{article(1)}},
		Generator: &fakeGenerator{},
		Store:     store,
	}, IngestOptions{ModerationMode: true})

	queued, err := ingest.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if queued != 1 {
		t.Fatalf("expected 1 moderated draft, got %d", queued)
	}

	inbox, err := store.PendingApproval(10)
	if err != nil {
		t.Fatalf("PendingApproval error: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("draft must land in the moderation inbox, got %d", len(inbox))
	}
	if next, _ := store.NextPending(); next != nil {
		t.Fatalf("moderated draft leaked into publish queue: %+v", next)
	}
}

func TestIngestRespectsMaxPosts(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	articles := make([]domain.Article, 8)
	for n := range articles {
		articles[n] = article(n)
	}

	ingest := NewIngest(IngestDeps{
		Source:    fakeSource{articles: articles},
		Generator: &fakeGenerator{},
		Store:     store,
	}, IngestOptions{MaxPosts: 3})

	queued, err := ingest.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if queued != 3 {
		t.Fatalf("expected cap at 3 posts, got %d", queued)
	}
}
