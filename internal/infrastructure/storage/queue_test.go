package storage

import (
	"path/filepath"
	"testing"
	"time"

	"NewsPlanner/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDraft(text string) domain.Draft {
	return domain.Draft{
		Text:         text,
		ArticleURL:   "https://example.com/" + text,
		ArticleTitle: "Title " + text,
		Rubric:       domain.RubricAINews,
		Hashtags:     "#ai",
	}
}

func TestAddAndNextPending(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	id, err := store.AddPost(testDraft("first"), nil)
	if err != nil {
		t.Fatalf("AddPost error: %v", err)
	}

	post, err := store.NextPending()
	if err != nil {
		t.Fatalf("NextPending error: %v", err)
	}
	if post == nil || post.ID != id {
		t.Fatalf("expected post %d, got %+v", id, post)
	}
	if post.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", post.Status)
	}
	if post.Text != "first" {
		t.Fatalf("unexpected text %q", post.Text)
	}
}

func TestNextPendingSkipsFuture(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	future := store.now().Add(2 * time.Hour)
	if _, err := store.AddPost(testDraft("later"), &future); err != nil {
		t.Fatalf("AddPost error: %v", err)
	}

	post, err := store.NextPending()
	if err != nil {
		t.Fatalf("NextPending error: %v", err)
	}
	if post != nil {
		t.Fatalf("future post must not be due, got %+v", post)
	}

	past := store.now().Add(-time.Minute)
	id, err := store.AddPost(testDraft("due"), &past)
	if err != nil {
		t.Fatalf("AddPost error: %v", err)
	}
	post, err = store.NextPending()
	if err != nil {
		t.Fatalf("NextPending error: %v", err)
	}
	if post == nil || post.ID != id {
		t.Fatalf("expected due post %d, got %+v", id, post)
	}
}

func TestMarkPublishedRemovesFromQueue(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	id, err := store.AddPost(testDraft("publishme"), nil)
	if err != nil {
		t.Fatalf("AddPost error: %v", err)
	}

	affected, err := store.MarkPublished(id)
	if err != nil {
		t.Fatalf("MarkPublished error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}

	post, err := store.NextPending()
	if err != nil {
		t.Fatalf("NextPending error: %v", err)
	}
	if post != nil {
		t.Fatalf("published post must leave the queue, got %+v", post)
	}

	got, err := store.PostByID(id)
	if err != nil {
		t.Fatalf("PostByID error: %v", err)
	}
	if got.Status != domain.StatusPublished || got.PublishedAt == nil {
		t.Fatalf("expected published with timestamp, got %+v", got)
	}

	// Publishing is final: a second transition affects nothing.
	if affected, _ := store.MarkFailed(id, "boom"); affected != 0 {
		t.Fatalf("terminal post must not transition, affected %d", affected)
	}
}

func TestMarkFailedAndRetry(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	id, err := store.AddPost(testDraft("flaky"), nil)
	if err != nil {
		t.Fatalf("AddPost error: %v", err)
	}

	if _, err := store.MarkFailed(id, "network down"); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	post, err := store.PostByID(id)
	if err != nil {
		t.Fatalf("PostByID error: %v", err)
	}
	if post.Status != domain.StatusFailed || post.ErrorMessage != "network down" {
		t.Fatalf("unexpected failed post %+v", post)
	}

	affected, err := store.RetryFailed()
	if err != nil {
		t.Fatalf("RetryFailed error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 reset post, got %d", affected)
	}
	post, _ = store.PostByID(id)
	if post.Status != domain.StatusPending || post.ErrorMessage != "" {
		t.Fatalf("retry must clear error and restore pending, got %+v", post)
	}
}

func TestScheduleBatchAssignsFutureSlots(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	drafts := []domain.Draft{testDraft("a"), testDraft("b"), testDraft("c")}
	ids, err := store.ScheduleBatch(drafts, []string{"09:00", "15:00"})
	if err != nil {
		t.Fatalf("ScheduleBatch error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}

	now := store.now()
	seen := map[int64]bool{}
	for _, id := range ids {
		post, err := store.PostByID(id)
		if err != nil {
			t.Fatalf("PostByID error: %v", err)
		}
		if post.ScheduledAt == nil || post.ScheduledAt.Before(now.Add(-time.Second)) {
			t.Fatalf("post %d scheduled in the past: %+v", id, post.ScheduledAt)
		}
		at := post.ScheduledAt.Unix()
		if seen[at] {
			t.Fatalf("two posts share slot %v", post.ScheduledAt)
		}
		seen[at] = true
	}
}

func TestCleanupPosts(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	oldID, err := store.AddPost(testDraft("old"), nil)
	if err != nil {
		t.Fatalf("AddPost error: %v", err)
	}
	if _, err := store.MarkPublished(oldID); err != nil {
		t.Fatalf("MarkPublished error: %v", err)
	}
	freshID, err := store.AddPost(testDraft("fresh"), nil)
	if err != nil {
		t.Fatalf("AddPost error: %v", err)
	}

	// Age the published post past the retention window.
	store.now = func() time.Time { return time.Now().AddDate(0, 0, 31) }
	removed, err := store.CleanupPosts(30)
	if err != nil {
		t.Fatalf("CleanupPosts error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed post, got %d", removed)
	}

	if post, _ := store.PostByID(oldID); post != nil {
		t.Fatalf("old published post should be gone, got %+v", post)
	}
	if post, _ := store.PostByID(freshID); post == nil || post.Status != domain.StatusPending {
		t.Fatalf("pending post must survive cleanup, got %+v", post)
	}
}

func TestStatsAndHealth(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	future := store.now().Add(3 * time.Hour)
	if _, err := store.AddPost(testDraft("buffered"), &future); err != nil {
		t.Fatalf("AddPost error: %v", err)
	}
	id, err := store.AddPost(testDraft("done"), nil)
	if err != nil {
		t.Fatalf("AddPost error: %v", err)
	}
	if _, err := store.MarkPublished(id); err != nil {
		t.Fatalf("MarkPublished error: %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.ByStatus[domain.StatusPending] != 1 || stats.ByStatus[domain.StatusPublished] != 1 {
		t.Fatalf("unexpected status counts: %+v", stats.ByStatus)
	}
	if stats.PublishedToday != 1 {
		t.Fatalf("expected 1 published today, got %d", stats.PublishedToday)
	}

	health, err := store.Health()
	if err != nil {
		t.Fatalf("Health error: %v", err)
	}
	if health.PostsInBuffer != 1 {
		t.Fatalf("expected 1 buffered post, got %d", health.PostsInBuffer)
	}
	if health.NextPost == nil {
		t.Fatal("expected next post time")
	}
}
