package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<item>
  <title>Fresh Story</title>
  <link>https://example.com/fresh</link>
  <description>Something new happened</description>
  <pubDate>%s</pubDate>
</item>
<item>
  <title>Stale Story</title>
  <link>https://example.com/stale</link>
  <pubDate>%s</pubDate>
</item>
<item>
  <title>Undated Story</title>
  <link>https://example.com/undated</link>
</item>
</channel>
</rss>`

func TestFetchRecentFiltersByWindow(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	body := fmt.Sprintf(feedTemplate,
		now.Add(-time.Hour).Format(time.RFC1123Z),
		now.Add(-72*time.Hour).Format(time.RFC1123Z))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	fetcher := NewFetcher([]Feed{{Name: "test", URL: srv.URL}}, nil)
	articles, err := fetcher.FetchRecent(context.Background(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("FetchRecent error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected fresh and undated items, got %d: %+v", len(articles), articles)
	}
	if articles[0].Title != "Fresh Story" || articles[0].Source != "test" {
		t.Fatalf("unexpected first article %+v", articles[0])
	}
	if articles[1].Title != "Undated Story" {
		t.Fatalf("undated item must be kept, got %+v", articles[1])
	}
}

func TestFetchRecentSkipsBrokenFeed(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	good := fmt.Sprintf(feedTemplate,
		now.Format(time.RFC1123Z), now.Format(time.RFC1123Z))

	goodSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(good))
	}))
	defer goodSrv.Close()
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer badSrv.Close()

	fetcher := NewFetcher([]Feed{
		{Name: "bad", URL: badSrv.URL},
		{Name: "good", URL: goodSrv.URL},
	}, nil)

	articles, err := fetcher.FetchRecent(context.Background(), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("FetchRecent error: %v", err)
	}
	if len(articles) == 0 {
		t.Fatal("good feed must still deliver when another feed is down")
	}
}
