package dedup

import (
	"fmt"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com/page", "example.com/page"},
		{"http://example.com/page", "example.com/page"},
		{"https://www.example.com/page", "example.com/page"},
		{"https://example.com/page/", "example.com/page"},
		{"HTTPS://EXAMPLE.COM/PAGE", "example.com/page"},
		{"https://example.com/article?utm_source=twitter&utm_medium=social", "example.com/article"},
		{"https://example.com/article?ref=homepage", "example.com/article"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://www.Example.com/A/?utm_source=x",
		"http://news.site/path/",
		"example.com/already/normalized",
		"",
	}

	for _, in := range inputs {
		once := NormalizeURL(in)
		if twice := NormalizeURL(once); twice != once {
			t.Fatalf("NormalizeURL not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestJaccardBounds(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"10 AI Tools for Writing", "Top 10 AI Writing Tools"},
		{"ChatGPT Gets Major Update", "Canva Launches Photo Editor"},
		{"Quantum Breakthrough Announced", "Quantum Breakthrough Announced"},
	}

	for _, pair := range pairs {
		sim := jaccard(ngrams(pair[0], 3), ngrams(pair[1], 3))
		if sim < 0 || sim > 1 {
			t.Fatalf("similarity out of bounds for %q vs %q: %f", pair[0], pair[1], sim)
		}
	}

	identical := jaccard(ngrams("Quantum Breakthrough Announced", 3), ngrams("Quantum Breakthrough Announced", 3))
	if identical < 0.99 {
		t.Fatalf("identical titles should score >= 0.99, got %f", identical)
	}

	disjoint := jaccard(ngrams("zebra kitchen", 3), ngrams("violet mountain", 3))
	if disjoint != 0 {
		t.Fatalf("disjoint titles should score 0, got %f", disjoint)
	}

	if got := jaccard(nil, ngrams("anything", 3)); got != 0 {
		t.Fatalf("empty set should score 0, got %f", got)
	}
	if got := jaccard(nil, nil); got != 0 {
		t.Fatalf("two empty sets should score 0, not 1, got %f", got)
	}
}

func TestCheckExactURLMatch(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)

	first := d.Check("Title One", "https://Example.com/A/", "")
	if first.IsDuplicate {
		t.Fatalf("first check should be unique, got %+v", first)
	}

	second := d.Check("Completely Different Headline", "http://example.com/a", "")
	if !second.IsDuplicate {
		t.Fatalf("expected duplicate, got %+v", second)
	}
	if second.Reason != ReasonExactURL {
		t.Fatalf("expected exact_url_match, got %s", second.Reason)
	}
	if second.Similarity != 1.0 {
		t.Fatalf("expected similarity 1.0, got %f", second.Similarity)
	}
}

func TestCheckURLPrecedenceOverFuzzy(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)

	d.Seed("Quantum Breakthrough Announced", "https://example.com/article", "")

	// Same URL but a title with no vocabulary overlap: the verdict must still
	// be exact_url_match, never fuzzy.
	got := d.Check("Zebra Kitchen Helmet", "https://www.example.com/article/", "")
	if !got.IsDuplicate || got.Reason != ReasonExactURL {
		t.Fatalf("expected exact_url_match, got %+v", got)
	}
}

func TestCheckExactHashMatch(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)

	first := d.Check("Zebra Kitchen Helmet", "", "body text")
	if first.IsDuplicate {
		t.Fatalf("first check should be unique, got %+v", first)
	}

	second := d.Check("Zebra Kitchen Helmet", "", "body text")
	if !second.IsDuplicate || second.Reason != ReasonExactHash {
		t.Fatalf("expected exact_hash_match, got %+v", second)
	}
	if second.Similarity != 1.0 {
		t.Fatalf("expected similarity 1.0, got %f", second.Similarity)
	}
}

func TestCheckFuzzyTitleMatch(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)

	d.Seed("10 AI Tools for Writing", "https://x.com/1", "")

	got := d.Check("Top 10 AI Writing Tools", "https://x.com/2", "")
	if !got.IsDuplicate {
		t.Fatalf("expected duplicate, got %+v", got)
	}
	if got.Reason != ReasonFuzzyTitle {
		t.Fatalf("expected fuzzy_title_match, got %s", got.Reason)
	}
	if got.Similarity < 0.65 {
		t.Fatalf("expected similarity >= 0.65, got %f", got.Similarity)
	}
	if got.MatchedTitle != "10 AI Tools for Writing" {
		t.Fatalf("unexpected matched title: %q", got.MatchedTitle)
	}
}

func TestCheckUniqueTitles(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)

	titles := []string{
		"Canva Launches AI Photo Editor",
		"How to Use Python for Data Science",
		"Quantum Breakthrough Announced at CERN",
	}
	for i, title := range titles {
		got := d.Check(title, fmt.Sprintf("https://site%d.com/a", i), "")
		if got.IsDuplicate {
			t.Fatalf("title %q unexpectedly flagged duplicate: %+v", title, got)
		}
		if got.Reason != ReasonUnique {
			t.Fatalf("expected unique, got %s", got.Reason)
		}
	}
}

func TestHistoryBound(t *testing.T) {
	t.Parallel()

	d := New(Config{MaxHistory: 4}, nil)

	titles := []string{
		"zebra kitchen helmet",
		"violet mountain breeze",
		"copper lantern orchard",
		"silent harbor compass",
		"amber falcon meadow",
	}
	for i, title := range titles {
		d.Seed(title, fmt.Sprintf("https://u%d.com", i), "")
	}

	if got := d.Stats().TrackedTitles; got > 4 {
		t.Fatalf("history exceeded bound: %d titles tracked", got)
	}
}

func TestSeedIdempotent(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)

	d.Seed("Some Historical Post", "https://example.com/old", "")
	d.Seed("Some Historical Post", "https://example.com/old", "")

	stats := d.Stats()
	if stats.UniqueURLs != 1 {
		t.Fatalf("expected 1 unique url, got %d", stats.UniqueURLs)
	}
	if stats.UniqueHashes != 1 {
		t.Fatalf("expected 1 unique hash, got %d", stats.UniqueHashes)
	}

	got := d.Check("Some Historical Post", "https://example.com/old", "")
	if !got.IsDuplicate {
		t.Fatalf("seeded item should be reported duplicate, got %+v", got)
	}
}

func TestCheckEmptyInputs(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)

	got := d.Check("", "", "")
	if got.IsDuplicate {
		t.Fatalf("empty candidate should be unique on first sight, got %+v", got)
	}

	if NormalizeTitle("") != "" {
		t.Fatalf("empty title should normalize to empty string")
	}
	if len(ngrams("", 3)) != 0 {
		t.Fatalf("empty title should yield no n-grams")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil)
	d.Seed("Some Historical Post", "https://example.com/old", "")
	d.Clear()

	stats := d.Stats()
	if stats.UniqueURLs != 0 || stats.UniqueHashes != 0 || stats.TrackedTitles != 0 {
		t.Fatalf("store not empty after clear: %+v", stats)
	}
}
