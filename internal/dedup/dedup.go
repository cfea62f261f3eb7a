// Package dedup decides whether an incoming article was already seen, using
// exact URL matching, exact content hashing, and fuzzy title comparison via
// Jaccard similarity over character n-grams.
package dedup

import "log/slog"

// Reason explains a duplicate verdict.
type Reason string

const (
	ReasonExactURL   Reason = "exact_url_match"
	ReasonExactHash  Reason = "exact_hash_match"
	ReasonFuzzyTitle Reason = "fuzzy_title_match"
	ReasonUnique     Reason = "unique"
)

// Verdict is the outcome of a duplicate check. It is a plain value consumed
// immediately by the caller and never persisted.
type Verdict struct {
	IsDuplicate  bool
	Reason       Reason
	Similarity   float64
	MatchedTitle string
}

// Config tunes the deduplicator. Zero values fall back to defaults.
type Config struct {
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	NGramSize           int     `yaml:"ngramSize"`
	MaxHistory          int     `yaml:"maxHistory"`
}

const (
	defaultThreshold  = 0.65
	defaultNGramSize  = 3
	defaultMaxHistory = 10000
)

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = defaultThreshold
	}
	if c.NGramSize == 0 {
		c.NGramSize = defaultNGramSize
	}
	if c.MaxHistory == 0 {
		c.MaxHistory = defaultMaxHistory
	}
	return c
}

// Deduplicator holds the in-memory fingerprint store. It is not safe for
// concurrent use; callers serialize access through the single pipeline.
type Deduplicator struct {
	cfg        Config
	seenURLs   map[string]struct{}
	seenHashes map[string]struct{}
	titles     *titleHistory
	logger     *slog.Logger
}

// New builds a deduplicator with an empty fingerprint store.
func New(cfg Config, logger *slog.Logger) *Deduplicator {
	cfg = cfg.withDefaults()
	return &Deduplicator{
		cfg:        cfg,
		seenURLs:   make(map[string]struct{}),
		seenHashes: make(map[string]struct{}),
		titles:     newTitleHistory(cfg.MaxHistory),
		logger:     logger,
	}
}

// Check runs the three-tier duplicate check in strict order: exact URL,
// exact hash, then fuzzy title. The first matching tier wins. A unique
// candidate is admitted into the store as a side effect.
func (d *Deduplicator) Check(title, url, content string) Verdict {
	normalizedURL := NormalizeURL(url)
	if normalizedURL != "" {
		if _, seen := d.seenURLs[normalizedURL]; seen {
			d.debug("exact url match", "url", normalizedURL)
			return Verdict{IsDuplicate: true, Reason: ReasonExactURL, Similarity: 1.0}
		}
	}

	contentHash := Hash(title, url, content)
	if _, seen := d.seenHashes[contentHash]; seen {
		d.debug("exact hash match", "title", title)
		return Verdict{IsDuplicate: true, Reason: ReasonExactHash, Similarity: 1.0}
	}

	grams := ngrams(title, d.cfg.NGramSize)
	if len(grams) > 0 {
		for _, entry := range d.titles.entries {
			similarity := jaccard(grams, entry.grams)
			if similarity >= d.cfg.SimilarityThreshold {
				d.debug("fuzzy title match", "title", title, "matched", entry.raw, "similarity", similarity)
				return Verdict{
					IsDuplicate:  true,
					Reason:       ReasonFuzzyTitle,
					Similarity:   similarity,
					MatchedTitle: entry.raw,
				}
			}
		}
	}

	d.admit(title, normalizedURL, contentHash)
	return Verdict{Reason: ReasonUnique}
}

// Seed admits a known historical item without checking it. Used to warm the
// store from the sent-article history after a restart.
func (d *Deduplicator) Seed(title, url, content string) {
	d.admit(title, NormalizeURL(url), Hash(title, url, content))
}

func (d *Deduplicator) admit(title, normalizedURL, contentHash string) {
	if normalizedURL != "" {
		d.seenURLs[normalizedURL] = struct{}{}
	}
	d.seenHashes[contentHash] = struct{}{}
	d.titles.append(titleEntry{
		raw:        title,
		normalized: NormalizeTitle(title),
		grams:      ngrams(title, d.cfg.NGramSize),
	})
}

// Stats is a snapshot of store sizes for monitoring.
type Stats struct {
	UniqueURLs          int
	UniqueHashes        int
	TrackedTitles       int
	SimilarityThreshold float64
	NGramSize           int
	MaxHistory          int
}

// Stats reports the current fingerprint store sizes.
func (d *Deduplicator) Stats() Stats {
	return Stats{
		UniqueURLs:          len(d.seenURLs),
		UniqueHashes:        len(d.seenHashes),
		TrackedTitles:       d.titles.len(),
		SimilarityThreshold: d.cfg.SimilarityThreshold,
		NGramSize:           d.cfg.NGramSize,
		MaxHistory:          d.cfg.MaxHistory,
	}
}

// Clear drops all fingerprints.
func (d *Deduplicator) Clear() {
	d.seenURLs = make(map[string]struct{})
	d.seenHashes = make(map[string]struct{})
	d.titles = newTitleHistory(d.cfg.MaxHistory)
}

func (d *Deduplicator) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
