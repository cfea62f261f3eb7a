package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	protocolRe = regexp.MustCompile(`^https?://`)
	wwwRe      = regexp.MustCompile(`^www\.`)
	utmRe      = regexp.MustCompile(`\?utm_[^&]+(&utm_[^&]+)*`)
	refRe      = regexp.MustCompile(`\?ref=[^&]+`)
	danglingRe = regexp.MustCompile(`[?&]$`)

	punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	digitRe = regexp.MustCompile(`\p{N}+`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// stopWords are dropped from titles before fuzzy comparison. English plus
// Russian, since the feeds mix both.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		"the", "a", "an", "is", "are", "for", "to", "of", "and", "in", "on",
		"with", "best", "top", "new", "how", "what", "why", "this", "that",
		"your", "you", "can", "will",
		"как", "что", "это", "для", "на", "по", "из", "от", "за", "до",
		"при", "без", "под", "над", "или", "но", "да", "не", "же", "ли",
		"бы", "вот", "все", "уже", "еще", "так", "там", "тут", "тоже",
		"очень", "только", "можно", "нужно", "лучший", "лучшие", "новый",
		"новые", "топ",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

// NormalizeURL canonicalizes a URL for exact comparison: protocol and www.
// stripped, trailing slash removed, utm_*/ref tracking parameters dropped,
// lower-cased. Empty input maps to the empty string.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u := strings.ToLower(strings.TrimSpace(raw))
	u = protocolRe.ReplaceAllString(u, "")
	u = wwwRe.ReplaceAllString(u, "")
	u = strings.TrimRight(u, "/")
	u = utmRe.ReplaceAllString(u, "")
	u = refRe.ReplaceAllString(u, "")
	u = danglingRe.ReplaceAllString(u, "")
	return u
}

// NormalizeTitle reduces a title to its comparison form: lower-cased,
// punctuation and digits stripped, stop words and short tokens removed,
// remaining tokens sorted so word order cannot defeat matching.
func NormalizeTitle(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.ToLower(raw)
	text = punctRe.ReplaceAllString(text, "")
	text = digitRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))

	var kept []string
	for _, word := range strings.Fields(text) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		kept = append(kept, word)
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// ngrams returns the set of character n-grams over the normalized form of
// text. A normalized string shorter than n becomes its own single gram.
func ngrams(text string, n int) map[string]struct{} {
	normalized := NormalizeTitle(text)
	if normalized == "" {
		return nil
	}
	runes := []rune(normalized)
	grams := make(map[string]struct{})
	if len(runes) < n {
		grams[normalized] = struct{}{}
		return grams
	}
	for i := 0; i+n <= len(runes); i++ {
		grams[string(runes[i:i+n])] = struct{}{}
	}
	return grams
}

// jaccard computes |a∩b| / |a∪b|; empty sets compare as 0, never 1.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for gram := range a {
		if _, ok := b[gram]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Hash computes the SHA-256 fingerprint over title|url and, when content is
// present, its first 500 characters.
func Hash(title, url, content string) string {
	input := title + "|" + url
	if content != "" {
		runes := []rune(content)
		if len(runes) > 500 {
			runes = runes[:500]
		}
		input += "|" + string(runes)
	}
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
