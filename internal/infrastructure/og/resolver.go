// Package og extracts cover images from article pages via their Open Graph
// and Twitter Card metadata.
package og

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"NewsPlanner/internal/ports"
)

const maxImageBytes = 10 << 20

// Resolver fetches an article page and picks its cover image.
type Resolver struct {
	client   *http.Client
	cacheDir string
	logger   *slog.Logger
}

var _ ports.ImageResolver = (*Resolver)(nil)

// NewResolver builds a resolver; cacheDir is where Download stores files.
func NewResolver(cacheDir string, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// Resolve returns the best cover image URL for the page, or "" when the page
// has none. Preference order: og:image, twitter:image, then the first content
// image in the body.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NewsPlanner/1.0)")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	image := metaContent(doc, `meta[property="og:image"]`)
	if image == "" {
		image = metaContent(doc, `meta[name="twitter:image"]`)
	}
	if image == "" {
		image = firstContentImage(doc)
	}
	if image == "" {
		return "", nil
	}
	return absoluteURL(pageURL, image), nil
}

// Download saves the image to the cache directory under a random name and
// returns the local path.
func (r *Resolver) Download(ctx context.Context, imageURL string) (string, error) {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: %s", resp.Status)
	}

	path := filepath.Join(r.cacheDir, uuid.NewString()+imageExt(imageURL, resp.Header.Get("Content-Type")))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	if _, err := io.Copy(file, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}

	if r.logger != nil {
		r.logger.Debug("image cached", "url", imageURL, "path", path)
	}
	return path, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// firstContentImage picks the first body image that does not look like an
// icon, logo, or tracking pixel.
func firstContentImage(doc *goquery.Document) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok {
			return true
		}
		src = strings.TrimSpace(src)
		lower := strings.ToLower(src)
		if src == "" || strings.HasPrefix(lower, "data:") {
			return true
		}
		for _, skip := range []string{"icon", "logo", "avatar", "pixel", "badge", "sprite"} {
			if strings.Contains(lower, skip) {
				return true
			}
		}
		found = src
		return false
	})
	return found
}

func absoluteURL(pageURL, image string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return image
	}
	ref, err := url.Parse(image)
	if err != nil {
		return image
	}
	return base.ResolveReference(ref).String()
}

func imageExt(imageURL, contentType string) string {
	if u, err := url.Parse(imageURL); err == nil {
		if ext := filepath.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
