package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsPlanner/internal/domain"
	"NewsPlanner/internal/ports"
)

// Options configures the OpenAI-compatible chat endpoint.
type Options struct {
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// Generator implements ports.Generator backed by an OpenAI-compatible API.
type Generator struct {
	opts       Options
	httpClient *http.Client
}

var _ ports.Generator = (*Generator)(nil)

// NewGenerator builds a generator from options.
func NewGenerator(opts Options) *Generator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 900
	}
	return &Generator{
		opts: opts,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Generate asks the model to write a channel post about the article under the
// rubric's editorial prompt. The returned draft carries the rubric hashtags
// and a derived image prompt.
func (g *Generator) Generate(ctx context.Context, article domain.Article, rubric domain.Rubric) (domain.Draft, error) {
	if g == nil {
		return domain.Draft{}, fmt.Errorf("llm generator is nil")
	}
	if g.opts.APIKey == "" || g.opts.Endpoint == "" || g.opts.Model == "" {
		return domain.Draft{}, fmt.Errorf("llm generator misconfigured")
	}
	if !rubric.Valid() {
		rubric = domain.DefaultRubric
	}

	text, err := g.complete(ctx, rubric.Prompt(), articlePayload(article))
	if err != nil {
		return domain.Draft{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Draft{}, fmt.Errorf("llm returned empty post")
	}

	return domain.Draft{
		Text:         text,
		ArticleURL:   article.Link,
		ArticleTitle: article.Title,
		ImageRef:     article.ImageURL,
		ImagePrompt:  imagePrompt(article, rubric),
		Rubric:       rubric,
		Hashtags:     rubric.Hashtags(),
	}, nil
}

func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":       g.opts.Model,
		"temperature": g.opts.Temperature,
		"max_tokens":  g.opts.MaxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal llm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call llm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func articlePayload(article domain.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	if article.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", article.Summary)
	}
	fmt.Fprintf(&b, "Source: %s\nLink: %s\n", article.Source, article.Link)
	return b.String()
}

func imagePrompt(article domain.Article, rubric domain.Rubric) string {
	return fmt.Sprintf("Editorial illustration for a %s post about: %s. Clean, modern, no text.",
		strings.ReplaceAll(string(rubric), "_", " "), article.Title)
}
