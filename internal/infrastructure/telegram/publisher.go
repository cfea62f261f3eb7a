// Package telegram delivers finished posts to a channel via the Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsPlanner/internal/domain"
	"NewsPlanner/internal/ports"
)

const messageLimit = 4096

// Publisher sends posts to a Telegram chat via the bot API.
type Publisher struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher registers bot token and chat identifier.
func NewPublisher(botToken, chatID string) *Publisher {
	return &Publisher{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish sends the post to the channel. Posts with an http(s) image
// reference go out as a photo with caption; everything else as a text
// message.
func (p *Publisher) Publish(ctx context.Context, post domain.Post) error {
	if p.botToken == "" || p.chatID == "" {
		return fmt.Errorf("telegram publisher misconfigured")
	}

	text := composeText(post)
	if isRemoteImage(post.ImageRef) && len(text) <= 1024 {
		return p.call(ctx, "sendPhoto", url.Values{
			"chat_id": {p.chatID},
			"photo":   {post.ImageRef},
			"caption": {text},
		})
	}
	return p.Send(ctx, text)
}

// Send posts a plain text message to the chat. The monitor uses it for
// alerts and daily summaries.
func (p *Publisher) Send(ctx context.Context, text string) error {
	if p.botToken == "" || p.chatID == "" {
		return fmt.Errorf("telegram publisher misconfigured")
	}
	if len(text) > messageLimit {
		text = text[:messageLimit]
	}
	return p.call(ctx, "sendMessage", url.Values{
		"chat_id": {p.chatID},
		"text":    {text},
	})
}

func (p *Publisher) call(ctx context.Context, method string, form url.Values) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", p.baseURL, p.botToken, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram %s: %s", method, resp.Status)
	}
	return nil
}

func composeText(post domain.Post) string {
	text := strings.TrimSpace(post.Text)
	if post.Hashtags != "" && !strings.Contains(text, post.Hashtags) {
		text = text + "\n\n" + post.Hashtags
	}
	return text
}

func isRemoteImage(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
