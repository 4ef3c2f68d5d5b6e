package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Poster delivers a rendered report to a webhook.
type Poster interface {
	Post(ctx context.Context, webhook, text string) error
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(ctx context.Context, webhook, text string) error

func (f PosterFunc) Post(ctx context.Context, webhook, text string) error {
	return f(ctx, webhook, text)
}

// SlackPoster posts to Slack incoming webhooks.
type SlackPoster struct {
	Client *http.Client
}

// NewSlackPoster returns a poster with a bounded request timeout.
func NewSlackPoster() *SlackPoster {
	return &SlackPoster{Client: &http.Client{Timeout: 15 * time.Second}}
}

type slackMessage struct {
	Text string `json:"text"`
}

// Post sends text as a Slack message. Non-2xx responses are errors.
func (p *SlackPoster) Post(ctx context.Context, webhook, text string) error {
	body, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
