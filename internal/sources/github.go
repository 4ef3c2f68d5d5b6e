package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/pkg/models"
)

// githubEvent is the subset of the GitHub events API payload worklog uses.
type githubEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Action  string `json:"action"`
		Commits []struct {
			Message string `json:"message"`
		} `json:"commits"`
		PullRequest *struct {
			Title  string `json:"title"`
			Number int    `json:"number"`
		} `json:"pull_request"`
		Issue *struct {
			Title  string `json:"title"`
			Number int    `json:"number"`
		} `json:"issue"`
		Review *struct {
			State string `json:"state"`
		} `json:"review"`
	} `json:"payload"`
}

// GitHubReader reads the configured user's public events through the gh CLI.
type GitHubReader struct {
	run CommandRunner
}

// NewGitHubReader creates a GitHubReader. A nil runner uses ExecRunner.
func NewGitHubReader(run CommandRunner) *GitHubReader {
	if run == nil {
		run = ExecRunner
	}
	return &GitHubReader{run: run}
}

func (*GitHubReader) Name() models.SourceType { return models.SourceGitHub }

func (g *GitHubReader) Read(ctx context.Context, r models.DateRange, cfg *config.Config) ([]models.WorkItem, error) {
	if cfg.GitHubUser == "" {
		return []models.WorkItem{}, nil
	}

	out, err := g.run(ctx, "gh", "api", fmt.Sprintf("/users/%s/events", cfg.GitHubUser), "--paginate")
	if err != nil {
		return nil, fmt.Errorf("fetch github events: %w", err)
	}

	events, err := decodeEventPages(out)
	if err != nil {
		return nil, err
	}

	items := []models.WorkItem{}
	for _, event := range events {
		if !r.Contains(event.CreatedAt) {
			continue
		}
		if item, ok := eventToWorkItem(event); ok {
			items = append(items, item)
		}
	}
	models.SortByTimestamp(items)
	return items, nil
}

// decodeEventPages decodes the concatenated JSON arrays gh prints when paginating.
func decodeEventPages(data []byte) ([]githubEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var events []githubEvent
	for {
		var page []githubEvent
		err := dec.Decode(&page)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode github events: %w", err)
		}
		events = append(events, page...)
	}
	return events, nil
}

func eventToWorkItem(event githubEvent) (models.WorkItem, bool) {
	repo := event.Repo.Name
	p := event.Payload
	item := models.WorkItem{Source: models.SourceGitHub, Timestamp: event.CreatedAt}

	action := p.Action
	if action == "" {
		action = "updated"
	}

	switch event.Type {
	case "PushEvent":
		if len(p.Commits) == 0 {
			return models.WorkItem{}, false
		}
		first := strings.SplitN(p.Commits[0].Message, "\n", 2)[0]
		if first == "" {
			first = "Push"
		}
		item.Title = fmt.Sprintf("[%s] Push: %s", repo, first)
		if len(p.Commits) > 1 {
			item.Description = fmt.Sprintf("%d commits", len(p.Commits))
		}
		item.Metadata = map[string]any{"type": "push", "repo": repo, "commitCount": len(p.Commits)}

	case "PullRequestEvent":
		if p.PullRequest == nil {
			return models.WorkItem{}, false
		}
		item.Title = fmt.Sprintf("[%s] PR #%d %s: %s", repo, p.PullRequest.Number, action, p.PullRequest.Title)
		item.Metadata = map[string]any{"type": "pr", "repo": repo, "number": p.PullRequest.Number, "action": action}

	case "IssuesEvent":
		if p.Issue == nil {
			return models.WorkItem{}, false
		}
		item.Title = fmt.Sprintf("[%s] Issue #%d %s: %s", repo, p.Issue.Number, action, p.Issue.Title)
		item.Metadata = map[string]any{"type": "issue", "repo": repo, "number": p.Issue.Number, "action": action}

	case "PullRequestReviewEvent":
		if p.PullRequest == nil || p.Review == nil {
			return models.WorkItem{}, false
		}
		item.Title = fmt.Sprintf("[%s] Reviewed PR #%d: %s", repo, p.PullRequest.Number, p.PullRequest.Title)
		item.Description = "Review: " + p.Review.State
		item.Metadata = map[string]any{"type": "review", "repo": repo, "number": p.PullRequest.Number, "state": p.Review.State}

	case "IssueCommentEvent":
		if p.Issue == nil {
			return models.WorkItem{}, false
		}
		item.Title = fmt.Sprintf("[%s] Commented on #%d: %s", repo, p.Issue.Number, p.Issue.Title)
		item.Metadata = map[string]any{"type": "comment", "repo": repo, "number": p.Issue.Number}

	default:
		return models.WorkItem{}, false
	}

	return item, true
}
