// Package format renders work summaries as JSON, Markdown, plain text or Slack mrkdwn.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/pkg/models"
	"github.com/thebtf/worklog/pkg/similarity"
)

// Format is an output format name.
type Format string

const (
	JSON     Format = "json"
	Markdown Format = "markdown"
	Plain    Format = "plain"
	Slack    Format = "slack"
)

// Parse parses a format name. "md" and "text" are accepted as aliases.
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "markdown", "md", "":
		return Markdown, nil
	case "plain", "text":
		return Plain, nil
	case "slack":
		return Slack, nil
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// Renderer renders summaries. Times are shown in Location.
type Renderer struct {
	Location *time.Location
	// KeyTerms is how many key terms to list; zero hides them.
	KeyTerms int
}

// Render renders summary in local time with the default key term count.
func Render(summary models.WorkSummary, f Format) (string, error) {
	return Renderer{Location: time.Local, KeyTerms: similarity.DefaultKeyTerms}.Render(summary, f)
}

// Render renders summary in format f.
func (r Renderer) Render(summary models.WorkSummary, f Format) (string, error) {
	switch f {
	case JSON:
		return r.renderJSON(summary)
	case Markdown:
		return r.renderMarkdown(summary), nil
	case Plain:
		return r.renderPlain(summary), nil
	case Slack:
		return r.renderSlack(summary), nil
	}
	return "", fmt.Errorf("unknown format %q", f)
}

func (r Renderer) in(t time.Time) time.Time {
	if r.Location == nil {
		return t
	}
	return t.In(r.Location)
}

func (r Renderer) clock(t time.Time) string {
	return r.in(t).Format("15:04")
}

func (r Renderer) keyTerms(summary models.WorkSummary) []string {
	if r.KeyTerms <= 0 || len(summary.Items) == 0 {
		return nil
	}
	return similarity.ExtractKeyTerms(summary.Items, r.KeyTerms)
}

// Title names the report after the length of its range.
func Title(rng models.DateRange) string {
	switch dates.PeriodOf(rng) {
	case dates.Weekly:
		return "Weekly Summary"
	case dates.Monthly:
		return "Monthly Summary"
	case dates.Quarterly:
		return "Quarterly Summary"
	}
	return "Daily Standup"
}

func (r Renderer) heading(rng models.DateRange) string {
	local := models.DateRange{Start: r.in(rng.Start), End: r.in(rng.End)}
	return fmt.Sprintf("%s - %s", Title(local), dates.Label(local))
}

var sourceEmojis = map[models.SourceType]string{
	models.SourceOpenCode: "🔧",
	models.SourceClaude:   "🤖",
	models.SourceCodex:    "💻",
	models.SourceFactory:  "🏭",
	models.SourceGit:      "📝",
	models.SourceGitHub:   "🐙",
}

var sourceNames = map[models.SourceType]string{
	models.SourceOpenCode: "OpenCode Sessions",
	models.SourceClaude:   "Claude Code",
	models.SourceCodex:    "Codex",
	models.SourceFactory:  "Factory",
	models.SourceGit:      "Git Commits",
	models.SourceGitHub:   "GitHub Activity",
}

// SourceName is the display name of a source.
func SourceName(s models.SourceType) string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return string(s)
}

type sourceGroup struct {
	source models.SourceType
	items  []models.WorkItem
}

// groupBySource groups items by source in first-seen order.
func groupBySource(items []models.WorkItem) []sourceGroup {
	index := make(map[models.SourceType]int)
	var groups []sourceGroup
	for _, item := range items {
		i, ok := index[item.Source]
		if !ok {
			i = len(groups)
			index[item.Source] = i
			groups = append(groups, sourceGroup{source: item.Source})
		}
		groups[i].items = append(groups[i].items, item)
	}
	return groups
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}

const noActivity = "No activity recorded for this period."
