package format

import (
	"fmt"
	"strings"

	"github.com/thebtf/worklog/pkg/models"
)

// slackEscape escapes the characters Slack treats as control sequences.
var slackEscape = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (r Renderer) renderSlack(summary models.WorkSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", slackEscape.Replace(r.heading(summary.DateRange)))

	if smart := summary.Smart; smart != nil && len(smart.Clusters) > 0 {
		fmt.Fprintf(&b, "\n%s\n", slackEscape.Replace(smart.Narrative))
		for _, c := range smart.Clusters {
			fmt.Fprintf(&b, "• *%s* (%s)\n", slackEscape.Replace(c.Theme), itemCount(c.Size()))
		}
	}

	if len(summary.Items) == 0 {
		fmt.Fprintf(&b, "\n_%s_\n", noActivity)
		return b.String()
	}

	for _, group := range groupBySource(summary.Items) {
		fmt.Fprintf(&b, "\n%s *%s*\n", sourceEmojis[group.source], SourceName(group.source))
		for _, item := range group.items {
			fmt.Fprintf(&b, "• `%s` %s\n", r.clock(item.Timestamp), slackEscape.Replace(item.Title))
		}
	}

	return b.String()
}
