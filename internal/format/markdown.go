package format

import (
	"fmt"
	"strings"

	"github.com/thebtf/worklog/pkg/models"
)

func (r Renderer) renderMarkdown(summary models.WorkSummary) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("# %s", r.heading(summary.DateRange))
	add("")

	if smart := summary.Smart; smart != nil && len(smart.Clusters) > 0 {
		add("## Themes")
		add("")
		add("%s", smart.Narrative)
		add("")
		for _, c := range smart.Clusters {
			if len(c.Keywords) > 0 {
				add("- **%s** (%s): %s", c.Theme, itemCount(c.Size()), strings.Join(c.Keywords, ", "))
			} else {
				add("- **%s** (%s)", c.Theme, itemCount(c.Size()))
			}
		}
		add("")
	}

	if len(summary.Items) == 0 {
		add("*%s*", noActivity)
		return strings.Join(lines, "\n")
	}

	if terms := r.keyTerms(summary); len(terms) > 0 {
		add("**Key terms:** %s", strings.Join(terms, ", "))
		add("")
	}

	for _, group := range groupBySource(summary.Items) {
		add("## %s %s", sourceEmojis[group.source], SourceName(group.source))
		add("")
		for _, item := range group.items {
			add("- **%s** %s", r.clock(item.Timestamp), item.Title)
			if item.Description != "" {
				add("  - %s", item.Description)
			}
		}
		add("")
	}

	add("---")
	add("*Generated at %s*", r.in(summary.GeneratedAt).Format("2006-01-02 15:04:05"))

	return strings.Join(lines, "\n")
}
