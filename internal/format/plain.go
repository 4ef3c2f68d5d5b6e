package format

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thebtf/worklog/pkg/models"
)

var (
	headingColor = color.New(color.Bold)
	sourceColor  = color.New(color.FgCyan)
)

func (r Renderer) renderPlain(summary models.WorkSummary) string {
	var lines []string

	lines = append(lines, headingColor.Sprintf("Worklog: %s", r.heading(summary.DateRange)))
	lines = append(lines, strings.Repeat("=", 50), "")

	if smart := summary.Smart; smart != nil && len(smart.Clusters) > 0 {
		lines = append(lines, "Summary:", smart.Narrative, "")
	}

	if len(summary.Items) == 0 {
		lines = append(lines, noActivity)
		return strings.Join(lines, "\n")
	}

	if terms := r.keyTerms(summary); len(terms) > 0 {
		lines = append(lines, "Key terms: "+strings.Join(terms, ", "), "")
	}

	for _, item := range summary.Items {
		source := sourceColor.Sprintf("%-8s", strings.ToUpper(string(item.Source)))
		lines = append(lines, fmt.Sprintf("[%s] %s %s", r.clock(item.Timestamp), source, item.Title))
		if item.Description != "" {
			lines = append(lines, fmt.Sprintf("%s %s", strings.Repeat(" ", 16), item.Description))
		}
	}

	return strings.Join(lines, "\n")
}
