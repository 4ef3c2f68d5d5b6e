// Package noise filters transcript artifacts out of work items.
package noise

import (
	"regexp"
	"strings"

	"github.com/thebtf/worklog/pkg/models"
)

var (
	// interruptedRegex matches the marker agents leave when the user cancels a turn
	interruptedRegex = regexp.MustCompile(`(?i)request interrupted by user`)

	// privateTagRegex matches <private>...</private> tags
	privateTagRegex = regexp.MustCompile(`(?s)<private>.*?</private>`)

	// reminderTagRegex matches <system-reminder>...</system-reminder> tags
	reminderTagRegex = regexp.MustCompile(`(?s)<system-reminder>.*?</system-reminder>`)

	// commandTagRegex matches <command-name>, <command-args>, <local-command-stdout> and friends
	commandTagRegex = regexp.MustCompile(`(?s)<(?:local-)?command-[a-z-]+>.*?</(?:local-)?command-[a-z-]+>`)

	// contextTagRegex matches context blocks agents prepend to the first user turn
	contextTagRegex = regexp.MustCompile(`(?s)<(environment_context|user_instructions)>.*?</(environment_context|user_instructions)>`)
)

// IsNoise reports whether a title or description is an interruption marker.
func IsNoise(title, description string) bool {
	return interruptedRegex.MatchString(title) || interruptedRegex.MatchString(description)
}

// IsNoiseItem reports whether item is noise.
func IsNoiseItem(item models.WorkItem) bool {
	return IsNoise(item.Title, item.Description)
}

// Filter returns the items that are not noise, preserving order.
func Filter(items []models.WorkItem) []models.WorkItem {
	kept := make([]models.WorkItem, 0, len(items))
	for _, item := range items {
		if !IsNoiseItem(item) {
			kept = append(kept, item)
		}
	}
	return kept
}

// StripPrivateTags removes all <private>...</private> content from text.
func StripPrivateTags(text string) string {
	return privateTagRegex.ReplaceAllString(text, "")
}

// StripAllTags removes private, reminder, command and agent context tags.
func StripAllTags(text string) string {
	text = StripPrivateTags(text)
	text = reminderTagRegex.ReplaceAllString(text, "")
	text = commandTagRegex.ReplaceAllString(text, "")
	text = contextTagRegex.ReplaceAllString(text, "")
	return text
}

// Clean strips tags and surrounding whitespace from a transcript message.
func Clean(text string) string {
	return strings.TrimSpace(StripAllTags(text))
}
