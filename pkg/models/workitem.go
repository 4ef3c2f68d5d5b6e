// Package models contains domain models for worklog.
package models

import (
	"fmt"
	"strings"
	"time"
)

// SourceType identifies where a work item was read from.
type SourceType string

const (
	SourceOpenCode SourceType = "opencode"
	SourceClaude   SourceType = "claude"
	SourceCodex    SourceType = "codex"
	SourceFactory  SourceType = "factory"
	SourceGit      SourceType = "git"
	SourceGitHub   SourceType = "github"
)

// AllSources lists every known source in display order.
var AllSources = []SourceType{
	SourceOpenCode,
	SourceClaude,
	SourceCodex,
	SourceFactory,
	SourceGit,
	SourceGitHub,
}

// IsValid reports whether s is one of the known sources.
func (s SourceType) IsValid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSource converts a user supplied name into a SourceType.
func ParseSource(name string) (SourceType, error) {
	s := SourceType(strings.ToLower(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown source %q", name)
	}
	return s, nil
}

// WorkItem is a single unit of recorded activity.
// Metadata is source specific and opaque to the analysis code.
type WorkItem struct {
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Source      SourceType     `json:"source"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
}

// Text returns the title followed by the description, if any.
func (w WorkItem) Text() string {
	if w.Description == "" {
		return w.Title
	}
	return w.Title + " " + w.Description
}

// MetadataString returns a string metadata value, or "" when absent or not a string.
func (w WorkItem) MetadataString(key string) string {
	if w.Metadata == nil {
		return ""
	}
	if v, ok := w.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// DateRange is an inclusive time interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
