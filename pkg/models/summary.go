package models

import (
	"sort"
	"time"
)

// WorkSummary is the collected activity for a date range, ready for formatting.
type WorkSummary struct {
	DateRange   DateRange     `json:"dateRange"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Smart       *SmartSummary `json:"smart,omitempty"`
	Items       []WorkItem    `json:"items"`
	Sources     []SourceType  `json:"sources"`
}

// NewWorkSummary sorts items by timestamp and records which sources contributed.
func NewWorkSummary(r DateRange, items []WorkItem, generatedAt time.Time) WorkSummary {
	sorted := make([]WorkItem, len(items))
	copy(sorted, items)
	SortByTimestamp(sorted)

	return WorkSummary{
		DateRange:   r,
		Items:       sorted,
		Sources:     ActiveSources(sorted),
		GeneratedAt: generatedAt,
	}
}

// SortByTimestamp orders items oldest first, keeping the relative order of equal timestamps.
func SortByTimestamp(items []WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.Before(items[j].Timestamp)
	})
}

// ActiveSources returns the distinct sources of items in first-seen order.
func ActiveSources(items []WorkItem) []SourceType {
	seen := make(map[SourceType]bool)
	sources := make([]SourceType, 0)
	for _, item := range items {
		if seen[item.Source] {
			continue
		}
		seen[item.Source] = true
		sources = append(sources, item.Source)
	}
	return sources
}
