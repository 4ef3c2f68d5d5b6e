package format

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/thebtf/worklog/pkg/models"
)

type jsonRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type jsonItem struct {
	Source      models.SourceType `json:"source"`
	Timestamp   string            `json:"timestamp"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Metadata    map[string]any    `json:"metadata"`
}

type jsonCluster struct {
	ID             string   `json:"id"`
	Theme          string   `json:"theme"`
	Keywords       []string `json:"keywords"`
	CoherenceScore float64  `json:"coherenceScore"`
	ItemCount      int      `json:"itemCount"`
	Items          []string `json:"items"`
}

type jsonSmart struct {
	Narrative               string                          `json:"narrative"`
	Clusters                []jsonCluster                   `json:"clusters"`
	CrossClusterConnections []models.CrossClusterConnection `json:"crossClusterConnections"`
}

type jsonReport struct {
	DateRange    jsonRange           `json:"dateRange"`
	GeneratedAt  string              `json:"generatedAt"`
	Sources      []models.SourceType `json:"sources"`
	ItemCount    int                 `json:"itemCount"`
	KeyTerms     []string            `json:"keyTerms"`
	SmartSummary *jsonSmart          `json:"smartSummary"`
	Items        []jsonItem          `json:"items"`
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func (r Renderer) renderJSON(summary models.WorkSummary) (string, error) {
	report := jsonReport{
		DateRange:   jsonRange{Start: isoTime(summary.DateRange.Start), End: isoTime(summary.DateRange.End)},
		GeneratedAt: isoTime(summary.GeneratedAt),
		Sources:     summary.Sources,
		ItemCount:   len(summary.Items),
		KeyTerms:    r.keyTerms(summary),
		Items:       make([]jsonItem, 0, len(summary.Items)),
	}
	if report.Sources == nil {
		report.Sources = []models.SourceType{}
	}
	if report.KeyTerms == nil {
		report.KeyTerms = []string{}
	}

	for _, item := range summary.Items {
		ji := jsonItem{
			Source:    item.Source,
			Timestamp: isoTime(item.Timestamp),
			Title:     item.Title,
		}
		if item.Description != "" {
			desc := item.Description
			ji.Description = &desc
		}
		if len(item.Metadata) > 0 {
			ji.Metadata = item.Metadata
		}
		report.Items = append(report.Items, ji)
	}

	if smart := summary.Smart; smart != nil {
		js := &jsonSmart{
			Narrative:               smart.Narrative,
			Clusters:                make([]jsonCluster, 0, len(smart.Clusters)),
			CrossClusterConnections: smart.CrossClusterConnections,
		}
		if js.CrossClusterConnections == nil {
			js.CrossClusterConnections = []models.CrossClusterConnection{}
		}
		for _, c := range smart.Clusters {
			titles := make([]string, len(c.Items))
			for i, item := range c.Items {
				titles[i] = item.Title
			}
			keywords := c.Keywords
			if keywords == nil {
				keywords = []string{}
			}
			js.Clusters = append(js.Clusters, jsonCluster{
				ID:             c.ID,
				Theme:          c.Theme,
				Keywords:       keywords,
				CoherenceScore: c.CoherenceScore,
				ItemCount:      c.Size(),
				Items:          titles,
			})
		}
		report.SmartSummary = js
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(data), nil
}
