package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thebtf/worklog/pkg/models"
)

// NoItemsNarrative is the narrative for an empty period.
const NoItemsNarrative = "No work items found for this period."

// BuildSmartSummary clusters items, links related clusters and writes a short
// narrative. It never fails; an empty input yields NoItemsNarrative.
func (a *Analyzer) BuildSmartSummary(items []models.WorkItem, threshold float64) models.SmartSummary {
	if len(items) == 0 {
		return models.SmartSummary{
			Clusters:                []models.Cluster{},
			Narrative:               NoItemsNarrative,
			CrossClusterConnections: []models.CrossClusterConnection{},
		}
	}

	clusters := a.ClusterItems(items, threshold)
	connections := FindCrossClusterConnections(clusters)

	return models.SmartSummary{
		Clusters:                clusters,
		Narrative:               composeNarrative(clusters, connections),
		CrossClusterConnections: connections,
	}
}

func composeNarrative(clusters []models.Cluster, connections []models.CrossClusterConnection) string {
	var b strings.Builder

	if len(clusters) == 1 {
		c := clusters[0]
		fmt.Fprintf(&b, "Work focused on %s across %s.", c.Theme, countNoun(c.Size(), "item"))
	} else {
		// Largest themes first; equal sizes keep cluster order
		ordered := make([]models.Cluster, len(clusters))
		copy(ordered, clusters)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Size() > ordered[j].Size()
		})

		parts := make([]string, len(ordered))
		for i, c := range ordered {
			parts[i] = fmt.Sprintf("%s (%s)", c.Theme, countNoun(c.Size(), "item"))
		}
		fmt.Fprintf(&b, "Work spanned %d themes: %s.", len(clusters), joinList(parts))
	}

	if len(connections) > 0 {
		themes := make(map[string]string, len(clusters))
		for _, c := range clusters {
			themes[c.ID] = c.Theme
		}

		links := make([]string, len(connections))
		for i, conn := range connections {
			links[i] = fmt.Sprintf("%s and %s share %s", themes[conn.From], themes[conn.To], conn.Relationship)
		}
		fmt.Fprintf(&b, " Related threads: %s.", strings.Join(links, "; "))
	}

	return b.String()
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// joinList renders "a", "a and b" or "a, b, and c".
func joinList(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
}
