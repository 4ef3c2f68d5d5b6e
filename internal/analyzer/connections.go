package analyzer

import (
	"strings"

	"github.com/thebtf/worklog/pkg/models"
)

// FindCrossClusterConnections links every pair of clusters that share at least
// one keyword. Pairs are visited in cluster order, earlier cluster first, and the
// relationship lists the shared keywords in the earlier cluster's order.
func FindCrossClusterConnections(clusters []models.Cluster) []models.CrossClusterConnection {
	connections := make([]models.CrossClusterConnection, 0)

	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			shared := sharedKeywords(clusters[i].Keywords, clusters[j].Keywords)
			if len(shared) == 0 {
				continue
			}
			connections = append(connections, models.CrossClusterConnection{
				From:         clusters[i].ID,
				To:           clusters[j].ID,
				Relationship: strings.Join(shared, ", "),
			})
		}
	}

	return connections
}

func sharedKeywords(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, kw := range b {
		inB[kw] = true
	}

	var shared []string
	seen := make(map[string]bool)
	for _, kw := range a {
		if inB[kw] && !seen[kw] {
			seen[kw] = true
			shared = append(shared, kw)
		}
	}
	return shared
}
