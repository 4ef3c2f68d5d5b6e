package analyzer

import (
	"github.com/thebtf/worklog/pkg/models"
	"github.com/thebtf/worklog/pkg/similarity"
)

// ClusterItems partitions items in a single greedy pass and describes each group.
//
// Items are visited in input order. An item joins the existing cluster holding its
// most similar member when that similarity is at least threshold (the earliest
// cluster wins ties); otherwise it starts a new cluster. The result therefore
// depends on input order.
func (a *Analyzer) ClusterItems(items []models.WorkItem, threshold float64) []models.Cluster {
	matrix := a.tokenizer.ComputeMatrix(items)
	partition := greedyPartition(matrix, normalizeThreshold(threshold))

	groups := make([][]models.WorkItem, len(partition))
	for g, members := range partition {
		groups[g] = make([]models.WorkItem, len(members))
		for k, idx := range members {
			groups[g][k] = items[idx]
		}
	}
	return a.Describe(groups)
}

// greedyPartition returns clusters as lists of item indices in merge order.
func greedyPartition(m similarity.Matrix, threshold float64) [][]int {
	var clusters [][]int

	for i := 0; i < m.Len(); i++ {
		best, bestScore := -1, -1.0
		for c, members := range clusters {
			score := 0.0
			for _, j := range members {
				if s := m.At(i, j); s > score {
					score = s
				}
			}
			if score > bestScore {
				best, bestScore = c, score
			}
		}

		if best >= 0 && bestScore >= threshold {
			clusters[best] = append(clusters[best], i)
			continue
		}
		clusters = append(clusters, []int{i})
	}

	return clusters
}
