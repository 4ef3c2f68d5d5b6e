package analyzer

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/stat"

	"github.com/thebtf/worklog/pkg/models"
)

// themeFallback labels clusters with no significant keywords.
const themeFallback = "Miscellaneous"

// Describe turns groups of items into clusters with ids, keywords, a theme and
// a coherence score. Group order determines cluster ids.
func (a *Analyzer) Describe(groups [][]models.WorkItem) []models.Cluster {
	clusters := make([]models.Cluster, 0, len(groups))
	for k, group := range groups {
		keywords := a.tokenizer.KeyTerms(group, a.keywordCount)
		clusters = append(clusters, models.Cluster{
			ID:             fmt.Sprintf("cluster-%d", k),
			Items:          group,
			Keywords:       keywords,
			Theme:          themeFor(keywords),
			CoherenceScore: a.coherence(group),
		})
	}
	return clusters
}

// themeFor builds a label from the top two keywords.
func themeFor(keywords []string) string {
	if len(keywords) == 0 {
		return themeFallback
	}

	top := keywords
	if len(top) > 2 {
		top = top[:2]
	}

	// Casers keep state, so one per call
	caser := cases.Title(language.English)
	parts := make([]string, len(top))
	for i, kw := range top {
		parts[i] = caser.String(kw)
	}
	return strings.Join(parts, " & ")
}

// coherence is the mean pairwise similarity of the group; 1 for a singleton.
func (a *Analyzer) coherence(group []models.WorkItem) float64 {
	if len(group) < 2 {
		return 1.0
	}

	m := a.tokenizer.ComputeMatrix(group)
	n := m.Len()
	scores := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			scores = append(scores, m.At(i, j))
		}
	}
	return clamp01(stat.Mean(scores, nil))
}
