// Package analyzer groups work items into themes and composes a narrative
// summary of them. All computation is in memory and deterministic for a
// given input order.
package analyzer

import (
	"math"

	"github.com/thebtf/worklog/pkg/models"
	"github.com/thebtf/worklog/pkg/similarity"
)

const (
	// DefaultThreshold is the minimum similarity for an item to join an existing cluster.
	DefaultThreshold = 0.3

	// DefaultKeywordCount is the number of keywords kept per cluster.
	DefaultKeywordCount = 5
)

// Analyzer clusters work items using a fixed tokenizer.
// It holds no mutable state and may be shared between goroutines.
type Analyzer struct {
	tokenizer    *similarity.Tokenizer
	keywordCount int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithKeywordCount sets how many keywords each cluster keeps.
func WithKeywordCount(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.keywordCount = n
		}
	}
}

// New creates an Analyzer. A nil tokenizer means similarity.Default().
func New(tokenizer *similarity.Tokenizer, opts ...Option) *Analyzer {
	if tokenizer == nil {
		tokenizer = similarity.Default()
	}
	a := &Analyzer{
		tokenizer:    tokenizer,
		keywordCount: DefaultKeywordCount,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAnalyzer = New(similarity.Default())

// ClusterItems groups items with the default analyzer.
func ClusterItems(items []models.WorkItem, threshold float64) []models.Cluster {
	return defaultAnalyzer.ClusterItems(items, threshold)
}

// BuildSmartSummary clusters items with the default analyzer and describes the result.
func BuildSmartSummary(items []models.WorkItem, threshold float64) models.SmartSummary {
	return defaultAnalyzer.BuildSmartSummary(items, threshold)
}

// normalizeThreshold clamps threshold into [0,1]; NaN selects DefaultThreshold.
func normalizeThreshold(threshold float64) float64 {
	switch {
	case math.IsNaN(threshold):
		return DefaultThreshold
	case threshold < 0:
		return 0
	case threshold > 1:
		return 1
	}
	return threshold
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
