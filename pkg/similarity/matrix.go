package similarity

import (
	"gonum.org/v1/gonum/mat"

	"github.com/thebtf/worklog/pkg/models"
)

// JaccardSimilarity calculates |a ∩ b| / |a ∪ b| over the distinct terms of two sets.
// Returns 0 when both sets are empty.
func JaccardSimilarity(a, b TermSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for term := range a {
		if _, ok := b[term]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Similarity scores two work items in [0,1].
// Items whose normalized text is identical always score exactly 1.
func (t *Tokenizer) Similarity(a, b models.WorkItem) float64 {
	return pairSimilarity(normalizedText(a), normalizedText(b), t.Terms(a), t.Terms(b))
}

func pairSimilarity(textA, textB string, a, b TermSet) float64 {
	if textA == textB {
		return 1.0
	}
	return JaccardSimilarity(a, b)
}

// Matrix is a symmetric N×N table of pairwise item similarities.
// The zero value is the empty matrix.
type Matrix struct {
	sym *mat.SymDense
}

// Len returns N, the number of items the matrix was computed over.
func (m Matrix) Len() int {
	if m.sym == nil {
		return 0
	}
	return m.sym.SymmetricDim()
}

// At returns the similarity between items i and j.
func (m Matrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// Rows copies the matrix into a slice of rows.
func (m Matrix) Rows() [][]float64 {
	n := m.Len()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.sym.At(i, j)
		}
	}
	return rows
}

// ComputeMatrix scores every pair of items. The diagonal is always 1.
func (t *Tokenizer) ComputeMatrix(items []models.WorkItem) Matrix {
	n := len(items)
	if n == 0 {
		return Matrix{}
	}

	texts := make([]string, n)
	terms := make([]TermSet, n)
	for i, item := range items {
		texts[i] = normalizedText(item)
		terms[i] = t.Terms(item)
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1.0)
		for j := i + 1; j < n; j++ {
			sym.SetSym(i, j, pairSimilarity(texts[i], texts[j], terms[i], terms[j]))
		}
	}
	return Matrix{sym: sym}
}

// ComputeSimilarityMatrix scores every pair of items using the default tokenizer.
func ComputeSimilarityMatrix(items []models.WorkItem) Matrix {
	return defaultTokenizer.ComputeMatrix(items)
}
