package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/worklog/pkg/models"
)

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		set1     TermSet
		set2     TermSet
		expected float64
	}{
		{
			name:     "identical sets",
			set1:     TermSet{"a": 1, "b": 1, "c": 1},
			set2:     TermSet{"a": 1, "b": 1, "c": 1},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			set1:     TermSet{"a": 1, "b": 1},
			set2:     TermSet{"c": 1, "d": 1},
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			set1:     TermSet{"a": 1, "b": 1, "c": 1},
			set2:     TermSet{"b": 1, "c": 1, "d": 1},
			expected: 0.5, // intersection=2, union=4
		},
		{
			name:     "frequencies ignored",
			set1:     TermSet{"a": 5, "b": 1},
			set2:     TermSet{"a": 1, "b": 9},
			expected: 1.0,
		},
		{
			name:     "empty sets",
			set1:     TermSet{},
			set2:     TermSet{},
			expected: 0.0,
		},
		{
			name:     "one empty set",
			set1:     TermSet{"a": 1},
			set2:     TermSet{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, JaccardSimilarity(tt.set1, tt.set2), 0.001)
		})
	}
}

// MatrixSuite covers ComputeSimilarityMatrix.
type MatrixSuite struct {
	suite.Suite
}

func TestMatrixSuite(t *testing.T) {
	suite.Run(t, new(MatrixSuite))
}

func (s *MatrixSuite) assertWellFormed(m Matrix, n int) {
	s.Require().Equal(n, m.Len())
	for i := 0; i < n; i++ {
		s.Equal(1.0, m.At(i, i))
		for j := 0; j < n; j++ {
			s.Equal(m.At(i, j), m.At(j, i))
			s.GreaterOrEqual(m.At(i, j), 0.0)
			s.LessOrEqual(m.At(i, j), 1.0)
		}
	}
}

func (s *MatrixSuite) TestIdenticalItems() {
	m := ComputeSimilarityMatrix([]models.WorkItem{
		item("Fix authentication bug"),
		item("Fix authentication bug"),
	})

	s.assertWellFormed(m, 2)
	s.Equal(1.0, m.At(0, 1))
}

func (s *MatrixSuite) TestIdenticalNormalizedText() {
	m := ComputeSimilarityMatrix([]models.WorkItem{
		item("Fix   Authentication BUG"),
		item("fix authentication bug"),
	})

	s.Equal(1.0, m.At(0, 1))
}

func (s *MatrixSuite) TestIdenticalStopWordOnlyText() {
	// No terms survive, but the texts are equal
	m := ComputeSimilarityMatrix([]models.WorkItem{item("the"), item("The")})

	s.Equal(1.0, m.At(0, 1))
}

func (s *MatrixSuite) TestUnrelatedItems() {
	m := ComputeSimilarityMatrix([]models.WorkItem{
		item("Fix authentication bug in login flow"),
		item("Update database schema for products"),
	})

	s.assertWellFormed(m, 2)
	s.Less(m.At(0, 1), 0.5)
}

func (s *MatrixSuite) TestRelatedItems() {
	m := ComputeSimilarityMatrix([]models.WorkItem{
		item("Fix authentication bug in login"),
		item("Resolve authentication issue in login"),
	})

	// {fix, authentication, bug, login} vs {resolve, authentication, issue, login}
	s.InDelta(2.0/6.0, m.At(0, 1), 1e-9)
}

func (s *MatrixSuite) TestDescriptionContributes() {
	a := item("Refactor handler")
	a.Description = "session cache"
	b := item("Session cache eviction")

	m := ComputeSimilarityMatrix([]models.WorkItem{a, b})

	s.Greater(m.At(0, 1), 0.0)
}

func (s *MatrixSuite) TestSingleItem() {
	m := ComputeSimilarityMatrix([]models.WorkItem{item("Fix bug")})

	s.assertWellFormed(m, 1)
	s.Equal([][]float64{{1}}, m.Rows())
}

func (s *MatrixSuite) TestEmpty() {
	m := ComputeSimilarityMatrix(nil)

	s.Equal(0, m.Len())
	s.NotNil(m.Rows())
	s.Empty(m.Rows())
}

func (s *MatrixSuite) TestManyItemsSymmetric() {
	items := []models.WorkItem{
		item("Fix OAuth2 authentication flow"),
		item("Update JWT token validation"),
		item("Resolve login session issue"),
		item("Add new database migration"),
		item("Update PostgreSQL schema"),
		item("Fix database connection pooling"),
		item(""),
	}

	m := ComputeSimilarityMatrix(items)

	s.assertWellFormed(m, len(items))
	rows := m.Rows()
	s.Len(rows, len(items))
	s.Equal(m.At(3, 5), rows[5][3])
}

func TestItemSimilarityMatchesMatrix(t *testing.T) {
	a := item("Update PostgreSQL schema")
	b := item("Update JWT token validation")

	m := ComputeSimilarityMatrix([]models.WorkItem{a, b})

	require.Equal(t, 2, m.Len())
	assert.Equal(t, m.At(0, 1), Default().Similarity(a, b))
	assert.InDelta(t, 1.0/6.0, Default().Similarity(a, b), 1e-9)
}
