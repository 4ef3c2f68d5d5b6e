package analyzer

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/worklog/pkg/models"
	"github.com/thebtf/worklog/pkg/similarity"
)

func item(title string) models.WorkItem {
	return models.WorkItem{
		Source:    models.SourceGit,
		Timestamp: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		Title:     title,
	}
}

func items(titles ...string) []models.WorkItem {
	out := make([]models.WorkItem, len(titles))
	for i, t := range titles {
		out[i] = item(t)
	}
	return out
}

func totalItems(clusters []models.Cluster) int {
	n := 0
	for _, c := range clusters {
		n += c.Size()
	}
	return n
}

type ClusterSuite struct {
	suite.Suite
}

func TestClusterSuite(t *testing.T) {
	suite.Run(t, new(ClusterSuite))
}

func (s *ClusterSuite) TestEmptyInput() {
	clusters := ClusterItems(nil, DefaultThreshold)
	s.NotNil(clusters)
	s.Empty(clusters)
}

func (s *ClusterSuite) TestSingleItem() {
	clusters := ClusterItems(items("Fix authentication bug"), DefaultThreshold)
	s.Require().Len(clusters, 1)
	s.Equal("cluster-0", clusters[0].ID)
	s.Equal(1.0, clusters[0].CoherenceScore)
}

func (s *ClusterSuite) TestGroupsSimilarItems() {
	clusters := ClusterItems(items(
		"Fix authentication bug",
		"Fix auth token bug",
		"Fix authentication issue",
	), 0.2)
	s.LessOrEqual(len(clusters), 2)
	s.Equal(3, totalItems(clusters))
}

func (s *ClusterSuite) TestHigherThresholdNeverMerges() {
	in := items(
		"Fix authentication bug",
		"Resolve auth issue",
		"Update auth handler",
		"Database migration",
		"Schema update",
	)

	low := ClusterItems(in, 0.1)
	high := ClusterItems(in, 0.5)

	s.Len(low, 3)
	s.Len(high, 5)
	s.LessOrEqual(len(low), len(high))
}

func (s *ClusterSuite) TestEveryItemInExactlyOneCluster() {
	in := items(
		"Fix authentication bug in login",
		"Resolve authentication issue in login",
		"Update database schema",
		"Add database tables",
		"Write documentation",
	)

	for _, threshold := range []float64{0, 0.1, 0.3, 0.5, 1} {
		clusters := ClusterItems(in, threshold)
		s.Equal(len(in), totalItems(clusters), "threshold %v", threshold)
		for k, c := range clusters {
			s.NotEmpty(c.Items)
			s.Equal(fmt.Sprintf("cluster-%d", k), c.ID)
		}
	}
}

func (s *ClusterSuite) TestPreservesMergeOrder() {
	in := items("Fix login bug", "Write docs", "Fix login crash")
	clusters := ClusterItems(in, 0.3)
	s.Require().Len(clusters, 2)
	s.Equal([]models.WorkItem{in[0], in[2]}, clusters[0].Items)
	s.Equal([]models.WorkItem{in[1]}, clusters[1].Items)
}

func (s *ClusterSuite) TestOrderSensitive() {
	a, b, c := item("alpha beta"), item("beta gamma"), item("gamma delta")

	// b is equally close to a and c; it joins the earlier cluster
	first := ClusterItems([]models.WorkItem{a, c, b}, 0.3)
	s.Require().Len(first, 2)
	s.Equal([]models.WorkItem{a, b}, first[0].Items)
	s.Equal([]models.WorkItem{c}, first[1].Items)

	second := ClusterItems([]models.WorkItem{b, a, c}, 0.3)
	s.Len(second, 1)
}

func (s *ClusterSuite) TestZeroThresholdMergesEverything() {
	clusters := ClusterItems(items("alpha", "beta", "gamma"), 0)
	s.Len(clusters, 1)
}

func (s *ClusterSuite) TestThresholdAboveOneKeepsOnlyIdenticalTogether() {
	clusters := ClusterItems(items("Fix login", "fix   LOGIN", "Fix logout"), 7)
	s.Require().Len(clusters, 2)
	s.Equal(2, clusters[0].Size())
}

func (s *ClusterSuite) TestNaNThresholdUsesDefault() {
	in := items("Fix authentication bug", "Fix authentication issue", "Write docs")
	s.Equal(ClusterItems(in, DefaultThreshold), ClusterItems(in, math.NaN()))
}

func (s *ClusterSuite) TestClustersCarryThemeAndKeywords() {
	clusters := ClusterItems(items("Fix authentication bug", "Resolve auth issue"), 0.1)
	s.Require().NotEmpty(clusters)
	s.NotEmpty(clusters[0].Keywords)
	s.NotEmpty(clusters[0].Theme)
	for _, c := range clusters {
		s.GreaterOrEqual(c.CoherenceScore, 0.0)
		s.LessOrEqual(c.CoherenceScore, 1.0)
	}
}

func TestDescribe(t *testing.T) {
	a := New(nil)
	clusters := a.Describe([][]models.WorkItem{
		items("Fix authentication authentication bug", "Fix authentication authentication issue"),
		items("the and of"),
	})
	require.Len(t, clusters, 2)

	first := clusters[0]
	assert.Equal(t, "cluster-0", first.ID)
	assert.Equal(t, []string{"authentication", "fix", "bug", "issue"}, first.Keywords)
	assert.Equal(t, "Authentication & Fix", first.Theme)
	// {fix, authentication, bug} vs {fix, authentication, issue}
	assert.InDelta(t, 0.5, first.CoherenceScore, 1e-9)

	second := clusters[1]
	assert.Equal(t, "cluster-1", second.ID)
	assert.Empty(t, second.Keywords)
	assert.Equal(t, "Miscellaneous", second.Theme)
	assert.Equal(t, 1.0, second.CoherenceScore)
}

func TestDescribeKeywordCount(t *testing.T) {
	a := New(similarity.Default(), WithKeywordCount(2))
	clusters := a.Describe([][]models.WorkItem{items("alpha beta gamma delta")})
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"alpha", "beta"}, clusters[0].Keywords)
}

func TestSingleKeywordTheme(t *testing.T) {
	assert.Equal(t, "Postgresql", themeFor([]string{"postgresql"}))
	assert.Equal(t, "Miscellaneous", themeFor(nil))
}

func TestFindCrossClusterConnections(t *testing.T) {
	clusters := []models.Cluster{
		{ID: "cluster-0", Keywords: []string{"database", "fix", "pooling"}},
		{ID: "cluster-1", Keywords: []string{"docs", "readme"}},
		{ID: "cluster-2", Keywords: []string{"pooling", "tune", "database"}},
	}

	connections := FindCrossClusterConnections(clusters)
	require.Len(t, connections, 1)
	assert.Equal(t, "cluster-0", connections[0].From)
	assert.Equal(t, "cluster-2", connections[0].To)
	assert.Equal(t, "database, pooling", connections[0].Relationship)
}

func TestFindCrossClusterConnectionsNone(t *testing.T) {
	assert.Empty(t, FindCrossClusterConnections(nil))
	assert.NotNil(t, FindCrossClusterConnections(nil))

	single := []models.Cluster{{ID: "cluster-0", Keywords: []string{"fix"}}}
	assert.Empty(t, FindCrossClusterConnections(single))
}

type SummarySuite struct {
	suite.Suite
}

func TestSummarySuite(t *testing.T) {
	suite.Run(t, new(SummarySuite))
}

func (s *SummarySuite) TestEmpty() {
	summary := BuildSmartSummary(nil, DefaultThreshold)
	s.Contains(summary.Narrative, "No work items")
	s.Empty(summary.Clusters)
	s.Empty(summary.CrossClusterConnections)
	s.NotNil(summary.Clusters)
	s.NotNil(summary.CrossClusterConnections)
}

func (s *SummarySuite) TestSingleCluster() {
	summary := BuildSmartSummary(items(
		"Fix authentication authentication bug",
		"Fix authentication authentication issue",
	), 0.3)
	s.Require().Len(summary.Clusters, 1)
	s.Contains(summary.Narrative, "focused on")
	s.Contains(summary.Narrative, "Authentication & Fix")
	s.Contains(summary.Narrative, "2 items")
}

func (s *SummarySuite) TestMultipleClusters() {
	summary := BuildSmartSummary(items(
		"Fix authentication bug",
		"Resolve auth issue",
		"Update database schema",
		"Add new database tables",
	), 0.5)
	s.Len(summary.Clusters, 4)
	s.Contains(summary.Narrative, "spanned")
	s.Contains(summary.Narrative, "4 themes")
	for _, c := range summary.Clusters {
		s.Contains(summary.Narrative, c.Theme)
	}
}

func (s *SummarySuite) TestNarrativeMentionsConnections() {
	summary := BuildSmartSummary(items(
		"Fix database connection pooling",
		"Tune database query planner",
	), 0.5)
	s.Require().Len(summary.Clusters, 2)
	s.Require().Len(summary.CrossClusterConnections, 1)
	s.Equal("database", summary.CrossClusterConnections[0].Relationship)
	s.Contains(summary.Narrative, "share database")
}

func (s *SummarySuite) TestConnectionsReferenceClusters() {
	summary := BuildSmartSummary(items(
		"Fix authentication bug in login flow",
		"Resolve authentication token expiry",
		"Update PostgreSQL schema migration",
		"Add PostgreSQL index for login queries",
		"Write login documentation",
	), 0.2)

	ids := make(map[string]bool)
	for _, c := range summary.Clusters {
		ids[c.ID] = true
	}
	for _, conn := range summary.CrossClusterConnections {
		s.True(ids[conn.From], conn.From)
		s.True(ids[conn.To], conn.To)
		s.NotEqual(conn.From, conn.To)
		s.NotEmpty(conn.Relationship)
	}
}

func (s *SummarySuite) TestEndToEnd() {
	in := items(
		"Fix authentication bug in login flow",
		"Resolve JWT token expiry issue",
		"Update PostgreSQL schema for users",
		"Add authentication middleware to API",
		"Refactor JWT token validation",
		"Create PostgreSQL migration for orders",
		"Add login page styles",
		"Fix authentication redirect after login",
		"Optimize PostgreSQL query performance",
	)

	summary := BuildSmartSummary(in, 0.15)
	s.GreaterOrEqual(len(summary.Clusters), 2)
	s.Equal(len(in), totalItems(summary.Clusters))
	s.NotEmpty(summary.Narrative)
	for _, c := range summary.Clusters {
		s.Greater(c.CoherenceScore, 0.0)
		s.LessOrEqual(c.CoherenceScore, 1.0)
	}
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "", joinList(nil))
	assert.Equal(t, "a", joinList([]string{"a"}))
	assert.Equal(t, "a and b", joinList([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", joinList([]string{"a", "b", "c"}))
}

func TestNarrativeOrdersBySize(t *testing.T) {
	clusters := []models.Cluster{
		{ID: "cluster-0", Theme: "Docs", Items: items("a")},
		{ID: "cluster-1", Theme: "Auth", Items: items("b", "c")},
	}
	n := composeNarrative(clusters, nil)
	assert.Equal(t, "Work spanned 2 themes: Auth (2 items) and Docs (1 item).", n)
	assert.False(t, strings.Contains(n, "Related"))
}
