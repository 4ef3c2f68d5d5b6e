package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/pkg/models"
)

type SnapshotSuite struct {
	suite.Suite
	store *Store
}

func TestSnapshotSuite(t *testing.T) {
	suite.Run(t, new(SnapshotSuite))
}

func (s *SnapshotSuite) SetupTest() {
	s.store = NewStore(s.T().TempDir()).WithLocation(time.UTC)
}

func daySummary(day time.Time, titles ...string) models.WorkSummary {
	items := make([]models.WorkItem, len(titles))
	for i, title := range titles {
		items[i] = models.WorkItem{
			Source:    models.SourceGit,
			Timestamp: day.Add(time.Duration(9+i) * time.Hour),
			Title:     title,
		}
	}
	return models.NewWorkSummary(dates.RangeFor(dates.Daily, day), items, day.Add(20*time.Hour))
}

func (s *SnapshotSuite) TestWriteAndLoad() {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	summary := daySummary(day, "[api] Fix login", "[api] Add tests")
	summary.Items[1].Description = "two files"
	summary.Items[1].Metadata = map[string]any{"hash": "abc"}

	key, path, err := s.store.Write(dates.Daily, summary)
	s.Require().NoError(err)
	s.Equal("2026-01-05", key)
	s.Equal(filepath.Join(s.store.Root(), "daily", "standup-2026-01-05.json"), path)
	s.True(s.store.Exists(dates.Daily, key))

	loaded, err := s.store.Load(dates.Daily, key)
	s.Require().NoError(err)
	s.Require().Len(loaded.Items, 2)
	s.Equal("[api] Fix login", loaded.Items[0].Title)
	s.Equal("two files", loaded.Items[1].Description)
	s.Equal("abc", loaded.Items[1].Metadata["hash"])
	s.True(summary.Items[0].Timestamp.Equal(loaded.Items[0].Timestamp))
	s.True(summary.DateRange.End.Equal(loaded.DateRange.End))
	s.Equal([]models.SourceType{models.SourceGit}, loaded.Sources)

	// No temp files are left behind
	entries, err := os.ReadDir(s.store.Dir(dates.Daily))
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *SnapshotSuite) TestWriteOverwrites() {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	_, _, err := s.store.Write(dates.Daily, daySummary(day, "first"))
	s.Require().NoError(err)
	_, _, err = s.store.Write(dates.Daily, daySummary(day, "second", "third"))
	s.Require().NoError(err)

	loaded, err := s.store.Load(dates.Daily, "2026-01-05")
	s.Require().NoError(err)
	s.Len(loaded.Items, 2)
}

func (s *SnapshotSuite) TestLoadMissing() {
	_, err := s.store.Load(dates.Daily, "2026-01-05")
	s.ErrorIs(err, ErrNotFound)
}

func (s *SnapshotSuite) TestLoadRejectsOtherSchema() {
	path := s.store.Path(dates.Monthly, "2026-01")
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0750))
	s.Require().NoError(os.WriteFile(path, []byte(`{"schemaVersion": 2, "items": []}`), 0600))

	_, err := s.store.Load(dates.Monthly, "2026-01")
	s.ErrorContains(err, "schemaVersion: 2")
}

func (s *SnapshotSuite) TestLoadRejectsGarbage() {
	path := s.store.Path(dates.Daily, "2026-01-05")
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0750))
	s.Require().NoError(os.WriteFile(path, []byte(`not json`), 0600))

	_, err := s.store.Load(dates.Daily, "2026-01-05")
	s.ErrorContains(err, "invalid snapshot JSON")
}

func (s *SnapshotSuite) TestListKeys() {
	keys, err := s.store.ListKeys(dates.Weekly)
	s.Require().NoError(err)
	s.Empty(keys)

	for _, day := range []int{5, 19, 12} {
		summary := daySummary(time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC), "x")
		_, _, err := s.store.Write(dates.Weekly, summary)
		s.Require().NoError(err)
	}
	s.Require().NoError(os.WriteFile(filepath.Join(s.store.Dir(dates.Weekly), "notes.json"), []byte("{}"), 0600))

	keys, err = s.store.ListKeys(dates.Weekly)
	s.Require().NoError(err)
	s.Equal([]string{"2026-01-19", "2026-01-12", "2026-01-05"}, keys)
}

func (s *SnapshotSuite) TestAggregateDaily() {
	for _, day := range []int{5, 7} {
		d := time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
		_, _, err := s.store.Write(dates.Daily, daySummary(d, "work on day", "more work"))
		s.Require().NoError(err)
	}

	agg, err := s.store.AggregateDaily(
		time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
	)
	s.Require().NoError(err)
	s.Len(agg.Items, 4)
	s.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), agg.DateRange.Start)
	s.Equal(time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), agg.DateRange.End)
	s.True(agg.Items[0].Timestamp.Before(agg.Items[3].Timestamp))

	_, err = s.store.AggregateDaily(time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	s.Error(err)
}

func TestKeys(t *testing.T) {
	store := NewStore(t.TempDir()).WithLocation(time.UTC)
	anchor := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-05-04", store.Key(dates.Daily, anchor))
	assert.Equal(t, "2026-05-04", store.Key(dates.Weekly, anchor))
	assert.Equal(t, "2026-05", store.Key(dates.Monthly, anchor))
	assert.Equal(t, "2026-Q2", store.Key(dates.Quarterly, anchor))

	assert.Equal(t, "standup-2026-05-04.json", Filename(dates.Daily, "2026-05-04"))
	assert.Equal(t, "standup-week-2026-05-04.json", Filename(dates.Weekly, "2026-05-04"))
	assert.Equal(t, "standup-month-2026-05.json", Filename(dates.Monthly, "2026-05"))
	assert.Equal(t, "standup-quarter-2026-Q2.json", Filename(dates.Quarterly, "2026-Q2"))
}

func TestDateRange(t *testing.T) {
	store := NewStore(t.TempDir()).WithLocation(time.UTC)
	endOf := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	tests := []struct {
		period dates.Period
		key    string
		start  time.Time
		end    time.Time
	}{
		{dates.Daily, "2026-01-05", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), endOf(2026, 1, 5)},
		{dates.Weekly, "2026-01-05", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), endOf(2026, 1, 11)},
		{dates.Monthly, "2024-02", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), endOf(2024, 2, 29)},
		{dates.Quarterly, "2025-Q4", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), endOf(2025, 12, 31)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			r, err := store.DateRange(tt.period, tt.key)
			require.NoError(t, err)
			assert.True(t, tt.start.Equal(r.Start), "start %s", r.Start)
			assert.True(t, tt.end.Equal(r.End), "end %s", r.End)
		})
	}

	_, err := store.DateRange(dates.Quarterly, "2025-Q5")
	assert.Error(t, err)
	_, err = store.DateRange(dates.Daily, "yesterday")
	assert.Error(t, err)
}
