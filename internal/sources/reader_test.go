package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/pkg/models"
)

type fakeReader struct {
	name  models.SourceType
	items []models.WorkItem
	err   error
}

func (f *fakeReader) Name() models.SourceType { return f.name }

func (f *fakeReader) Read(context.Context, models.DateRange, *config.Config) ([]models.WorkItem, error) {
	return f.items, f.err
}

func at(hour int) time.Time {
	return time.Date(2026, 1, 5, hour, 0, 0, 0, time.UTC)
}

func TestCollect(t *testing.T) {
	readers := []Reader{
		&fakeReader{name: models.SourceGit, items: []models.WorkItem{
			{Source: models.SourceGit, Timestamp: at(15), Title: "[api] late commit"},
			{Source: models.SourceGit, Timestamp: at(9), Title: "[api] early commit"},
			{Source: models.SourceGit, Timestamp: at(9).AddDate(0, 0, 2), Title: "[api] future commit"},
		}},
		&fakeReader{name: models.SourceGitHub, err: errors.New("rate limited")},
		&fakeReader{name: models.SourceClaude, items: []models.WorkItem{
			{Source: models.SourceClaude, Timestamp: at(11), Title: "Claude session: fix login"},
			{Source: models.SourceClaude, Timestamp: at(12), Title: "Request interrupted by user"},
		}},
	}

	items := Collect(context.Background(), readers, testDay, config.Default())
	require.Len(t, items, 3)
	assert.Equal(t, "[api] early commit", items[0].Title)
	assert.Equal(t, "Claude session: fix login", items[1].Title)
	assert.Equal(t, "[api] late commit", items[2].Title)
}

func TestCollectNoReaders(t *testing.T) {
	assert.Empty(t, Collect(context.Background(), nil, testDay, config.Default()))
}

func TestByNames(t *testing.T) {
	readers := ByNames([]string{"git", "bogus", "Claude", "git"})
	require.Len(t, readers, 2)
	assert.Equal(t, models.SourceGit, readers[0].Name())
	assert.Equal(t, models.SourceClaude, readers[1].Name())
}

func TestAll(t *testing.T) {
	readers := All()
	require.Len(t, readers, len(models.AllSources))
	for i, r := range readers {
		assert.Equal(t, models.AllSources[i], r.Name())
	}
}
