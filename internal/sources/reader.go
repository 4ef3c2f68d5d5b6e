// Package sources reads work items from agent transcripts, git and GitHub.
package sources

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/internal/noise"
	"github.com/thebtf/worklog/pkg/models"
)

// MaxConcurrentReaders bounds how many readers run at once.
const MaxConcurrentReaders = 4

// Reader produces the work items of one source within a date range.
// A reader with nothing configured returns no items and no error.
type Reader interface {
	Name() models.SourceType
	Read(ctx context.Context, r models.DateRange, cfg *config.Config) ([]models.WorkItem, error)
}

// All returns one reader per source, in display order.
func All() []Reader {
	return []Reader{
		NewOpenCodeReader(),
		NewClaudeReader(),
		NewCodexReader(),
		NewFactoryReader(),
		NewGitReader(nil),
		NewGitHubReader(nil),
	}
}

// ByNames returns the readers for the given source names in the order given.
// Unknown names and duplicates are ignored.
func ByNames(names []string) []Reader {
	byName := make(map[models.SourceType]Reader)
	for _, r := range All() {
		byName[r.Name()] = r
	}

	var readers []Reader
	seen := make(map[models.SourceType]bool)
	for _, name := range names {
		source, err := models.ParseSource(name)
		if err != nil {
			log.Debug().Str("source", name).Msg("Ignoring unknown source")
			continue
		}
		if seen[source] {
			continue
		}
		seen[source] = true
		readers = append(readers, byName[source])
	}
	return readers
}

// Collect runs readers concurrently and merges their items. A failing reader is
// logged and contributes nothing. Noise and out-of-range items are dropped and
// the result is sorted oldest first.
func Collect(ctx context.Context, readers []Reader, r models.DateRange, cfg *config.Config) []models.WorkItem {
	results := make([][]models.WorkItem, len(readers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentReaders)
	for i, reader := range readers {
		i, reader := i, reader
		g.Go(func() error {
			start := time.Now()
			items, err := reader.Read(gctx, r, cfg)
			if err != nil {
				log.Warn().Err(err).Str("source", string(reader.Name())).Msg("Source read failed")
				return nil
			}
			log.Debug().
				Str("source", string(reader.Name())).
				Int("items", len(items)).
				Dur("took", time.Since(start)).
				Msg("Source read")
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.WorkItem
	for _, items := range results {
		for _, item := range items {
			if r.Contains(item.Timestamp) {
				merged = append(merged, item)
			}
		}
	}

	merged = noise.Filter(merged)
	models.SortByTimestamp(merged)
	return merged
}
