package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/worklog/internal/analyzer"
	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/format"
	"github.com/thebtf/worklog/internal/history"
	"github.com/thebtf/worklog/internal/projects"
	"github.com/thebtf/worklog/internal/snapshot"
	"github.com/thebtf/worklog/internal/sources"
	"github.com/thebtf/worklog/pkg/models"
)

// ErrNoSnapshotStore is returned when Deps has no snapshot store.
var ErrNoSnapshotStore = errors.New("schedule: no snapshot store")

// RunOptions selects what a single run produces.
type RunOptions struct {
	Period dates.Period
	// Now is the moment the run pretends to happen at; zero means time.Now.
	Now time.Time
	// Webhook receives the Slack rendering when set.
	Webhook string
	// Threshold overrides the configured cluster threshold when set.
	Threshold   *float64
	SaveHistory bool
}

// Deps are the collaborators of a run. Config and Snapshots are required.
type Deps struct {
	Config    *config.Config
	Readers   []sources.Reader
	Snapshots *snapshot.Store
	History   *history.Store
	Projects  *projects.Registry
	Analyzer  *analyzer.Analyzer
	Renderer  format.Renderer
	Poster    Poster
}

// RunResult describes what a run wrote.
type RunResult struct {
	Period  dates.Period
	Range   models.DateRange
	Key     string
	Path    string
	Items   int
	Summary models.WorkSummary
	Posted  bool
}

// Run collects the period before opts.Now, clusters it, writes the snapshot and
// optionally records history and posts to Slack. A Slack failure fails the run
// after the snapshot is on disk.
func Run(ctx context.Context, opts RunOptions, deps Deps) (*RunResult, error) {
	start := time.Now()
	res, err := run(ctx, opts, deps)

	items := 0
	if res != nil {
		items = res.Items
	}
	recordRun(ctx, string(opts.Period), time.Since(start), items, err)
	return res, err
}

func run(ctx context.Context, opts RunOptions, deps Deps) (*RunResult, error) {
	if deps.Snapshots == nil {
		return nil, ErrNoSnapshotStore
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Get()
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	rng := PreviousPeriodRange(opts.Period, now)

	items := sources.Collect(ctx, deps.Readers, rng, cfg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	threshold := cfg.ClusterThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	a := deps.Analyzer
	if a == nil {
		a = analyzer.New(nil)
	}

	summary := models.NewWorkSummary(rng, items, time.Now())
	smart := a.BuildSmartSummary(summary.Items, threshold)
	summary.Smart = &smart

	key, path, err := deps.Snapshots.Write(opts.Period, summary)
	if err != nil {
		return nil, fmt.Errorf("write %s snapshot: %w", opts.Period, err)
	}
	log.Info().
		Str("period", string(opts.Period)).
		Str("key", key).
		Int("items", len(summary.Items)).
		Int("clusters", len(smart.Clusters)).
		Msg("Snapshot written")

	res := &RunResult{
		Period:  opts.Period,
		Range:   rng,
		Key:     key,
		Path:    path,
		Items:   len(summary.Items),
		Summary: summary,
	}

	if opts.SaveHistory && deps.History != nil {
		if _, err := deps.History.Save(ctx, rng, summary.Items, deps.Projects); err != nil {
			return res, fmt.Errorf("save history: %w", err)
		}
	}

	if opts.Webhook == "" {
		return res, nil
	}
	poster := deps.Poster
	if poster == nil {
		poster = NewSlackPoster()
	}
	text, err := deps.Renderer.Render(summary, format.Slack)
	if err != nil {
		return res, fmt.Errorf("render slack message: %w", err)
	}
	if err := poster.Post(ctx, opts.Webhook, text); err != nil {
		return res, err
	}
	res.Posted = true
	log.Info().Str("period", string(opts.Period)).Msg("Posted to Slack")
	return res, nil
}
