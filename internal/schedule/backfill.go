package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/snapshot"
)

// BackfillOptions selects which missed periods to plan.
type BackfillOptions struct {
	Now    time.Time
	Weeks  int
	Months int

	Daily     bool
	Weekly    bool
	Monthly   bool
	Quarterly bool

	// Since and Until bound an explicit range; either one switches to range mode.
	Since time.Time
	Until time.Time
}

// PlanItem is one run to perform. Now is chosen so that the run covers the planned period.
type PlanItem struct {
	Period dates.Period
	Now    time.Time
	Key    string
	Path   string
}

func atNoon(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

type planner struct {
	store *snapshot.Store
	items []PlanItem
}

func (p *planner) push(period dates.Period, start, now time.Time) {
	key := p.store.Key(period, start)
	p.items = append(p.items, PlanItem{
		Period: period,
		Now:    atNoon(now),
		Key:    key,
		Path:   p.store.Path(period, key),
	})
}

// BuildBackfillPlan lists the runs that recreate past snapshots.
//
// In range mode every day from Since to Until is planned, and weeks, months and
// quarters only when they end inside the range. Otherwise the plan covers
// Weeks*7 days up to yesterday, the previous Weeks weeks, the previous Months
// months and the previous quarter.
func BuildBackfillPlan(store *snapshot.Store, opts BackfillOptions) []PlanItem {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	p := &planner{store: store, items: []PlanItem{}}

	if !opts.Since.IsZero() || !opts.Until.IsZero() {
		planRange(p, opts, now)
		return p.items
	}

	today := dates.StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	if opts.Daily {
		days := max(opts.Weeks*7, 1)
		for cursor := yesterday.AddDate(0, 0, -(days - 1)); !cursor.After(yesterday); cursor = cursor.AddDate(0, 0, 1) {
			p.push(dates.Daily, cursor, cursor.AddDate(0, 0, 1))
		}
	}

	if opts.Weekly {
		current := dates.StartOfWeek(now)
		for i := opts.Weeks; i >= 1; i-- {
			start := current.AddDate(0, 0, -7*i)
			p.push(dates.Weekly, start, start.AddDate(0, 0, 7))
		}
	}

	if opts.Monthly {
		current := dates.StartOfMonth(now)
		for i := opts.Months; i >= 1; i-- {
			start := current.AddDate(0, -i, 0)
			p.push(dates.Monthly, start, start.AddDate(0, 1, 0))
		}
	}

	if opts.Quarterly {
		current := dates.StartOfQuarter(now)
		p.push(dates.Quarterly, current.AddDate(0, -3, 0), current)
	}

	return p.items
}

func planRange(p *planner, opts BackfillOptions, now time.Time) {
	until := opts.Until
	if until.IsZero() {
		until = now.AddDate(0, 0, -1)
	}
	end := dates.StartOfDay(until)
	since := opts.Since
	if since.IsZero() {
		since = end
	}
	start := dates.StartOfDay(since)

	if opts.Daily {
		for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
			p.push(dates.Daily, cursor, cursor.AddDate(0, 0, 1))
		}
	}

	if opts.Weekly {
		last := dates.StartOfWeek(end)
		for cursor := dates.StartOfWeek(start); !cursor.After(last); cursor = cursor.AddDate(0, 0, 7) {
			if cursor.AddDate(0, 0, 6).After(end) {
				continue
			}
			p.push(dates.Weekly, cursor, cursor.AddDate(0, 0, 7))
		}
	}

	if opts.Monthly {
		last := dates.StartOfMonth(end)
		for cursor := dates.StartOfMonth(start); !cursor.After(last); cursor = cursor.AddDate(0, 1, 0) {
			if dates.EndOfMonth(cursor).After(end) {
				continue
			}
			p.push(dates.Monthly, cursor, cursor.AddDate(0, 1, 0))
		}
	}

	if opts.Quarterly {
		last := dates.StartOfQuarter(end)
		for cursor := dates.StartOfQuarter(start); !cursor.After(last); cursor = cursor.AddDate(0, 3, 0) {
			if dates.EndOfQuarter(cursor).After(end) {
				continue
			}
			p.push(dates.Quarterly, cursor, cursor.AddDate(0, 3, 0))
		}
	}
}

// ExecuteOptions controls how a plan is carried out.
type ExecuteOptions struct {
	SkipExisting bool
	Overwrite    bool
	DryRun       bool
	Webhook      string
	SaveHistory  bool
}

// Status is the outcome of one plan item.
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// ItemResult is the outcome of one plan item.
type ItemResult struct {
	Period dates.Period `json:"period"`
	Path   string       `json:"expectedPath"`
	Status Status       `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// BackfillResult totals an executed plan.
type BackfillResult struct {
	Planned int          `json:"planned"`
	Written int          `json:"written"`
	Skipped int          `json:"skipped"`
	Errors  int          `json:"errors"`
	Results []ItemResult `json:"results"`
}

// ExecuteBackfillPlan runs plan items in order. A failing item is recorded and the
// rest still run; only context cancellation stops early.
func ExecuteBackfillPlan(ctx context.Context, plan []PlanItem, opts ExecuteOptions, deps Deps) (*BackfillResult, error) {
	res := &BackfillResult{Planned: len(plan), Results: make([]ItemResult, 0, len(plan))}

	for _, item := range plan {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		result := ItemResult{Period: item.Period, Path: item.Path}
		exists := deps.Snapshots != nil && deps.Snapshots.Exists(item.Period, item.Key)

		switch {
		case opts.SkipExisting && exists && !opts.Overwrite, opts.DryRun:
			result.Status = StatusSkipped
			res.Skipped++
		default:
			_, err := Run(ctx, RunOptions{
				Period:      item.Period,
				Now:         item.Now,
				Webhook:     opts.Webhook,
				SaveHistory: opts.SaveHistory,
			}, deps)
			if err != nil {
				log.Warn().Err(err).Str("period", string(item.Period)).Str("key", item.Key).Msg("Backfill run failed")
				result.Status = StatusError
				result.Error = err.Error()
				res.Errors++
			} else {
				result.Status = StatusWritten
				res.Written++
			}
		}
		res.Results = append(res.Results, result)
	}

	return res, nil
}
