// Package schedule produces the periodic standup snapshots: one run per period,
// backfills of missed periods, cron lines and a long running daemon.
package schedule

import (
	"time"

	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/pkg/models"
)

// PreviousPeriodRange returns the complete period before the one containing now.
// A daily run on Jan 10 covers Jan 9, a weekly run covers the previous Monday to Sunday.
func PreviousPeriodRange(period dates.Period, now time.Time) models.DateRange {
	return dates.RangeFor(period, dates.Shift(period, now, -1))
}
