// Package dates resolves report periods and date ranges in local time.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"github.com/thebtf/worklog/pkg/models"
)

// Period is a report granularity.
type Period string

const (
	Daily     Period = "daily"
	Weekly    Period = "weekly"
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
)

// Periods lists every period from shortest to longest.
var Periods = []Period{Daily, Weekly, Monthly, Quarterly}

// ParsePeriod parses a period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid period %q (use daily, weekly, monthly or quarterly)", s)
}

// Weeks start on Monday.
var calendar = &now.Config{WeekStartDay: time.Monday}

func StartOfDay(t time.Time) time.Time     { return calendar.With(t).BeginningOfDay() }
func EndOfDay(t time.Time) time.Time       { return calendar.With(t).EndOfDay() }
func StartOfWeek(t time.Time) time.Time    { return calendar.With(t).BeginningOfWeek() }
func EndOfWeek(t time.Time) time.Time      { return calendar.With(t).EndOfWeek() }
func StartOfMonth(t time.Time) time.Time   { return calendar.With(t).BeginningOfMonth() }
func EndOfMonth(t time.Time) time.Time     { return calendar.With(t).EndOfMonth() }
func StartOfQuarter(t time.Time) time.Time { return calendar.With(t).BeginningOfQuarter() }
func EndOfQuarter(t time.Time) time.Time   { return calendar.With(t).EndOfQuarter() }

// Quarter returns the quarter (1-4) containing t.
func Quarter(t time.Time) int {
	return int(t.Month()-1)/3 + 1
}

// RangeFor returns the period of the given kind that contains t.
func RangeFor(p Period, t time.Time) models.DateRange {
	switch p {
	case Weekly:
		return models.DateRange{Start: StartOfWeek(t), End: EndOfWeek(t)}
	case Monthly:
		return models.DateRange{Start: StartOfMonth(t), End: EndOfMonth(t)}
	case Quarterly:
		return models.DateRange{Start: StartOfQuarter(t), End: EndOfQuarter(t)}
	}
	return models.DateRange{Start: StartOfDay(t), End: EndOfDay(t)}
}

// Shift moves t by n periods; n may be negative.
func Shift(p Period, t time.Time, n int) time.Time {
	switch p {
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Monthly:
		return addMonths(t, n)
	case Quarterly:
		return addMonths(t, 3*n)
	}
	return t.AddDate(0, 0, n)
}

// addMonths clamps the day so Jan 31 + 1 month is the end of February.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	lastDay := EndOfMonth(target).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return target.AddDate(0, 0, day-1)
}

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseDateInput parses YYYY-MM-DD (or RFC 3339) or a weekday name. A weekday
// resolves to its most recent occurrence strictly before the reference day.
func ParseDateInput(value string, reference time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if t, err := time.ParseInLocation("2006-01-02", trimmed, reference.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t.In(reference.Location()), nil
	}

	if target, ok := weekdays[strings.ToLower(trimmed)]; ok {
		today := StartOfDay(reference)
		delta := (int(today.Weekday()) - int(target) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, -delta), nil
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s. Use YYYY-MM-DD or weekday name", value)
}

// RangeOptions selects a report range. Date wins over everything else.
type RangeOptions struct {
	Date      string
	Yesterday bool
	Week      bool
	Month     bool
	Quarter   bool
	Last      bool
}

// ParseRange resolves options against the reference time.
func ParseRange(opts RangeOptions, reference time.Time) (models.DateRange, error) {
	if opts.Date != "" {
		day, err := ParseDateInput(opts.Date, reference)
		if err != nil {
			return models.DateRange{}, err
		}
		return RangeFor(Daily, day), nil
	}

	at := reference
	period := Daily
	switch {
	case opts.Quarter:
		period = Quarterly
	case opts.Week:
		period = Weekly
	case opts.Month:
		period = Monthly
	}

	if opts.Last {
		at = Shift(period, at, -1)
	}
	if opts.Yesterday {
		return RangeFor(Daily, at.AddDate(0, 0, -1)), nil
	}
	return RangeFor(period, at), nil
}

// PeriodOf classifies a range by its length in whole days.
func PeriodOf(r models.DateRange) Period {
	days := int(r.End.Sub(r.Start).Hours() / 24)
	switch {
	case days <= 1:
		return Daily
	case days <= 7:
		return Weekly
	case days <= 31:
		return Monthly
	}
	return Quarterly
}

const displayLayout = "Mon, Jan 2, 2006"

// FormatRange renders "Mon, Jan 5, 2026" or "start - end" for multi-day ranges.
func FormatRange(r models.DateRange) string {
	start := r.Start.Format(displayLayout)
	end := r.End.Format(displayLayout)
	if start == end {
		return start
	}
	return start + " - " + end
}

// QuarterLabel renders "Q1 2026".
func QuarterLabel(t time.Time) string {
	return fmt.Sprintf("Q%d %d", Quarter(t), t.Year())
}

// MonthLabel renders "January 2026".
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// Label is the human heading for a range.
func Label(r models.DateRange) string {
	switch PeriodOf(r) {
	case Monthly:
		return MonthLabel(r.Start)
	case Quarterly:
		return QuarterLabel(r.Start)
	case Weekly:
		return "Week of " + r.Start.Format("Jan 2, 2006")
	}
	return FormatRange(r)
}
