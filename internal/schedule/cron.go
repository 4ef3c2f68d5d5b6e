package schedule

import (
	"fmt"
	"strings"

	"github.com/thebtf/worklog/internal/dates"
)

var cronExpressions = map[dates.Period]string{
	dates.Daily:     "0 %d * * *",
	dates.Weekly:    "0 %d * * 1",
	dates.Monthly:   "0 %d 1 * *",
	dates.Quarterly: "0 %d 1 1,4,7,10 *",
}

// CronMarker tags the crontab line owned by a period.
func CronMarker(period dates.Period) string {
	return "# worklog-" + string(period) + "-standup"
}

// BuildCronLine returns the crontab entry running command for period at 09:00.
func BuildCronLine(period dates.Period, command string) string {
	return BuildCronLineAt(period, command, 9)
}

// BuildCronLineAt is BuildCronLine at a given hour.
func BuildCronLineAt(period dates.Period, command string, hour int) string {
	expr, ok := cronExpressions[period]
	if !ok {
		expr = cronExpressions[dates.Daily]
	}
	return fmt.Sprintf(expr+" %s schedule run --period %s %s",
		hour, command, period, CronMarker(period))
}

// MergeCrontab replaces the worklog lines of the given periods in an existing
// crontab and appends missing ones. Unrelated lines are kept in order.
func MergeCrontab(existing string, lines map[dates.Period]string) string {
	var out []string
	replaced := make(map[dates.Period]bool)

	for _, line := range strings.Split(strings.TrimRight(existing, "\n"), "\n") {
		if line == "" && len(out) == 0 {
			continue
		}
		owner, owned := ownerOf(line)
		if !owned {
			out = append(out, line)
			continue
		}
		if next, ok := lines[owner]; ok {
			if !replaced[owner] {
				out = append(out, next)
				replaced[owner] = true
			}
			continue
		}
		out = append(out, line)
	}

	for _, period := range dates.Periods {
		if next, ok := lines[period]; ok && !replaced[period] {
			out = append(out, next)
		}
	}

	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

func ownerOf(line string) (dates.Period, bool) {
	for _, period := range dates.Periods {
		if strings.HasSuffix(strings.TrimSpace(line), CronMarker(period)) {
			return period, true
		}
	}
	return "", false
}
