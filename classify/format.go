package classify

import (
	"fmt"

	"github.com/rohow/mopad-client/types"
)

// FormatSchedule renders "at YYYY-MM-DD HH:mm" with a relative suffix close
// to the start: "(in N minutes)" shortly before, "(now)" at the starting
// minute and "(N minutes ago)" while the talk runs. Comparisons happen at
// minute granularity.
func FormatSchedule(start types.SystemTime, duration types.Duration, nowSecs int64) string {
	startMins := start.SecsSinceEpoch / 60
	nowMins := nowSecs / 60
	durationMins := duration.Minutes()

	dateStr := start.Time().Format("2006-01-02 15:04")

	suffix := ""
	switch {
	case nowMins < startMins && startMins-nowMins <= durationMins:
		suffix = fmt.Sprintf(" (in %s)", pluralMinutes(startMins-nowMins))
	case startMins == nowMins:
		suffix = " (now)"
	case startMins < nowMins && nowMins-startMins < durationMins:
		suffix = fmt.Sprintf(" (%s ago)", pluralMinutes(nowMins-startMins))
	}
	return "at " + dateStr + suffix
}

// FormatDuration renders "for N minutes", appending "(M minutes left)" while
// the talk is running.
func FormatDuration(start *types.SystemTime, duration types.Duration, nowSecs int64) string {
	durationMins := duration.Minutes()
	suffix := ""
	if start != nil {
		startMins := start.SecsSinceEpoch / 60
		nowMins := nowSecs / 60
		if startMins <= nowMins && nowMins-startMins < durationMins {
			left := durationMins - (nowMins - startMins)
			suffix = fmt.Sprintf(" (%s left)", pluralMinutes(left))
		}
	}
	return fmt.Sprintf("for %s%s", pluralMinutes(durationMins), suffix)
}

func pluralMinutes(n int64) string {
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}
