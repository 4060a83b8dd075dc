package classify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rohow/mopad-client/types"
)

func dateStr(secs int64) string {
	return time.Unix(secs, 0).Format("2006-01-02 15:04")
}

func TestFormatSchedule(t *testing.T) {
	start := types.SystemTime{SecsSinceEpoch: 120000}
	duration := types.DurationFromSecs(2700) // 45 minutes
	prefix := "at " + dateStr(120000)

	// far in the future: no suffix
	assert.Equal(t, prefix, FormatSchedule(start, duration, 120000-3600))
	// within one duration before the start
	assert.Equal(t, fmt.Sprintf("%s (in 10 minutes)", prefix), FormatSchedule(start, duration, 120000-600))
	assert.Equal(t, fmt.Sprintf("%s (in 1 minute)", prefix), FormatSchedule(start, duration, 120000-60))
	// the starting minute
	assert.Equal(t, prefix+" (now)", FormatSchedule(start, duration, 120000))
	assert.Equal(t, prefix+" (now)", FormatSchedule(start, duration, 120030))
	// while running
	assert.Equal(t, fmt.Sprintf("%s (10 minutes ago)", prefix), FormatSchedule(start, duration, 120000+600))
	// after the end: no suffix again
	assert.Equal(t, prefix, FormatSchedule(start, duration, 120000+2700))
}

func TestFormatDuration(t *testing.T) {
	duration := types.DurationFromSecs(2700)

	assert.Equal(t, "for 45 minutes", FormatDuration(nil, duration, 0))

	start := types.SystemTimeFromSecs(120000)
	// before the start there is no countdown
	assert.Equal(t, "for 45 minutes", FormatDuration(start, duration, 120000-600))
	// while running the remaining time is appended
	assert.Equal(t, "for 45 minutes (45 minutes left)", FormatDuration(start, duration, 120000))
	assert.Equal(t, "for 45 minutes (15 minutes left)", FormatDuration(start, duration, 120000+1800))
	assert.Equal(t, "for 45 minutes (1 minute left)", FormatDuration(start, duration, 120000+2640))
	// over
	assert.Equal(t, "for 45 minutes", FormatDuration(start, duration, 120000+2700))
}

func TestFormatSingleMinute(t *testing.T) {
	assert.Equal(t, "for 1 minute", FormatDuration(nil, types.DurationFromSecs(60), 0))
}
