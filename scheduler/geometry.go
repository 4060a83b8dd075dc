package scheduler

import (
	"fmt"
	"math"
)

const minsPerDay = 24 * 60

// Geometry maps between pixels on a venue track and minutes on the
// timeline. A fixed pixels-per-minute scale and a fixed slot granularity
// define the snap function used by every drag and resize.
type Geometry struct {
	// StartEpoch is 00:00 of the first conference day, in epoch seconds.
	StartEpoch int64
	// DaysToShow is how many days the vertical timeline covers.
	DaysToShow int
	// SlotMinutes is the snap granularity.
	SlotMinutes int
	// PixelsPerMinute is the vertical zoom.
	PixelsPerMinute float64
	// ActiveDayStartMin/ActiveDayEndMin bound the highlighted day window,
	// in minutes from midnight. Rendering only; kept here because they
	// are part of the timeline configuration.
	ActiveDayStartMin int
	ActiveDayEndMin   int
}

// DefaultGeometry mirrors the reference timeline settings apart from the
// start epoch, which is event-specific and comes from configuration.
func DefaultGeometry(startEpoch int64) Geometry {
	return Geometry{
		StartEpoch:        startEpoch,
		DaysToShow:        3,
		SlotMinutes:       15,
		PixelsPerMinute:   1.1,
		ActiveDayStartMin: 8 * 60,
		ActiveDayEndMin:   22 * 60,
	}
}

// SnapMinutes converts a vertical pixel offset within a track to elapsed
// minutes from the track top, rounded to the nearest slot multiple. The
// result may be negative for offsets above the track top; callers reject
// those.
func (g Geometry) SnapMinutes(offsetPx float64) int {
	rawMinutes := offsetPx / g.PixelsPerMinute
	slot := float64(g.SlotMinutes)
	return int(math.Round(rawMinutes/slot)) * g.SlotMinutes
}

// SnapDuration converts a pixel height to a duration in minutes, snapped to
// the slot granularity with a floor of one slot.
func (g Geometry) SnapDuration(heightPx float64) int {
	minHeight := float64(g.SlotMinutes) * g.PixelsPerMinute
	if heightPx < minHeight {
		heightPx = minHeight
	}
	mins := g.SnapMinutes(heightPx)
	if mins < g.SlotMinutes {
		mins = g.SlotMinutes
	}
	return mins
}

// TimeForMinutes converts a minute offset from the track top to an epoch
// second on the timeline.
func (g Geometry) TimeForMinutes(mins int) int64 {
	return g.StartEpoch + int64(mins)*60
}

// InRange reports whether an epoch second falls onto the rendered timeline.
func (g Geometry) InRange(secs int64) bool {
	end := g.StartEpoch + int64(g.DaysToShow)*86400
	return secs >= g.StartEpoch && secs < end
}

// TimeLabel renders a minute offset as "Day N, HH:MM" for drop previews.
func (g Geometry) TimeLabel(mins int) string {
	dayIdx := mins / minsPerDay
	minsIntoDay := mins % minsPerDay
	return fmt.Sprintf("Day %d, %02d:%02d", dayIdx+1, minsIntoDay/60, minsIntoDay%60)
}
