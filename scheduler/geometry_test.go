package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapMinutes(t *testing.T) {
	g := DefaultGeometry(0)

	// 16.5px at 1.1 px/min is exactly 15 minutes
	assert.Equal(t, 15, g.SnapMinutes(16.5))
	// a little past one slot still snaps to it
	assert.Equal(t, 15, g.SnapMinutes(20))
	// closer to the next slot
	assert.Equal(t, 30, g.SnapMinutes(27))
	assert.Equal(t, 0, g.SnapMinutes(0))
	// above the track top the result goes negative, callers reject it
	assert.Equal(t, -15, g.SnapMinutes(-16.5))
}

func TestSnapDurationFloorsAtOneSlot(t *testing.T) {
	g := DefaultGeometry(0)

	assert.Equal(t, 15, g.SnapDuration(0))
	assert.Equal(t, 15, g.SnapDuration(-100))
	assert.Equal(t, 15, g.SnapDuration(16.5))
	assert.Equal(t, 45, g.SnapDuration(49.5))
}

func TestTimeForMinutes(t *testing.T) {
	g := DefaultGeometry(1600000000)
	assert.Equal(t, int64(1600000000), g.TimeForMinutes(0))
	assert.Equal(t, int64(1600000000+90*60), g.TimeForMinutes(90))
}

func TestInRange(t *testing.T) {
	g := DefaultGeometry(1000)
	assert.True(t, g.InRange(1000))
	assert.True(t, g.InRange(1000+3*86400-1))
	assert.False(t, g.InRange(999))
	assert.False(t, g.InRange(1000+3*86400))
}

func TestTimeLabel(t *testing.T) {
	g := DefaultGeometry(0)
	assert.Equal(t, "Day 1, 00:00", g.TimeLabel(0))
	assert.Equal(t, "Day 1, 10:30", g.TimeLabel(10*60+30))
	assert.Equal(t, "Day 2, 09:15", g.TimeLabel(24*60+9*60+15))
}
