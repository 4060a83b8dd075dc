package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	m := NewManual(1000)
	assert.Equal(t, int64(1000), m.Now())

	m.Set(2000)
	assert.Equal(t, int64(2000), m.Now())
	select {
	case tick := <-m.Ticks():
		assert.Equal(t, int64(2000), tick)
	default:
		t.Fatal("expected a tick")
	}

	got := m.Advance(90 * time.Second)
	assert.Equal(t, int64(2090), got)
	assert.Equal(t, int64(2090), m.Now())
}

func TestManualTicksCoalesce(t *testing.T) {
	m := NewManual(0)
	m.Set(1)
	m.Set(2)
	m.Set(3)

	// only one tick is pending, carrying some advanced value
	<-m.Ticks()
	select {
	case <-m.Ticks():
		t.Fatal("ticks must coalesce")
	default:
	}
	assert.Equal(t, int64(3), m.Now())
}

func TestWallClock(t *testing.T) {
	w := NewWall(10 * time.Millisecond)
	defer w.Stop()

	start := w.Now()
	assert.InDelta(t, time.Now().Unix(), start, 2)

	select {
	case tick := <-w.Ticks():
		assert.InDelta(t, time.Now().Unix(), tick, 2)
	case <-time.After(time.Second):
		t.Fatal("expected a tick")
	}

	w.Stop()
	w.Stop() // idempotent
}
