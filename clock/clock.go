// Package clock provides the process-wide ticking time source. Everything
// that classifies talks by time reads the current epoch seconds from a
// Source instead of calling time.Now, so tests can drive the clock by hand.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

const DefaultTickInterval = time.Minute

// Source is an observable "current epoch seconds" value. Ticks delivers a
// coalesced notification whenever the value advances; slow consumers miss
// intermediate ticks, never block the clock.
type Source interface {
	Now() int64
	Ticks() <-chan int64
}

// Wall is the production Source: wall-clock time sampled on a fixed interval.
type Wall struct {
	now   int64
	ticks chan int64
	stop  chan struct{}
	once  sync.Once
}

func NewWall(interval time.Duration) *Wall {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	w := &Wall{
		ticks: make(chan int64, 1),
		stop:  make(chan struct{}),
	}
	atomic.StoreInt64(&w.now, time.Now().Unix())
	go w.run(interval)
	return w
}

func (w *Wall) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case t := <-ticker.C:
			atomic.StoreInt64(&w.now, t.Unix())
			select {
			case w.ticks <- t.Unix():
			default:
			}
		case <-w.stop:
			return
		}
	}
}

func (w *Wall) Now() int64 {
	return atomic.LoadInt64(&w.now)
}

func (w *Wall) Ticks() <-chan int64 {
	return w.ticks
}

func (w *Wall) Stop() {
	w.once.Do(func() { close(w.stop) })
}

// Manual is a controllable Source for tests. It only moves when told to.
type Manual struct {
	mu    sync.Mutex
	now   int64
	ticks chan int64
}

func NewManual(startSecs int64) *Manual {
	return &Manual{now: startSecs, ticks: make(chan int64, 1)}
}

func (m *Manual) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Ticks() <-chan int64 {
	return m.ticks
}

// Set moves the clock to the given epoch second and announces the tick.
func (m *Manual) Set(secs int64) {
	m.mu.Lock()
	m.now = secs
	m.mu.Unlock()
	select {
	case m.ticks <- secs:
	default:
	}
}

// Advance moves the clock forward and returns the updated value.
func (m *Manual) Advance(d time.Duration) int64 {
	m.mu.Lock()
	m.now += int64(d / time.Second)
	updated := m.now
	m.mu.Unlock()
	select {
	case m.ticks <- updated:
	default:
	}
	return updated
}
