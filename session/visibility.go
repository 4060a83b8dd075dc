package session

import "sync"

// Visibility tells the session whether the host surface is in the
// foreground. Reconnection attempts only run while visible; becoming
// visible fires an immediate attempt.
type Visibility interface {
	Visible() bool
	Changes() <-chan bool
}

type alwaysVisible struct {
	ch chan bool
}

// AlwaysVisible is the headless default: the client is its own foreground.
func AlwaysVisible() Visibility {
	return &alwaysVisible{ch: make(chan bool)}
}

func (alwaysVisible) Visible() bool { return true }

func (v *alwaysVisible) Changes() <-chan bool { return v.ch }

// Toggle is a switchable Visibility for embedding hosts and tests.
type Toggle struct {
	mu      sync.Mutex
	visible bool
	ch      chan bool
}

func NewToggle(visible bool) *Toggle {
	return &Toggle{visible: visible, ch: make(chan bool, 4)}
}

func (t *Toggle) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

func (t *Toggle) Changes() <-chan bool { return t.ch }

func (t *Toggle) Set(visible bool) {
	t.mu.Lock()
	changed := t.visible != visible
	t.visible = visible
	t.mu.Unlock()
	if changed {
		select {
		case t.ch <- visible:
		default:
		}
	}
}
