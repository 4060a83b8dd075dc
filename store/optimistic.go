package store

import "github.com/rohow/mopad-client/types"

// Field names an editable talk field for optimistic override purposes.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldScheduledAt Field = "scheduled_at"
	FieldDuration    Field = "duration"
	FieldLocation    Field = "location"
)

type overrideKey struct {
	talkID int64
	field  Field
}

// Per-field optimistic edits: when the client sends an update command, the
// pending local value is recorded here and shown in place of the mirror
// value until a server patch for the same (talk, field) arrives. The
// override is cleared by any such patch, not by value equality, so a
// concurrent foreign edit also flushes a stale pending value. A field is in
// exactly one of two states: no override, or one pending value.

// SetPending records a pending local value for a talk field.
func (s *Store) SetPending(talkID int64, field Field, value interface{}) {
	s.mu.Lock()
	s.overrides[overrideKey{talkID, field}] = value
	s.mu.Unlock()
	s.notify()
}

// HasPending reports whether a local edit is still awaiting its echo.
func (s *Store) HasPending(talkID int64, field Field) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overrides[overrideKey{talkID, field}]
	return ok
}

// clearOverride and dropOverridesFor run under s.mu from ApplyEvent.
func (s *Store) clearOverride(talkID int64, field Field) {
	delete(s.overrides, overrideKey{talkID, field})
}

func (s *Store) dropOverridesFor(talkID int64) {
	for key := range s.overrides {
		if key.talkID == talkID {
			delete(s.overrides, key)
		}
	}
}

// TalkView returns the talk as the UI should render it: the mirror value
// with any pending local edits layered on top.
func (s *Store) TalkView(talkID int64) (types.Talk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.talks[talkID]
	if !ok {
		return types.Talk{}, false
	}
	t = t.Clone()
	for key, value := range s.overrides {
		if key.talkID != talkID {
			continue
		}
		switch key.field {
		case FieldTitle:
			if v, ok := value.(string); ok {
				t.Title = v
			}
		case FieldDescription:
			if v, ok := value.(string); ok {
				t.Description = v
			}
		case FieldScheduledAt:
			if v, ok := value.(*types.SystemTime); ok {
				t.ScheduledAt = copyTime(v)
			}
		case FieldDuration:
			if v, ok := value.(types.Duration); ok {
				t.Duration = v
			}
		case FieldLocation:
			if v, ok := value.(*int64); ok {
				t.Location = copyID(v)
			}
		}
	}
	return t, true
}
