package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohow/mopad-client/types"
)

func TestPendingOverrideShadowsMirror(t *testing.T) {
	s := NewStore()
	s.ApplyEvent(newTalkEvent(11, "Intro"))

	s.SetPending(11, FieldTitle, "Intro v2")
	assert.True(t, s.HasPending(11, FieldTitle))

	// the mirror itself is untouched
	talk, _ := s.Talk(11)
	assert.Equal(t, "Intro", talk.Title)

	view, ok := s.TalkView(11)
	assert.True(t, ok)
	assert.Equal(t, "Intro v2", view.Title)
}

func TestOverrideClearedByMatchingPatch(t *testing.T) {
	s := NewStore()
	s.ApplyEvent(newTalkEvent(11, "Intro"))
	s.SetPending(11, FieldTitle, "Intro v2")

	// any patch for the same field clears the override, even a foreign edit
	// with a different value
	s.ApplyEvent(&types.UpdateTitleEvent{TalkId: 11, Title: "someone else won"})
	assert.False(t, s.HasPending(11, FieldTitle))
	view, _ := s.TalkView(11)
	assert.Equal(t, "someone else won", view.Title)
}

func TestOverridesAreFieldScoped(t *testing.T) {
	s := NewStore()
	s.ApplyEvent(newTalkEvent(11, "Intro"))
	s.SetPending(11, FieldTitle, "Intro v2")
	s.SetPending(11, FieldDuration, types.DurationFromSecs(1800))

	// a patch for one field leaves the other override standing
	s.ApplyEvent(&types.UpdateTitleEvent{TalkId: 11, Title: "Intro v2"})
	assert.False(t, s.HasPending(11, FieldTitle))
	assert.True(t, s.HasPending(11, FieldDuration))

	view, _ := s.TalkView(11)
	assert.Equal(t, int64(1800), view.Duration.Secs)
}

func TestOverridePointerFields(t *testing.T) {
	s := NewStore()
	s.ApplyEvent(newTalkEvent(11, "Intro"))

	s.SetPending(11, FieldScheduledAt, types.SystemTimeFromSecs(5000))
	loc := int64(3)
	s.SetPending(11, FieldLocation, &loc)

	view, _ := s.TalkView(11)
	assert.Equal(t, int64(5000), view.ScheduledAt.SecsSinceEpoch)
	assert.Equal(t, int64(3), *view.Location)

	// a nil pending value renders as unscheduled
	s.SetPending(11, FieldScheduledAt, (*types.SystemTime)(nil))
	view, _ = s.TalkView(11)
	assert.Nil(t, view.ScheduledAt)
}

func TestOverridesDroppedWithTalk(t *testing.T) {
	s := NewStore()
	s.ApplyEvent(newTalkEvent(11, "Intro"))
	s.SetPending(11, FieldTitle, "Intro v2")

	s.ApplyEvent(&types.RemoveTalkEvent{TalkId: 11})
	assert.False(t, s.HasPending(11, FieldTitle))
	_, ok := s.TalkView(11)
	assert.False(t, ok)
}
