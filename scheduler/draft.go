// Package scheduler implements the interactive timeline editor's staging
// area: an isolated deep copy of the talk set that drag, drop and resize
// interactions mutate, and a diff-based commit that turns the result into
// the minimal set of update commands.
package scheduler

import (
	"sort"
	"sync"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/rohow/mopad-client/globals"
	"github.com/rohow/mopad-client/store"
	"github.com/rohow/mopad-client/types"
)

// Workspace is the draft editing session. Lifecycle: Closed → Open →
// (Save|Discard) → Closed. While open, the draft never aliases the
// authoritative store; the store keeps receiving live events underneath it.
type Workspace struct {
	mu    sync.Mutex
	store *store.Store
	geo   Geometry

	open  bool
	draft map[int64]types.Talk
}

func NewWorkspace(st *store.Store, geo Geometry) *Workspace {
	return &Workspace{store: st, geo: geo}
}

func (w *Workspace) Geometry() Geometry {
	return w.geo
}

func (w *Workspace) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// Open forks the full authoritative talk set into the draft. Opening an
// already-open workspace resets the draft.
func (w *Workspace) Open() {
	talks := w.store.Talks() // already deep-copied
	w.mu.Lock()
	w.draft = talks
	w.open = true
	w.mu.Unlock()
}

// Discard drops the draft without emitting anything.
func (w *Workspace) Discard() {
	w.mu.Lock()
	w.draft = nil
	w.open = false
	w.mu.Unlock()
}

// TalkPatch is a shallow merge into a draft talk. Nil fields are left
// untouched; the Clear flags distinguish "set to null" from "leave alone".
type TalkPatch struct {
	Title            *string
	Description      *string
	ScheduledAt      *types.SystemTime
	ClearScheduledAt bool
	Duration         *types.Duration
	Location         *int64
	ClearLocation    bool
}

// UpdateDraftTalk is the only path by which scheduling interactions take
// effect. Unknown ids and a closed workspace are no-ops.
func (w *Workspace) UpdateDraftTalk(id int64, patch TalkPatch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return
	}
	t, ok := w.draft[id]
	if !ok {
		return
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.ClearScheduledAt {
		t.ScheduledAt = nil
	} else if patch.ScheduledAt != nil {
		st := *patch.ScheduledAt
		t.ScheduledAt = &st
	}
	if patch.Duration != nil {
		t.Duration = *patch.Duration
	}
	if patch.ClearLocation {
		t.Location = nil
	} else if patch.Location != nil {
		loc := *patch.Location
		t.Location = &loc
	}
	w.draft[id] = t
}

// DraftTalks returns a deep copy of the current draft.
func (w *Workspace) DraftTalks() map[int64]types.Talk {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[int64]types.Talk, len(w.draft))
	for id, t := range w.draft {
		out[id] = t.Clone()
	}
	return out
}

func (w *Workspace) DraftTalk(id int64) (types.Talk, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.draft[id]
	if !ok {
		return types.Talk{}, false
	}
	return t.Clone(), true
}

// Unscheduled lists the sidebar talks, ordered by id.
func (w *Workspace) Unscheduled() []types.Talk {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]types.Talk, 0)
	for _, t := range w.draft {
		if !t.IsScheduled() {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// TalksOnTrack lists the draft talks placed on a venue within the rendered
// timeline range, ordered by start time.
func (w *Workspace) TalksOnTrack(venueID int64) []types.Talk {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]types.Talk, 0)
	for _, t := range w.draft {
		if !t.IsScheduled() || t.Location == nil || *t.Location != venueID {
			continue
		}
		if !w.geo.InRange(t.ScheduledAt.SecsSinceEpoch) {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ScheduledAt.SecsSinceEpoch != b.ScheduledAt.SecsSinceEpoch {
			return a.ScheduledAt.SecsSinceEpoch < b.ScheduledAt.SecsSinceEpoch
		}
		return a.Id < b.Id
	})
	return out
}

// Save computes the per-field diff between the draft and the authoritative
// store *at commit time* and returns one command per changed field,
// restricted to location, scheduled time and duration. Fields the draft
// touched win over concurrent edits; fields it left alone keep whatever the
// server pushed meanwhile (last writer wins per field, not per talk). The
// workspace is closed afterwards.
func (w *Workspace) Save() []types.Command {
	current := w.store.Talks()

	w.mu.Lock()
	draft := w.draft
	w.draft = nil
	w.open = false
	w.mu.Unlock()

	ids := make([]int64, 0, len(draft))
	for id := range draft {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	cmds := make([]types.Command, 0)
	for _, id := range ids {
		dTalk := draft[id]
		oTalk, ok := current[id]
		if !ok {
			// removed while the draft was open
			continue
		}
		if talksHashEqual(dTalk, oTalk) {
			continue
		}

		if !idPtrEqual(dTalk.Location, oTalk.Location) {
			cmds = append(cmds, types.UpdateLocationCommand{TalkId: id, Location: dTalk.Location})
		}
		if !timePtrEqual(dTalk.ScheduledAt, oTalk.ScheduledAt) {
			cmds = append(cmds, types.UpdateScheduledAtCommand{TalkId: id, ScheduledAt: dTalk.ScheduledAt})
		}
		if dTalk.Duration.Secs != oTalk.Duration.Secs {
			cmds = append(cmds, types.UpdateDurationCommand{TalkId: id, Duration: dTalk.Duration})
		}
	}
	return cmds
}

// talksHashEqual is a cheap whole-talk comparison used to skip untouched
// talks before field diffing. Hash failure falls back to "changed".
func talksHashEqual(a, b types.Talk) bool {
	ha, err := hashstructure.Hash(a, hashstructure.FormatV2, nil)
	if err != nil {
		globals.AppLogger.Warn("could not hash talk", "error", err)
		return false
	}
	hb, err := hashstructure.Hash(b, hashstructure.FormatV2, nil)
	if err != nil {
		return false
	}
	return ha == hb
}

func idPtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func timePtrEqual(a, b *types.SystemTime) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.SecsSinceEpoch == b.SecsSinceEpoch
}
