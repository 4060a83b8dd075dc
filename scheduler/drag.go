package scheduler

import "github.com/rohow/mopad-client/types"

// Drag is an in-progress pointer drag of one talk. GrabOffsetPx is where
// inside the dragged card the pointer grabbed it, so drops align the card's
// top edge rather than the pointer.
type Drag struct {
	TalkID       int64
	GrabOffsetPx float64
}

// DropOnTrack places the dragged talk onto a venue track. The drop point's
// offset from the track top is snapped to the slot grid and added to the
// timeline start; location and scheduled time are set atomically. Drops
// snapping above the track top are rejected without mutating the draft.
func (w *Workspace) DropOnTrack(d Drag, venueID int64, pointerOffsetPx float64) bool {
	mins := w.geo.SnapMinutes(pointerOffsetPx - d.GrabOffsetPx)
	if mins < 0 {
		return false
	}
	start := types.SystemTimeFromSecs(w.geo.TimeForMinutes(mins))
	w.UpdateDraftTalk(d.TalkID, TalkPatch{
		Location:    &venueID,
		ScheduledAt: start,
	})
	return true
}

// DropOnSidebar returns the dragged talk to the unscheduled sidebar,
// clearing both the scheduled time and the venue.
func (w *Workspace) DropOnSidebar(d Drag) {
	w.UpdateDraftTalk(d.TalkID, TalkPatch{
		ClearScheduledAt: true,
		ClearLocation:    true,
	})
}

// Preview describes where a drag would land, for drop-shadow rendering.
type Preview struct {
	Minutes  int
	TopPx    float64
	HeightPx float64
	Label    string
}

// HoverPreview computes the drop shadow for the current pointer position.
// It reports false above the track top, matching DropOnTrack's rejection.
func (w *Workspace) HoverPreview(d Drag, pointerOffsetPx float64) (Preview, bool) {
	mins := w.geo.SnapMinutes(pointerOffsetPx - d.GrabOffsetPx)
	if mins < 0 {
		return Preview{}, false
	}
	t, ok := w.DraftTalk(d.TalkID)
	if !ok {
		return Preview{}, false
	}
	return Preview{
		Minutes:  mins,
		TopPx:    float64(mins) * w.geo.PixelsPerMinute,
		HeightPx: float64(t.Duration.Secs) / 60 * w.geo.PixelsPerMinute,
		Label:    w.geo.TimeLabel(mins),
	}, true
}

// Resize recomputes a placed talk's duration from the net vertical pointer
// displacement of its bottom edge. The result snaps to the slot grid and
// never shrinks below one slot; out-of-range input clamps instead of
// erroring.
func (w *Workspace) Resize(talkID int64, deltaPx float64) {
	t, ok := w.DraftTalk(talkID)
	if !ok {
		return
	}
	startHeightPx := float64(t.Duration.Secs) / 60 * w.geo.PixelsPerMinute
	mins := w.geo.SnapDuration(startHeightPx + deltaPx)
	d := types.DurationFromSecs(int64(mins) * 60)
	w.UpdateDraftTalk(talkID, TalkPatch{Duration: &d})
}
