package session

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rohow/mopad-client/store"
	"github.com/rohow/mopad-client/types"
)

// High-level command helpers. Field edits record an optimistic override in
// the store before sending, so the UI shows the pending value until the
// server patch echoes back.

func (s *Session) CreateTalk(title, description string, duration types.Duration) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title must not be empty")
	}
	if duration.Secs <= 0 {
		return errors.New("duration must be positive")
	}
	return s.Send(types.AddTalkCommand{Title: title, Description: description, Duration: duration})
}

func (s *Session) DeleteTalk(talkID int64) error {
	return s.Send(types.RemoveTalkCommand{TalkId: talkID})
}

func (s *Session) UpdateTitle(talkID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title must not be empty")
	}
	if err := s.Send(types.UpdateTitleCommand{TalkId: talkID, Title: title}); err != nil {
		return err
	}
	s.store.SetPending(talkID, store.FieldTitle, title)
	return nil
}

func (s *Session) UpdateDescription(talkID int64, description string) error {
	if err := s.Send(types.UpdateDescriptionCommand{TalkId: talkID, Description: description}); err != nil {
		return err
	}
	s.store.SetPending(talkID, store.FieldDescription, description)
	return nil
}

// EditDurationMinutes parses a user-typed minute value; the server only ever
// sees well-formed positive durations.
func (s *Session) EditDurationMinutes(talkID int64, raw string) error {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return errors.New("duration must be a whole number of minutes")
	}
	if minutes <= 0 {
		return errors.New("duration must be positive")
	}
	duration := types.DurationFromSecs(int64(minutes) * 60)
	if err := s.Send(types.UpdateDurationCommand{TalkId: talkID, Duration: duration}); err != nil {
		return err
	}
	s.store.SetPending(talkID, store.FieldDuration, duration)
	return nil
}

func (s *Session) UpdateScheduledAt(talkID int64, at *types.SystemTime) error {
	if err := s.Send(types.UpdateScheduledAtCommand{TalkId: talkID, ScheduledAt: at}); err != nil {
		return err
	}
	s.store.SetPending(talkID, store.FieldScheduledAt, at)
	return nil
}

func (s *Session) UpdateLocation(talkID int64, location *int64) error {
	if err := s.Send(types.UpdateLocationCommand{TalkId: talkID, Location: location}); err != nil {
		return err
	}
	s.store.SetPending(talkID, store.FieldLocation, location)
	return nil
}

// ToggleNoob and ToggleNerd flip the current user's membership on a talk.
// The two lists are mutually exclusive per user, enforced here: joining one
// side first leaves the other.
func (s *Session) ToggleNoob(talkID int64) error {
	return s.toggleMembership(talkID, true)
}

func (s *Session) ToggleNerd(talkID int64) error {
	return s.toggleMembership(talkID, false)
}

func (s *Session) toggleMembership(talkID int64, asNoob bool) error {
	userID := s.store.CurrentUserID()
	if userID == 0 {
		return ErrNotAuthenticated
	}
	talk, ok := s.store.Talk(talkID)
	if !ok {
		return errors.New("unknown talk")
	}
	if asNoob {
		if talk.HasNerd(userID) {
			if err := s.Send(types.RemoveNerdCommand{TalkId: talkID, UserId: userID}); err != nil {
				return err
			}
		}
		if talk.HasNoob(userID) {
			return s.Send(types.RemoveNoobCommand{TalkId: talkID, UserId: userID})
		}
		return s.Send(types.AddNoobCommand{TalkId: talkID, UserId: userID})
	}
	if talk.HasNoob(userID) {
		if err := s.Send(types.RemoveNoobCommand{TalkId: talkID, UserId: userID}); err != nil {
			return err
		}
	}
	if talk.HasNerd(userID) {
		return s.Send(types.RemoveNerdCommand{TalkId: talkID, UserId: userID})
	}
	return s.Send(types.AddNerdCommand{TalkId: talkID, UserId: userID})
}
