// Package store holds the client's authoritative mirror of server state:
// users, talks, locations, teams and the session/connection status. The only
// mutation surface for entity data is ApplyEvent; the transport session is
// the only caller on that path.
package store

import (
	"sync"

	"github.com/rohow/mopad-client/globals"
	"github.com/rohow/mopad-client/types"
)

// Status is the connection state of the session that feeds this store.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

type Store struct {
	mu sync.RWMutex

	users     map[int64]types.User
	talks     map[int64]types.Talk
	locations map[int64]types.Location
	teams     []string

	status        Status
	authError     string
	currentUserID int64
	roles         []types.Role

	overrides map[overrideKey]interface{}

	watchers []chan struct{}
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]types.User),
		talks:     make(map[int64]types.Talk),
		locations: make(map[int64]types.Location),
		status:    StatusConnecting,
		overrides: make(map[overrideKey]interface{}),
	}
}

// ApplyEvent is the single mutator for entity state. It never fails:
// membership edits are idempotent and events referencing unknown talks or
// users are dropped silently, they only mean this client has not caught up
// yet.
func (s *Store) ApplyEvent(ev types.Event) {
	s.mu.Lock()
	switch e := ev.(type) {
	case *types.AuthenticationSuccessEvent:
		s.currentUserID = e.UserId
		s.roles = append([]types.Role(nil), e.Roles...)
		s.authError = ""

	case *types.AuthenticationErrorEvent:
		s.authError = e.Reason
		s.currentUserID = 0
		s.roles = nil

	case *types.UsersEvent:
		// Snapshot semantics: the roster may have changed between
		// sessions, so the user set is replaced wholesale. Roles are
		// session-scoped and not part of the snapshot.
		users := make(map[int64]types.User, len(e.Users))
		for id, u := range e.Users {
			u.Id = id
			u.Roles = nil
			users[id] = u
		}
		s.users = users

	case *types.AddTalkEvent:
		talk := e.Talk.Clone()
		if talk.Noobs == nil {
			talk.Noobs = []int64{}
		}
		if talk.Nerds == nil {
			talk.Nerds = []int64{}
		}
		s.talks[talk.Id] = talk

	case *types.RemoveTalkEvent:
		delete(s.talks, e.TalkId)
		s.dropOverridesFor(e.TalkId)

	case *types.UpdateTitleEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Title = e.Title })
		s.clearOverride(e.TalkId, FieldTitle)

	case *types.UpdateDescriptionEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Description = e.Description })
		s.clearOverride(e.TalkId, FieldDescription)

	case *types.UpdateScheduledAtEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.ScheduledAt = copyTime(e.ScheduledAt) })
		s.clearOverride(e.TalkId, FieldScheduledAt)

	case *types.UpdateDurationEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Duration = e.Duration })
		s.clearOverride(e.TalkId, FieldDuration)

	case *types.UpdateLocationEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Location = copyID(e.Location) })
		s.clearOverride(e.TalkId, FieldLocation)

	case *types.AddNoobEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Noobs = addID(t.Noobs, e.UserId) })

	case *types.RemoveNoobEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Noobs = removeID(t.Noobs, e.UserId) })

	case *types.AddNerdEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Nerds = addID(t.Nerds, e.UserId) })

	case *types.RemoveNerdEvent:
		s.patchTalk(e.TalkId, func(t *types.Talk) { t.Nerds = removeID(t.Nerds, e.UserId) })

	case *types.UpdateAttendanceModeEvent:
		if u, ok := s.users[e.UserId]; ok {
			u.AttendanceMode = e.AttendanceMode
			s.users[e.UserId] = u
		}

	default:
		globals.AppLogger.Warn("ignoring unhandled event", "event", ev.EventName())
	}
	s.mu.Unlock()
	s.notify()
}

// patchTalk applies a field-level patch keyed by talk id. Unknown ids are a
// no-op, the creation event or snapshot is assumed to arrive first.
func (s *Store) patchTalk(id int64, patch func(*types.Talk)) {
	t, ok := s.talks[id]
	if !ok {
		return
	}
	patch(&t)
	s.talks[id] = t
}

func addID(ids []int64, id int64) []int64 {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, have := range ids {
		if have != id {
			out = append(out, have)
		}
	}
	return out
}

func copyTime(st *types.SystemTime) *types.SystemTime {
	if st == nil {
		return nil
	}
	c := *st
	return &c
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// Users returns a copy of the user set.
func (s *Store) Users() map[int64]types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]types.User, len(s.users))
	for id, u := range s.users {
		out[id] = u
	}
	return out
}

func (s *Store) User(id int64) (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Talks returns a deep copy of the talk set; callers can mutate the result
// freely (the draft workspace depends on this).
func (s *Store) Talks() map[int64]types.Talk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]types.Talk, len(s.talks))
	for id, t := range s.talks {
		out[id] = t.Clone()
	}
	return out
}

func (s *Store) Talk(id int64) (types.Talk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.talks[id]
	if !ok {
		return types.Talk{}, false
	}
	return t.Clone(), true
}

func (s *Store) Locations() map[int64]types.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]types.Location, len(s.locations))
	for id, l := range s.locations {
		out[id] = l
	}
	return out
}

func (s *Store) Teams() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.teams...)
}

// SetLocations and SetTeams feed the auxiliary HTTP resources into the
// mirror; locations and teams are never created by events.
func (s *Store) SetLocations(locations map[int64]types.Location) {
	s.mu.Lock()
	out := make(map[int64]types.Location, len(locations))
	for id, l := range locations {
		l.Id = id
		out[id] = l
	}
	s.locations = out
	s.mu.Unlock()
	s.notify()
}

func (s *Store) SetTeams(teams []string) {
	s.mu.Lock()
	s.teams = append([]string(nil), teams...)
	s.mu.Unlock()
	s.notify()
}

// LoadSnapshot seeds the mirror from a locally cached snapshot so a
// restarted client has something to show before the connection is up. It
// never overwrites live data.
func (s *Store) LoadSnapshot(users map[int64]types.User, talks map[int64]types.Talk, locations map[int64]types.Location, teams []string) {
	s.mu.Lock()
	if len(s.users) == 0 && len(s.talks) == 0 {
		for id, u := range users {
			u.Roles = nil
			s.users[id] = u
		}
		for id, t := range talks {
			s.talks[id] = t.Clone()
		}
		for id, l := range locations {
			s.locations[id] = l
		}
		if len(s.teams) == 0 {
			s.teams = append([]string(nil), teams...)
		}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.notify()
}

func (s *Store) AuthError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authError
}

// SetAuthError overwrites the single reactive error slot; an empty string
// clears it.
func (s *Store) SetAuthError(reason string) {
	s.mu.Lock()
	s.authError = reason
	s.mu.Unlock()
	s.notify()
}

// ClearIdentity forgets who is logged in. Called on disconnect; the relogin
// token is persisted elsewhere and survives.
func (s *Store) ClearIdentity() {
	s.mu.Lock()
	s.currentUserID = 0
	s.roles = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) CurrentUserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentUserID
}

func (s *Store) Roles() []types.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Role(nil), s.roles...)
}

// CurrentUser resolves the authenticated identity against the mirror. It
// reports false until the Users snapshot containing the id has arrived.
func (s *Store) CurrentUser() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUserID == 0 {
		return types.User{}, false
	}
	u, ok := s.users[s.currentUserID]
	if !ok {
		return types.User{}, false
	}
	u.Roles = append([]types.Role(nil), s.roles...)
	return u, true
}

// Watch returns a channel that receives a coalesced signal after every store
// mutation.
func (s *Store) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
