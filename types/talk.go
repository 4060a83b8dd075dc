package types

// Talk is the central entity of the mirror. ScheduledAt == nil means the talk
// is unscheduled, Location == nil means no venue has been assigned yet.
// Creator and the membership lists are weak references into the user set: the
// referenced users may not be loaded yet.
type Talk struct {
	Id          int64       `json:"id" mapstructure:"id"`
	Creator     int64       `json:"creator" mapstructure:"creator"`
	Title       string      `json:"title" mapstructure:"title"`
	Description string      `json:"description" mapstructure:"description"`
	ScheduledAt *SystemTime `json:"scheduled_at" mapstructure:"scheduled_at"`
	Duration    Duration    `json:"duration" mapstructure:"duration"`
	Location    *int64      `json:"location" mapstructure:"location"`
	Noobs       []int64     `json:"noobs" mapstructure:"noobs"`
	Nerds       []int64     `json:"nerds" mapstructure:"nerds"`
}

// Clone returns a deep copy. The draft workspace relies on this: mutating a
// clone must never alias the authoritative talk.
func (t Talk) Clone() Talk {
	c := t
	if t.ScheduledAt != nil {
		st := *t.ScheduledAt
		c.ScheduledAt = &st
	}
	if t.Location != nil {
		loc := *t.Location
		c.Location = &loc
	}
	if t.Noobs != nil {
		c.Noobs = append([]int64{}, t.Noobs...)
	}
	if t.Nerds != nil {
		c.Nerds = append([]int64{}, t.Nerds...)
	}
	return c
}

func (t Talk) IsScheduled() bool {
	return t.ScheduledAt != nil
}

// EndSecs returns the epoch second at which the talk ends. Only meaningful
// for scheduled talks.
func (t Talk) EndSecs() int64 {
	if t.ScheduledAt == nil {
		return 0
	}
	return t.ScheduledAt.SecsSinceEpoch + t.Duration.Secs
}

func (t Talk) HasNoob(userID int64) bool {
	return containsID(t.Noobs, userID)
}

func (t Talk) HasNerd(userID int64) bool {
	return containsID(t.Nerds, userID)
}

func containsID(ids []int64, id int64) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}
