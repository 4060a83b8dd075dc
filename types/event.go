package types

import (
	"encoding/json"
	"fmt"
)

// Event is a server-to-client push. The wire format mirrors the command
// format: one externally tagged JSON object per message.
type Event interface {
	EventName() string
}

type AuthenticationSuccessEvent struct {
	UserId int64  `json:"user_id"`
	Roles  []Role `json:"roles"`
	Token  string `json:"token"`
}

type AuthenticationErrorEvent struct {
	Reason string `json:"reason"`
}

// UsersEvent is a snapshot: it fully replaces the known user set.
type UsersEvent struct {
	Users map[int64]User `json:"users"`
}

type AddTalkEvent struct {
	Talk Talk `json:"talk"`
}

type RemoveTalkEvent struct {
	TalkId int64 `json:"talk_id"`
}

type UpdateTitleEvent struct {
	TalkId int64  `json:"talk_id"`
	Title  string `json:"title"`
}

type UpdateDescriptionEvent struct {
	TalkId      int64  `json:"talk_id"`
	Description string `json:"description"`
}

type UpdateScheduledAtEvent struct {
	TalkId      int64       `json:"talk_id"`
	ScheduledAt *SystemTime `json:"scheduled_at"`
}

type UpdateDurationEvent struct {
	TalkId   int64    `json:"talk_id"`
	Duration Duration `json:"duration"`
}

type UpdateLocationEvent struct {
	TalkId   int64  `json:"talk_id"`
	Location *int64 `json:"location"`
}

type AddNoobEvent struct {
	TalkId int64 `json:"talk_id"`
	UserId int64 `json:"user_id"`
}

type RemoveNoobEvent struct {
	TalkId int64 `json:"talk_id"`
	UserId int64 `json:"user_id"`
}

type AddNerdEvent struct {
	TalkId int64 `json:"talk_id"`
	UserId int64 `json:"user_id"`
}

type RemoveNerdEvent struct {
	TalkId int64 `json:"talk_id"`
	UserId int64 `json:"user_id"`
}

type UpdateAttendanceModeEvent struct {
	UserId         int64          `json:"user_id"`
	AttendanceMode AttendanceMode `json:"attendance_mode"`
}

func (AuthenticationSuccessEvent) EventName() string { return "AuthenticationSuccess" }
func (AuthenticationErrorEvent) EventName() string   { return "AuthenticationError" }
func (UsersEvent) EventName() string                 { return "Users" }
func (AddTalkEvent) EventName() string               { return "AddTalk" }
func (RemoveTalkEvent) EventName() string            { return "RemoveTalk" }
func (UpdateTitleEvent) EventName() string           { return "UpdateTitle" }
func (UpdateDescriptionEvent) EventName() string     { return "UpdateDescription" }
func (UpdateScheduledAtEvent) EventName() string     { return "UpdateScheduledAt" }
func (UpdateDurationEvent) EventName() string        { return "UpdateDuration" }
func (UpdateLocationEvent) EventName() string        { return "UpdateLocation" }
func (AddNoobEvent) EventName() string               { return "AddNoob" }
func (RemoveNoobEvent) EventName() string            { return "RemoveNoob" }
func (AddNerdEvent) EventName() string               { return "AddNerd" }
func (RemoveNerdEvent) EventName() string            { return "RemoveNerd" }
func (UpdateAttendanceModeEvent) EventName() string  { return "UpdateAttendanceMode" }

// MarshalEvent is the counterpart of DecodeEvent; the client itself never
// sends events, but the fake server in mopadtest does.
func MarshalEvent(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{ev.EventName(): payload})
}

// DecodeEvent parses an externally tagged event into its concrete variant.
func DecodeEvent(raw []byte) (Event, error) {
	variants := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, err
	}
	if len(variants) != 1 {
		return nil, fmt.Errorf("expected exactly one event variant, got %d", len(variants))
	}
	var name string
	var payload json.RawMessage
	for name, payload = range variants {
	}

	var target Event
	switch name {
	case "AuthenticationSuccess":
		target = &AuthenticationSuccessEvent{}
	case "AuthenticationError":
		target = &AuthenticationErrorEvent{}
	case "Users":
		target = &UsersEvent{}
	case "AddTalk":
		target = &AddTalkEvent{}
	case "RemoveTalk":
		target = &RemoveTalkEvent{}
	case "UpdateTitle":
		target = &UpdateTitleEvent{}
	case "UpdateDescription":
		target = &UpdateDescriptionEvent{}
	case "UpdateScheduledAt":
		target = &UpdateScheduledAtEvent{}
	case "UpdateDuration":
		target = &UpdateDurationEvent{}
	case "UpdateLocation":
		target = &UpdateLocationEvent{}
	case "AddNoob":
		target = &AddNoobEvent{}
	case "RemoveNoob":
		target = &RemoveNoobEvent{}
	case "AddNerd":
		target = &AddNerdEvent{}
	case "RemoveNerd":
		target = &RemoveNerdEvent{}
	case "UpdateAttendanceMode":
		target = &UpdateAttendanceModeEvent{}
	default:
		return nil, fmt.Errorf("unknown event variant %q", name)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, err
	}
	return target, nil
}
