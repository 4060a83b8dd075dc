package types

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Command is a client-to-server request. On the wire every command is an
// externally tagged JSON object with exactly one key, the variant name:
//
//	{"UpdateTitle":{"talk_id":42,"title":"..."}}
type Command interface {
	CommandName() string
}

type LoginCommand struct {
	Name     string `json:"name" mapstructure:"name"`
	Team     string `json:"team" mapstructure:"team"`
	Password string `json:"password" mapstructure:"password"`
}

type RegisterCommand struct {
	Name           string          `json:"name" mapstructure:"name"`
	Team           string          `json:"team" mapstructure:"team"`
	Password       string          `json:"password" mapstructure:"password"`
	AttendanceMode *AttendanceMode `json:"attendance_mode" mapstructure:"attendance_mode"`
}

type ReloginCommand struct {
	Token string `json:"token" mapstructure:"token"`
}

type AddTalkCommand struct {
	Title       string   `json:"title" mapstructure:"title"`
	Description string   `json:"description" mapstructure:"description"`
	Duration    Duration `json:"duration" mapstructure:"duration"`
}

type RemoveTalkCommand struct {
	TalkId int64 `json:"talk_id" mapstructure:"talk_id"`
}

type UpdateTitleCommand struct {
	TalkId int64  `json:"talk_id" mapstructure:"talk_id"`
	Title  string `json:"title" mapstructure:"title"`
}

type UpdateDescriptionCommand struct {
	TalkId      int64  `json:"talk_id" mapstructure:"talk_id"`
	Description string `json:"description" mapstructure:"description"`
}

type UpdateScheduledAtCommand struct {
	TalkId      int64       `json:"talk_id" mapstructure:"talk_id"`
	ScheduledAt *SystemTime `json:"scheduled_at" mapstructure:"scheduled_at"`
}

type UpdateDurationCommand struct {
	TalkId   int64    `json:"talk_id" mapstructure:"talk_id"`
	Duration Duration `json:"duration" mapstructure:"duration"`
}

type UpdateLocationCommand struct {
	TalkId   int64  `json:"talk_id" mapstructure:"talk_id"`
	Location *int64 `json:"location" mapstructure:"location"`
}

// The membership commands carry the acting user's id on the wire; callers of
// the session API only name the talk, the session fills in the identity.
type AddNoobCommand struct {
	TalkId int64 `json:"talk_id" mapstructure:"talk_id"`
	UserId int64 `json:"user_id" mapstructure:"user_id"`
}

type RemoveNoobCommand struct {
	TalkId int64 `json:"talk_id" mapstructure:"talk_id"`
	UserId int64 `json:"user_id" mapstructure:"user_id"`
}

type AddNerdCommand struct {
	TalkId int64 `json:"talk_id" mapstructure:"talk_id"`
	UserId int64 `json:"user_id" mapstructure:"user_id"`
}

type RemoveNerdCommand struct {
	TalkId int64 `json:"talk_id" mapstructure:"talk_id"`
	UserId int64 `json:"user_id" mapstructure:"user_id"`
}

func (LoginCommand) CommandName() string             { return "Login" }
func (RegisterCommand) CommandName() string          { return "Register" }
func (ReloginCommand) CommandName() string           { return "Relogin" }
func (AddTalkCommand) CommandName() string           { return "AddTalk" }
func (RemoveTalkCommand) CommandName() string        { return "RemoveTalk" }
func (UpdateTitleCommand) CommandName() string       { return "UpdateTitle" }
func (UpdateDescriptionCommand) CommandName() string { return "UpdateDescription" }
func (UpdateScheduledAtCommand) CommandName() string { return "UpdateScheduledAt" }
func (UpdateDurationCommand) CommandName() string    { return "UpdateDuration" }
func (UpdateLocationCommand) CommandName() string    { return "UpdateLocation" }
func (AddNoobCommand) CommandName() string           { return "AddNoob" }
func (RemoveNoobCommand) CommandName() string        { return "RemoveNoob" }
func (AddNerdCommand) CommandName() string           { return "AddNerd" }
func (RemoveNerdCommand) CommandName() string        { return "RemoveNerd" }

// IsAuthCommand reports whether cmd is one of the three authentication
// variants. At most one of these is sent per connection, before anything
// else.
func IsAuthCommand(cmd Command) bool {
	switch cmd.(type) {
	case LoginCommand, *LoginCommand, RegisterCommand, *RegisterCommand, ReloginCommand, *ReloginCommand:
		return true
	}
	return false
}

// MarshalCommand wraps the payload in the single-key variant object.
func MarshalCommand(cmd Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{cmd.CommandName(): payload})
}

// DecodeCommand parses an externally tagged command. Payload fields are
// decoded weakly so callers feeding generic maps (tests, the fake server) do
// not have to care about JSON number types.
func DecodeCommand(raw []byte) (Command, error) {
	variants := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, err
	}
	if len(variants) != 1 {
		return nil, fmt.Errorf("expected exactly one command variant, got %d", len(variants))
	}
	var name string
	var payload json.RawMessage
	for name, payload = range variants {
	}

	var target Command
	switch name {
	case "Login":
		target = &LoginCommand{}
	case "Register":
		target = &RegisterCommand{}
	case "Relogin":
		target = &ReloginCommand{}
	case "AddTalk":
		target = &AddTalkCommand{}
	case "RemoveTalk":
		target = &RemoveTalkCommand{}
	case "UpdateTitle":
		target = &UpdateTitleCommand{}
	case "UpdateDescription":
		target = &UpdateDescriptionCommand{}
	case "UpdateScheduledAt":
		target = &UpdateScheduledAtCommand{}
	case "UpdateDuration":
		target = &UpdateDurationCommand{}
	case "UpdateLocation":
		target = &UpdateLocationCommand{}
	case "AddNoob":
		target = &AddNoobCommand{}
	case "RemoveNoob":
		target = &RemoveNoobCommand{}
	case "AddNerd":
		target = &AddNerdCommand{}
	case "RemoveNerd":
		target = &RemoveNerdCommand{}
	default:
		return nil, fmt.Errorf("unknown command variant %q", name)
	}

	payloadMap := make(map[string]interface{})
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return nil, err
	}
	if err := mapstructure.WeakDecode(payloadMap, target); err != nil {
		return nil, err
	}
	return target, nil
}
