package types

// Role is a per-session authorization attribute granted by the server at
// login. Roles are not stored on the user entities in the mirror; the Users
// snapshot resets them and only the authenticated session carries its own.
type Role string

const (
	RoleEditor    Role = "Editor"
	RoleScheduler Role = "Scheduler"
)

// AttendanceMode says whether a user attends in person or via stream.
type AttendanceMode string

const (
	AttendanceOnSite AttendanceMode = "OnSite"
	AttendanceRemote AttendanceMode = "Remote"
)

type User struct {
	Id             int64          `json:"id" mapstructure:"id" gorm:"primaryKey"`
	Name           string         `json:"name" mapstructure:"name"`
	Team           string         `json:"team" mapstructure:"team"`
	AttendanceMode AttendanceMode `json:"attendance_mode" mapstructure:"attendance_mode"`
	Roles          []Role         `json:"roles" mapstructure:"roles" gorm:"-"`
}

func (u User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}
