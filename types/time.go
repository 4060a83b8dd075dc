package types

import "time"

// SystemTime is the wire representation of a point in time: integer seconds
// since the Unix epoch plus a sub-second remainder. A *SystemTime that is nil
// means "unscheduled".
type SystemTime struct {
	SecsSinceEpoch  int64 `json:"secs_since_epoch" mapstructure:"secs_since_epoch"`
	NanosSinceEpoch int64 `json:"nanos_since_epoch" mapstructure:"nanos_since_epoch"`
}

// Duration is the wire representation of a span of time, split the same way
// as SystemTime.
type Duration struct {
	Secs  int64 `json:"secs" mapstructure:"secs"`
	Nanos int64 `json:"nanos" mapstructure:"nanos"`
}

func NewSystemTime(t time.Time) SystemTime {
	return SystemTime{SecsSinceEpoch: t.Unix(), NanosSinceEpoch: int64(t.Nanosecond())}
}

func SystemTimeFromSecs(secs int64) *SystemTime {
	return &SystemTime{SecsSinceEpoch: secs}
}

func (st SystemTime) Time() time.Time {
	return time.Unix(st.SecsSinceEpoch, st.NanosSinceEpoch)
}

func DurationFromSecs(secs int64) Duration {
	return Duration{Secs: secs}
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d.Secs)*time.Second + time.Duration(d.Nanos)
}

func (d Duration) Minutes() int64 {
	return d.Secs / 60
}
