// Package classify buckets talks by where they sit relative to the current
// time. The derivation is pure: callers re-run it on every clock tick or
// store change instead of caching bucket membership, because a talk migrates
// between buckets from wall-clock advancement alone.
package classify

import (
	"sort"

	"github.com/rohow/mopad-client/types"
)

// Buckets holds the four disjoint partitions of the talk set.
//
// Scheduled buckets are ordered by scheduled time ascending. Equal scheduled
// times are broken by talk id ascending; the upstream protocol does not
// define a tie-break, so this one is chosen for determinism. Unscheduled
// talks are ordered by id.
type Buckets struct {
	Past        []types.Talk
	Current     []types.Talk
	Upcoming    []types.Talk
	Unscheduled []types.Talk
}

// Partition assigns every talk to exactly one bucket:
//
//	unscheduled: no scheduled time
//	past:        scheduled_at + duration <= now
//	current:     scheduled_at <= now < scheduled_at + duration
//	upcoming:    now < scheduled_at
func Partition(talks map[int64]types.Talk, nowSecs int64) Buckets {
	var b Buckets
	for _, t := range talks {
		switch {
		case !t.IsScheduled():
			b.Unscheduled = append(b.Unscheduled, t)
		case nowSecs >= t.EndSecs():
			b.Past = append(b.Past, t)
		case nowSecs >= t.ScheduledAt.SecsSinceEpoch:
			b.Current = append(b.Current, t)
		default:
			b.Upcoming = append(b.Upcoming, t)
		}
	}
	sortScheduled(b.Past)
	sortScheduled(b.Current)
	sortScheduled(b.Upcoming)
	sort.Slice(b.Unscheduled, func(i, j int) bool {
		return b.Unscheduled[i].Id < b.Unscheduled[j].Id
	})
	return b
}

func sortScheduled(talks []types.Talk) {
	sort.Slice(talks, func(i, j int) bool {
		a, b := talks[i], talks[j]
		if a.ScheduledAt.SecsSinceEpoch != b.ScheduledAt.SecsSinceEpoch {
			return a.ScheduledAt.SecsSinceEpoch < b.ScheduledAt.SecsSinceEpoch
		}
		return a.Id < b.Id
	})
}

// BucketName returns which bucket a single talk falls into at the given
// instant, without building the full partition.
func BucketName(t types.Talk, nowSecs int64) string {
	switch {
	case !t.IsScheduled():
		return "unscheduled"
	case nowSecs >= t.EndSecs():
		return "past"
	case nowSecs >= t.ScheduledAt.SecsSinceEpoch:
		return "current"
	default:
		return "upcoming"
	}
}
