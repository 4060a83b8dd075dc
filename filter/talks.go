// Package filter evaluates user-supplied talk filter expressions, used by
// the CLIs and the personal calendar fetch. Expressions see one talk at a
// time through Env.
package filter

import (
	"fmt"
	"sync"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	lru "github.com/hashicorp/golang-lru"

	"github.com/rohow/mopad-client/types"
)

const programCacheSize = 128

var (
	programCache     *lru.Cache
	programCacheOnce sync.Once
)

// Env is the expression environment for one talk. Times are epoch seconds;
// Start and End are zero for unscheduled talks.
type Env struct {
	Id          int64
	Title       string
	Description string
	Creator     int64
	Scheduled   bool
	Start       int64
	End         int64
	Minutes     int64
	Location    int64
	Noob        bool
	Nerd        bool
	Mine        bool
	Now         int64
}

// BuildEnv derives the environment for a talk as seen by userID (0 when
// nobody is logged in).
func BuildEnv(t types.Talk, userID int64, nowSecs int64) Env {
	env := Env{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Creator:     t.Creator,
		Scheduled:   t.IsScheduled(),
		Minutes:     t.Duration.Minutes(),
		Noob:        t.HasNoob(userID),
		Nerd:        t.HasNerd(userID),
		Mine:        userID != 0 && t.Creator == userID,
		Now:         nowSecs,
	}
	if t.ScheduledAt != nil {
		env.Start = t.ScheduledAt.SecsSinceEpoch
		env.End = t.EndSecs()
	}
	if t.Location != nil {
		env.Location = *t.Location
	}
	return env
}

// Compile returns the compiled program for expression, from cache when the
// same expression was seen before.
func Compile(expression string) (*vm.Program, error) {
	programCacheOnce.Do(func() {
		programCache, _ = lru.New(programCacheSize)
	})
	if cached, ok := programCache.Get(expression); ok {
		return cached.(*vm.Program), nil
	}
	prog, err := expr.Compile(expression, expr.Env(Env{}))
	if err != nil {
		return nil, err
	}
	programCache.Add(expression, prog)
	return prog, nil
}

// Match evaluates expression against one talk. The expression must yield a
// boolean.
func Match(expression string, t types.Talk, userID int64, nowSecs int64) (bool, error) {
	prog, err := Compile(expression)
	if err != nil {
		return false, err
	}
	res, err := expr.Run(prog, BuildEnv(t, userID, nowSecs))
	if err != nil {
		return false, err
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression must evaluate to a boolean, got %T", res)
	}
	return b, nil
}

// Select returns the talks matching expression. An empty expression matches
// everything.
func Select(talks []types.Talk, expression string, userID int64, nowSecs int64) ([]types.Talk, error) {
	if expression == "" {
		return talks, nil
	}
	out := make([]types.Talk, 0, len(talks))
	for _, t := range talks {
		ok, err := Match(expression, t, userID, nowSecs)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}
