package resources

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rohow/mopad-client/globals"
	"github.com/rohow/mopad-client/store"
)

// Refresher periodically re-fetches teams and locations into the store.
// Both change rarely (an admin edits them between sessions), so a cron spec
// from configuration is enough; there is no push channel for them.
type Refresher struct {
	runner *cron.Cron
}

// StartRefresher fetches once immediately and then on every cron firing.
// An empty spec means fetch-once only.
func StartRefresher(c *Client, st *store.Store, spec string) (*Refresher, error) {
	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if teams, err := c.Teams(ctx); err != nil {
			globals.AppLogger.Warn("could not fetch teams", "error", err)
		} else {
			st.SetTeams(teams)
		}
		if locations, err := c.Locations(ctx); err != nil {
			globals.AppLogger.Warn("could not fetch locations", "error", err)
		} else {
			st.SetLocations(locations)
		}
	}
	refresh()

	if spec == "" {
		return &Refresher{}, nil
	}
	runner := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := runner.AddFunc(spec, refresh); err != nil {
		return nil, err
	}
	runner.Start()
	return &Refresher{runner: runner}, nil
}

func (r *Refresher) Stop() {
	if r.runner != nil {
		r.runner.Stop()
	}
}
