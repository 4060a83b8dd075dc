package resources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rohow/mopad-client/mopadtest"
	"github.com/rohow/mopad-client/store"
	"github.com/rohow/mopad-client/types"
)

func TestTeamsAndLocations(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	srv.Teams = []string{"core", "infra"}
	srv.Locations = map[int64]types.Location{
		2: {Name: "Main stage", StreamURL: "https://stream/main"},
	}

	c := NewClient(srv.URL())
	ctx := context.Background()

	teams, err := c.Teams(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"core", "infra"}, teams)

	locations, err := c.Locations(ctx)
	assert.NoError(t, err)
	assert.Len(t, locations, 1)
	// ids are backfilled from the map keys
	assert.Equal(t, int64(2), locations[2].Id)
	assert.Equal(t, "Main stage", locations[2].Name)
}

func TestCalendar(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	srv.Calendar = []byte("BEGIN:VCALENDAR\nEND:VCALENDAR\n")

	c := NewClient(srv.URL())
	ics, err := c.Calendar(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, srv.Calendar, ics)

	userID := int64(7)
	ics, err = c.Calendar(context.Background(), &userID)
	assert.NoError(t, err)
	assert.Equal(t, srv.Calendar, ics)
}

func TestClientErrorsOnBadBase(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := c.Teams(ctx)
	assert.Error(t, err)
}

func TestRefresherSeedsStore(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	srv.Teams = []string{"core"}
	srv.Locations = map[int64]types.Location{2: {Name: "Main stage"}}

	st := store.NewStore()
	r, err := StartRefresher(NewClient(srv.URL()), st, "")
	assert.NoError(t, err)
	defer r.Stop()

	assert.Equal(t, []string{"core"}, st.Teams())
	locations := st.Locations()
	assert.Len(t, locations, 1)
	assert.Equal(t, "Main stage", locations[2].Name)
}
