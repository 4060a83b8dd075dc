package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rohow/mopad-client/config"
	"github.com/rohow/mopad-client/types"
)

func sampleSnapshot() Snapshot {
	loc := int64(2)
	return Snapshot{
		Users: map[int64]types.User{
			1: {Id: 1, Name: "ada", Team: "core", AttendanceMode: types.AttendanceOnSite},
		},
		Talks: map[int64]types.Talk{
			11: {
				Id:          11,
				Creator:     1,
				Title:       "Intro",
				ScheduledAt: types.SystemTimeFromSecs(5000),
				Duration:    types.DurationFromSecs(2700),
				Location:    &loc,
				Noobs:       []int64{1},
				Nerds:       []int64{},
			},
			12: {Id: 12, Creator: 1, Title: "Unscheduled", Duration: types.DurationFromSecs(1800)},
		},
		Locations: map[int64]types.Location{2: {Id: 2, Name: "Main stage", StreamURL: "https://stream/main"}},
		Teams:     []string{"core", "infra"},
		SavedAt:   time.Unix(123456, 0).UTC(),
	}
}

func checkRoundTrip(t *testing.T, p Persister) {
	t.Helper()

	token, err := p.GetToken()
	assert.NoError(t, err)
	assert.Equal(t, "", token)

	assert.NoError(t, p.StoreToken("abc"))
	token, err = p.GetToken()
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)

	assert.NoError(t, p.DeleteToken())
	assert.NoError(t, p.DeleteToken()) // deleting twice is fine
	token, err = p.GetToken()
	assert.NoError(t, err)
	assert.Equal(t, "", token)

	snap, err := p.GetSnapshot()
	assert.NoError(t, err)
	assert.Nil(t, snap)

	want := sampleSnapshot()
	assert.NoError(t, p.StoreSnapshot(want))
	got, err := p.GetSnapshot()
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, want.Users, got.Users)
	assert.Equal(t, want.Talks, got.Talks)
	assert.Equal(t, want.Locations, got.Locations)
	assert.Equal(t, want.Teams, got.Teams)

	talk := got.Talks[11]
	assert.Equal(t, int64(5000), talk.ScheduledAt.SecsSinceEpoch)
	assert.Equal(t, int64(2), *talk.Location)
	assert.Nil(t, got.Talks[12].ScheduledAt)
}

func TestBuntPersisterRoundTrip(t *testing.T) {
	cfg := &config.Config{PersistenceConfig: config.PersistenceConfig{
		Type: "buntdb",
		DSN:  filepath.Join(t.TempDir(), "state.db"),
	}}
	p, err := NewBuntPersister(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	checkRoundTrip(t, p)
}

func TestGormSqlitePersisterRoundTrip(t *testing.T) {
	cfg := &config.Config{PersistenceConfig: config.PersistenceConfig{
		Type: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "state.db"),
	}}
	p, err := NewGormPersister(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	checkRoundTrip(t, p)

	// a second snapshot fully replaces the first
	second := sampleSnapshot()
	delete(second.Talks, 12)
	second.Teams = []string{"core"}
	assert.NoError(t, p.StoreSnapshot(second))
	got, err := p.GetSnapshot()
	assert.NoError(t, err)
	assert.Len(t, got.Talks, 1)
	assert.Equal(t, []string{"core"}, got.Teams)
}

func TestNewPersisterDispatch(t *testing.T) {
	p, err := NewPersister(&config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewPersister(&config.Config{PersistenceConfig: config.PersistenceConfig{Type: "voodoo"}})
	assert.Error(t, err)

	dsn := filepath.Join(t.TempDir(), "state.db")
	cfg := &config.Config{PersistenceConfig: config.PersistenceConfig{Type: "buntdb", DSN: dsn}}
	p, err = NewPersister(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, p)

	// the flock keeps a second instance off the same state file
	_, err = NewPersister(cfg)
	assert.Error(t, err)

	assert.NoError(t, p.Close())
	p, err = NewPersister(cfg)
	assert.NoError(t, err)
	assert.NoError(t, p.Close())
}
