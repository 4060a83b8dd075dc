// Package persistence stores the client's durable local state: the relogin
// token, which must survive disconnects and restarts until the server
// rejects it, and a last-known snapshot of the mirror for fast startup.
package persistence

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/rohow/mopad-client/config"
	"github.com/rohow/mopad-client/types"
)

// Snapshot is the cached mirror state written wholesale on change.
type Snapshot struct {
	Users     map[int64]types.User     `json:"users"`
	Talks     map[int64]types.Talk     `json:"talks"`
	Locations map[int64]types.Location `json:"locations"`
	Teams     []string                 `json:"teams"`
	SavedAt   time.Time                `json:"saved_at"`
}

type Persister interface {
	// StoreToken persists the relogin token; GetToken returns "" when no
	// token is stored; DeleteToken forgets it (server rejected it or the
	// user logged in explicitly).
	StoreToken(token string) error
	GetToken() (string, error)
	DeleteToken() error

	StoreSnapshot(snap Snapshot) error
	// GetSnapshot returns nil when no snapshot has been cached yet.
	GetSnapshot() (*Snapshot, error)

	Close() error
}

// NewPersister builds the configured backend, or nil when persistence is not
// configured (the client then runs stateless). For file-backed stores a
// flock next to the state file keeps a second client instance from sharing
// it.
func NewPersister(cfg *config.Config) (Persister, error) {
	switch cfg.PersistenceConfig.Type {
	case "":
		return nil, nil
	case "buntdb":
		lock, err := lockStateFile(cfg.PersistenceConfig.DSN)
		if err != nil {
			return nil, err
		}
		p, err := NewBuntPersister(cfg)
		if err != nil {
			unlock(lock)
			return nil, err
		}
		return &lockedPersister{Persister: p, lock: lock}, nil
	case "sqlite":
		lock, err := lockStateFile(cfg.PersistenceConfig.DSN)
		if err != nil {
			return nil, err
		}
		p, err := NewGormPersister(cfg)
		if err != nil {
			unlock(lock)
			return nil, err
		}
		return &lockedPersister{Persister: p, lock: lock}, nil
	case "postgres":
		return NewGormPersister(cfg)
	default:
		return nil, fmt.Errorf("unknown persistence type %q", cfg.PersistenceConfig.Type)
	}
}

func lockStateFile(dsn string) (*flock.Flock, error) {
	if dsn == "" || dsn == ":memory:" {
		return nil, nil
	}
	lock := flock.New(dsn + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("state file %s is in use by another client", dsn)
	}
	return lock, nil
}

func unlock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}

type lockedPersister struct {
	Persister
	lock *flock.Flock
}

func (p *lockedPersister) Close() error {
	err := p.Persister.Close()
	unlock(p.lock)
	return err
}
