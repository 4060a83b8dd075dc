package persistence

import (
	"encoding/json"

	"github.com/tidwall/buntdb"

	"github.com/rohow/mopad-client/config"
)

const (
	keyToken    = "token"
	keySnapshot = "snapshot"
)

type BuntDBPersist struct {
	db *buntdb.DB
}

func NewBuntPersister(cfg *config.Config) (Persister, error) {
	fileName := cfg.PersistenceConfig.DSN
	if fileName == "" {
		fileName = ":memory:"
	}
	db, err := buntdb.Open(fileName)
	if err != nil {
		return nil, err
	}
	return &BuntDBPersist{db: db}, nil
}

func (p *BuntDBPersist) StoreToken(token string) error {
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(keyToken, token, nil)
		return err
	})
}

func (p *BuntDBPersist) GetToken() (string, error) {
	var token string
	err := p.db.View(func(tx *buntdb.Tx) error {
		t, err := tx.Get(keyToken)
		if err != nil {
			return err
		}
		token = t
		return nil
	})
	if err == buntdb.ErrNotFound {
		return "", nil
	}
	return token, err
}

func (p *BuntDBPersist) DeleteToken() error {
	err := p.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(keyToken)
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil
	}
	return err
}

func (p *BuntDBPersist) StoreSnapshot(snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(keySnapshot, string(raw), nil)
		return err
	})
}

func (p *BuntDBPersist) GetSnapshot() (*Snapshot, error) {
	var raw string
	err := p.db.View(func(tx *buntdb.Tx) error {
		s, err := tx.Get(keySnapshot)
		if err != nil {
			return err
		}
		raw = s
		return nil
	})
	if err == buntdb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (p *BuntDBPersist) Close() error {
	return p.db.Close()
}
