package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rohow/mopad-client/config"
	"github.com/rohow/mopad-client/types"
)

type GormPersist struct {
	db *gorm.DB
}

// kvRow holds the relogin token and small snapshot metadata (teams, saved
// time) as raw JSON payloads.
type kvRow struct {
	Key     string `gorm:"primaryKey"`
	Payload datatypes.JSON
}

type cachedTalk struct {
	Id              int64 `gorm:"primaryKey"`
	Creator         int64
	Title           string
	Description     string
	ScheduledAtSecs *int64
	DurationSecs    int64
	Location        *int64
	Noobs           types.JSONInt64Slice
	Nerds           types.JSONInt64Slice
}

func NewGormPersister(cfg *config.Config) (Persister, error) {
	db, err := setupGormDB(cfg)
	if err != nil {
		return nil, err
	}
	p := GormPersist{db: db}
	return &p, nil
}

func setupGormDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.PersistenceConfig.DSN == "" {
		return nil, fmt.Errorf("no DSN configured")
	}
	var dial gorm.Dialector
	switch cfg.PersistenceConfig.Type {
	case "postgres":
		dial = postgres.Open(cfg.PersistenceConfig.DSN)

	case "sqlite":
		dial = sqlite.Open(cfg.PersistenceConfig.DSN)

	default:
		return nil, fmt.Errorf("invalid gorm configuration")
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	db.Migrator().AutoMigrate(&kvRow{}, &types.User{}, &types.Location{}, &cachedTalk{})
	return db, nil
}

func (p *GormPersist) StoreToken(token string) error {
	payload, _ := json.Marshal(token)
	row := kvRow{Key: keyToken, Payload: payload}
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (p *GormPersist) GetToken() (string, error) {
	row := kvRow{}
	err := p.db.Where("key = ?", keyToken).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var token string
	if err := json.Unmarshal(row.Payload, &token); err != nil {
		return "", err
	}
	return token, nil
}

func (p *GormPersist) DeleteToken() error {
	return p.db.Where("key = ?", keyToken).Delete(&kvRow{}).Error
}

func (p *GormPersist) StoreSnapshot(snap Snapshot) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&types.User{}, &types.Location{}, &cachedTalk{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		for _, u := range snap.Users {
			user := u
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		}
		for _, l := range snap.Locations {
			loc := l
			if err := tx.Create(&loc).Error; err != nil {
				return err
			}
		}
		for _, t := range snap.Talks {
			if err := tx.Create(talkToRow(t)).Error; err != nil {
				return err
			}
		}
		meta := struct {
			Teams   []string  `json:"teams"`
			SavedAt time.Time `json:"saved_at"`
		}{Teams: snap.Teams, SavedAt: snap.SavedAt}
		payload, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		row := kvRow{Key: keySnapshot, Payload: payload}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
}

func (p *GormPersist) GetSnapshot() (*Snapshot, error) {
	row := kvRow{}
	err := p.db.Where("key = ?", keySnapshot).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	meta := struct {
		Teams   []string  `json:"teams"`
		SavedAt time.Time `json:"saved_at"`
	}{}
	if err := json.Unmarshal(row.Payload, &meta); err != nil {
		return nil, err
	}

	users := make([]types.User, 0)
	if err := p.db.Find(&users).Error; err != nil {
		return nil, err
	}
	locations := make([]types.Location, 0)
	if err := p.db.Find(&locations).Error; err != nil {
		return nil, err
	}
	talkRows := make([]cachedTalk, 0)
	if err := p.db.Find(&talkRows).Error; err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Users:     make(map[int64]types.User, len(users)),
		Talks:     make(map[int64]types.Talk, len(talkRows)),
		Locations: make(map[int64]types.Location, len(locations)),
		Teams:     meta.Teams,
		SavedAt:   meta.SavedAt,
	}
	for _, u := range users {
		snap.Users[u.Id] = u
	}
	for _, l := range locations {
		snap.Locations[l.Id] = l
	}
	for _, r := range talkRows {
		snap.Talks[r.Id] = rowToTalk(r)
	}
	return snap, nil
}

func (p *GormPersist) Close() error {
	db, err := p.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func talkToRow(t types.Talk) *cachedTalk {
	row := &cachedTalk{
		Id:           t.Id,
		Creator:      t.Creator,
		Title:        t.Title,
		Description:  t.Description,
		DurationSecs: t.Duration.Secs,
		Location:     t.Location,
		Noobs:        types.JSONInt64Slice(t.Noobs),
		Nerds:        types.JSONInt64Slice(t.Nerds),
	}
	if t.ScheduledAt != nil {
		secs := t.ScheduledAt.SecsSinceEpoch
		row.ScheduledAtSecs = &secs
	}
	return row
}

func rowToTalk(r cachedTalk) types.Talk {
	t := types.Talk{
		Id:          r.Id,
		Creator:     r.Creator,
		Title:       r.Title,
		Description: r.Description,
		Duration:    types.DurationFromSecs(r.DurationSecs),
		Location:    r.Location,
		Noobs:       []int64(r.Noobs),
		Nerds:       []int64(r.Nerds),
	}
	if r.ScheduledAtSecs != nil {
		t.ScheduledAt = types.SystemTimeFromSecs(*r.ScheduledAtSecs)
	}
	return t
}
