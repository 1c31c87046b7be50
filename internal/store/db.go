// Package store persists rooms, players, and game sessions. The relay and
// the room state machine both write through it; gameplay never waits on it.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jpleseux/demolish-dash/pkg/types"
)

var ErrNotFound = errors.New("record not found")

type DB struct {
	db *gorm.DB
}

func Open(dsn string) (*DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Room{}, &Player{}, &GameSession{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) CreateRoom(ctx context.Context, r *Room) error {
	return d.db.WithContext(ctx).Create(r).Error
}

func (d *DB) RoomByID(ctx context.Context, id string) (*Room, error) {
	var r Room
	if err := d.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (d *DB) RoomByCode(ctx context.Context, code string) (*Room, error) {
	var r Room
	if err := d.db.WithContext(ctx).First(&r, "code = ?", code).Error; err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

// UpdateRoomStatus moves a room from one status to another. Reports false
// without error when the transition was already applied by someone else.
func (d *DB) UpdateRoomStatus(ctx context.Context, roomID, from, to string) (bool, error) {
	res := d.db.WithContext(ctx).Model(&Room{}).
		Where("id = ? AND status = ?", roomID, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (d *DB) CreatePlayer(ctx context.Context, p *Player) error {
	return d.db.WithContext(ctx).Create(p).Error
}

func (d *DB) PlayersByRoom(ctx context.Context, roomID string) ([]Player, error) {
	var players []Player
	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Find(&players).Error
	return players, err
}

func (d *DB) CreateSessions(ctx context.Context, sessions []GameSession) error {
	return d.db.WithContext(ctx).Create(&sessions).Error
}

func (d *DB) SessionByID(ctx context.Context, id string) (*GameSession, error) {
	var s GameSession
	if err := d.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (d *DB) SessionsByRoom(ctx context.Context, roomID string) ([]GameSession, error) {
	var sessions []GameSession
	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sequence asc").
		Find(&sessions).Error
	return sessions, err
}

// SessionByRoomStatus returns the lowest-sequence session of a room in the
// given status, or ErrNotFound.
func (d *DB) SessionByRoomStatus(ctx context.Context, roomID, status string) (*GameSession, error) {
	var s GameSession
	err := d.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, status).
		Order("sequence asc").
		First(&s).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (d *DB) CountSessions(ctx context.Context, roomID, status string) (int, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&GameSession{}).
		Where("room_id = ? AND status = ?", roomID, status).
		Count(&n).Error
	return int(n), err
}

// SetSessionStatus moves a session from one status to another. Reports
// false without error when the transition was already applied.
func (d *DB) SetSessionStatus(ctx context.Context, sessionID, from, to string) (bool, error) {
	res := d.db.WithContext(ctx).Model(&GameSession{}).
		Where("id = ? AND status = ?", sessionID, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

// CompleteSession writes the final ranking and applies score increments in
// one transaction, keyed off the single active->completed transition so a
// racing duplicate never double-counts points.
func (d *DB) CompleteSession(ctx context.Context, sessionID string, results []types.RankingRecord) (bool, error) {
	applied := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&GameSession{}).
			Where("id = ? AND status = ?", sessionID, SessionActive).
			Updates(GameSession{Status: SessionCompleted, Results: results})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		for _, r := range results {
			if err := tx.Model(&Player{}).
				Where("id = ?", r.PlayerID).
				Update("score", gorm.Expr("score + ?", r.Points)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return applied, err
}

// MergeGameState folds a partial state update into the session's stored
// blob, key by key, under a row lock.
func (d *DB) MergeGameState(ctx context.Context, sessionID string, patch types.GameStatePatch) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s GameSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&s, "id = ?", sessionID).Error; err != nil {
			return mapErr(err)
		}
		merged := s.State.Merge(patch)
		return tx.Model(&GameSession{}).
			Where("id = ?", sessionID).
			Update("state", merged).Error
	})
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
