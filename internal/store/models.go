package store

import (
	"time"

	"github.com/Jpleseux/demolish-dash/pkg/types"
)

// Room statuses. A room only ever moves forward.
const (
	RoomWaiting  = "waiting"
	RoomPlaying  = "playing"
	RoomFinished = "finished"
)

// GameSession statuses.
const (
	SessionPending   = "pending"
	SessionActive    = "active"
	SessionCompleted = "completed"
)

type Room struct {
	ID         string `gorm:"primaryKey"`
	Code       string `gorm:"uniqueIndex;size:6"`
	HostName   string
	MinPlayers int
	MaxGames   int
	Status     string `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Player struct {
	ID        string `gorm:"primaryKey"`
	RoomID    string `gorm:"index"`
	Name      string
	Color     string
	Score     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type GameSession struct {
	ID        string `gorm:"primaryKey"`
	RoomID    string `gorm:"uniqueIndex:idx_room_seq"`
	Sequence  int    `gorm:"uniqueIndex:idx_room_seq"`
	GameType  string
	Status    string                `gorm:"index"`
	Results   []types.RankingRecord `gorm:"serializer:json"`
	State     types.GameStatePatch  `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
