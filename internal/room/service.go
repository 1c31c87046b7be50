// Package room governs the lobby lifecycle: rooms move waiting -> playing
// -> finished, game sessions move pending -> active -> completed, and every
// transition is idempotent so racing observers (a status poll and a relay
// event, say) can both try to advance the same slot without harm.
package room

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jpleseux/demolish-dash/internal/seed"
	"github.com/Jpleseux/demolish-dash/internal/store"
	"github.com/Jpleseux/demolish-dash/pkg/types"
)

// MaxRosterSize caps a room at the palette size.
const MaxRosterSize = 10

// Palette is the fixed set of player colors. No two players in a room
// share one.
var Palette = [MaxRosterSize]string{
	"red", "orange", "yellow", "green", "teal",
	"blue", "indigo", "purple", "pink", "brown",
}

// Store is what the state machine needs from persistence.
type Store interface {
	CreateRoom(ctx context.Context, r *store.Room) error
	RoomByID(ctx context.Context, id string) (*store.Room, error)
	RoomByCode(ctx context.Context, code string) (*store.Room, error)
	UpdateRoomStatus(ctx context.Context, roomID, from, to string) (bool, error)
	CreatePlayer(ctx context.Context, p *store.Player) error
	PlayersByRoom(ctx context.Context, roomID string) ([]store.Player, error)
	CreateSessions(ctx context.Context, sessions []store.GameSession) error
	SessionByID(ctx context.Context, id string) (*store.GameSession, error)
	SessionsByRoom(ctx context.Context, roomID string) ([]store.GameSession, error)
	SessionByRoomStatus(ctx context.Context, roomID, status string) (*store.GameSession, error)
	CountSessions(ctx context.Context, roomID, status string) (int, error)
	SetSessionStatus(ctx context.Context, sessionID, from, to string) (bool, error)
	CompleteSession(ctx context.Context, sessionID string, results []types.RankingRecord) (bool, error)
}

type Service struct {
	store     Store
	log       *zap.Logger
	gameTypes []string
}

func NewService(st Store, log *zap.Logger, gameTypes []string) *Service {
	return &Service{store: st, log: log, gameTypes: gameTypes}
}

// Snapshot is what the status-poll endpoint returns.
type Snapshot struct {
	Room     store.Room          `json:"room"`
	Players  []store.Player      `json:"players"`
	Sessions []store.GameSession `json:"sessions"`
}

// NormalizeCode makes join-by-code forgiving: case-insensitive,
// whitespace-trimmed.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func generateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func (s *Service) CreateRoom(ctx context.Context, hostName string, minPlayers, maxGames int) (*store.Room, *store.Player, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" || minPlayers < 2 || minPlayers > MaxRosterSize || maxGames < 1 || maxGames > 20 {
		return nil, nil, ErrInvalidConfig
	}

	var code string
	for {
		c, err := generateCode()
		if err != nil {
			return nil, nil, fmt.Errorf("generate room code: %w", err)
		}
		if _, err := s.store.RoomByCode(ctx, c); errors.Is(err, store.ErrNotFound) {
			code = c
			break
		} else if err != nil {
			return nil, nil, err
		}
		s.log.Debug("room code collision, regenerating", zap.String("code", c))
	}

	room := &store.Room{
		ID:         uuid.NewString(),
		Code:       code,
		HostName:   hostName,
		MinPlayers: minPlayers,
		MaxGames:   maxGames,
		Status:     store.RoomWaiting,
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("create room: %w", err)
	}

	host := &store.Player{
		ID:     uuid.NewString(),
		RoomID: room.ID,
		Name:   hostName,
		Color:  Palette[0],
	}
	if err := s.store.CreatePlayer(ctx, host); err != nil {
		return nil, nil, fmt.Errorf("create host player: %w", err)
	}

	s.log.Info("room created",
		zap.String("room", room.Code),
		zap.String("host", hostName),
		zap.Int("min_players", minPlayers),
		zap.Int("max_games", maxGames))
	return room, host, nil
}

// JoinRoom adds a player to a waiting room. Rejections leave no partial
// state behind.
func (s *Service) JoinRoom(ctx context.Context, code, name string) (*store.Room, *store.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrInvalidConfig
	}

	room, err := s.store.RoomByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, err
	}
	if room.Status != store.RoomWaiting {
		return nil, nil, ErrRoomNotJoinable
	}

	players, err := s.store.PlayersByRoom(ctx, room.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(players) >= MaxRosterSize {
		return nil, nil, ErrRoomFull
	}
	color := nextColor(players)
	if color == "" {
		return nil, nil, ErrNoColorAvailable
	}

	p := &store.Player{
		ID:     uuid.NewString(),
		RoomID: room.ID,
		Name:   name,
		Color:  color,
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("create player: %w", err)
	}

	s.log.Info("player joined", zap.String("room", room.Code), zap.String("player", name), zap.String("color", color))
	return room, p, nil
}

func nextColor(players []store.Player) string {
	used := make(map[string]bool, len(players))
	for _, p := range players {
		used[p.Color] = true
	}
	for _, c := range Palette {
		if !used[c] {
			return c
		}
	}
	return ""
}

// StartRoom moves a room to playing and lays out its game sessions,
// sequence 1..max_games. Only the host may start; calling it again once
// playing is a no-op success.
func (s *Service) StartRoom(ctx context.Context, code, hostName string) (*store.Room, error) {
	room, err := s.store.RoomByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.HostName != strings.TrimSpace(hostName) {
		return nil, ErrNotHost
	}
	switch room.Status {
	case store.RoomPlaying:
		return room, nil
	case store.RoomFinished:
		return nil, ErrRoomFinished
	}

	players, err := s.store.PlayersByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if len(players) < room.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	applied, err := s.store.UpdateRoomStatus(ctx, room.ID, store.RoomWaiting, store.RoomPlaying)
	if err != nil {
		return nil, err
	}
	if applied {
		if err := s.createSessions(ctx, room); err != nil {
			return nil, err
		}
	}
	room.Status = store.RoomPlaying

	s.log.Info("room started", zap.String("room", room.Code), zap.Int("players", len(players)))
	return room, nil
}

// createSessions lays out the game sequence. The starting point in the
// game-type rotation is derived from the room id so every client computes
// the same sequence without negotiation.
func (s *Service) createSessions(ctx context.Context, room *store.Room) error {
	if len(s.gameTypes) == 0 {
		return ErrInvalidConfig
	}
	offset, err := seed.Index(room.ID, "games", len(s.gameTypes))
	if err != nil {
		return err
	}

	sessions := make([]store.GameSession, room.MaxGames)
	for i := range sessions {
		sessions[i] = store.GameSession{
			ID:       uuid.NewString(),
			RoomID:   room.ID,
			Sequence: i + 1,
			GameType: s.gameTypes[(offset+i)%len(s.gameTypes)],
			Status:   store.SessionPending,
		}
	}
	if err := s.store.CreateSessions(ctx, sessions); err != nil {
		return fmt.Errorf("create sessions: %w", err)
	}
	return nil
}

// NextGame activates the lowest-numbered pending session. It is safe to
// call redundantly: if a session is already active it is returned as-is.
func (s *Service) NextGame(ctx context.Context, code string) (*store.GameSession, error) {
	room, err := s.store.RoomByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Status == store.RoomWaiting {
		return nil, ErrRoomNotPlaying
	}

	for attempt := 0; attempt < 2; attempt++ {
		if active, err := s.store.SessionByRoomStatus(ctx, room.ID, store.SessionActive); err == nil {
			return active, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		pending, err := s.store.SessionByRoomStatus(ctx, room.ID, store.SessionPending)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoPendingSessions
		} else if err != nil {
			return nil, err
		}

		applied, err := s.store.SetSessionStatus(ctx, pending.ID, store.SessionPending, store.SessionActive)
		if err != nil {
			return nil, err
		}
		if applied {
			pending.Status = store.SessionActive
			s.log.Info("game activated",
				zap.String("room", room.Code),
				zap.Int("sequence", pending.Sequence),
				zap.String("game", pending.GameType))
			return pending, nil
		}
		// a racing observer advanced the slot first; re-read
	}
	return nil, ErrNoPendingSessions
}

// CompleteGame records the final ranking for an active session and applies
// score increments, exactly once. A duplicate call (racing completion
// publishes from two clients) returns the already-completed session.
// Once the last session completes, the room is finished.
func (s *Service) CompleteGame(ctx context.Context, sessionID string, results []types.RankingRecord) (*store.GameSession, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.Status == store.SessionCompleted {
		return sess, nil
	}
	if len(results) == 0 {
		return nil, ErrInvalidRanking
	}

	applied, err := s.store.CompleteSession(ctx, sessionID, results)
	if err != nil {
		return nil, err
	}
	if !applied {
		// the CAS lost: fine if a racing client completed the session
		// first, a rejection if it was never activated
		cur, err := s.store.SessionByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if cur.Status != store.SessionCompleted {
			return nil, ErrSessionNotActive
		}
		return cur, nil
	}
	s.log.Info("game completed",
		zap.String("session", sessionID),
		zap.Int("sequence", sess.Sequence),
		zap.Int("players", len(results)))

	room, err := s.store.RoomByID(ctx, sess.RoomID)
	if err != nil {
		return nil, err
	}
	completed, err := s.store.CountSessions(ctx, room.ID, store.SessionCompleted)
	if err != nil {
		return nil, err
	}
	if completed >= room.MaxGames {
		if applied, err := s.store.UpdateRoomStatus(ctx, room.ID, store.RoomPlaying, store.RoomFinished); err != nil {
			return nil, err
		} else if applied {
			s.log.Info("room finished", zap.String("room", room.Code))
		}
	}

	return s.store.SessionByID(ctx, sessionID)
}

// Status is the poll endpoint's read: room, roster, and sessions ordered
// by sequence.
func (s *Service) Status(ctx context.Context, code string) (*Snapshot, error) {
	room, err := s.store.RoomByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	players, err := s.store.PlayersByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.SessionsByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Room: *room, Players: players, Sessions: sessions}, nil
}

// Roster converts a room's players into the engine's roster form.
func (s *Service) Roster(ctx context.Context, roomID string) ([]store.Player, error) {
	return s.store.PlayersByRoom(ctx, roomID)
}
