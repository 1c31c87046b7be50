package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/Jpleseux/demolish-dash/pkg/types"
)

// Mem is an in-memory store with the same semantics as DB. It backs tests
// and lets the server run without Postgres in development.
type Mem struct {
	mu       sync.Mutex
	rooms    map[string]Room
	players  map[string]Player
	sessions map[string]GameSession
}

func NewMem() *Mem {
	return &Mem{
		rooms:    make(map[string]Room),
		players:  make(map[string]Player),
		sessions: make(map[string]GameSession),
	}
}

func (m *Mem) CreateRoom(_ context.Context, r *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = *r
	return nil
}

func (m *Mem) RoomByID(_ context.Context, id string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Mem) RoomByCode(_ context.Context, code string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.Code == code {
			out := r
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mem) UpdateRoomStatus(_ context.Context, roomID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	m.rooms[roomID] = r
	return true, nil
}

func (m *Mem) CreatePlayer(_ context.Context, p *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = *p
	return nil
}

func (m *Mem) PlayersByRoom(_ context.Context, roomID string) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Player
	for _, p := range m.players {
		if p.RoomID == roomID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Mem) CreateSessions(_ context.Context, sessions []GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return nil
}

func (m *Mem) SessionByID(_ context.Context, id string) (*GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.Results = slices.Clone(s.Results)
	return &s, nil
}

func (m *Mem) SessionsByRoom(_ context.Context, roomID string) ([]GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []GameSession
	for _, s := range m.sessions {
		if s.RoomID == roomID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *Mem) SessionByRoomStatus(_ context.Context, roomID, status string) (*GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *GameSession
	for _, s := range m.sessions {
		if s.RoomID != roomID || s.Status != status {
			continue
		}
		s := s
		if best == nil || s.Sequence < best.Sequence {
			best = &s
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (m *Mem) CountSessions(_ context.Context, roomID, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.RoomID == roomID && s.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *Mem) SetSessionStatus(_ context.Context, sessionID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	m.sessions[sessionID] = s
	return true, nil
}

func (m *Mem) CompleteSession(_ context.Context, sessionID string, results []types.RankingRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Status != SessionActive {
		return false, nil
	}
	s.Status = SessionCompleted
	s.Results = slices.Clone(results)
	m.sessions[sessionID] = s
	for _, r := range results {
		if p, ok := m.players[r.PlayerID]; ok {
			p.Score += r.Points
			m.players[p.ID] = p
		}
	}
	return true, nil
}

func (m *Mem) MergeGameState(_ context.Context, sessionID string, patch types.GameStatePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.State = s.State.Merge(patch)
	m.sessions[sessionID] = s
	return nil
}
