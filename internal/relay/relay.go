// Package relay is the real-time half of the server: a broadcast channel
// per game session. It carries player state, partial game-state updates,
// and disconnect notifications between the clients of one session, and
// mirrors game-state merges into storage off the critical path. It decides
// nothing about the game; clients converge on outcomes themselves.
package relay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jpleseux/demolish-dash/pkg/types"
)

type Relay struct {
	mu     sync.Mutex
	groups map[string]*Group

	registry *Registry
	merger   GameStateMerger
	log      *zap.Logger
	idle     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts a relay. idleTimeout > 0 enables reaping of session groups
// with no activity for that long.
func New(parent context.Context, merger GameStateMerger, log *zap.Logger, idleTimeout time.Duration) *Relay {
	ctx, cancel := context.WithCancel(parent)
	r := &Relay{
		groups:   make(map[string]*Group),
		registry: NewRegistry(),
		merger:   merger,
		log:      log,
		idle:     idleTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}
	if idleTimeout > 0 {
		go r.reaperLoop()
	}
	return r
}

func (r *Relay) Registry() *Registry { return r.registry }

func (r *Relay) group(sessionID string) *Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[sessionID]
	if !ok {
		g = newGroup(r.ctx, sessionID, r.merger, r.log)
		r.groups[sessionID] = g
	}
	return g
}

// Join associates a connection with a session's broadcast set. Calling it
// twice for the same pair is harmless.
func (r *Relay) Join(sessionID, playerID, connID string, outbox chan types.ServerMessage) {
	r.registry.Bind(connID, Binding{PlayerID: playerID, SessionID: sessionID})
	r.group(sessionID).Inbox() <- Join{ConnID: connID, PlayerID: playerID, Outbox: outbox}
	r.log.Info("relay join",
		zap.String("session", sessionID),
		zap.String("player", playerID))
}

// Leave drops the connection and tells the rest of the session's group who
// disconnected. What that means for the game is the clients' call, not the
// relay's. Unknown connections are ignored.
func (r *Relay) Leave(connID string) {
	b, ok := r.registry.Unbind(connID)
	if !ok {
		return
	}
	r.group(b.SessionID).Inbox() <- Leave{ConnID: connID, PlayerID: b.PlayerID}
	r.log.Info("relay leave",
		zap.String("session", b.SessionID),
		zap.String("player", b.PlayerID))
}

// PublishPlayerState broadcasts a position/ability snapshot to the rest of
// the sender's group. Fire-and-forget; lost updates heal on the next
// periodic publish.
func (r *Relay) PublishPlayerState(connID string, pos types.Position, abilityFlag string) {
	b, ok := r.registry.Lookup(connID)
	if !ok {
		return
	}
	r.group(b.SessionID).Inbox() <- PlayerState{
		ConnID:      connID,
		PlayerID:    b.PlayerID,
		Position:    pos,
		AbilityFlag: abilityFlag,
	}
}

// PublishGameState broadcasts a partial game-state update to the rest of
// the sender's group. Receivers merge it key-by-key, never replace.
func (r *Relay) PublishGameState(connID string, patch types.GameStatePatch) {
	b, ok := r.registry.Lookup(connID)
	if !ok || patch.IsZero() {
		return
	}
	r.group(b.SessionID).Inbox() <- GameState{ConnID: connID, Patch: patch}
}

// View reports a session group's internal state; test-only.
func (r *Relay) View(sessionID string) GroupView {
	reply := make(chan GroupView, 1)
	r.group(sessionID).Inbox() <- GetState{Reply: reply}
	return <-reply
}

func (r *Relay) Shutdown() {
	r.mu.Lock()
	for id, g := range r.groups {
		g.Inbox() <- Shutdown{}
		delete(r.groups, id)
	}
	r.mu.Unlock()
	r.cancel()
}

// reaperLoop removes groups whose sessions have gone quiet.
func (r *Relay) reaperLoop() {
	ticker := time.NewTicker(r.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.idle)
			r.mu.Lock()
			for id, g := range r.groups {
				if g.idleSince().Before(cutoff) {
					g.Inbox() <- Shutdown{}
					delete(r.groups, id)
					r.log.Info("reaped idle relay group", zap.String("session", id))
				}
			}
			r.mu.Unlock()
		}
	}
}
