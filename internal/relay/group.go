package relay

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Jpleseux/demolish-dash/pkg/types"
)

// GameStateMerger is the slice of storage the relay needs: folding partial
// game-state updates into the session record. Writes happen off the
// broadcast path; storage latency never stalls gameplay.
type GameStateMerger interface {
	MergeGameState(ctx context.Context, sessionID string, patch types.GameStatePatch) error
}

const persistTimeout = 5 * time.Second

type Msg interface{ isGroupMsg() }

type Join struct {
	ConnID   string
	PlayerID string
	Outbox   chan types.ServerMessage
}

type Leave struct {
	ConnID   string
	PlayerID string
}

type PlayerState struct {
	ConnID      string
	PlayerID    string
	Position    types.Position
	AbilityFlag string
}

type GameState struct {
	ConnID string
	Patch  types.GameStatePatch
}

type Shutdown struct{}

// GetState reflects internal state without data races; test-only.
type GetState struct{ Reply chan GroupView }

func (Join) isGroupMsg()        {}
func (Leave) isGroupMsg()       {}
func (PlayerState) isGroupMsg() {}
func (GameState) isGroupMsg()   {}
func (Shutdown) isGroupMsg()    {}
func (GetState) isGroupMsg()    {}

type GroupView struct {
	SessionID  string
	NumMembers int
	State      types.GameStatePatch
}

type member struct {
	playerID string
	outbox   chan types.ServerMessage
}

// Group is one session's broadcast set. A single goroutine owns all of its
// state; everything reaches it through the inbox.
type Group struct {
	sessionID  string
	inbox      chan Msg
	members    map[string]member // connID -> member
	state      types.GameStatePatch
	merger     GameStateMerger
	log        *zap.Logger
	lastActive atomic.Int64 // unix nanos, read by the reaper

	ctx    context.Context
	cancel context.CancelFunc
}

func newGroup(parent context.Context, sessionID string, merger GameStateMerger, log *zap.Logger) *Group {
	ctx, cancel := context.WithCancel(parent)
	g := &Group{
		sessionID: sessionID,
		inbox:     make(chan Msg, 64),
		members:   make(map[string]member),
		merger:    merger,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	g.touch()
	go g.loop()
	return g
}

func (g *Group) Inbox() chan<- Msg { return g.inbox }

func (g *Group) touch() { g.lastActive.Store(time.Now().UnixNano()) }

func (g *Group) idleSince() time.Time { return time.Unix(0, g.lastActive.Load()) }

func (g *Group) loop() {
	for {
		select {
		case <-g.ctx.Done():
			g.shutdown()
			return

		case m := <-g.inbox:
			switch msg := m.(type) {
			case Join:
				g.touch()
				// idempotent: a re-join for the same connection just
				// replaces the outbox
				if old, ok := g.members[msg.ConnID]; ok && old.outbox != msg.Outbox {
					close(old.outbox)
				}
				g.members[msg.ConnID] = member{playerID: msg.PlayerID, outbox: msg.Outbox}

			case Leave:
				g.touch()
				if m, ok := g.members[msg.ConnID]; ok {
					close(m.outbox)
					delete(g.members, msg.ConnID)
				}
				g.broadcast(msg.ConnID, types.ServerMessage{
					Type:      types.MsgPlayerDisconnected,
					SessionID: g.sessionID,
					PlayerID:  msg.PlayerID,
				})

			case PlayerState:
				g.touch()
				pos := msg.Position
				g.broadcast(msg.ConnID, types.ServerMessage{
					Type:        types.MsgPlayerStateChanged,
					PlayerID:    msg.PlayerID,
					Position:    &pos,
					AbilityFlag: msg.AbilityFlag,
				})
				// position is ephemeral; the write may lag or drop
				g.persist(types.GameStatePatch{
					Positions: map[string]types.Position{msg.PlayerID: msg.Position},
				})

			case GameState:
				g.touch()
				g.state = g.state.Merge(msg.Patch)
				patch := msg.Patch
				g.broadcast(msg.ConnID, types.ServerMessage{
					Type:  types.MsgGameStateChanged,
					State: &patch,
				})
				g.persist(msg.Patch)

			case GetState:
				msg.Reply <- GroupView{
					SessionID:  g.sessionID,
					NumMembers: len(g.members),
					State:      g.state,
				}

			case Shutdown:
				g.shutdown()
				return
			}
		}
	}
}

// broadcast delivers to every member except the sender's connection. A
// member whose outbox is full is dropped on the spot; the closed outbox
// makes its writer close the socket, which unblocks the reader and runs
// the normal disconnect path.
func (g *Group) broadcast(exclude string, msg types.ServerMessage) {
	for id, m := range g.members {
		if id == exclude {
			continue
		}
		select {
		case m.outbox <- msg:
		default:
			g.log.Warn("dropping slow relay client",
				zap.String("session", g.sessionID),
				zap.String("player", m.playerID))
			close(m.outbox)
			delete(g.members, id)
		}
	}
}

// persist fires a best-effort storage write and returns immediately.
func (g *Group) persist(patch types.GameStatePatch) {
	if g.merger == nil || patch.IsZero() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := g.merger.MergeGameState(ctx, g.sessionID, patch); err != nil {
			g.log.Debug("game state write dropped",
				zap.String("session", g.sessionID),
				zap.Error(err))
		}
	}()
}

func (g *Group) shutdown() {
	for id, m := range g.members {
		close(m.outbox)
		delete(g.members, id)
	}
	g.cancel()
}
