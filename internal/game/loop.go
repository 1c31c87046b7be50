package game

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jpleseux/demolish-dash/internal/arena"
	"github.com/Jpleseux/demolish-dash/internal/engine"
	"github.com/Jpleseux/demolish-dash/pkg/types"
)

// Publisher is the loop's outbound half of the relay.
type Publisher interface {
	PublishPlayerState(pos types.Position, abilityFlag string)
	PublishGameState(patch types.GameStatePatch)
}

// DetectFunc is the minigame-specific elimination condition, run once per
// tick against the loop's current view. It returns the ids newly observed
// as eliminated; duplicates and already-eliminated ids are harmless.
type DetectFunc func(l *Loop) []string

// InputFunc samples the local player's movement intent for one tick.
type InputFunc func() arena.Vec

const (
	defaultTick         = 16 * time.Millisecond
	defaultPublishEvery = 50 * time.Millisecond // 20 Hz
)

// Loop is one client's simulation of one game session. All entity and
// engine mutation happens on the tick; relay events land in a small inbox
// and are folded in at the top of the next tick, so no further locking is
// needed anywhere in the simulation itself.
type Loop struct {
	sessionID string
	selfID    string
	params    Params

	entities map[string]*arena.Entity
	order    []string // roster order, for deterministic iteration
	state    engine.State

	pub    Publisher
	detect DetectFunc
	input  InputFunc
	log    *zap.Logger

	// onComplete runs exactly once, with the final ranking, whether this
	// client computed it or adopted it off the relay.
	onComplete func([]types.RankingRecord)

	tick         time.Duration
	publishEvery time.Duration
	sincePublish time.Duration
	elapsed      time.Duration
	tokenHolder  string

	mu          sync.Mutex
	inPatches   []types.GameStatePatch
	inDrops     []string
	inPositions []remoteState

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

type remoteState struct {
	playerID string
	pos      types.Position
	flag     string
}

type Config struct {
	SessionID  string
	SelfID     string
	Roster     []engine.Rostered
	Colors     map[string]string
	Params     Params
	Publisher  Publisher
	Detect     DetectFunc
	Input      InputFunc
	OnComplete func([]types.RankingRecord)
	Log        *zap.Logger

	Tick         time.Duration // 0 means the display-rate default
	PublishEvery time.Duration // 0 means the 20 Hz default
}

func NewLoop(cfg Config) *Loop {
	l := &Loop{
		sessionID:    cfg.SessionID,
		selfID:       cfg.SelfID,
		params:       cfg.Params,
		entities:     make(map[string]*arena.Entity, len(cfg.Roster)),
		state:        engine.NewState(cfg.Roster),
		pub:          cfg.Publisher,
		detect:       cfg.Detect,
		input:        cfg.Input,
		onComplete:   cfg.OnComplete,
		log:          cfg.Log,
		tick:         cfg.Tick,
		publishEvery: cfg.PublishEvery,
		done:         make(chan struct{}),
	}
	if l.tick <= 0 {
		l.tick = defaultTick
	}
	if l.publishEvery <= 0 {
		l.publishEvery = defaultPublishEvery
	}
	if l.input == nil {
		l.input = func() arena.Vec { return arena.Vec{} }
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}

	// spawn every roster entry, spread across the arena width
	b := cfg.Params.Arena.Bounds
	for i, r := range cfg.Roster {
		frac := float64(i+1) / float64(len(cfg.Roster)+1)
		start := arena.Vec{
			X: b.MinX + (b.MaxX-b.MinX)*frac,
			Y: (b.MinY + b.MaxY) / 2,
		}
		l.entities[r.ID] = arena.NewEntity(r.ID, r.Name, cfg.Colors[r.ID], start, cfg.Params.Arena)
		l.order = append(l.order, r.ID)
	}

	if cfg.Params.UsesToken {
		if holder, err := TokenHolder(cfg.SessionID, 0, l.order); err == nil {
			l.setTokenHolder(holder)
		}
	}
	return l
}

// Run ticks the loop until completion or cancellation. Entity updates use
// the elapsed wall-clock delta, not the nominal tick.
func (l *Loop) Run(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)

	// a roster too small to compete completes before the first tick
	if l.state.Completed {
		l.finish(l.state.Ranking, true)
		return
	}

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case now := <-ticker.C:
			l.Step(now.Sub(last))
			last = now
			if l.state.Completed {
				return
			}
		}
	}
}

// Fold queues a game-state patch received over the relay.
func (l *Loop) Fold(patch types.GameStatePatch) {
	l.mu.Lock()
	l.inPatches = append(l.inPatches, patch)
	l.mu.Unlock()
}

// HandleDisconnect queues a player-disconnected notification; it is folded
// into the elimination list like any gameplay elimination.
func (l *Loop) HandleDisconnect(playerID string) {
	l.mu.Lock()
	l.inDrops = append(l.inDrops, playerID)
	l.mu.Unlock()
}

// SetRemoteState queues another client's published position.
func (l *Loop) SetRemoteState(playerID string, pos types.Position, flag string) {
	l.mu.Lock()
	l.inPositions = append(l.inPositions, remoteState{playerID: playerID, pos: pos, flag: flag})
	l.mu.Unlock()
}

// Step advances the simulation by dt. Exported so tests can drive the loop
// deterministically without the ticker.
func (l *Loop) Step(dt time.Duration) {
	if l.state.Completed {
		return
	}
	l.elapsed += dt

	l.drainInbox()
	if l.state.Completed {
		return
	}

	// advance entities: the local player from sampled input, the rest
	// coast on their last known velocity/impulse
	for _, id := range l.order {
		e := l.entities[id]
		if id == l.selfID {
			e.Step(l.input(), dt)
		} else {
			e.Step(arena.Vec{}, dt)
		}
	}

	// minigame-specific elimination condition
	if l.detect != nil {
		if hit := l.detect(l); len(hit) > 0 {
			l.applyEliminations(hit)
			if l.state.Completed {
				return
			}
		}
	}

	// periodic position publish; lost messages heal on the next one
	l.sincePublish += dt
	if l.sincePublish >= l.publishEvery && l.pub != nil {
		l.sincePublish = 0
		if self, ok := l.entities[l.selfID]; ok {
			l.pub.PublishPlayerState(types.Position{X: self.Pos.X, Y: self.Pos.Y}, self.AbilityFlag())
		}
	}
}

func (l *Loop) drainInbox() {
	l.mu.Lock()
	patches := l.inPatches
	drops := l.inDrops
	positions := l.inPositions
	l.inPatches, l.inDrops, l.inPositions = nil, nil, nil
	l.mu.Unlock()

	for _, rs := range positions {
		if e, ok := l.entities[rs.playerID]; ok {
			e.Pos = arena.Vec{X: rs.pos.X, Y: rs.pos.Y}
			e.Carrying = rs.flag == "carrying"
		}
	}

	for _, patch := range patches {
		if patch.Completed != nil && *patch.Completed && len(patch.Ranking) > 0 {
			// the first client to see one survivor published the
			// authoritative ranking; adopt it and stop
			events, ns, err := engine.Apply(l.state, engine.Command{
				Type: engine.CmdAdoptRanking, Ranking: patch.Ranking,
			})
			if err == nil {
				l.state = ns
				if hasCompleted(events) {
					l.finish(l.state.Ranking, false)
					return
				}
			}
			continue
		}
		if patch.EliminatedPlayers != nil {
			events, ns, err := engine.Apply(l.state, engine.Command{
				Type: engine.CmdMergeEliminations, Eliminated: patch.EliminatedPlayers,
			})
			if err == nil {
				l.state = ns
				l.afterEliminations(events, false)
				if l.state.Completed {
					return
				}
			}
		}
		if patch.TokenHolder != nil {
			l.setTokenHolder(*patch.TokenHolder)
		}
		if patch.Push != nil && patch.Push.To == l.selfID {
			if e, ok := l.entities[l.selfID]; ok {
				e.ApplyImpulse(arena.Vec{X: patch.Push.DX, Y: patch.Push.DY})
			}
		}
	}

	if len(drops) > 0 {
		l.applyEliminations(drops)
	}
}

// applyEliminations folds locally-observed eliminations in and, when they
// are news, re-broadcasts the full elimination list.
func (l *Loop) applyEliminations(ids []string) {
	events, ns, err := engine.Apply(l.state, engine.Command{
		Type: engine.CmdMergeEliminations, Eliminated: ids,
	})
	if err != nil {
		return
	}
	l.state = ns
	l.afterEliminations(events, true)
}

// afterEliminations handles the shared aftermath of any elimination batch:
// re-selecting the token holder, republishing, and finishing the game when
// one survivor is left. publish is false when the batch itself arrived
// over the relay; the bare list is then not republished, but a completion
// computed from it still is — that publish carries the ranking the other
// clients adopt, and observed elimination orders can differ between
// clients.
func (l *Loop) afterEliminations(events []engine.Event, publish bool) {
	eliminated := false
	for _, ev := range events {
		if ev.Type == engine.EvtPlayerEliminated {
			eliminated = true
			l.log.Debug("player eliminated",
				zap.String("session", l.sessionID),
				zap.String("player", ev.PlayerID))
		}
	}
	if !eliminated {
		return
	}

	if l.params.UsesToken && !l.state.Completed {
		if holder, err := TokenHolder(l.sessionID, len(l.state.Eliminated), engine.Remaining(l.state)); err == nil {
			l.setTokenHolder(holder)
		}
	}

	if l.pub != nil && (publish || l.state.Completed) {
		patch := types.GameStatePatch{EliminatedPlayers: slices.Clone(l.state.Eliminated)}
		if l.state.Completed {
			done := true
			patch.Ranking = slices.Clone(l.state.Ranking)
			patch.Completed = &done
		}
		l.pub.PublishGameState(patch)
	}

	if l.state.Completed {
		l.finish(l.state.Ranking, true)
	}
}

func (l *Loop) setTokenHolder(holder string) {
	l.tokenHolder = holder
	for id, e := range l.entities {
		e.Carrying = id == holder
	}
}

// finish tears the loop down exactly once.
func (l *Loop) finish(ranking []types.RankingRecord, computedLocally bool) {
	l.stopOnce.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
		l.log.Info("game complete",
			zap.String("session", l.sessionID),
			zap.Bool("computed_locally", computedLocally),
			zap.Int("players", len(ranking)))
		if l.onComplete != nil {
			l.onComplete(ranking)
		}
		close(l.done)
	})
}

// Stop cancels the loop; safe to call repeatedly and after completion.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
		close(l.done)
	})
}

func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) Completed() bool { return l.state.Completed }

func (l *Loop) Ranking() []types.RankingRecord { return slices.Clone(l.state.Ranking) }

func (l *Loop) Remaining() []string { return engine.Remaining(l.state) }

func (l *Loop) TokenHolder() string { return l.tokenHolder }

func (l *Loop) Elapsed() time.Duration { return l.elapsed }

func (l *Loop) Entity(id string) *arena.Entity { return l.entities[id] }

func (l *Loop) Params() Params { return l.params }

func hasCompleted(events []engine.Event) bool {
	return slices.ContainsFunc(events, func(e engine.Event) bool {
		return e.Type == engine.EvtGameCompleted
	})
}
