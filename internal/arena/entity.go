// Package arena holds the per-client, in-memory avatar model: a movable
// entity with dash/cooldown ability state driven by countdown fields.
// Nothing here is persisted or networked; the game loop steps entities
// locally and the relay carries positions between clients.
package arena

import "time"

// Params are the minigame-specific movement constants fed into every
// entity of a game.
type Params struct {
	BaseSpeed      float64 // units per second
	DashMultiplier float64 // speed factor while dashing
	DashDuration   time.Duration
	DashCooldown   time.Duration
	Damping        float64 // impulse decay factor per tick, <1
	Bounds         Bounds  // clamp rectangle
}

// Entity is one player's avatar as simulated by a single client.
type Entity struct {
	ID    string
	Name  string
	Color string

	Pos Vec
	// Vel is the external impulse component (pushes, collisions). It
	// decays geometrically each tick; input-derived movement is computed
	// fresh per step and never stored here.
	Vel Vec

	Carrying bool // holding the token/bomb

	dashLeft     time.Duration
	cooldownLeft time.Duration

	params Params
}

func NewEntity(id, name, color string, start Vec, p Params) *Entity {
	return &Entity{ID: id, Name: name, Color: color, Pos: start, params: p}
}

func (e *Entity) Dashing() bool { return e.dashLeft > 0 }

func (e *Entity) OnCooldown() bool { return e.cooldownLeft > 0 }

// StartDash begins a dash if the entity is neither dashing nor cooling
// down. Reports whether the dash started.
func (e *Entity) StartDash() bool {
	if e.dashLeft > 0 || e.cooldownLeft > 0 {
		return false
	}
	e.dashLeft = e.params.DashDuration
	return true
}

// Speed is the current movement speed, base or dash.
func (e *Entity) Speed() float64 {
	if e.Dashing() {
		return e.params.BaseSpeed * e.params.DashMultiplier
	}
	return e.params.BaseSpeed
}

// ApplyImpulse adds an external push that decays over subsequent steps.
func (e *Entity) ApplyImpulse(v Vec) {
	e.Vel = e.Vel.Add(v)
}

// Step advances the entity by dt. input is the raw movement intent; it is
// normalized here so diagonal input is not faster.
func (e *Entity) Step(input Vec, dt time.Duration) {
	if dt <= 0 {
		return
	}

	if e.dashLeft > 0 {
		e.dashLeft -= dt
		if e.dashLeft <= 0 {
			e.dashLeft = 0
			e.cooldownLeft = e.params.DashCooldown
		}
	} else if e.cooldownLeft > 0 {
		e.cooldownLeft -= dt
		if e.cooldownLeft < 0 {
			e.cooldownLeft = 0
		}
	}

	move := input.Normalize().Scale(e.Speed())
	e.Pos = e.params.Bounds.Clamp(e.Pos.Add(move.Add(e.Vel).Scale(dt.Seconds())))
	e.Vel = e.Vel.Scale(e.params.Damping)
}

// Dist is the Euclidean distance to another entity, used for
// proximity-triggered interactions (tag, push, bomb pass).
func (e *Entity) Dist(o *Entity) float64 {
	return Vec{e.Pos.X - o.Pos.X, e.Pos.Y - o.Pos.Y}.Len()
}

// AbilityFlag summarizes the transient ability state for the wire.
func (e *Entity) AbilityFlag() string {
	switch {
	case e.Carrying:
		return "carrying"
	case e.Dashing():
		return "dashing"
	case e.OnCooldown():
		return "cooldown"
	default:
		return ""
	}
}
