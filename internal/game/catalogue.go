// Package game holds the minigame catalogue and the client-side simulation
// loop that ties the arena, the convergence engine, and the relay together.
package game

import (
	"strconv"
	"time"

	"github.com/Jpleseux/demolish-dash/internal/arena"
	"github.com/Jpleseux/demolish-dash/internal/seed"
)

type Type string

const (
	TypeTag  Type = "tag"  // tagged player must pass the token before the timer laps
	TypeSumo Type = "sumo" // shove others off the platform
	TypeBomb Type = "bomb" // bomb holder is eliminated when the fuse laps
	TypeRace Type = "race" // last to the far edge loses the round
)

var Types = []Type{TypeTag, TypeSumo, TypeBomb, TypeRace}

func TypeNames() []string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return names
}

// Params bundles the minigame-specific constants fed into the shared
// simulation. The numbers shape each game's feel; the algorithms they feed
// are identical across games.
type Params struct {
	Arena          arena.Params
	InteractRadius float64
	TimeLimit      time.Duration
	UsesToken      bool
}

var canvas = arena.Bounds{MinX: 0, MinY: 0, MaxX: 800, MaxY: 600}

func ParamsFor(t Type) Params {
	base := arena.Params{
		BaseSpeed:      160,
		DashMultiplier: 2.2,
		DashDuration:   220 * time.Millisecond,
		DashCooldown:   1500 * time.Millisecond,
		Damping:        0.88,
		Bounds:         canvas,
	}

	switch t {
	case TypeTag:
		return Params{Arena: base, InteractRadius: 28, TimeLimit: 12 * time.Second, UsesToken: true}
	case TypeSumo:
		p := base
		p.BaseSpeed = 130
		p.Damping = 0.93 // shoves carry further
		return Params{Arena: p, InteractRadius: 34}
	case TypeBomb:
		return Params{Arena: base, InteractRadius: 26, TimeLimit: 8 * time.Second, UsesToken: true}
	case TypeRace:
		p := base
		p.DashCooldown = 2500 * time.Millisecond
		return Params{Arena: p, TimeLimit: 20 * time.Second}
	default:
		return Params{Arena: base, InteractRadius: 28}
	}
}

// TokenHolder deterministically selects who holds the token (bomb, tag)
// among the remaining players. Every client computes the same answer from
// the session id and the elimination count, so nobody has to broadcast the
// decision.
func TokenHolder(sessionID string, eliminations int, remaining []string) (string, error) {
	return seed.Pick(sessionID, "token:"+strconv.Itoa(eliminations), remaining)
}
