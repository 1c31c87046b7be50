package arena

import (
	"math"
	"testing"
	"time"
)

func testParams() Params {
	return Params{
		BaseSpeed:      100,
		DashMultiplier: 2.5,
		DashDuration:   200 * time.Millisecond,
		DashCooldown:   1 * time.Second,
		Damping:        0.9,
		Bounds:         Bounds{MinX: 0, MinY: 0, MaxX: 800, MaxY: 600},
	}
}

func TestDashLifecycle(t *testing.T) {
	e := NewEntity("p1", "one", "red", Vec{X: 100, Y: 100}, testParams())

	if e.Dashing() || e.OnCooldown() {
		t.Fatalf("fresh entity should be idle")
	}
	if !e.StartDash() {
		t.Fatalf("first dash should start")
	}
	if !e.Dashing() {
		t.Fatalf("entity should be dashing")
	}
	if e.StartDash() {
		t.Fatalf("dash while dashing should be refused")
	}
	if got, want := e.Speed(), 250.0; got != want {
		t.Fatalf("dash speed: got %v want %v", got, want)
	}

	// run out the dash
	e.Step(Vec{}, 250*time.Millisecond)
	if e.Dashing() {
		t.Fatalf("dash should have expired")
	}
	if !e.OnCooldown() {
		t.Fatalf("dash end should enter cooldown")
	}
	if e.StartDash() {
		t.Fatalf("dash during cooldown should be refused")
	}
	if got, want := e.Speed(), 100.0; got != want {
		t.Fatalf("base speed: got %v want %v", got, want)
	}

	// run out the cooldown over several ticks
	for i := 0; i < 8; i++ {
		e.Step(Vec{}, 150*time.Millisecond)
	}
	if e.OnCooldown() {
		t.Fatalf("cooldown should have expired")
	}
	if !e.StartDash() {
		t.Fatalf("dash should be available again")
	}
}

func TestStepMovesAndClamps(t *testing.T) {
	e := NewEntity("p1", "one", "red", Vec{X: 790, Y: 300}, testParams())

	// full-speed push into the right wall
	for i := 0; i < 10; i++ {
		e.Step(Vec{X: 1}, 100*time.Millisecond)
	}
	if e.Pos.X != 800 {
		t.Fatalf("want clamp at MaxX=800, got %v", e.Pos.X)
	}
	if e.Pos.Y != 300 {
		t.Fatalf("Y should be unchanged, got %v", e.Pos.Y)
	}
}

func TestDiagonalInputIsNormalized(t *testing.T) {
	straight := NewEntity("a", "", "", Vec{}, testParams())
	diagonal := NewEntity("b", "", "", Vec{}, testParams())

	straight.Step(Vec{X: 1}, time.Second)
	diagonal.Step(Vec{X: 1, Y: 1}, time.Second)

	ds := straight.Pos.Len()
	dd := diagonal.Pos.Len()
	if math.Abs(ds-dd) > 1e-9 {
		t.Fatalf("diagonal moved a different distance: %v vs %v", dd, ds)
	}
}

func TestImpulseDecays(t *testing.T) {
	e := NewEntity("p1", "one", "red", Vec{X: 400, Y: 300}, testParams())
	e.ApplyImpulse(Vec{X: 50})

	var prev float64 = 50
	for i := 0; i < 5; i++ {
		e.Step(Vec{}, 16*time.Millisecond)
		if e.Vel.X >= prev {
			t.Fatalf("impulse should decay each tick: %v -> %v", prev, e.Vel.X)
		}
		prev = e.Vel.X
	}
	if e.Pos.X <= 400 {
		t.Fatalf("impulse should have moved the entity, pos %v", e.Pos)
	}
}

func TestDist(t *testing.T) {
	a := NewEntity("a", "", "", Vec{X: 0, Y: 0}, testParams())
	b := NewEntity("b", "", "", Vec{X: 3, Y: 4}, testParams())
	if got := a.Dist(b); got != 5 {
		t.Fatalf("want 5, got %v", got)
	}
}

func TestAbilityFlag(t *testing.T) {
	e := NewEntity("p1", "one", "red", Vec{}, testParams())
	if e.AbilityFlag() != "" {
		t.Fatalf("idle flag should be empty")
	}
	e.StartDash()
	if e.AbilityFlag() != "dashing" {
		t.Fatalf("want dashing, got %q", e.AbilityFlag())
	}
	e.Carrying = true
	if e.AbilityFlag() != "carrying" {
		t.Fatalf("carrying should win, got %q", e.AbilityFlag())
	}
	e.Carrying = false
	e.Step(Vec{}, 300*time.Millisecond)
	if e.AbilityFlag() != "cooldown" {
		t.Fatalf("want cooldown, got %q", e.AbilityFlag())
	}
}
