package seed

import "testing"

func TestPickIsDeterministic(t *testing.T) {
	players := []string{"p3", "p1", "p4", "p2"}

	first, err := Pick("session-abc", "0", players)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	for i := 0; i < 50; i++ {
		got, err := Pick("session-abc", "0", players)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if got != first {
			t.Fatalf("pick changed between calls: %q vs %q", got, first)
		}
	}
}

func TestPickIgnoresInputOrder(t *testing.T) {
	a := []string{"p1", "p2", "p3", "p4"}
	b := []string{"p4", "p3", "p2", "p1"}

	pa, _ := Pick("session-abc", "2", a)
	pb, _ := Pick("session-abc", "2", b)
	if pa != pb {
		t.Fatalf("pick depends on input order: %q vs %q", pa, pb)
	}
	// input slice must not be reordered
	if b[0] != "p4" {
		t.Fatalf("input slice was mutated: %v", b)
	}
}

func TestPickVariesWithSalt(t *testing.T) {
	players := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}

	seen := map[string]bool{}
	for _, salt := range []string{"0", "1", "2", "3", "4", "5", "6", "7"} {
		got, err := Pick("session-abc", salt, players)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		seen[got] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected salt to influence selection, always got %v", seen)
	}
}

func TestPickSingleParticipant(t *testing.T) {
	got, err := Pick("whatever", "99", []string{"only"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "only" {
		t.Fatalf("want trivial selection, got %q", got)
	}
}

func TestPickEmpty(t *testing.T) {
	if _, err := Pick("s", "0", nil); err != ErrNoParticipants {
		t.Fatalf("want ErrNoParticipants, got %v", err)
	}
}

func TestIndexInRange(t *testing.T) {
	for n := 1; n <= 10; n++ {
		for _, id := range []string{"a", "b", "c", "session-1", "session-2"} {
			i, err := Index(id, "x", n)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if i < 0 || i >= n {
				t.Fatalf("index %d out of range [0,%d)", i, n)
			}
		}
	}
}
