package game

import "github.com/Jpleseux/demolish-dash/internal/arena"

// DetectOutOfBounds eliminates any remaining player whose entity has left
// the platform rectangle (sumo, race hazards).
func DetectOutOfBounds(platform arena.Bounds) DetectFunc {
	return func(l *Loop) []string {
		var out []string
		for _, id := range l.Remaining() {
			if e := l.Entity(id); e != nil && !platform.Contains(e.Pos) {
				out = append(out, id)
			}
		}
		return out
	}
}

// DetectFuseExpiry eliminates the current token holder each time the
// game's time limit laps (bomb fuse, tag countdown).
func DetectFuseExpiry() DetectFunc {
	lap := 0
	return func(l *Loop) []string {
		limit := l.Params().TimeLimit
		if limit <= 0 {
			return nil
		}
		current := int(l.Elapsed() / limit)
		if current <= lap {
			return nil
		}
		lap = current
		if holder := l.TokenHolder(); holder != "" {
			return []string{holder}
		}
		return nil
	}
}
