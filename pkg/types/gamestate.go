package types

// RankingRecord is one row of a completed game's final ranking.
// Rank 1 is the winner; points decrease strictly with rank.
type RankingRecord struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Points   int    `json:"points"`
}

// PushEvent carries a transient impulse applied to a player by another
// (sumo shoves, tag bumps). It is relayed, never persisted long-term.
type PushEvent struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	DX   float64 `json:"dx"`
	DY   float64 `json:"dy"`
}

// GameStatePatch is a partial update of the shared per-session game state.
// Each field is one mergeable key; receivers fold patches key-by-key
// (shallow merge), so two clients publishing unrelated keys never clobber
// each other. A zero field means "no change to that key".
type GameStatePatch struct {
	EliminatedPlayers []string            `json:"eliminated_players,omitempty"`
	Ranking           []RankingRecord     `json:"ranking,omitempty"`
	Completed         *bool               `json:"completed,omitempty"`
	TokenHolder       *string             `json:"token_holder,omitempty"`
	Push              *PushEvent          `json:"push_event,omitempty"`
	Positions         map[string]Position `json:"positions,omitempty"`
}

// Merge folds in into p, key by key. Present keys in in win; absent keys
// keep p's value. Positions merge per player id. Merge is commutative for
// patches touching disjoint keys and last-write-wins otherwise.
func (p GameStatePatch) Merge(in GameStatePatch) GameStatePatch {
	out := p
	if in.EliminatedPlayers != nil {
		out.EliminatedPlayers = in.EliminatedPlayers
	}
	if in.Ranking != nil {
		out.Ranking = in.Ranking
	}
	if in.Completed != nil {
		out.Completed = in.Completed
	}
	if in.TokenHolder != nil {
		out.TokenHolder = in.TokenHolder
	}
	if in.Push != nil {
		out.Push = in.Push
	}
	if in.Positions != nil {
		if out.Positions == nil {
			out.Positions = make(map[string]Position, len(in.Positions))
		} else {
			merged := make(map[string]Position, len(out.Positions)+len(in.Positions))
			for id, pos := range out.Positions {
				merged[id] = pos
			}
			out.Positions = merged
		}
		for id, pos := range in.Positions {
			out.Positions[id] = pos
		}
	}
	return out
}

// IsZero reports whether the patch carries no keys at all.
func (p GameStatePatch) IsZero() bool {
	return p.EliminatedPlayers == nil &&
		p.Ranking == nil &&
		p.Completed == nil &&
		p.TokenHolder == nil &&
		p.Push == nil &&
		p.Positions == nil
}
