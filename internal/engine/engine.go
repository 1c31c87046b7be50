// Package engine implements the elimination/ranking convergence shared by
// every minigame. Each client runs its own copy; all copies agree because
// the reducer is deterministic, elimination appends are idempotent, and
// whichever client first observes a single survivor publishes the
// authoritative ranking for everyone else to adopt.
package engine

import (
	"errors"
	"slices"

	"github.com/Jpleseux/demolish-dash/pkg/types"
)

var ErrUnsupportedCommand = errors.New("unsupported command")

// Rostered is one participant fixed at game start.
type Rostered struct {
	ID   string
	Name string
}

type State struct {
	Roster     []Rostered
	Eliminated []string // elimination order, earliest first
	Ranking    []types.RankingRecord
	Completed  bool
}

// NewState builds the starting state for a roster. A roster of fewer than
// two players short-circuits: nobody to compete against, everyone present
// is rank 1 with a single point and the game is already complete.
func NewState(roster []Rostered) State {
	s := State{Roster: slices.Clone(roster)}
	if len(roster) < 2 {
		for _, r := range roster {
			s.Ranking = append(s.Ranking, types.RankingRecord{
				PlayerID: r.ID, Name: r.Name, Rank: 1, Points: 1,
			})
		}
		s.Completed = true
	}
	return s
}

type CommandType string

const (
	// CmdEliminate records one locally-detected elimination.
	CmdEliminate CommandType = "Eliminate"
	// CmdMergeEliminations folds a full elimination list received over
	// the relay into local state.
	CmdMergeEliminations CommandType = "MergeEliminations"
	// CmdAdoptRanking accepts a completed ranking published by whichever
	// client finished first.
	CmdAdoptRanking CommandType = "AdoptRanking"
)

type Command struct {
	Type       CommandType
	PlayerID   string
	Eliminated []string
	Ranking    []types.RankingRecord
}

type EventType string

const (
	EvtPlayerEliminated EventType = "PlayerEliminated"
	EvtGameCompleted    EventType = "GameCompleted"
)

type Event struct {
	Type     EventType
	PlayerID string
	Ranking  []types.RankingRecord
}

// Apply advances the state by one command. Commands arriving after
// completion, duplicate eliminations, and eliminations of unknown players
// are all absorbed as no-ops; racing clients must converge, not error.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Completed {
		return nil, s, nil
	}

	switch cmd.Type {
	case CmdEliminate:
		return applyEliminations(s, []string{cmd.PlayerID})

	case CmdMergeEliminations:
		return applyEliminations(s, cmd.Eliminated)

	case CmdAdoptRanking:
		if len(cmd.Ranking) == 0 {
			return nil, s, nil
		}
		ns := s
		ns.Ranking = slices.Clone(cmd.Ranking)
		ns.Completed = true
		return []Event{{Type: EvtGameCompleted, Ranking: ns.Ranking}}, ns, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// Remaining is the roster minus the elimination list, in roster order.
func Remaining(s State) []string {
	out := make([]string, 0, len(s.Roster))
	for _, r := range s.Roster {
		if !slices.Contains(s.Eliminated, r.ID) {
			out = append(out, r.ID)
		}
	}
	return out
}

func applyEliminations(s State, ids []string) ([]Event, State, error) {
	ns := s
	elim := slices.Clone(s.Eliminated)

	var events []Event
	for _, id := range ids {
		if !inRoster(s.Roster, id) || slices.Contains(elim, id) {
			continue
		}
		elim = append(elim, id)
		events = append(events, Event{Type: EvtPlayerEliminated, PlayerID: id})
	}
	ns.Eliminated = elim

	if rem := Remaining(ns); len(rem) <= 1 {
		ns.Ranking = finalRanking(ns.Roster, elim, rem)
		ns.Completed = true
		events = append(events, Event{Type: EvtGameCompleted, Ranking: ns.Ranking})
	}
	return events, ns, nil
}

// finalRanking ranks the survivor first, then the eliminated in reverse
// elimination order (latest out = best of the rest). Points follow
// points(rank) = N - rank + 1. Roster members somehow in neither list get
// the worst rank and a single point.
func finalRanking(roster []Rostered, eliminated, remaining []string) []types.RankingRecord {
	n := len(roster)
	ranking := make([]types.RankingRecord, 0, n)
	ranked := make(map[string]bool, n)

	rank := 1
	for _, id := range remaining {
		ranking = append(ranking, types.RankingRecord{
			PlayerID: id, Name: nameOf(roster, id), Rank: rank, Points: n - rank + 1,
		})
		ranked[id] = true
	}
	if len(remaining) > 0 {
		rank = len(remaining) + 1
	}

	for i := len(eliminated) - 1; i >= 0; i-- {
		id := eliminated[i]
		if !inRoster(roster, id) || ranked[id] {
			continue
		}
		ranking = append(ranking, types.RankingRecord{
			PlayerID: id, Name: nameOf(roster, id), Rank: rank, Points: n - rank + 1,
		})
		ranked[id] = true
		rank++
	}

	for _, r := range roster {
		if ranked[r.ID] {
			continue
		}
		ranking = append(ranking, types.RankingRecord{
			PlayerID: r.ID, Name: r.Name, Rank: n, Points: 1,
		})
	}
	return ranking
}

func inRoster(roster []Rostered, id string) bool {
	return slices.ContainsFunc(roster, func(r Rostered) bool { return r.ID == id })
}

func nameOf(roster []Rostered, id string) string {
	for _, r := range roster {
		if r.ID == id {
			return r.Name
		}
	}
	return ""
}
