package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jpleseux/demolish-dash/pkg/types"
)

func TestRoomStatusCAS(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	require.NoError(t, m.CreateRoom(ctx, &Room{ID: "r1", Code: "ABC123", Status: RoomWaiting}))

	ok, err := m.UpdateRoomStatus(ctx, "r1", RoomWaiting, RoomPlaying)
	require.NoError(t, err)
	require.True(t, ok)

	// second attempt loses the race
	ok, err = m.UpdateRoomStatus(ctx, "r1", RoomWaiting, RoomPlaying)
	require.NoError(t, err)
	require.False(t, ok)

	r, err := m.RoomByID(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, RoomPlaying, r.Status)
}

func TestCompleteSessionAppliesScoresOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	require.NoError(t, m.CreatePlayer(ctx, &Player{ID: "p1", RoomID: "r1"}))
	require.NoError(t, m.CreateSessions(ctx, []GameSession{
		{ID: "s1", RoomID: "r1", Sequence: 1, Status: SessionActive},
	}))

	results := []types.RankingRecord{{PlayerID: "p1", Rank: 1, Points: 3}}
	ok, err := m.CompleteSession(ctx, "s1", results)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.CompleteSession(ctx, "s1", results)
	require.NoError(t, err)
	require.False(t, ok, "replayed completion must not re-apply scores")

	players, err := m.PlayersByRoom(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, 3, players[0].Score)
}

func TestMergeGameStateAccumulates(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	require.NoError(t, m.CreateSessions(ctx, []GameSession{
		{ID: "s1", RoomID: "r1", Sequence: 1, Status: SessionActive},
	}))

	require.NoError(t, m.MergeGameState(ctx, "s1", types.GameStatePatch{
		EliminatedPlayers: []string{"p2"},
	}))
	require.NoError(t, m.MergeGameState(ctx, "s1", types.GameStatePatch{
		Positions: map[string]types.Position{"p1": {X: 1, Y: 2}},
	}))

	s, err := m.SessionByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []string{"p2"}, s.State.EliminatedPlayers)
	require.Equal(t, types.Position{X: 1, Y: 2}, s.State.Positions["p1"])

	require.ErrorIs(t, m.MergeGameState(ctx, "nope", types.GameStatePatch{}), ErrNotFound)
}
