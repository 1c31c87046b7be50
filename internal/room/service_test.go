package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jpleseux/demolish-dash/internal/store"
	"github.com/Jpleseux/demolish-dash/pkg/types"
)

var testGameTypes = []string{"tag", "sumo", "bomb", "race"}

func newTestService() (*Service, *store.Mem) {
	mem := store.NewMem()
	return NewService(mem, zap.NewNop(), testGameTypes), mem
}

// ranking for two players: winner first.
func ranking2(winner, loser store.Player) []types.RankingRecord {
	return []types.RankingRecord{
		{PlayerID: winner.ID, Name: winner.Name, Rank: 1, Points: 2},
		{PlayerID: loser.ID, Name: loser.Name, Rank: 2, Points: 1},
	}
}

func TestFullRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, host, err := svc.CreateRoom(ctx, "alice", 2, 3)
	require.NoError(t, err)
	require.Equal(t, store.RoomWaiting, rm.Status)
	require.Len(t, rm.Code, 6)
	require.Equal(t, Palette[0], host.Color)

	_, bob, err := svc.JoinRoom(ctx, rm.Code, "bob")
	require.NoError(t, err)
	require.NotEqual(t, host.Color, bob.Color)

	started, err := svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)
	require.Equal(t, store.RoomPlaying, started.Status)

	// three sessions, contiguous sequence, all pending
	snap, err := svc.Status(ctx, rm.Code)
	require.NoError(t, err)
	require.Len(t, snap.Sessions, 3)
	for i, sess := range snap.Sessions {
		require.Equal(t, i+1, sess.Sequence)
		require.Equal(t, store.SessionPending, sess.Status)
		require.Contains(t, testGameTypes, sess.GameType)
	}

	// play out the three games; alice wins games 1 and 3
	winners := []store.Player{*host, *bob, *host}
	losers := []store.Player{*bob, *host, *bob}
	for i := 0; i < 3; i++ {
		sess, err := svc.NextGame(ctx, rm.Code)
		require.NoError(t, err)
		require.Equal(t, i+1, sess.Sequence)
		require.Equal(t, store.SessionActive, sess.Status)

		done, err := svc.CompleteGame(ctx, sess.ID, ranking2(winners[i], losers[i]))
		require.NoError(t, err)
		require.Equal(t, store.SessionCompleted, done.Status)
		require.Len(t, done.Results, 2)
	}

	snap, err = svc.Status(ctx, rm.Code)
	require.NoError(t, err)
	require.Equal(t, store.RoomFinished, snap.Room.Status)

	// cumulative scores: alice 2+1+2, bob 1+2+1
	scores := map[string]int{}
	for _, p := range snap.Players {
		scores[p.Name] = p.Score
	}
	require.Equal(t, 5, scores["alice"])
	require.Equal(t, 4, scores["bob"])

	// no fourth game
	_, err = svc.NextGame(ctx, rm.Code)
	require.ErrorIs(t, err, ErrNoPendingSessions)
}

func TestJoinNormalizesCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, _, err := svc.CreateRoom(ctx, "alice", 2, 1)
	require.NoError(t, err)

	scrambled := "  " + string(rm.Code[0]|0x20) + rm.Code[1:] + " \t"
	_, p, err := svc.JoinRoom(ctx, scrambled, "bob")
	require.NoError(t, err)
	require.Equal(t, rm.ID, p.RoomID)
}

func TestJoinRejectedOncePlaying(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService()

	rm, _, err := svc.CreateRoom(ctx, "alice", 2, 1)
	require.NoError(t, err)
	_, _, err = svc.JoinRoom(ctx, rm.Code, "bob")
	require.NoError(t, err)
	_, err = svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)

	_, _, err = svc.JoinRoom(ctx, rm.Code, "carol")
	require.ErrorIs(t, err, ErrRoomNotJoinable)

	// rejection must not create a player record
	players, err := mem.PlayersByRoom(ctx, rm.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
}

func TestJoinRejectedWhenFull(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, _, err := svc.CreateRoom(ctx, "host", 2, 1)
	require.NoError(t, err)

	names := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	colors := map[string]bool{Palette[0]: true}
	for _, n := range names {
		_, p, err := svc.JoinRoom(ctx, rm.Code, n)
		require.NoError(t, err)
		require.False(t, colors[p.Color], "color %s assigned twice", p.Color)
		colors[p.Color] = true
	}

	_, _, err = svc.JoinRoom(ctx, rm.Code, "p10")
	require.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinUnknownRoom(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.JoinRoom(context.Background(), "NOPE42", "bob")
	require.ErrorIs(t, err, ErrRoomNotFound)
	require.True(t, NotFound(err))
}

func TestStartPreconditions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, _, err := svc.CreateRoom(ctx, "alice", 2, 1)
	require.NoError(t, err)

	_, err = svc.StartRoom(ctx, rm.Code, "alice")
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
	require.True(t, Precondition(err))

	_, _, err = svc.JoinRoom(ctx, rm.Code, "bob")
	require.NoError(t, err)

	_, err = svc.StartRoom(ctx, rm.Code, "mallory")
	require.ErrorIs(t, err, ErrNotHost)

	_, err = svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)

	// starting again is a no-op success
	again, err := svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)
	require.Equal(t, store.RoomPlaying, again.Status)
}

func TestCreateRoomValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	cases := []struct {
		name       string
		host       string
		minPlayers int
		maxGames   int
	}{
		{"empty host", "", 2, 3},
		{"min too low", "a", 1, 3},
		{"min too high", "a", 11, 3},
		{"no games", "a", 2, 0},
		{"too many games", "a", 2, 21},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.CreateRoom(ctx, tc.host, tc.minPlayers, tc.maxGames)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNextGameIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, _, err := svc.CreateRoom(ctx, "alice", 2, 2)
	require.NoError(t, err)
	_, _, err = svc.JoinRoom(ctx, rm.Code, "bob")
	require.NoError(t, err)
	_, err = svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)

	first, err := svc.NextGame(ctx, rm.Code)
	require.NoError(t, err)

	// a second observer advancing redundantly gets the same active slot
	second, err := svc.NextGame(ctx, rm.Code)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestCompleteGameAppliesScoresOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, host, err := svc.CreateRoom(ctx, "alice", 2, 1)
	require.NoError(t, err)
	_, bob, err := svc.JoinRoom(ctx, rm.Code, "bob")
	require.NoError(t, err)
	_, err = svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)
	sess, err := svc.NextGame(ctx, rm.Code)
	require.NoError(t, err)

	results := ranking2(*host, *bob)
	_, err = svc.CompleteGame(ctx, sess.ID, results)
	require.NoError(t, err)

	// duplicate completion (the racing-client case) must not re-apply
	dup, err := svc.CompleteGame(ctx, sess.ID, results)
	require.NoError(t, err)
	require.Equal(t, store.SessionCompleted, dup.Status)

	snap, err := svc.Status(ctx, rm.Code)
	require.NoError(t, err)
	for _, p := range snap.Players {
		switch p.ID {
		case host.ID:
			require.Equal(t, 2, p.Score)
		case bob.ID:
			require.Equal(t, 1, p.Score)
		}
	}
}

func TestCompleteGameRequiresActiveSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, host, err := svc.CreateRoom(ctx, "alice", 2, 2)
	require.NoError(t, err)
	_, bob, err := svc.JoinRoom(ctx, rm.Code, "bob")
	require.NoError(t, err)
	_, err = svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)

	// sessions exist but none has been activated yet
	snap, err := svc.Status(ctx, rm.Code)
	require.NoError(t, err)
	_, err = svc.CompleteGame(ctx, snap.Sessions[0].ID, ranking2(*host, *bob))
	require.ErrorIs(t, err, ErrSessionNotActive)
	require.True(t, Precondition(err))

	// the rejection left the session pending and scored nobody
	snap, err = svc.Status(ctx, rm.Code)
	require.NoError(t, err)
	require.Equal(t, store.SessionPending, snap.Sessions[0].Status)
	for _, p := range snap.Players {
		require.Zero(t, p.Score)
	}
}

func TestCompleteGameRejectsEmptyRanking(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rm, _, err := svc.CreateRoom(ctx, "alice", 2, 1)
	require.NoError(t, err)
	_, _, err = svc.JoinRoom(ctx, rm.Code, "bob")
	require.NoError(t, err)
	_, err = svc.StartRoom(ctx, rm.Code, "alice")
	require.NoError(t, err)
	sess, err := svc.NextGame(ctx, rm.Code)
	require.NoError(t, err)

	_, err = svc.CompleteGame(ctx, sess.ID, nil)
	require.ErrorIs(t, err, ErrInvalidRanking)

	_, err = svc.CompleteGame(ctx, "no-such-session", ranking2(store.Player{ID: "x"}, store.Player{ID: "y"}))
	require.ErrorIs(t, err, ErrSessionNotFound)
}
