package room

import "errors"

// Not-found failures: surfaced to the initiating action, never fatal.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("game session not found")
	ErrPlayerNotFound  = errors.New("player not found")
)

// Precondition failures: rejected synchronously, no partial side effect.
var (
	ErrInvalidConfig     = errors.New("invalid room configuration")
	ErrRoomNotJoinable   = errors.New("room is not accepting players")
	ErrRoomFull          = errors.New("room roster is full")
	ErrNoColorAvailable  = errors.New("no player color available")
	ErrNotHost           = errors.New("only the host may do that")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrRoomNotPlaying    = errors.New("room has no game in progress")
	ErrRoomFinished      = errors.New("room has already finished")
	ErrInvalidRanking    = errors.New("ranking is empty or malformed")
	ErrNoPendingSessions = errors.New("no pending game sessions left")
	ErrSessionNotActive  = errors.New("game session is not active")
)

// NotFound reports whether err belongs to the not-found group.
func NotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrPlayerNotFound)
}

// Precondition reports whether err belongs to the precondition-violated
// group.
func Precondition(err error) bool {
	for _, e := range []error{
		ErrInvalidConfig, ErrRoomNotJoinable, ErrRoomFull, ErrNoColorAvailable,
		ErrNotHost, ErrNotEnoughPlayers, ErrRoomNotPlaying, ErrRoomFinished,
		ErrInvalidRanking, ErrNoPendingSessions, ErrSessionNotActive,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
