package types

// Relay event names, shared by the client and server halves of the relay.
const (
	// Client -> Server
	MsgJoinGame          = "join-game"
	MsgPlayerStateUpdate = "player-state-update"
	MsgGameStateUpdate   = "game-state-update"

	// Server -> Client
	MsgPlayerStateChanged = "player-state-changed"
	MsgGameStateChanged   = "game-state-changed"
	MsgPlayerDisconnected = "player-disconnected"
	MsgError              = "error"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ClientMessage struct {
	Type         string          `json:"type"`
	SessionID    string          `json:"session_id,omitempty"`
	PlayerID     string          `json:"player_id,omitempty"`
	Position     *Position       `json:"position,omitempty"`
	AbilityFlag  string          `json:"ability_flag,omitempty"`
	PartialState *GameStatePatch `json:"partial_state,omitempty"`
}

// ServerMessage is the relay's server->client envelope. A
// game-state-changed broadcast carries the sender's partial_state under
// the "state" key; the remaining fields mirror the triggering client
// message.
type ServerMessage struct {
	Type        string          `json:"type"`
	SessionID   string          `json:"session_id,omitempty"`
	PlayerID    string          `json:"player_id,omitempty"`
	Position    *Position       `json:"position,omitempty"`
	AbilityFlag string          `json:"ability_flag,omitempty"`
	State       *GameStatePatch `json:"state,omitempty"`
	Error       string          `json:"error,omitempty"`
}
