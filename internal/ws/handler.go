package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jpleseux/demolish-dash/internal/relay"
	"github.com/Jpleseux/demolish-dash/pkg/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 60 * time.Second
)

// Handler upgrades a connection and bridges it to the relay. The client's
// first message must be join-game; everything after that is fire-and-forget
// state publishing.
func Handler(r *relay.Relay, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()

		join, ok := readMessage(req.Context(), conn)
		if !ok {
			return
		}
		if join.Type != types.MsgJoinGame || join.SessionID == "" || join.PlayerID == "" {
			_ = writeError(req.Context(), conn, "first message must be join-game")
			return
		}

		outbox := make(chan types.ServerMessage, 16)
		r.Join(join.SessionID, join.PlayerID, connID, outbox)
		defer r.Leave(connID)

		writeCtx, writeCancel := context.WithCancel(req.Context())
		defer writeCancel()
		go func() {
			for msg := range outbox {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			// the group closed our outbox (leave, shutdown, or dropped as
			// a slow consumer); close the socket so the blocked reader
			// exits instead of idling until the read timeout
			_ = conn.Close(websocket.StatusPolicyViolation, "dropped by relay")
		}()

		for {
			cm, ok := readMessage(req.Context(), conn)
			if !ok {
				return
			}

			switch cm.Type {
			case "":
				// bad json already answered inside readMessage

			case types.MsgJoinGame:
				// idempotent re-join for the same pair
				if cm.SessionID == join.SessionID && cm.PlayerID == join.PlayerID {
					continue
				}
				_ = writeError(req.Context(), conn, "already joined another session")

			case types.MsgPlayerStateUpdate:
				if cm.Position == nil {
					continue
				}
				r.PublishPlayerState(connID, *cm.Position, cm.AbilityFlag)

			case types.MsgGameStateUpdate:
				if cm.PartialState == nil {
					continue
				}
				r.PublishGameState(connID, *cm.PartialState)

			default:
				log.Debug("unknown relay message type", zap.String("type", cm.Type))
			}
		}
	}
}

// readMessage reads one client message; false means the connection is done.
func readMessage(ctx context.Context, conn *websocket.Conn) (types.ClientMessage, bool) {
	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	_, data, err := conn.Read(readCtx)
	cancel()
	if err != nil {
		return types.ClientMessage{}, false
	}

	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		_ = writeError(ctx, conn, "bad json")
		return types.ClientMessage{}, true
	}
	return cm, true
}

func writeError(ctx context.Context, conn *websocket.Conn, text string) error {
	payload, _ := json.Marshal(types.ServerMessage{Type: types.MsgError, Error: text})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
