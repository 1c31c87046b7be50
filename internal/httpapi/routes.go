package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Jpleseux/demolish-dash/internal/relay"
	"github.com/Jpleseux/demolish-dash/internal/room"
	"github.com/Jpleseux/demolish-dash/internal/ws"
)

func SetupRoutes(svc *room.Service, rl *relay.Relay, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(svc))
	r.Get("/rooms/{code}", RoomStatus(svc))
	r.Post("/rooms/{code}/join", JoinRoom(svc))
	r.Post("/rooms/{code}/start", StartRoom(svc))
	r.Post("/rooms/{code}/next", NextGame(svc))
	r.Post("/sessions/{id}/complete", CompleteGame(svc))

	r.Get("/ws", ws.Handler(rl, log))
	r.Get("/healthz", Healthz)

	return r
}
