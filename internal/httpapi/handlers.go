package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jpleseux/demolish-dash/internal/room"
	"github.com/Jpleseux/demolish-dash/internal/store"
	"github.com/Jpleseux/demolish-dash/pkg/types"
)

type createRoomRequest struct {
	HostName   string `json:"host_name"`
	MinPlayers int    `json:"min_players"`
	MaxGames   int    `json:"max_games"`
}

type joinRoomRequest struct {
	Name string `json:"name"`
}

type startRoomRequest struct {
	HostName string `json:"host_name"`
}

type completeGameRequest struct {
	Results []types.RankingRecord `json:"results"`
}

type roomPlayerResponse struct {
	Room   *store.Room   `json:"room"`
	Player *store.Player `json:"player"`
}

func CreateRoom(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, room.ErrInvalidConfig)
			return
		}
		rm, host, err := svc.CreateRoom(r.Context(), req.HostName, req.MinPlayers, req.MaxGames)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, roomPlayerResponse{Room: rm, Player: host})
	}
}

func JoinRoom(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, room.ErrInvalidConfig)
			return
		}
		rm, p, err := svc.JoinRoom(r.Context(), chi.URLParam(r, "code"), req.Name)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, roomPlayerResponse{Room: rm, Player: p})
	}
}

func StartRoom(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, room.ErrInvalidConfig)
			return
		}
		rm, err := svc.StartRoom(r.Context(), chi.URLParam(r, "code"), req.HostName)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rm)
	}
}

// RoomStatus is the poll target for lobby convergence.
func RoomStatus(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Status(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// NextGame advances the room to its next game session. Redundant calls
// return the currently active session.
func NextGame(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.NextGame(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func CompleteGame(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, room.ErrInvalidRanking)
			return
		}
		sess, err := svc.CompleteGame(r.Context(), chi.URLParam(r, "id"), req.Results)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type errResponse struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case room.NotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, room.ErrInvalidConfig), errors.Is(err, room.ErrInvalidRanking):
		status = http.StatusBadRequest
	case room.Precondition(err):
		status = http.StatusConflict
	}
	writeJSON(w, status, errResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
