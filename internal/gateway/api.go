package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
	"github.com/vovakirdan/snake-rooms/internal/storage"
)

const (
	defaultScoreLimit = 10
	maxScoreLimit     = 100
)

type api struct {
	coord   *multiplayer.Coordinator
	scores  ScoreSource
	started time.Time
}

func newAPI(coord *multiplayer.Coordinator, scores ScoreSource) *api {
	return &api{coord: coord, scores: scores, started: time.Now()}
}

// RoomSummary is the list view of a room.
type RoomSummary struct {
	ID        multiplayer.RoomID    `json:"id"`
	State     multiplayer.RoomState `json:"state"`
	Players   int                   `json:"players"`
	Ready     int                   `json:"ready"`
	Tick      uint64                `json:"tick"`
	CreatedAt time.Time             `json:"createdAt"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Rooms    int    `json:"rooms"`
	Playing  int    `json:"playing"`
	Storage  bool   `json:"storage"`
}

type apiError struct {
	Error string `json:"error"`
}

// Routes mounts the handlers on r.
func (a *api) Routes(r chi.Router) {
	r.Get("/health", a.health)
	r.Get("/settings", a.settings)
	r.Get("/rooms", a.listRooms)
	r.Get("/rooms/{roomID}", a.getRoom)
	r.Get("/scores", a.topScores)
	r.Get("/stats", a.stats)
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Uptime:   time.Since(a.started).Truncate(time.Second).String(),
		Sessions: a.coord.Sessions().Count(),
		Rooms:    a.coord.Rooms().Count(),
		Playing:  a.coord.Scheduler().Count(),
		Storage:  a.scores != nil,
	})
}

func (a *api) settings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.coord.Settings())
}

func (a *api) listRooms(w http.ResponseWriter, _ *http.Request) {
	snaps := a.coord.Rooms().List()
	out := make([]RoomSummary, len(snaps))
	for i, snap := range snaps {
		out[i] = Summarize(snap)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) getRoom(w http.ResponseWriter, r *http.Request) {
	id := multiplayer.RoomID(chi.URLParam(r, "roomID"))
	room, ok := a.coord.Rooms().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, room.Snapshot())
}

func (a *api) topScores(w http.ResponseWriter, r *http.Request) {
	if a.scores == nil {
		writeError(w, http.StatusServiceUnavailable, "score history disabled")
		return
	}

	limit := defaultScoreLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxScoreLimit)
	}

	entries, err := a.scores.TopScores(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot read scores")
		return
	}
	if entries == nil {
		entries = []storage.ScoreEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *api) stats(w http.ResponseWriter, _ *http.Request) {
	if a.scores == nil {
		writeError(w, http.StatusServiceUnavailable, "score history disabled")
		return
	}
	stats, err := a.scores.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot read stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Summarize reduces a snapshot to its list view.
func Summarize(snap multiplayer.RoomSnapshot) RoomSummary {
	ready := 0
	for _, p := range snap.Players {
		if p.Ready {
			ready++
		}
	}
	return RoomSummary{
		ID:        snap.ID,
		State:     snap.State,
		Players:   len(snap.Players),
		Ready:     ready,
		Tick:      snap.Tick,
		CreatedAt: snap.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
