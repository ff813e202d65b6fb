package multiplayer

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/games/snake"
)

// Room is one shared arena. All mutation happens under mu, so a tick and a
// client event never interleave inside a room.
type Room struct {
	id        RoomID
	createdAt time.Time
	factory   *snake.Factory
	palette   core.Palette

	mu           sync.Mutex
	state        RoomState
	players      []snake.Player // Join order; also the order players move in each tick
	fruit        *snake.Fruit
	tick         uint64
	startedAt    time.Time
	roundPlayers int
	idleSince    time.Time
}

// NewRoom creates an empty room in the Select state.
func NewRoom(id RoomID, cfg core.RuntimeConfig) *Room {
	now := time.Now()
	return &Room{
		id:        id,
		createdAt: now,
		factory:   snake.NewFactory(cfg),
		palette:   cfg.Palette,
		state:     StateSelect,
		players:   []snake.Player{},
		idleSince: now,
	}
}

// ID returns the room id.
func (r *Room) ID() RoomID {
	return r.id
}

// CreatedAt returns when the room was created.
func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// Config returns the game configuration the room simulates with.
func (r *Room) Config() core.RuntimeConfig {
	return r.factory.Config()
}

// State returns the current room state.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PlayerCount returns the roster size.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Has reports whether the client is on the roster.
func (r *Room) Has(id SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexLocked(id) >= 0
}

// IsActive reports whether the room should keep ticking.
func (r *Room) IsActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StatePlaying && len(r.players) > 0
}

// IdleSince returns when the room last became empty.
// The boolean is false while the room has players.
func (r *Room) IdleSince() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) > 0 {
		return time.Time{}, false
	}
	return r.idleSince, true
}

// ClientIDs returns the ids of everyone on the roster.
func (r *Room) ClientIDs() []SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]SessionID, len(r.players))
	for i, p := range r.players {
		ids[i] = SessionID(p.ID)
	}
	return ids
}

// Snapshot returns a deep copy of the room.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Join adds a freshly spawned player for the client.
// A room accepts joins in Select and WaitingRoom, never while Playing.
func (r *Room) Join(in JoinInput) (RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StatePlaying {
		return RoomSnapshot{}, fmt.Errorf("join %s: %w", r.id, ErrRoomAlreadyPlaying)
	}
	if r.indexLocked(in.ClientID) >= 0 {
		return RoomSnapshot{}, fmt.Errorf("join %s: %w", r.id, ErrAlreadyInRoom)
	}
	if !r.palette.Contains(in.Color) {
		return RoomSnapshot{}, fmt.Errorf("join %s with %q: %w", r.id, in.Color, ErrInvalidColor)
	}

	player := r.factory.SpawnPlayer(string(in.ClientID), string(r.id), in.Color, in.Name)
	r.players = append(r.players, player)
	r.state = StateWaitingRoom
	r.idleSince = time.Time{}

	return r.snapshotLocked(), nil
}

// LeaveResult describes the room after a player left.
type LeaveResult struct {
	Player   snake.Player  // Final state of the player that left
	Emptied  bool          // The roster is now empty and the room is idle
	Started  bool          // The remaining players were all ready, so play started
	Round    *RoundSummary // Set when a Playing round ended because the room emptied
	Snapshot RoomSnapshot
}

// Leave removes the client from the roster.
func (r *Room) Leave(id SessionID) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(id)
	if idx < 0 {
		return LeaveResult{}, fmt.Errorf("leave %s: %w", r.id, ErrNotInRoom)
	}

	res := LeaveResult{Player: r.players[idx].Clone()}
	r.players = slices.Delete(r.players, idx, idx+1)

	switch {
	case len(r.players) == 0:
		if r.state == StatePlaying {
			res.Round = &RoundSummary{
				RoomID:   r.id,
				Players:  r.roundPlayers,
				Ticks:    r.tick,
				Duration: time.Since(r.startedAt),
			}
		}
		r.state = StateSelect
		r.fruit = nil
		r.idleSince = time.Now()
		res.Emptied = true
	case r.state == StateWaitingRoom && r.allReadyLocked():
		r.startLocked()
		res.Started = true
	}

	res.Snapshot = r.snapshotLocked()
	return res, nil
}

// ReadyResult describes the room after a ready toggle.
type ReadyResult struct {
	Ready    bool // The player's new ready flag
	Started  bool // This toggle made everyone ready and play started
	Snapshot RoomSnapshot
}

// ToggleReady flips the client's ready flag and starts play once the whole
// roster is ready.
func (r *Room) ToggleReady(id SessionID) (ReadyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(id)
	if idx < 0 {
		return ReadyResult{}, fmt.Errorf("ready %s: %w", r.id, ErrNotInRoom)
	}
	if r.state != StateWaitingRoom {
		return ReadyResult{}, fmt.Errorf("ready %s in %s: %w", r.id, r.state, ErrInvalidState)
	}

	r.players[idx].Ready = !r.players[idx].Ready
	res := ReadyResult{Ready: r.players[idx].Ready}
	if r.allReadyLocked() {
		r.startLocked()
		res.Started = true
	}
	res.Snapshot = r.snapshotLocked()
	return res, nil
}

// Turn applies a direction change to the client's snake right away.
// It returns false when the change would reverse the snake.
func (r *Room) Turn(id SessionID, d core.Direction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(id)
	if idx < 0 {
		return false, fmt.Errorf("turn %s: %w", r.id, ErrNotInRoom)
	}
	if r.state != StatePlaying {
		return false, fmt.Errorf("turn %s in %s: %w", r.id, r.state, ErrInvalidState)
	}
	return snake.Turn(&r.players[idx], d), nil
}

// Tick advances every player by one cell. Players move in roster order and
// all see the fruit as it was at the start of the tick; if anyone ate or
// respawned, a single new fruit is placed afterwards.
// The boolean is false when the room is not Playing.
func (r *Room) Tick() (TickResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying || len(r.players) == 0 {
		return TickResult{}, false
	}
	if r.fruit == nil {
		fruit := r.factory.SpawnFruit()
		r.fruit = &fruit
	}

	fruit := *r.fruit
	next := make([]snake.Player, len(r.players))
	var lost []snake.Player
	replace := false
	for i, p := range r.players {
		step := r.factory.Step(p, fruit)
		next[i] = step.Player
		if step.Ate || step.Respawned {
			replace = true
		}
		if step.Respawned {
			lost = append(lost, step.Lost)
		}
	}
	r.players = next

	if replace {
		f := r.factory.SpawnFruit()
		r.fruit = &f
	}
	r.tick++

	return TickResult{Snapshot: r.snapshotLocked(), Lost: lost}, true
}

func (r *Room) startLocked() {
	r.state = StatePlaying
	r.tick = 0
	r.startedAt = time.Now()
	r.roundPlayers = len(r.players)
	fruit := r.factory.SpawnFruit()
	r.fruit = &fruit
}

// allReadyLocked is false for an empty roster.
func (r *Room) allReadyLocked() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (r *Room) indexLocked(id SessionID) int {
	for i, p := range r.players {
		if p.ID == string(id) {
			return i
		}
	}
	return -1
}

func (r *Room) snapshotLocked() RoomSnapshot {
	snap := RoomSnapshot{
		ID:        r.id,
		State:     r.state,
		Players:   snake.ClonePlayers(r.players),
		Tick:      r.tick,
		CreatedAt: r.createdAt,
	}
	if r.fruit != nil {
		fruit := *r.fruit
		snap.Fruit = &fruit
	}
	return snap
}
