package multiplayer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/snake-rooms/internal/core"
)

// Registry owns every room and the client-to-room index.
// Lock order is registry before room; rooms never call back into the registry.
type Registry struct {
	cfg   core.RuntimeConfig
	newID func() RoomID

	mu         sync.RWMutex
	rooms      map[RoomID]*Room
	clientRoom map[SessionID]RoomID
}

// NewRegistry creates an empty registry whose rooms simulate with cfg.
func NewRegistry(cfg core.RuntimeConfig) *Registry {
	return &Registry{
		cfg:        cfg,
		newID:      func() RoomID { return RoomID(uuid.NewString()) },
		rooms:      make(map[RoomID]*Room),
		clientRoom: make(map[SessionID]RoomID),
	}
}

// CreateRoom makes a new room with the client as its first player.
// Nothing is registered if the join is rejected.
func (r *Registry) CreateRoom(in JoinInput) (*Room, RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clientRoom[in.ClientID]; ok {
		return nil, RoomSnapshot{}, fmt.Errorf("create room: %w", ErrAlreadyInRoom)
	}

	id := r.uniqueIDLocked()
	room := NewRoom(id, r.cfg)
	snap, err := room.Join(in)
	if err != nil {
		return nil, RoomSnapshot{}, err
	}

	r.rooms[id] = room
	r.clientRoom[in.ClientID] = id
	return room, snap, nil
}

// JoinRoom adds the client to an existing room.
func (r *Registry) JoinRoom(id RoomID, in JoinInput) (*Room, RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clientRoom[in.ClientID]; ok {
		return nil, RoomSnapshot{}, fmt.Errorf("join room %s: %w", id, ErrAlreadyInRoom)
	}
	room, ok := r.rooms[id]
	if !ok {
		return nil, RoomSnapshot{}, fmt.Errorf("join room %s: %w", id, ErrRoomNotFound)
	}

	snap, err := room.Join(in)
	if err != nil {
		return nil, RoomSnapshot{}, err
	}
	r.clientRoom[in.ClientID] = id
	return room, snap, nil
}

// LeaveRoom removes the client from whatever room it is in.
func (r *Registry) LeaveRoom(client SessionID) (*Room, LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.clientRoom[client]
	if !ok {
		return nil, LeaveResult{}, fmt.Errorf("leave: %w", ErrNotInRoom)
	}
	delete(r.clientRoom, client)

	room, ok := r.rooms[id]
	if !ok {
		return nil, LeaveResult{}, fmt.Errorf("leave %s: %w", id, ErrRoomNotFound)
	}
	res, err := room.Leave(client)
	if err != nil {
		return nil, LeaveResult{}, err
	}
	return room, res, nil
}

// ResolveRoom returns the room the client is in.
func (r *Registry) ResolveRoom(client SessionID) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.clientRoom[client]
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[id]
	return room, ok
}

// Get returns a room by id.
func (r *Registry) Get(id RoomID) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Count returns the number of rooms, idle ones included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ClientCount returns how many clients are seated in a room.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clientRoom)
}

// List returns snapshots of every room, oldest first.
func (r *Registry) List() []RoomSnapshot {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	snaps := make([]RoomSnapshot, len(rooms))
	for i, room := range rooms {
		snaps[i] = room.Snapshot()
	}
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].ID < snaps[j].ID
	})
	return snaps
}

// RemoveIdle deletes rooms that have been empty for at least olderThan and
// returns their ids.
func (r *Registry) RemoveIdle(olderThan time.Duration) []RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []RoomID
	now := time.Now()
	for id, room := range r.rooms {
		since, idle := room.IdleSince()
		if !idle || now.Sub(since) < olderThan {
			continue
		}
		delete(r.rooms, id)
		removed = append(removed, id)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}

func (r *Registry) uniqueIDLocked() RoomID {
	for {
		id := r.newID()
		if _, exists := r.rooms[id]; !exists {
			return id
		}
	}
}
