package multiplayer

import (
	"sort"
	"sync"
	"sync/atomic"
)

// SessionHandle is the transport-neutral interface for talking to a client.
// The coordinator and the tick handler only ever see this interface.
type SessionHandle interface {
	// ID returns the unique session identifier.
	ID() SessionID

	// Send queues an event for the client. Must never block.
	Send(evt SessionEvent)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}
}

// ChannelSession is a SessionHandle backed by a bounded channel.
// The gateway's write pump drains Events. A slow reader loses queued game
// updates instead of stalling a room's tick loop; control events (rosters,
// screens, errors) are only evicted when no game update is queued.
type ChannelSession struct {
	id       SessionID
	events   chan SessionEvent
	done     chan struct{}
	doneOnce sync.Once
	sendMu   sync.Mutex // serialises evictions between senders
	dropped  atomic.Uint64
}

// NewChannelSession creates a channel-backed session.
func NewChannelSession(id SessionID, bufferSize int) *ChannelSession {
	if bufferSize < 1 {
		bufferSize = 256
	}
	return &ChannelSession{
		id:     id,
		events: make(chan SessionEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() SessionID {
	return s.id
}

// Send queues evt without blocking. When the buffer is full the oldest
// queued GameUpdateEvent is evicted, or the oldest event if there is none.
func (s *ChannelSession) Send(evt SessionEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	select {
	case s.events <- evt:
		return
	default:
	}

	s.evictLocked()
	select {
	case s.events <- evt:
	default:
		s.dropped.Add(1)
	}
}

// evictLocked removes one queued event, preferring the oldest game update.
// The rest are put back in order; the reader only ever shortens the queue,
// so they always fit.
func (s *ChannelSession) evictLocked() {
	queued := make([]SessionEvent, 0, cap(s.events))
drain:
	for {
		select {
		case e := <-s.events:
			queued = append(queued, e)
		default:
			break drain
		}
	}
	if len(queued) == 0 {
		return
	}

	victim := 0
	for i, e := range queued {
		if _, ok := e.(GameUpdateEvent); ok {
			victim = i
			break
		}
	}
	s.dropped.Add(1)

	for i, e := range queued {
		if i == victim {
			continue
		}
		s.events <- e
	}
}

// Events returns the queue the transport drains.
func (s *ChannelSession) Events() <-chan SessionEvent {
	return s.events
}

// Done returns the done channel.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Dropped returns how many events were discarded for this session.
func (s *ChannelSession) Dropped() uint64 {
	return s.dropped.Load()
}

// Close marks the session as done. Safe to call multiple times.
func (s *ChannelSession) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// SessionRegistry tracks connected sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionHandle
}

// NewSessionRegistry creates an empty session registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[SessionID]SessionHandle),
	}
}

// Register adds a session, replacing any session with the same id.
func (r *SessionRegistry) Register(session SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Unregister removes a session.
func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get retrieves a session by id.
func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SendTo delivers evt to every listed session that is still registered.
func (r *SessionRegistry) SendTo(ids []SessionID, evt SessionEvent) {
	r.mu.RLock()
	targets := make([]SessionHandle, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		s.Send(evt)
	}
}

// IDs returns the registered session ids in sorted order.
func (r *SessionRegistry) IDs() []SessionID {
	r.mu.RLock()
	ids := make([]SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
