package multiplayer

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// TickHandler receives the result of every room tick.
// It runs on the room's loop goroutine and must not block.
type TickHandler interface {
	HandleTick(room *Room, result TickResult)
}

// TickHandlerFunc adapts a function to TickHandler.
type TickHandlerFunc func(room *Room, result TickResult)

// HandleTick calls f.
func (f TickHandlerFunc) HandleTick(room *Room, result TickResult) {
	f(room, result)
}

type tickLoop struct {
	cancel context.CancelFunc
}

// Scheduler runs one tick loop per Playing room. A loop re-arms its timer
// only while the room is still Playing with players, and a stopped loop
// never runs another tick.
type Scheduler struct {
	interval time.Duration
	handler  TickHandler
	logger   *log.Logger

	mu     sync.Mutex
	loops  map[RoomID]*tickLoop
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler ticking every interval.
func NewScheduler(interval time.Duration, handler TickHandler, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second / 15
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		interval: interval,
		handler:  handler,
		logger:   logger,
		loops:    make(map[RoomID]*tickLoop),
	}
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start launches the room's loop. It returns false if one is already running
// or the scheduler has been shut down.
func (s *Scheduler) Start(room *Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.loops[room.ID()]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	loop := &tickLoop{cancel: cancel}
	s.loops[room.ID()] = loop

	s.wg.Add(1)
	go s.run(ctx, room, loop)
	return true
}

// Stop cancels the room's loop if it is running. It does not wait for the
// loop goroutine; a tick already in progress finishes but no further tick runs.
func (s *Scheduler) Stop(id RoomID) {
	s.mu.Lock()
	loop, ok := s.loops[id]
	if ok {
		delete(s.loops, id)
	}
	s.mu.Unlock()

	if ok {
		loop.cancel()
	}
}

// Running reports whether the room has a live loop.
func (s *Scheduler) Running(id RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loops[id]
	return ok
}

// Count returns the number of live loops.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loops)
}

// Shutdown cancels every loop and waits for them to exit. No loop can be
// started afterwards.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	for id, loop := range s.loops {
		loop.cancel()
		delete(s.loops, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, room *Room, loop *tickLoop) {
	defer s.wg.Done()
	defer s.release(room.ID(), loop)

	logger := s.logger.With("room", room.ID())
	logger.Debug("tick loop started", "interval", s.interval)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("tick loop cancelled")
			return
		case <-timer.C:
			// Cancellation that raced with the timer still wins.
			if ctx.Err() != nil {
				return
			}

			result, ok := room.Tick()
			if ok && s.handler != nil {
				s.handler.HandleTick(room, result)
			}
			if !ok || !room.IsActive() {
				logger.Debug("tick loop finished", "ticks", result.Snapshot.Tick)
				return
			}
			timer.Reset(s.interval)
		}
	}
}

// release forgets the loop unless a newer loop already replaced it.
func (s *Scheduler) release(id RoomID, loop *tickLoop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.loops[id]; ok && current == loop {
		delete(s.loops, id)
	}
}
