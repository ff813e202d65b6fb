package multiplayer

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestSchedulerTicksPlayingRoom(t *testing.T) {
	room := startedRoom(t, "a")
	var ticks atomic.Int64
	s := NewScheduler(2*time.Millisecond, TickHandlerFunc(func(r *Room, res TickResult) {
		if r != room {
			t.Errorf("Handler called with unexpected room %s", r.ID())
		}
		ticks.Add(1)
	}), quietLogger())
	defer s.Shutdown()

	if !s.Start(room) {
		t.Fatal("Expected Start to launch a loop")
	}
	if s.Start(room) {
		t.Error("Expected second Start to be refused")
	}
	if !s.Running(room.ID()) || s.Count() != 1 {
		t.Error("Expected one running loop")
	}

	waitFor(t, "three ticks", func() bool { return ticks.Load() >= 3 })

	s.Stop(room.ID())
	if s.Running(room.ID()) {
		t.Error("Expected loop to be forgotten after Stop")
	}

	// A tick already in flight may still land; after that the count is frozen.
	time.Sleep(20 * time.Millisecond)
	settled := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if got := ticks.Load(); got != settled {
		t.Errorf("Expected no ticks after Stop, went from %d to %d", settled, got)
	}
}

func TestSchedulerStopsWhenRoomEmpties(t *testing.T) {
	room := startedRoom(t, "a")
	s := NewScheduler(2*time.Millisecond, nil, quietLogger())
	defer s.Shutdown()

	s.Start(room)
	if _, err := room.Leave("a"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "loop to exit", func() bool { return !s.Running(room.ID()) })
}

func TestSchedulerRestartAfterStop(t *testing.T) {
	room := startedRoom(t, "a")
	var ticks atomic.Int64
	s := NewScheduler(2*time.Millisecond, TickHandlerFunc(func(*Room, TickResult) {
		ticks.Add(1)
	}), quietLogger())
	defer s.Shutdown()

	s.Start(room)
	s.Stop(room.ID())
	if !s.Start(room) {
		t.Fatal("Expected Start after Stop to launch a fresh loop")
	}

	waitFor(t, "ticks from the new loop", func() bool { return ticks.Load() >= 2 })
	if !s.Running(room.ID()) {
		t.Error("Expected the fresh loop to stay registered")
	}
}

func TestSchedulerShutdown(t *testing.T) {
	a := startedRoom(t, "a")
	b := NewRoom("other", testGameConfig())
	join(t, b, "b", "#cc0000")
	if _, err := b.ToggleReady("b"); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(time.Hour, nil, quietLogger())
	s.Start(a)
	s.Start(b)

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
	if s.Count() != 0 {
		t.Errorf("Expected no loops after Shutdown, got %d", s.Count())
	}
}

func TestSchedulerRefusesStartAfterShutdown(t *testing.T) {
	room := startedRoom(t, "a")
	var ticks atomic.Int64
	s := NewScheduler(2*time.Millisecond, TickHandlerFunc(func(*Room, TickResult) {
		ticks.Add(1)
	}), quietLogger())

	s.Shutdown()

	if s.Start(room) {
		t.Error("Expected Start after Shutdown to be refused")
	}
	time.Sleep(30 * time.Millisecond)
	if s.Running(room.ID()) || s.Count() != 0 {
		t.Error("Expected no loop after Shutdown")
	}
	if got := ticks.Load(); got != 0 {
		t.Errorf("Expected no ticks after Shutdown, got %d", got)
	}
}
