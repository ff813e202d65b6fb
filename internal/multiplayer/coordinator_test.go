package multiplayer

import (
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/games/snake"
)

type recordingSaver struct {
	mu     sync.Mutex
	runs   []RunResultData
	rounds []RoundResultData
}

func (s *recordingSaver) SaveRunResult(r RunResultData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, r)
	return nil
}

func (s *recordingSaver) SaveRoundResult(r RoundResultData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, r)
	return nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *recordingSaver) {
	t.Helper()
	cfg := DefaultCoordinatorConfig()
	cfg.Game = testGameConfig()
	cfg.Game.TickRate = 1 // Keep ticks out of the way of event assertions.
	c := NewCoordinator(cfg, NewSessionRegistry(), quietLogger())
	saver := &recordingSaver{}
	c.SetResultSaver(saver)
	t.Cleanup(c.Stop)
	return c, saver
}

func connect(t *testing.T, c *Coordinator, id SessionID) *ChannelSession {
	t.Helper()
	s := NewChannelSession(id, 64)
	c.Sessions().Register(s)
	c.handleMessage(SessionConnectedMsg{SessionID: id})
	if _, ok := nextEvent(t, s).(GameSettingsEvent); !ok {
		t.Fatalf("Expected game settings for %s", id)
	}
	return s
}

func nextEvent(t *testing.T, s *ChannelSession) SessionEvent {
	t.Helper()
	select {
	case evt := <-s.Events():
		return evt
	case <-time.After(time.Second):
		t.Fatalf("No event for %s", s.ID())
		return nil
	}
}

func expectRoster(t *testing.T, s *ChannelSession) JoinRoomEvent {
	t.Helper()
	evt, ok := nextEvent(t, s).(JoinRoomEvent)
	if !ok {
		t.Fatalf("Expected join_room event for %s, got %T", s.ID(), evt)
	}
	return evt
}

func expectError(t *testing.T, s *ChannelSession, code string) {
	t.Helper()
	evt, ok := nextEvent(t, s).(ErrorEvent)
	if !ok {
		t.Fatalf("Expected error event for %s, got %T", s.ID(), evt)
	}
	if evt.Code != code {
		t.Errorf("Expected error code %s, got %s", code, evt.Code)
	}
}

func expectQuiet(t *testing.T, s *ChannelSession) {
	t.Helper()
	select {
	case evt := <-s.Events():
		t.Errorf("Expected no event for %s, got %T", s.ID(), evt)
	default:
	}
}

func TestCoordinatorConnectSendsSettings(t *testing.T) {
	c, _ := newTestCoordinator(t)
	s := NewChannelSession("a", 8)
	c.Sessions().Register(s)

	c.handleMessage(SessionConnectedMsg{SessionID: "a"})

	settings, ok := nextEvent(t, s).(GameSettingsEvent)
	if !ok {
		t.Fatal("Expected GameSettingsEvent")
	}
	if settings.CanvasSize != 500 || settings.CellSize != 25 || settings.PlayerNameMaxLength != 12 {
		t.Errorf("Unexpected settings: %+v", settings)
	}
	if len(settings.Colors) != 5 {
		t.Errorf("Expected 5 palette colours, got %d", len(settings.Colors))
	}
}

func TestCoordinatorInitSelectScreen(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")
	b := connect(t, c, "b")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "alice", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID

	c.handleMessage(InitSelectScreenMsg{SessionID: "b", RoomID: roomID})
	evt, ok := nextEvent(t, b).(SelectScreenEvent)
	if !ok || evt.State != StateSelect || evt.RoomID != roomID {
		t.Errorf("Expected select screen with linked room, got %+v", evt)
	}

	c.handleMessage(InitSelectScreenMsg{SessionID: "b", RoomID: "missing"})
	evt, ok = nextEvent(t, b).(SelectScreenEvent)
	if !ok || evt.RoomID != "" {
		t.Errorf("Expected unknown room link to be dropped, got %+v", evt)
	}
}

func TestCoordinatorCreateAndJoinBroadcastRoster(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")
	b := connect(t, c, "b")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "alice", Color: core.ColorRed})
	created := expectRoster(t, a)
	if created.State != StateWaitingRoom || len(created.Players) != 1 {
		t.Fatalf("Unexpected create roster: %+v", created)
	}
	if created.Players[0].Name != "Alice" {
		t.Errorf("Expected normalised name Alice, got %q", created.Players[0].Name)
	}
	expectQuiet(t, b)

	c.handleMessage(JoinRoomMsg{SessionID: "b", RoomID: created.RoomID, Name: "bob", Color: core.ColorBlue})
	for _, s := range []*ChannelSession{a, b} {
		roster := expectRoster(t, s)
		if len(roster.Players) != 2 || roster.Players[0].ID != "a" || roster.Players[1].ID != "b" {
			t.Errorf("Unexpected roster for %s: %+v", s.ID(), roster.Players)
		}
	}
}

func TestCoordinatorRejections(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")
	b := connect(t, c, "b")

	c.handleMessage(JoinRoomMsg{SessionID: "a", RoomID: "missing", Name: "a", Color: core.ColorRed})
	expectError(t, a, "room_not_found")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: "#abcdef"})
	expectError(t, a, "invalid_color")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	expectError(t, a, "already_in_room")

	c.handleMessage(PlayerReadyMsg{SessionID: "b"})
	expectError(t, b, "not_in_room")

	c.handleMessage(PlayerReadyMsg{SessionID: "a", RoomID: roomID})
	expectRoster(t, a)
	c.handleMessage(JoinRoomMsg{SessionID: "b", RoomID: roomID, Name: "b", Color: core.ColorBlue})
	expectError(t, b, "room_already_playing")
}

func TestCoordinatorReadyStartsRoom(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")
	b := connect(t, c, "b")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID
	c.handleMessage(JoinRoomMsg{SessionID: "b", RoomID: roomID, Name: "b", Color: core.ColorGreen})
	expectRoster(t, a)
	expectRoster(t, b)

	c.handleMessage(PlayerReadyMsg{SessionID: "a"})
	if evt := expectRoster(t, b); evt.State != StateWaitingRoom || !evt.Players[0].Ready {
		t.Errorf("Expected a ready in WaitingRoom, got %+v", evt)
	}
	expectRoster(t, a)
	if c.Scheduler().Running(roomID) {
		t.Error("Expected no tick loop before everyone is ready")
	}

	c.handleMessage(PlayerReadyMsg{SessionID: "b"})
	if evt := expectRoster(t, a); evt.State != StatePlaying {
		t.Errorf("Expected Playing, got %s", evt.State)
	}
	if !c.Scheduler().Running(roomID) {
		t.Error("Expected a tick loop once the room plays")
	}
}

func TestCoordinatorDirectionUpdate(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID
	c.handleMessage(PlayerReadyMsg{SessionID: "a"})
	expectRoster(t, a)

	room, _ := c.Rooms().Get(roomID)
	current := room.Snapshot().Players[0].Direction
	side := core.Directions[(int(current)+1)%len(core.Directions)]
	keys := map[core.Direction]string{
		core.DirUp:    "w",
		core.DirRight: "ArrowRight",
		core.DirDown:  "s",
		core.DirLeft:  "A",
	}

	c.handleMessage(DirectionUpdateMsg{SessionID: "a", PlayerID: "a", KeyDown: keys[side]})
	if got := room.Snapshot().Players[0].Direction; got != side {
		t.Errorf("Expected direction %v, got %v", side, got)
	}

	c.handleMessage(DirectionUpdateMsg{SessionID: "a", KeyDown: keys[side.Opposite()]})
	if got := room.Snapshot().Players[0].Direction; got != side {
		t.Errorf("Expected reversal to be ignored, got %v", got)
	}

	c.handleMessage(DirectionUpdateMsg{SessionID: "a", KeyDown: "Space"})
	expectQuiet(t, a)
}

func TestCoordinatorExitGameEmptiesRoom(t *testing.T) {
	c, saver := newTestCoordinator(t)
	a := connect(t, c, "a")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID
	c.handleMessage(PlayerReadyMsg{SessionID: "a"})
	expectRoster(t, a)

	c.handleMessage(ExitGameMsg{SessionID: "a"})
	if evt, ok := nextEvent(t, a).(SelectScreenEvent); !ok || evt.State != StateSelect {
		t.Errorf("Expected select screen after exit, got %+v", evt)
	}
	if c.Scheduler().Running(roomID) {
		t.Error("Expected tick loop stopped for empty room")
	}
	room, ok := c.Rooms().Get(roomID)
	if !ok || room.State() != StateSelect {
		t.Error("Expected idle room to remain registered")
	}

	c.Stop()
	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.rounds) != 1 || saver.rounds[0].RoomID != string(roomID) || saver.rounds[0].EndReason != ReasonEmptied {
		t.Errorf("Expected one recorded round, got %+v", saver.rounds)
	}
}

func TestCoordinatorDisconnectLeavesRoom(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")
	connect(t, c, "b")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID
	c.handleMessage(JoinRoomMsg{SessionID: "b", RoomID: roomID, Name: "b", Color: core.ColorGreen})
	expectRoster(t, a)

	c.handleMessage(SessionDisconnectedMsg{SessionID: "b"})

	roster := expectRoster(t, a)
	if len(roster.Players) != 1 || roster.Players[0].ID != "a" {
		t.Errorf("Expected only a left in roster, got %+v", roster.Players)
	}
	if _, ok := c.Sessions().Get("b"); ok {
		t.Error("Expected b unregistered")
	}
	if _, ok := c.Rooms().ResolveRoom("b"); ok {
		t.Error("Expected b removed from its room")
	}
}

func TestCoordinatorDisconnectStartsReadyRemainder(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")
	b := connect(t, c, "b")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID
	c.handleMessage(JoinRoomMsg{SessionID: "b", RoomID: roomID, Name: "b", Color: core.ColorGreen})
	expectRoster(t, a)
	expectRoster(t, b)
	c.handleMessage(PlayerReadyMsg{SessionID: "a"})
	expectRoster(t, a)

	c.handleMessage(SessionDisconnectedMsg{SessionID: "b"})

	if evt := expectRoster(t, a); evt.State != StatePlaying {
		t.Errorf("Expected remaining ready player to start, got %s", evt.State)
	}
	if !c.Scheduler().Running(roomID) {
		t.Error("Expected tick loop to start")
	}
}

func TestCoordinatorHandleTick(t *testing.T) {
	c, saver := newTestCoordinator(t)
	a := connect(t, c, "a")
	outsider := connect(t, c, "x")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID
	room, _ := c.Rooms().Get(roomID)

	snap := room.Snapshot()
	snap.State = StatePlaying
	snap.Tick = 7
	c.HandleTick(room, TickResult{
		Snapshot: snap,
		Lost: []snake.Player{
			{Name: "A", Points: 3},
			{Name: "A", Points: 0},
		},
	})

	update, ok := nextEvent(t, a).(GameUpdateEvent)
	if !ok {
		t.Fatal("Expected game_update")
	}
	if update.Tick != 7 || update.State != StatePlaying || len(update.Players) != 1 {
		t.Errorf("Unexpected update: %+v", update)
	}
	expectQuiet(t, outsider)

	c.Stop()
	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.runs) != 1 || saver.runs[0].Points != 3 || saver.runs[0].Reason != ReasonCollision {
		t.Errorf("Expected one collision run recorded, got %+v", saver.runs)
	}
}

func TestCoordinatorCleanupIdleRooms(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.config.IdleTimeout = 0
	a := connect(t, c, "a")

	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "a", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID
	c.handleMessage(ExitGameMsg{SessionID: "a"})

	c.cleanupIdleRooms()
	if _, ok := c.Rooms().Get(roomID); ok {
		t.Error("Expected idle room to be removed")
	}
}

func TestCoordinatorStartStop(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Start()

	s := NewChannelSession("a", 8)
	c.Sessions().Register(s)
	c.Send(SessionConnectedMsg{SessionID: "a"})

	if _, ok := nextEvent(t, s).(GameSettingsEvent); !ok {
		t.Error("Expected settings through the message loop")
	}
	c.Stop()
	// Sends after Stop must not block.
	c.Send(SessionConnectedMsg{SessionID: "a"})
}

func TestCoordinatorStopLeavesNoTickLoop(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := connect(t, c, "a")
	c.handleMessage(CreateRoomMsg{SessionID: "a", Name: "alice", Color: core.ColorRed})
	roomID := expectRoster(t, a).RoomID

	c.Start()
	// The ready message may still be queued when Stop closes the loop.
	c.Send(PlayerReadyMsg{SessionID: "a", PlayerID: "a", RoomID: roomID})
	c.Stop()

	if n := c.Scheduler().Count(); n != 0 {
		t.Fatalf("Expected no tick loops after Stop, got %d", n)
	}
	room, ok := c.Rooms().Get(roomID)
	if !ok {
		t.Fatal("Expected room to survive Stop")
	}
	if c.Scheduler().Start(room) {
		t.Error("Expected scheduler to refuse loops after Stop")
	}
}
