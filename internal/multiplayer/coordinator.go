package multiplayer

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snake-rooms/internal/core"
)

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	Game          core.RuntimeConfig
	IdleTimeout   time.Duration // How long an empty room stays joinable
	CleanupPeriod time.Duration // How often idle rooms are swept
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Game:          core.DefaultConfig(),
		IdleTimeout:   2 * time.Minute,
		CleanupPeriod: 30 * time.Second,
	}
}

// Run end reasons recorded with scores.
const (
	ReasonCollision  = "collision"
	ReasonLeft       = "left"
	ReasonDisconnect = "disconnect"
	ReasonEmptied    = "emptied"
)

// ResultSaver persists finished runs and rounds.
// This lets the coordinator record history without depending on storage.
type ResultSaver interface {
	SaveRunResult(result RunResultData) error
	SaveRoundResult(result RoundResultData) error
}

// RunResultData is one snake's run, recorded when it ends.
type RunResultData struct {
	PlayerName string
	RoomID     string
	Points     int
	Reason     string
}

// RoundResultData is one Playing session of a room.
type RoundResultData struct {
	RoomID       string
	Players      int
	Ticks        uint64
	DurationSecs int
	EndReason    string
}

// Coordinator applies client events to rooms. Events are handled one at a
// time on a single goroutine; ticks arrive concurrently through HandleTick.
type Coordinator struct {
	config      CoordinatorConfig
	sessions    *SessionRegistry
	rooms       *Registry
	scheduler   *Scheduler
	resultSaver ResultSaver // Optional, can be nil
	logger      *log.Logger

	msgChan  chan CoordinatorMessage
	done     chan struct{}
	stopOnce sync.Once
	loops    sync.WaitGroup // processMessages and cleanupLoop
	wg       sync.WaitGroup // result saves
}

// NewCoordinator creates a coordinator with its own room registry and scheduler.
func NewCoordinator(cfg CoordinatorConfig, sessions *SessionRegistry, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = DefaultCoordinatorConfig().CleanupPeriod
	}
	c := &Coordinator{
		config:   cfg,
		sessions: sessions,
		rooms:    NewRegistry(cfg.Game),
		logger:   logger,
		msgChan:  make(chan CoordinatorMessage, 256),
		done:     make(chan struct{}),
	}
	c.scheduler = NewScheduler(cfg.Game.TickInterval(), c, logger.WithPrefix("ticker"))
	return c
}

// SetResultSaver sets the optional result saver.
func (c *Coordinator) SetResultSaver(saver ResultSaver) {
	c.resultSaver = saver
}

// Rooms returns the room registry.
func (c *Coordinator) Rooms() *Registry {
	return c.rooms
}

// Scheduler returns the tick scheduler.
func (c *Coordinator) Scheduler() *Scheduler {
	return c.scheduler
}

// Sessions returns the session registry.
func (c *Coordinator) Sessions() *SessionRegistry {
	return c.sessions
}

// Settings returns the game settings sent to every new session.
func (c *Coordinator) Settings() GameSettingsEvent {
	g := c.config.Game
	return GameSettingsEvent{
		CanvasSize:          g.CanvasSize,
		CellSize:            g.CellSize,
		Colors:              g.Palette,
		PlayerNameMaxLength: g.NameMaxLength,
		TickRate:            g.TickRate,
	}
}

// Start begins the coordinator's background processing.
func (c *Coordinator) Start() {
	c.loops.Add(2)
	go c.processMessages()
	go c.cleanupLoop()
}

// Stop shuts down message processing and every tick loop.
// The message loop exits before the scheduler shuts down, so a handler still
// in flight cannot arm a loop behind it.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	c.loops.Wait()
	c.scheduler.Shutdown()
	c.wg.Wait()
}

// Send queues a message for the coordinator goroutine.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) processMessages() {
	defer c.loops.Done()
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg CoordinatorMessage) {
	switch m := msg.(type) {
	case SessionConnectedMsg:
		c.handleConnected(m)
	case InitSelectScreenMsg:
		c.handleInitSelectScreen(m)
	case CreateRoomMsg:
		c.handleCreateRoom(m)
	case JoinRoomMsg:
		c.handleJoinRoom(m)
	case PlayerReadyMsg:
		c.handlePlayerReady(m)
	case DirectionUpdateMsg:
		c.handleDirectionUpdate(m)
	case ExitGameMsg:
		c.handleExitGame(m)
	case SessionDisconnectedMsg:
		c.handleSessionDisconnected(m)
	default:
		c.logger.Warn("unhandled coordinator message", "type", fmt.Sprintf("%T", msg))
	}
}

func (c *Coordinator) handleConnected(msg SessionConnectedMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}
	c.logger.Info("session connected", "session", msg.SessionID, "sessions", c.sessions.Count())
	session.Send(c.Settings())
}

func (c *Coordinator) handleInitSelectScreen(msg InitSelectScreenMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}
	evt := SelectScreenEvent{State: StateSelect}
	if msg.RoomID != "" {
		if _, exists := c.rooms.Get(msg.RoomID); exists {
			evt.RoomID = msg.RoomID
		}
	}
	session.Send(evt)
}

func (c *Coordinator) handleCreateRoom(msg CreateRoomMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	room, snap, err := c.rooms.CreateRoom(JoinInput{ClientID: msg.SessionID, Name: msg.Name, Color: msg.Color})
	if err != nil {
		c.reject(session, "create_room", err)
		return
	}

	c.logger.Info("room created", "room", room.ID(), "session", msg.SessionID, "rooms", c.rooms.Count())
	c.broadcastRoster(snap)
}

func (c *Coordinator) handleJoinRoom(msg JoinRoomMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	room, snap, err := c.rooms.JoinRoom(msg.RoomID, JoinInput{ClientID: msg.SessionID, Name: msg.Name, Color: msg.Color})
	if err != nil {
		c.reject(session, "join_room", err)
		return
	}

	c.logger.Info("player joined", "room", room.ID(), "session", msg.SessionID, "players", len(snap.Players))
	c.broadcastRoster(snap)
}

func (c *Coordinator) handlePlayerReady(msg PlayerReadyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}
	room, ok := c.rooms.ResolveRoom(msg.SessionID)
	if !ok {
		c.reject(session, "player_ready", ErrNotInRoom)
		return
	}
	if msg.RoomID != "" && msg.RoomID != room.ID() {
		c.logger.Debug("ready for a room the session is not in", "session", msg.SessionID, "claimed", msg.RoomID, "room", room.ID())
	}

	res, err := room.ToggleReady(msg.SessionID)
	if err != nil {
		c.reject(session, "player_ready", err)
		return
	}

	c.broadcastRoster(res.Snapshot)
	if res.Started {
		c.startRoom(room, res.Snapshot)
	}
}

func (c *Coordinator) handleDirectionUpdate(msg DirectionUpdateMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}
	dir, err := core.ParseKey(msg.KeyDown)
	if err != nil {
		c.logger.Warn("ignoring key", "session", msg.SessionID, "err", err)
		return
	}
	room, ok := c.rooms.ResolveRoom(msg.SessionID)
	if !ok {
		c.reject(session, "direction_update", ErrNotInRoom)
		return
	}
	if msg.PlayerID != "" && msg.PlayerID != string(msg.SessionID) {
		c.logger.Debug("direction for another player ignored", "session", msg.SessionID, "player", msg.PlayerID)
		return
	}

	// Refused reversals and updates outside of play are silently dropped.
	if _, err := room.Turn(msg.SessionID, dir); err != nil {
		c.logger.Debug("turn rejected", "session", msg.SessionID, "err", err)
	}
}

func (c *Coordinator) handleExitGame(msg ExitGameMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}
	if _, inRoom := c.rooms.ResolveRoom(msg.SessionID); inRoom {
		c.leave(msg.SessionID, ReasonLeft)
	}
	session.Send(SelectScreenEvent{State: StateSelect})
}

func (c *Coordinator) handleSessionDisconnected(msg SessionDisconnectedMsg) {
	if _, inRoom := c.rooms.ResolveRoom(msg.SessionID); inRoom {
		c.leave(msg.SessionID, ReasonDisconnect)
	}
	c.sessions.Unregister(msg.SessionID)
	c.logger.Info("session disconnected", "session", msg.SessionID, "sessions", c.sessions.Count())
}

// leave removes a seated client and settles what that means for its room.
func (c *Coordinator) leave(id SessionID, reason string) {
	room, res, err := c.rooms.LeaveRoom(id)
	if err != nil {
		c.logger.Debug("leave failed", "session", id, "err", err)
		return
	}

	c.logger.Info("player left", "room", room.ID(), "session", id, "reason", reason, "players", len(res.Snapshot.Players))
	if res.Player.Points > 0 {
		c.saveRun(RunResultData{
			PlayerName: res.Player.Name,
			RoomID:     string(room.ID()),
			Points:     res.Player.Points,
			Reason:     reason,
		})
	}

	switch {
	case res.Emptied:
		c.scheduler.Stop(room.ID())
		if res.Round != nil {
			c.saveRound(*res.Round)
		}
	case res.Started:
		c.broadcastRoster(res.Snapshot)
		c.startRoom(room, res.Snapshot)
	case res.Snapshot.State != StatePlaying:
		c.broadcastRoster(res.Snapshot)
	}
}

func (c *Coordinator) startRoom(room *Room, snap RoomSnapshot) {
	if c.scheduler.Start(room) {
		c.logger.Info("room playing", "room", room.ID(), "players", len(snap.Players))
	}
}

// HandleTick broadcasts the new frame and records runs lost to collisions.
func (c *Coordinator) HandleTick(room *Room, result TickResult) {
	snap := result.Snapshot
	c.sessions.SendTo(playerIDs(snap), GameUpdateEvent{
		State:   snap.State,
		Players: snap.Players,
		Fruit:   snap.Fruit,
		Tick:    snap.Tick,
	})

	for _, lost := range result.Lost {
		if lost.Points == 0 {
			continue
		}
		c.saveRun(RunResultData{
			PlayerName: lost.Name,
			RoomID:     string(room.ID()),
			Points:     lost.Points,
			Reason:     ReasonCollision,
		})
	}
}

func (c *Coordinator) broadcastRoster(snap RoomSnapshot) {
	c.sessions.SendTo(playerIDs(snap), JoinRoomEvent{
		State:   snap.State,
		RoomID:  snap.ID,
		Players: snap.Players,
	})
}

func (c *Coordinator) reject(session SessionHandle, event string, err error) {
	c.logger.Debug("request rejected", "session", session.ID(), "event", event, "err", err)
	session.Send(NewErrorEvent(err))
}

func (c *Coordinator) saveRun(data RunResultData) {
	if c.resultSaver == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.resultSaver.SaveRunResult(data); err != nil {
			c.logger.Warn("save run failed", "room", data.RoomID, "err", err)
		}
	}()
}

func (c *Coordinator) saveRound(round RoundSummary) {
	if c.resultSaver == nil {
		return
	}
	data := RoundResultData{
		RoomID:       string(round.RoomID),
		Players:      round.Players,
		Ticks:        round.Ticks,
		DurationSecs: int(round.Duration / time.Second),
		EndReason:    ReasonEmptied,
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.resultSaver.SaveRoundResult(data); err != nil {
			c.logger.Warn("save round failed", "room", data.RoomID, "err", err)
		}
	}()
}

func (c *Coordinator) cleanupLoop() {
	defer c.loops.Done()
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupIdleRooms()
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) cleanupIdleRooms() {
	for _, id := range c.rooms.RemoveIdle(c.config.IdleTimeout) {
		c.scheduler.Stop(id)
		c.logger.Info("idle room removed", "room", id)
	}
}

func playerIDs(snap RoomSnapshot) []SessionID {
	ids := make([]SessionID, len(snap.Players))
	for i, p := range snap.Players {
		ids[i] = SessionID(p.ID)
	}
	return ids
}
