package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/games/snake"
	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
	"github.com/vovakirdan/snake-rooms/internal/storage"
)

type fakeRooms struct {
	snaps []multiplayer.RoomSnapshot
}

func (f *fakeRooms) List() []multiplayer.RoomSnapshot {
	return f.snaps
}

type fakeScores struct {
	entries []storage.ScoreEntry
	stats   *storage.Stats
	err     error
	calls   int
}

func (f *fakeScores) TopScores(limit int) ([]storage.ScoreEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeScores) Stats() (*storage.Stats, error) {
	if f.stats == nil {
		return &storage.Stats{}, nil
	}
	return f.stats, nil
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func twoRooms() *fakeRooms {
	now := time.Now()
	return &fakeRooms{snaps: []multiplayer.RoomSnapshot{
		{
			ID:        "aaaaaaaa-1111",
			State:     multiplayer.StateWaitingRoom,
			Players:   []snake.Player{{ID: "p1", Name: "Ann", Color: core.ColorRed, Ready: true}},
			CreatedAt: now,
		},
		{
			ID:        "bbbbbbbb-2222",
			State:     multiplayer.StatePlaying,
			Players:   []snake.Player{{ID: "p2", Name: "Bo", Color: core.ColorBlue, Points: 7}},
			Tick:      42,
			CreatedAt: now.Add(time.Second),
		},
	}}
}

func update(t *testing.T, m MonitorModel, msg tea.Msg) (MonitorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(MonitorModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func TestMonitorListsRooms(t *testing.T) {
	m := NewMonitorModel(twoRooms(), nil, core.DefaultConfig(), "op")

	view := m.View()
	for _, want := range []string{"SNAKE ROOMS", "2 rooms, 2 players", "aaaaaaaa", "bbbbbbbb", "[op]"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}

	snap, ok := m.Selected()
	if !ok || snap.ID != "aaaaaaaa-1111" {
		t.Errorf("Expected first room selected, got %q", snap.ID)
	}
}

func TestMonitorEmpty(t *testing.T) {
	m := NewMonitorModel(&fakeRooms{}, nil, core.DefaultConfig(), "")

	if _, ok := m.Selected(); ok {
		t.Error("Expected no selection without rooms")
	}
	if !strings.Contains(m.View(), "No rooms yet") {
		t.Error("Expected empty message")
	}
}

func TestMonitorSelectionFollowsRoomAcrossRefresh(t *testing.T) {
	rooms := twoRooms()
	m := NewMonitorModel(rooms, nil, core.DefaultConfig(), "")

	m, _ = update(t, m, keyPress("down"))
	if snap, _ := m.Selected(); snap.ID != "bbbbbbbb-2222" {
		t.Fatalf("Expected second room after down, got %q", snap.ID)
	}

	// A new room sorted first must not move the cursor off the selected one.
	rooms.snaps = append([]multiplayer.RoomSnapshot{{ID: "00000000-0000", State: multiplayer.StateSelect}}, rooms.snaps...)
	m, cmd := update(t, m, TickMsg(time.Now()))
	if cmd == nil {
		t.Error("Expected tick to schedule the next refresh")
	}
	if snap, _ := m.Selected(); snap.ID != "bbbbbbbb-2222" {
		t.Errorf("Expected selection to stay on bbbbbbbb, got %q", snap.ID)
	}

	// When the selected room disappears the cursor falls back to the top.
	rooms.snaps = rooms.snaps[:1]
	m, _ = update(t, m, TickMsg(time.Now()))
	if snap, _ := m.Selected(); snap.ID != "00000000-0000" {
		t.Errorf("Expected fallback to first room, got %q", snap.ID)
	}
}

func TestMonitorPreviewShowsRoster(t *testing.T) {
	m := NewMonitorModel(twoRooms(), nil, core.DefaultConfig(), "")
	m, _ = update(t, m, keyPress("down"))

	view := m.View()
	if !strings.Contains(view, "Bo") {
		t.Errorf("Expected player name in preview:\n%s", view)
	}
}

func TestMonitorScoresPanel(t *testing.T) {
	scores := &fakeScores{entries: []storage.ScoreEntry{
		{PlayerName: "Ann", Points: 12, CreatedAt: time.Now()},
	}}
	m := NewMonitorModel(twoRooms(), scores, core.DefaultConfig(), "")

	m, _ = update(t, m, keyPress("s"))
	if scores.calls != 1 {
		t.Errorf("Expected scores to load on toggle, got %d calls", scores.calls)
	}
	view := m.View()
	if !strings.Contains(view, "HIGH SCORES") || !strings.Contains(view, "Ann") {
		t.Errorf("Expected leaderboard:\n%s", view)
	}

	m, _ = update(t, m, keyPress("s"))
	if strings.Contains(m.View(), "HIGH SCORES") {
		t.Error("Expected preview after second toggle")
	}
}

func TestMonitorScoresPanelStates(t *testing.T) {
	m := NewMonitorModel(twoRooms(), nil, core.DefaultConfig(), "")
	m, _ = update(t, m, keyPress("s"))
	if !strings.Contains(m.View(), "score history disabled") {
		t.Error("Expected disabled message without storage")
	}

	failing := &fakeScores{err: errors.New("disk gone")}
	m = NewMonitorModel(twoRooms(), failing, core.DefaultConfig(), "")
	m, _ = update(t, m, keyPress("s"))
	if !strings.Contains(m.View(), "disk gone") {
		t.Error("Expected read error in view")
	}
}

func TestMonitorQuit(t *testing.T) {
	m := NewMonitorModel(twoRooms(), nil, core.DefaultConfig(), "")

	m, cmd := update(t, m, keyPress("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("Expected empty view after quit")
	}
}
