package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/snake-rooms/internal/core"
	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
	"github.com/vovakirdan/snake-rooms/internal/storage"
)

const (
	leaderboardSize = 10
	shortIDLen      = 8
)

// RoomSource lists live rooms. *multiplayer.Registry satisfies it.
type RoomSource interface {
	List() []multiplayer.RoomSnapshot
}

// ScoreSource reads the score history. *storage.Store satisfies it.
type ScoreSource interface {
	TopScores(limit int) ([]storage.ScoreEntry, error)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// MonitorModel is the read-only room dashboard: a table of live rooms next
// to a preview of the selected one, or the leaderboard.
type MonitorModel struct {
	rooms      RoomSource
	scores     ScoreSource // nil when storage is disabled
	cfg        core.RuntimeConfig
	user       string
	rate       int
	snaps      []multiplayer.RoomSnapshot
	selected   multiplayer.RoomID
	leaders    []storage.ScoreEntry
	scoresErr  error
	ticks      int
	table      table.Model
	help       help.Model
	keys       MonitorKeyMap
	screen     *core.Screen
	width      int
	height     int
	showScores bool
	quitting   bool
}

// NewMonitorModel creates a dashboard reading from rooms and scores.
// A nil scores disables the leaderboard panel.
func NewMonitorModel(rooms RoomSource, scores ScoreSource, cfg core.RuntimeConfig, user string) MonitorModel {
	w, h := PreviewSize(cfg)
	m := MonitorModel{
		rooms:  rooms,
		scores: scores,
		cfg:    cfg,
		user:   user,
		rate:   DefaultRefreshRate,
		help:   help.New(),
		keys:   DefaultMonitorKeyMap(),
		screen: core.NewScreen(w, h),
		width:  80,
		height: 24,
	}
	m.table = m.createTable()
	m.refresh()
	return m
}

func (m *MonitorModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Room", Width: shortIDLen},
		{Title: "State", Width: 12},
		{Title: "Players", Width: 7},
		{Title: "Ready", Width: 5},
		{Title: "Tick", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// refresh re-reads the registry and keeps the cursor on the selected room.
func (m *MonitorModel) refresh() {
	m.snaps = m.rooms.List()

	rows := make([]table.Row, len(m.snaps))
	cursor := 0
	for i, snap := range m.snaps {
		ready := 0
		for _, p := range snap.Players {
			if p.Ready {
				ready++
			}
		}
		rows[i] = table.Row{
			shortID(snap.ID),
			snap.State.String(),
			fmt.Sprintf("%d", len(snap.Players)),
			fmt.Sprintf("%d", ready),
			fmt.Sprintf("%d", snap.Tick),
		}
		if snap.ID == m.selected {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
	m.syncSelection()

	if m.showScores && m.ticks%m.rate == 0 {
		m.loadScores()
	}
}

func (m *MonitorModel) syncSelection() {
	i := m.table.Cursor()
	if i >= 0 && i < len(m.snaps) {
		m.selected = m.snaps[i].ID
	} else {
		m.selected = ""
	}
}

func (m *MonitorModel) loadScores() {
	if m.scores == nil {
		m.leaders, m.scoresErr = nil, nil
		return
	}
	m.leaders, m.scoresErr = m.scores.TopScores(leaderboardSize)
}

// Selected returns the room under the cursor, if any.
func (m MonitorModel) Selected() (multiplayer.RoomSnapshot, bool) {
	for _, snap := range m.snaps {
		if snap.ID == m.selected {
			return snap, true
		}
	}
	return multiplayer.RoomSnapshot{}, false
}

// Init starts the refresh loop.
func (m MonitorModel) Init() tea.Cmd {
	return tickCmd(m.rate)
}

// Update handles messages for the dashboard.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case TickMsg:
		m.ticks++
		m.refresh()
		return m, tickCmd(m.rate)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Scores):
			m.showScores = !m.showScores
			if m.showScores {
				m.loadScores()
			}
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			m.syncSelection()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(m.height-8, 3))
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	players := 0
	for _, snap := range m.snaps {
		players += len(snap.Players)
	}
	b.WriteString(titleStyle.Render("SNAKE ROOMS"))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  %d rooms, %d players", len(m.snaps), players)))
	if m.user != "" {
		b.WriteString(subtleStyle.Render("  [" + m.user + "]"))
	}
	b.WriteString("\n\n")

	left := panelStyle.Render(m.renderRooms())
	var right string
	if m.showScores {
		right = panelStyle.Render(m.renderLeaderboard())
	} else {
		right = panelStyle.Render(m.renderPreview())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))

	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m MonitorModel) renderRooms() string {
	if len(m.snaps) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(1, 2).
			Render("No rooms yet.\nCreate one from the game client.")
	}
	return m.table.View()
}

func (m MonitorModel) renderPreview() string {
	snap, ok := m.Selected()
	if !ok {
		return subtleStyle.Render("no room selected")
	}

	DrawRoom(m.screen, snap, m.cfg)

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	for _, p := range snap.Players {
		marker := " "
		if p.Ready {
			marker = "*"
		}
		swatch := styleFor(p.Color).Render("■")
		b.WriteString(fmt.Sprintf("%s %s %-*s %4d\n", swatch, marker, m.cfg.NameMaxLength, p.Name, p.Points))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m MonitorModel) renderLeaderboard() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("HIGH SCORES"))
	b.WriteString("\n\n")

	switch {
	case m.scores == nil:
		b.WriteString(subtleStyle.Render("score history disabled"))
	case m.scoresErr != nil:
		b.WriteString(subtleStyle.Render("cannot read scores: " + m.scoresErr.Error()))
	case len(m.leaders) == 0:
		b.WriteString(subtleStyle.Render("No scores recorded yet."))
	default:
		for i, s := range m.leaders {
			b.WriteString(fmt.Sprintf("%2d. %-*s %5d  %s\n",
				i+1, m.cfg.NameMaxLength, s.PlayerName, s.Points, s.CreatedAt.Format("Jan 02 15:04")))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id multiplayer.RoomID) string {
	s := string(id)
	if len(s) > shortIDLen {
		return s[:shortIDLen]
	}
	return s
}
