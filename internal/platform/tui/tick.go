// Package tui is the terminal side of the server: a read-only dashboard of
// live rooms served over SSH, and the local leaderboard viewer.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultRefreshRate is how many times per second the dashboard re-reads
// the room registry.
const DefaultRefreshRate = 5

// TickMsg asks the dashboard to refresh its data.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(rate int) tea.Cmd {
	if rate <= 0 {
		rate = DefaultRefreshRate
	}
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
