package terminal

import (
	"fmt"
	"strings"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/caiinstall/caictl/internal/services"
	tea "github.com/charmbracelet/bubbletea"
)

// firstFrameDelay covers two ticks of the default 60 fps renderer.
// The initial view is queued before commands start, and the renderer flushes it on its next tick.
const firstFrameDelay = 50 * time.Millisecond

// renderedMsg arrives once the first frame of the picker is on screen
type renderedMsg struct{}

// pickerModel lets the user choose one of the candidate sources
type pickerModel struct {
	sel        *services.Selection
	candidates []models.SourceCandidate
	cursor     int
	ready      bool
	chosen     int
	cancelled  bool
}

func newPickerModel(sel *services.Selection) pickerModel {
	return pickerModel{
		sel:        sel,
		candidates: sel.Candidates(),
		chosen:     -1,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return tea.Tick(firstFrameDelay, func(time.Time) tea.Msg {
		return renderedMsg{}
	})
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderedMsg:
		if m.ready {
			return m, nil
		}
		m.sel.MarkReady()
		m.ready = true
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		}
		if !m.ready {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		default:
			// digits pick a candidate directly
			var n int
			if _, err := fmt.Sscanf(msg.String(), "%d", &n); err == nil && n >= 1 && n <= len(m.candidates) {
				m.cursor = n - 1
				m.chosen = m.cursor
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d sources can serve this task, choose one:", len(m.candidates))))
	b.WriteString("\n\n")

	for i, c := range m.candidates {
		updated := c.LastUpdated
		if t, ok := c.UpdatedAt(); ok {
			updated = t.Format("2006-01-02")
		}
		line := fmt.Sprintf("%d. %s  %s", i+1, c.RepositoryID, mutedStyle.Render(updated))
		switch {
		case !m.ready:
			b.WriteString("  " + disabledStyle.Render(line))
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("↑/↓ move • enter confirm • esc cancel"))
	b.WriteString("\n")
	return b.String()
}
