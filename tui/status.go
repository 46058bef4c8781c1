package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/heartweek/engine/present"
)

// maxMenuRows caps the menu panel; the rest stays reachable by typing.
const maxMenuRows = 10

// renderStatusBar produces a full-width inverted status line: day and
// time, place, wallet, hearts and score on the left, the turn on the right.
func (m Model) renderStatusBar() string {
	v := m.snap.View
	left := fmt.Sprintf(" %s | %s | %s | %d ❤ | Score %s", v.Clock.Display, v.Place, v.Koin, v.Hearts, v.Score)
	right := fmt.Sprintf("T:%d ", m.turn())

	if n := len(v.Inventory); n > 0 {
		candidate := fmt.Sprintf("Bag: %d | T:%d ", n, m.turn())
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) turn() int {
	if m.snap.Session == nil {
		return 0
	}
	return m.snap.Session.Turn
}

// menuHeight is the number of lines renderMenu produces.
func (m Model) menuHeight() int {
	rows := len(m.menu)
	if rows == 0 {
		rows = 1
	}
	if rows > maxMenuRows {
		rows = maxMenuRows + 1
	}
	return rows + 1 // top border
}

// renderMenu lists the numbered actions above the status bar.
func (m Model) renderMenu() string {
	views := present.Actions(m.menu)
	lines := make([]string, 0, maxMenuRows+1)
	for i, av := range views {
		if i == maxMenuRows {
			lines = append(lines, styleMenuCost.Render(fmt.Sprintf("     ...and %d more, type to pick", len(views)-maxMenuRows)))
			break
		}
		line := styleMenuNumber.Render(fmt.Sprintf("%d.", i+1)) + " " + av.Description
		if av.Cost != "" {
			line += " " + styleMenuCost.Render("("+av.Cost+")")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, styleMenuCost.Render("     nothing to do"))
	}
	return styleMenuBorder.Width(m.width).Render(strings.Join(lines, "\n"))
}
