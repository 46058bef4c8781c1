package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleHearts = lipgloss.NewStyle().
			Foreground(lipgloss.Color("204"))

	styleUnlock = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleMorning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleMenuBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("238"))

	styleMenuNumber = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(4).
			Align(lipgloss.Right)

	styleMenuCost = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindDialogue
	kindHearts
	kindUnlock
	kindMorning
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "🏆"):
		return kindUnlock
	case strings.HasPrefix(line, "Good morning"),
		strings.HasPrefix(line, "The week is over"),
		strings.HasPrefix(line, "Final score"):
		return kindMorning
	case strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "That action isn't"),
		strings.Contains(line, "is full"),
		strings.HasPrefix(line, "You passed out"):
		return kindError
	case strings.Contains(line, "❤"):
		return kindHearts
	case isDialogue(line):
		return kindDialogue
	default:
		return kindNarration
	}
}

// isDialogue matches `Name: "words"` lines.
func isDialogue(line string) bool {
	name, rest, ok := strings.Cut(line, `: "`)
	return ok && name != "" && !strings.Contains(name, " ") && strings.HasSuffix(rest, `"`)
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindHearts:
		return styleHearts.Render(line)
	case kindUnlock:
		return styleUnlock.Render(line)
	case kindMorning:
		return styleMorning.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
