package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/parser"
	"github.com/nathoo/heartweek/engine/present"
	"github.com/nathoo/heartweek/engine/resolve"
	"github.com/nathoo/heartweek/service"
)

// SaveExt is the extension of save files.
const SaveExt = ".hwk"

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

type keyMap struct {
	Quit     key.Binding
	Submit   key.Binding
	Older    key.Binding
	Newer    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("ctrl+c")),
	Submit:   key.NewBinding(key.WithKeys("enter")),
	Older:    key.NewBinding(key.WithKeys("up")),
	Newer:    key.NewBinding(key.WithKeys("down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup")),
	PageDown: key.NewBinding(key.WithKeys("pgdown")),
}

// Model is the Bubble Tea model for the heartweek TUI.
type Model struct {
	ctx    context.Context
	svc    *service.Service
	heroID string

	snap service.Snapshot
	menu []actions.Action

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated log lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	saveDir  string
	err      error // fatal service error; the program quits after showing it
}

// gameOutputMsg carries output lines into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model playing as heroID.
func New(ctx context.Context, svc *service.Service, heroID string) (Model, error) {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "number, action or /help"
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	m := Model{
		ctx:     ctx,
		svc:     svc,
		heroID:  heroID,
		input:   ti,
		history: NewHistory(100),
		saveDir: filepath.Join(home, ".heartweek", "saves"),
	}
	if err := m.refresh(); err != nil {
		return m, err
	}
	return m, nil
}

// Run starts the Bubble Tea program.
func Run(ctx context.Context, svc *service.Service, heroID string) error {
	m, err := New(ctx, svc, heroID)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// refresh reloads the snapshot and menu from the service.
func (m *Model) refresh() error {
	snap, err := m.svc.View(m.ctx, m.heroID)
	if err != nil {
		return err
	}
	menu, err := m.svc.Menu(m.ctx, m.heroID)
	if err != nil {
		return err
	}
	m.snap, m.menu = snap, menu
	m.resize()
	return nil
}

// Init returns the initial command that produces the title and intro.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	defs := m.svc.Defs
	turn := m.turn()
	messages := m.snap.View.Messages
	return func() tea.Msg {
		lines := []string{defs.Game.Title + " v" + defs.Game.Version + " by " + defs.Game.Author, ""}
		if turn == 0 && defs.Game.Intro != "" {
			lines = append(lines, defs.Game.Intro, "")
		} else if n := len(messages); n > 0 {
			// Resumed week: replay the tail of the log.
			start := n - 5
			if start < 0 {
				start = 0
			}
			lines = append(lines, messages[start:]...)
		}
		return gameOutputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.width, 1)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		}
		m.resize()
		m.refreshViewport()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Submit):
			return m.handleEnter()

		case key.Matches(msg, keys.Older):
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Newer):
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
			}
			return m, nil

		case key.Matches(msg, keys.PageUp, keys.PageDown):
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	return m, inputCmd
}

// resize fits the log viewport around the menu, status bar and input.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	h := m.height - 2 - m.menuHeight() // status bar + input line
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if line == "" {
		return m, nil
	}

	lower := strings.ToLower(line)
	if lower == "again" || lower == "g" {
		last, ok := m.history.Last()
		if !ok {
			m = m.appendOutput(gameOutputMsg{input: line, lines: []string{"Nothing to repeat."}, isSystem: true})
			return m, nil
		}
		line = last
	}
	m.history.Push(line)

	in := parser.Parse(line)
	if in.Kind == parser.Meta {
		output, quit := m.handleMeta(in)
		m = m.appendOutput(gameOutputMsg{input: line, lines: output, isSystem: true})
		if quit || m.err != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	output := m.play(in)
	m = m.appendOutput(gameOutputMsg{input: line, lines: output})
	if m.err != nil {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// play resolves the input against the menu and takes the turn.
func (m *Model) play(in parser.Input) []string {
	a, err := resolve.Resolve(in, m.menu)
	if err != nil {
		var amb *resolve.AmbiguityError
		if errors.As(err, &amb) {
			return []string{"[" + capitalize(amb.Error()) + "]"}
		}
		return []string{capitalize(err.Error()) + "."}
	}

	res, err := m.svc.Turn(m.ctx, m.heroID, a.Digest)
	if err != nil {
		m.err = err
		return []string{fmt.Sprintf("[Error: %v]", err)}
	}
	output := append([]string{}, res.Messages...)
	if m.trace {
		output = append(output, fmt.Sprintf("[trace] %s %s changed: %s", a.Kind, a.Digest, strings.Join(res.Changed, ", ")))
	}
	if res.GameOver {
		output = append(output, "", "A new week begins.")
	}
	if err := m.refresh(); err != nil {
		m.err = err
	}
	return output
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}
	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.width
	if width < 10 {
		width = 10
	}

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wLen := len([]rune(word))
		switch {
		case i == 0:
			lineLen = wLen
		case lineLen+1+wLen > width:
			b.WriteString("\n")
			lineLen = wLen
		default:
			b.WriteString(" ")
			lineLen += 1 + wLen
		}
		b.WriteString(word)
	}
	return b.String()
}

// View renders the layout: log, menu, status bar, input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderMenu() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(in parser.Input) ([]string, bool) {
	switch in.Command {
	case "quit":
		return []string{"Goodbye."}, true

	case "save":
		return m.cmdSave(in.Arg), false

	case "load":
		return m.cmdLoad(in.Arg), false

	case "new":
		if err := m.svc.Reset(m.ctx, m.heroID); err != nil {
			m.err = err
			return []string{fmt.Sprintf("Error: %v", err)}, false
		}
		if err := m.refresh(); err != nil {
			m.err = err
		}
		return []string{"The week starts over."}, false

	case "help":
		return m.cmdHelp(), false

	case "state":
		return m.cmdState(), false

	case "trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", in.Command)}, false
	}
}

func (m *Model) savePath(name string) (string, string) {
	if name == "" {
		name = "quicksave"
	}
	return name, filepath.Join(m.saveDir, name+SaveExt)
}

func (m *Model) cmdSave(arg string) []string {
	name, path := m.savePath(arg)
	data, err := m.svc.Export(m.ctx, m.heroID)
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Model) cmdLoad(arg string) []string {
	name, path := m.savePath(arg)
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if err := m.svc.Import(m.ctx, m.heroID, data); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if err := m.refresh(); err != nil {
		m.err = err
	}
	return []string{fmt.Sprintf("Game loaded from %s (turn %d).", name, m.turn())}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]  - Save the week (default: quicksave)",
		"  /load [name]  - Load a saved week",
		"  /new          - Abandon this week and start over",
		"  /state        - Show bags and friendships",
		"  /trace        - Toggle turn trace output",
		"  /help         - Show this help",
		"  /quit         - Exit",
		"",
		"Playing:",
		"  <number>      - Pick an action from the menu",
		"  <action>      - Or type it: \"talk to rosa\", \"east\", \"sell turnip\"",
		"  again (g)     - Repeat your last input",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for input history",
	}
}

func (m *Model) cmdState() []string {
	v, h := m.snap.View, m.snap.HeroView
	out := []string{
		fmt.Sprintf("%s, turn %d, %s at %s", h.Name, m.turn(), v.Clock.Display, v.Place),
		fmt.Sprintf("Wallet: %s  Earned: %s  Hearts: %d", v.Koin, v.Earned, v.Hearts),
		fmt.Sprintf("High score: %s  Boost: %d  Luck: %d  Weeks: %d", h.HighScore, h.BoostLevel, h.LuckLevel, h.Runs),
		"Bag: " + itemList(v.Inventory),
		"Chest: " + itemList(v.Storage),
	}
	for _, vv := range v.Villagers {
		out = append(out, present.HeartsLine(vv)+" at "+vv.Location)
	}
	return out
}

func itemList(items []present.ItemView) string {
	if len(items) == 0 {
		return "empty"
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		n := it.Name
		if it.Emoji != "" {
			n = it.Emoji + " " + n
		}
		names = append(names, n)
	}
	return strings.Join(names, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
