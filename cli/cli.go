// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for heartweek.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/parser"
	"github.com/nathoo/heartweek/engine/present"
	"github.com/nathoo/heartweek/engine/resolve"
	"github.com/nathoo/heartweek/service"
)

// SaveExt is the extension of save files.
const SaveExt = ".hwk"

// CLI handles terminal interaction with the player.
type CLI struct {
	Service   *service.Service
	HeroID    string
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)

	menu    []actions.Action
	lastCmd string // for "again"/"g" repeat
}

// New creates a CLI playing as heroID.
func New(svc *service.Service, heroID string) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Service: svc,
		HeroID:  heroID,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".heartweek", "saves"),
	}
}

// Run starts the game loop: status and menu, prompt, input, dispatch.
// It returns on /quit, end of input, or a fatal engine error.
func (c *CLI) Run(ctx context.Context) error {
	snap, err := c.Service.View(ctx, c.HeroID)
	if err != nil {
		return err
	}
	if snap.Session.Turn == 0 {
		if intro := c.Service.Defs.Game.Intro; intro != "" {
			c.printLine(intro)
			c.printLine("")
		}
	}
	if err := c.look(ctx); err != nil {
		return err
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(line)
		}

		in := parser.Parse(line)
		if in.Kind == parser.Meta {
			quit, err := c.handleMeta(ctx, in)
			if err != nil || quit {
				return err
			}
			continue
		}

		switch strings.ToLower(line) {
		case "look", "l", "menu", "m":
			if err := c.look(ctx); err != nil {
				return err
			}
			continue
		case "again", "g":
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			in = parser.Parse(c.lastCmd)
		default:
			c.lastCmd = line
		}

		if err := c.play(ctx, in); err != nil {
			return err
		}
	}
}

// play resolves the input against the current menu and takes the turn.
func (c *CLI) play(ctx context.Context, in parser.Input) error {
	a, err := resolve.Resolve(in, c.menu)
	if err != nil {
		var amb *resolve.AmbiguityError
		if errors.As(err, &amb) {
			c.printSystem(capitalize(amb.Error()))
		} else {
			c.printSystem(capitalize(err.Error()) + ". Type a number from the menu, or /help.")
		}
		return nil
	}

	res, err := c.Service.Turn(ctx, c.HeroID, a.Digest)
	if err != nil {
		return err
	}
	for _, m := range res.Messages {
		c.printLine(m)
	}
	if c.Trace {
		c.printSystem(fmt.Sprintf("trace: %s [%s] changed %s", a.Kind, a.Digest, strings.Join(res.Changed, ", ")))
	}
	if res.GameOver {
		c.printLine("")
		c.printLine("A new week begins.")
	}
	return c.look(ctx)
}

// look prints the status line and the numbered menu.
func (c *CLI) look(ctx context.Context) error {
	snap, err := c.Service.View(ctx, c.HeroID)
	if err != nil {
		return err
	}
	menu, err := c.Service.Menu(ctx, c.HeroID)
	if err != nil {
		return err
	}
	c.menu = menu

	v := snap.View
	c.printLine("")
	c.printLine(fmt.Sprintf("%s · %s · %s · %d ❤ · score %s", v.Clock.Display, v.Place, v.Koin, v.Hearts, v.Score))
	for i, av := range present.Actions(menu) {
		line := fmt.Sprintf("%3d. %s", i+1, av.Description)
		if av.Cost != "" {
			line += " (" + av.Cost + ")"
		}
		c.printLine(line)
	}
	return nil
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(ctx context.Context, in parser.Input) (bool, error) {
	switch in.Command {
	case "quit":
		c.printSystem("Goodbye.")
		return true, nil

	case "save":
		c.cmdSave(ctx, in.Arg)

	case "load":
		if c.cmdLoad(ctx, in.Arg) {
			return false, c.look(ctx)
		}

	case "new":
		if err := c.Service.Reset(ctx, c.HeroID); err != nil {
			return false, err
		}
		c.printSystem("The week starts over.")
		return false, c.look(ctx)

	case "help":
		c.cmdHelp()

	case "state":
		return false, c.cmdState(ctx)

	case "trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", in.Command))
	}
	return false, nil
}

func (c *CLI) savePath(name string) string {
	if name == "" {
		name = "quicksave"
	}
	return filepath.Join(c.SaveDir, name+SaveExt)
}

func (c *CLI) cmdSave(ctx context.Context, name string) {
	data, err := c.Service.Export(ctx, c.HeroID)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if err := os.WriteFile(c.savePath(name), data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if name == "" {
		name = "quicksave"
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(ctx context.Context, name string) bool {
	data, err := os.ReadFile(c.savePath(name))
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return false
	}
	if err := c.Service.Import(ctx, c.HeroID, data); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return false
	}
	if name == "" {
		name = "quicksave"
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s.", name))
	return true
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  - Save the week (default: quicksave)",
		"  /load [name]  - Load a saved week",
		"  /new          - Abandon this week and start over",
		"  /state        - Show wallet, bags and friendships",
		"  /trace        - Toggle turn trace output",
		"  /help         - Show this help",
		"  /quit         - Exit",
		"",
		"Playing:",
		"  <number>              - Pick an action from the menu",
		"  <action>              - Or type it: \"talk to rosa\", \"east\", \"buy turnip seed\"",
		"  <digest>              - Or the first letters of its digest",
		"  look (l)              - Show the menu again",
		"  again (g)             - Repeat your last action",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState(ctx context.Context) error {
	snap, err := c.Service.View(ctx, c.HeroID)
	if err != nil {
		if errs.IsRecoverable(err) {
			c.printSystem(err.Error())
			return nil
		}
		return err
	}
	v, h := snap.View, snap.HeroView
	c.printSystem(fmt.Sprintf("%s, turn %d, %s at %s", h.Name, snap.Session.Turn, v.Clock.Display, v.Place))
	c.printSystem(fmt.Sprintf("Wallet: %s  Earned: %s  Hearts: %d  Score: %s", v.Koin, v.Earned, v.Hearts, v.Score))
	c.printSystem(fmt.Sprintf("High score: %s  Boost: %d  Luck: %d  Weeks: %d", h.HighScore, h.BoostLevel, h.LuckLevel, h.Runs))
	c.printSystem("Bag: " + itemList(v.Inventory))
	c.printSystem("Chest: " + itemList(v.Storage))
	for _, vv := range v.Villagers {
		c.printSystem(present.HeartsLine(vv) + " at " + vv.Location)
	}
	return nil
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
		if it.Watered {
			n += " (watered)"
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

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
