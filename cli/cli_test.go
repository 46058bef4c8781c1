package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/heartweek/engine/enginetest"
	"github.com/nathoo/heartweek/service"
	"github.com/nathoo/heartweek/store"
)

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	defs := enginetest.Defs()
	defs.Game.Intro = "Welcome to the valley."
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(defs, enginetest.Rules(), store.NewMemoryRepo(), logger)
	svc.Seed = 42
	id, err := svc.Start(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	var out bytes.Buffer
	c := &CLI{
		Service: svc,
		HeroID:  id,
		In:      strings.NewReader(input),
		Out:     &out,
		SaveDir: t.TempDir(),
	}
	return c, &out
}

func run(t *testing.T, input string) string {
	t.Helper()
	c, out := newTestCLI(t, input)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestCLI_IntroAndMenu(t *testing.T) {
	output := run(t, "/quit\n")
	if !strings.Contains(output, "Welcome to the valley.") {
		t.Error("expected intro text in output")
	}
	if !strings.Contains(output, "Mon 6:00 AM · Farmhouse") {
		t.Errorf("expected status line, got:\n%s", output)
	}
	if !strings.Contains(output, "  1. Leave to Farm") {
		t.Errorf("expected numbered menu, got:\n%s", output)
	}
	if !strings.Contains(output, "[Goodbye.]") {
		t.Error("expected goodbye message")
	}
}

func TestCLI_PlayByNumber(t *testing.T) {
	output := run(t, "1\n/quit\n")
	if !strings.Contains(output, "· Farm ·") {
		t.Errorf("expected to arrive at the farm, got:\n%s", output)
	}
	if !strings.Contains(output, "Enter Farmhouse") {
		t.Error("expected farm menu")
	}
}

func TestCLI_PlayByText(t *testing.T) {
	output := run(t, "leave\n/quit\n")
	if !strings.Contains(output, "· Farm ·") {
		t.Errorf("expected fuzzy text to resolve, got:\n%s", output)
	}
}

func TestCLI_NoMatch(t *testing.T) {
	output := run(t, "xyzzy\n/quit\n")
	if !strings.Contains(output, `You can't "xyzzy" right now`) {
		t.Errorf("expected no-match message, got:\n%s", output)
	}
	if !strings.Contains(output, "[Goodbye.]") {
		t.Error("a bad command must not end the game")
	}
}

func TestCLI_OutOfRangeNumber(t *testing.T) {
	output := run(t, "99\n/quit\n")
	if !strings.Contains(output, `You can't "99" right now`) {
		t.Errorf("got:\n%s", output)
	}
}

func TestCLI_Again(t *testing.T) {
	output := run(t, "g\n/quit\n")
	if !strings.Contains(output, "Nothing to repeat.") {
		t.Error("expected nothing-to-repeat message")
	}
}

func TestCLI_CommentsAndBlankLinesSkipped(t *testing.T) {
	output := run(t, "# a comment\n\n/quit\n")
	if strings.Contains(output, "can't") {
		t.Errorf("comment was treated as input:\n%s", output)
	}
}

func TestCLI_Help(t *testing.T) {
	output := run(t, "/help\n/quit\n")
	for _, want := range []string{"/save", "/load", "/new", "/trace", "again (g)"} {
		if !strings.Contains(output, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestCLI_State(t *testing.T) {
	output := run(t, "/state\n/quit\n")
	for _, want := range []string{"[Ada, turn 0, Mon 6:00 AM at Farmhouse]", "Wallet: 100 koin", "Bag: empty", "Rosa"} {
		if !strings.Contains(output, want) {
			t.Errorf("state missing %q:\n%s", want, output)
		}
	}
}

func TestCLI_Trace(t *testing.T) {
	output := run(t, "/trace\n1\n/trace\n/quit\n")
	if !strings.Contains(output, "[Trace output enabled.]") || !strings.Contains(output, "[Trace output disabled.]") {
		t.Error("expected trace toggles")
	}
	if !strings.Contains(output, "[trace: ") || !strings.Contains(output, "changed ") {
		t.Errorf("expected trace line, got:\n%s", output)
	}
}

func TestCLI_UnknownMeta(t *testing.T) {
	output := run(t, "/dance\n/quit\n")
	if !strings.Contains(output, "Unknown command: /dance") {
		t.Errorf("got:\n%s", output)
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	c, out := newTestCLI(t, "/save slot1\n1\n/load slot1\n/state\n/quit\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	output := out.String()
	if _, err := os.Stat(filepath.Join(c.SaveDir, "slot1"+SaveExt)); err != nil {
		t.Fatalf("save file missing: %v", err)
	}
	if !strings.Contains(output, "[Game saved to slot1.]") || !strings.Contains(output, "[Game loaded from slot1.]") {
		t.Errorf("expected save/load confirmations:\n%s", output)
	}
	if !strings.Contains(output, "turn 0, Mon 6:00 AM at Farmhouse") {
		t.Errorf("load did not restore the week:\n%s", output)
	}
}

func TestCLI_LoadMissing(t *testing.T) {
	output := run(t, "/load nothing\n/quit\n")
	if !strings.Contains(output, "[Load failed:") {
		t.Errorf("got:\n%s", output)
	}
}

func TestCLI_NewWeek(t *testing.T) {
	output := run(t, "1\n/new\n/state\n/quit\n")
	if !strings.Contains(output, "[The week starts over.]") {
		t.Error("expected reset confirmation")
	}
	if !strings.Contains(output, "turn 0, Mon 6:00 AM at Farmhouse") {
		t.Errorf("expected fresh week:\n%s", output)
	}
}

func TestCLI_EchoInput(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.EchoInput = true
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "> /help\n") {
		t.Error("expected echoed input after prompt")
	}
}

func TestCLI_EndOfInput(t *testing.T) {
	output := run(t, "1\n")
	if strings.Contains(output, "Goodbye") {
		t.Error("end of input should return quietly")
	}
}
