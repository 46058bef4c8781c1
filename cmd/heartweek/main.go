// Heartweek is a one-week life sim: farm, gather, trade and befriend the
// villagers before Sunday midnight.
// Usage: heartweek [--version] [--config <file>] [--content <dir>] [--hero <name>] [--plain] [--script <file>] [--trace]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nathoo/heartweek/cli"
	"github.com/nathoo/heartweek/config"
	"github.com/nathoo/heartweek/loader"
	"github.com/nathoo/heartweek/service"
	"github.com/nathoo/heartweek/store"
	"github.com/nathoo/heartweek/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		showVersion = flag.Bool("version", false, "print version and exit")
		configPath  = flag.String("config", "", "YAML config file")
		contentDir  = flag.String("content", "", "content directory (overrides config)")
		heroName    = flag.String("hero", defaultHero(), "hero name")
		plain       = flag.Bool("plain", false, "line-based interface instead of the TUI")
		scriptFile  = flag.String("script", "", "play input lines from a file (implies --plain)")
		trace       = flag.Bool("trace", false, "print a trace line after every turn")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("heartweek %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *contentDir != "" {
		cfg.Content = *contentDir
	}
	if flag.NArg() > 0 {
		cfg.Content = flag.Arg(0)
	}

	tuiMode := *scriptFile == "" && !*plain && isTerminal()
	logOut, closeLog := logWriter(tuiMode)
	defer closeLog()
	logger := cfg.Log.NewLogger(logOut)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Load and compile Lua game content.
	defs, err := loader.Load(cfg.Content, logger)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}

	repo, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := service.New(defs, cfg.Rules(), repo, logger)
	svc.Seed = cfg.Seed

	heroID, err := svc.Start(ctx, *heroName)
	if err != nil {
		return err
	}
	logger.Info("starting", "title", defs.Game.Title, "hero", *heroName, "storage", cfg.Storage.Driver, "tui", tuiMode)

	if tuiMode {
		return tui.Run(ctx, svc, heroID)
	}

	fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
	c := cli.New(svc, heroID)
	c.Trace = *trace
	if *scriptFile != "" {
		f, err := os.Open(*scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	return c.Run(ctx)
}

func defaultHero() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "Farmer"
}

// logWriter keeps logs off the alternate screen in TUI mode.
func logWriter(tuiMode bool) (io.Writer, func()) {
	if !tuiMode {
		return os.Stderr, func() {}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return io.Discard, func() {}
	}
	dir := filepath.Join(home, ".heartweek")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "heartweek.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
