// Package config holds the game's tuning and runtime settings: defaults,
// a YAML file over them, then HEARTWEEK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/types"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HEARTWEEK_"

// Config is the whole configuration.
type Config struct {
	Week       Week    `yaml:"week"`
	Slots      Slots   `yaml:"slots"`
	Luck       Luck    `yaml:"luck"`
	Boost      Boost   `yaml:"boost"`
	MessageLog int     `yaml:"message_log"`
	Seed       int64   `yaml:"seed"` // 0 picks a fresh seed per run
	Content    string  `yaml:"content"`
	Storage    Storage `yaml:"storage"`
	Log        Log     `yaml:"log"`
}

// Week is the shape of a run's clock.
type Week struct {
	StartDay      Weekday   `yaml:"start_day"`
	StartTime     TimeOfDay `yaml:"start_time"`
	StartKoin     int       `yaml:"start_koin"`
	Dawn          TimeOfDay `yaml:"dawn"`
	Sunset        TimeOfDay `yaml:"sunset"`
	OversleepTime TimeOfDay `yaml:"oversleep"`
}

// Slots are container limits.
type Slots struct {
	Inventory int `yaml:"inventory"`
	Storage   int `yaml:"storage"`
	Shop      int `yaml:"shop"`
	MaxStack  int `yaml:"max_stack"`
}

// Luck tunes the reward weighting and mythegg odds.
type Luck struct {
	Cap                   int     `yaml:"cap"`
	Denominator           int     `yaml:"denominator"`
	Step                  int     `yaml:"step"`
	MytheggChancePerHeart float64 `yaml:"mythegg_chance_per_heart"`
}

// Boost tunes the speed boost.
type Boost struct {
	Cap     int `yaml:"cap"`
	Divisor int `yaml:"divisor"`
	Step    int `yaml:"step"`
}

// Storage selects the repository.
type Storage struct {
	Driver string `yaml:"driver"` // memory | sqlite
	Path   string `yaml:"path"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// TimeOfDay is minutes since midnight, written "HH:MM" in YAML.
type TimeOfDay int

// UnmarshalYAML accepts "HH:MM" or a number of minutes.
func (t *TimeOfDay) UnmarshalYAML(n *yaml.Node) error {
	var minutes int
	if err := n.Decode(&minutes); err == nil {
		*t = TimeOfDay(minutes)
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := clock.ParseTime(s)
	if err != nil {
		return err
	}
	*t = TimeOfDay(v)
	return nil
}

// MarshalYAML writes "HH:MM".
func (t TimeOfDay) MarshalYAML() (any, error) {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60), nil
}

// Weekday is a day name in YAML.
type Weekday types.Day

// UnmarshalYAML accepts a day name or abbreviation.
func (d *Weekday) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := clock.ParseDay(s)
	if err != nil {
		return err
	}
	*d = Weekday(v)
	return nil
}

// MarshalYAML writes the day name.
func (d Weekday) MarshalYAML() (any, error) {
	return clock.DayName(types.Day(d)), nil
}

// Default returns the stock tuning.
func Default() Config {
	return Config{
		Week: Week{
			StartDay:      Weekday(types.Monday),
			StartTime:     360,
			StartKoin:     100,
			Dawn:          360,
			Sunset:        1200,
			OversleepTime: 600,
		},
		Slots: Slots{
			Inventory: 12,
			Storage:   24,
			Shop:      12,
			MaxStack:  9,
		},
		Luck: Luck{
			Cap:                   130,
			Denominator:           200,
			Step:                  10,
			MytheggChancePerHeart: 0.05,
		},
		Boost: Boost{
			Cap:     25,
			Divisor: 30,
			Step:    1,
		},
		MessageLog: 100,
		Content:    "content/heartweek",
		Storage:    Storage{Driver: "memory", Path: "heartweek.db"},
		Log:        Log{Level: "info", Format: "text"},
	}
}

// Load reads defaults, then the YAML file at path if any, then the
// environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	inDay := func(t TimeOfDay) bool { return t >= 0 && t < types.MinutesPerDay }

	w := c.Week
	check(types.Day(w.StartDay) >= types.Monday && types.Day(w.StartDay) <= types.Sunday, "week.start_day out of range")
	check(inDay(w.StartTime), "week.start_time %d out of range", w.StartTime)
	check(inDay(w.Dawn), "week.dawn %d out of range", w.Dawn)
	check(inDay(w.Sunset), "week.sunset %d out of range", w.Sunset)
	check(inDay(w.OversleepTime), "week.oversleep %d out of range", w.OversleepTime)
	check(w.Dawn < w.Sunset, "week.dawn must be before week.sunset")
	check(w.StartKoin >= 0, "week.start_koin must not be negative")

	check(c.Slots.Inventory > 0, "slots.inventory must be positive")
	check(c.Slots.Storage > 0, "slots.storage must be positive")
	check(c.Slots.Shop > 0, "slots.shop must be positive")
	check(c.Slots.MaxStack > 0, "slots.max_stack must be positive")

	check(c.Luck.Denominator > 0, "luck.denominator must be positive")
	check(c.Luck.Cap >= 0, "luck.cap must not be negative")
	check(c.Luck.MytheggChancePerHeart >= 0 && c.Luck.MytheggChancePerHeart <= 1, "luck.mythegg_chance_per_heart must be in [0, 1]")
	check(c.Boost.Divisor > 0, "boost.divisor must be positive")
	check(c.Boost.Cap >= 0 && c.Boost.Cap < c.Boost.Divisor, "boost.cap must be in [0, boost.divisor)")

	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		check(c.Storage.Path != "", "storage.path is required for sqlite")
	default:
		check(false, "storage.driver %q: want memory or sqlite", c.Storage.Driver)
	}
	_, err := ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q: want debug, info, warn or error", c.Log.Level)
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format %q: want text or json", c.Log.Format)

	return errors.Join(errs...)
}

// Rules projects the engine tuning.
func (c Config) Rules() types.Rules {
	return types.Rules{
		StartDay:              types.Day(c.Week.StartDay),
		StartTime:             int(c.Week.StartTime),
		StartKoin:             c.Week.StartKoin,
		Dawn:                  int(c.Week.Dawn),
		Sunset:                int(c.Week.Sunset),
		OversleepTime:         int(c.Week.OversleepTime),
		InventorySlots:        c.Slots.Inventory,
		StorageSlots:          c.Slots.Storage,
		ShopSlots:             c.Slots.Shop,
		MaxStack:              c.Slots.MaxStack,
		MessageLog:            c.MessageLog,
		LuckCap:               c.Luck.Cap,
		LuckDenominator:       c.Luck.Denominator,
		LuckStep:              c.Luck.Step,
		BoostCap:              c.Boost.Cap,
		BoostDivisor:          c.Boost.Divisor,
		BoostStep:             c.Boost.Step,
		MytheggChancePerHeart: c.Luck.MytheggChancePerHeart,
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger builds the configured slog logger writing to w.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
