package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/heartweek/engine/clock"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setTime(dst *TimeOfDay) func(string) error {
	return func(v string) error {
		t, err := clock.ParseTime(v)
		if err != nil {
			return err
		}
		*dst = TimeOfDay(t)
		return nil
	}
}

// ApplyEnv overrides settings from HEARTWEEK_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	setters := []struct {
		key string
		set func(string) error
	}{
		{"SEED", func(v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			c.Seed = n
			return nil
		}},
		{"CONTENT", setString(&c.Content)},
		{"STORAGE_DRIVER", setString(&c.Storage.Driver)},
		{"STORAGE_PATH", setString(&c.Storage.Path)},
		{"LOG_LEVEL", setString(&c.Log.Level)},
		{"LOG_FORMAT", setString(&c.Log.Format)},
		{"START_DAY", func(v string) error {
			d, err := clock.ParseDay(v)
			if err != nil {
				return err
			}
			c.Week.StartDay = Weekday(d)
			return nil
		}},
		{"START_TIME", setTime(&c.Week.StartTime)},
		{"START_KOIN", setInt(&c.Week.StartKoin)},
		{"INVENTORY_SLOTS", setInt(&c.Slots.Inventory)},
		{"LUCK_STEP", setInt(&c.Luck.Step)},
		{"BOOST_STEP", setInt(&c.Boost.Step)},
		{"MYTHEGG_CHANCE", func(v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			c.Luck.MytheggChancePerHeart = f
			return nil
		}},
	}
	for _, s := range setters {
		v, ok := lookup(EnvPrefix + s.key)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := s.set(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, s.key, err)
		}
	}
	return nil
}
