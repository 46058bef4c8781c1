// Package clock implements in-game time arithmetic: advancing, day
// rollover, the night window and display formatting.
package clock

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/types"
)

var dayNames = [types.DaysPerWeek]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// New returns a clock at the given position with the watermark set to it.
func New(day types.Day, t int) types.Clock {
	return types.Clock{Day: day, Time: t, LastTriggeredDay: day, LastTriggeredTime: t}
}

// Advance moves the clock forward. Crossing midnight sets IsNewDay.
func Advance(c *types.Clock, minutes int) error {
	if minutes < 0 {
		return errs.Invariantf("cannot advance clock by %d minutes", minutes)
	}
	if err := Check(*c); err != nil {
		return err
	}
	total := c.Time + minutes
	days := total / types.MinutesPerDay
	c.Time = total % types.MinutesPerDay
	if days > 0 {
		c.Day = AddDays(c.Day, days)
		c.IsNewDay = true
	}
	return nil
}

// AdvanceTo moves the clock forward to the next occurrence of target
// (minutes since midnight). A target equal to the current time is a no-op.
func AdvanceTo(c *types.Clock, target int) error {
	return Advance(c, MinutesUntil(*c, target))
}

// MinutesUntil returns how many minutes until the clock next reads target.
func MinutesUntil(c types.Clock, target int) int {
	d := target - c.Time
	if d < 0 {
		d += types.MinutesPerDay
	}
	return d
}

// Check enforces 0 ≤ Time < 1440 and a valid day.
func Check(c types.Clock) error {
	if c.Time < 0 || c.Time >= types.MinutesPerDay {
		return errs.Invariantf("clock time %d out of range", c.Time)
	}
	if c.Day < types.Monday || c.Day > types.Sunday {
		return errs.Invariantf("clock day %d out of range", c.Day)
	}
	return nil
}

// AddDays returns the weekday n days after d.
func AddDays(d types.Day, n int) types.Day {
	return types.Day((int(d) + n%types.DaysPerWeek + types.DaysPerWeek) % types.DaysPerWeek)
}

// IsNowOrPast reports whether (day, t) is at or before the clock's current
// position within the week.
func IsNowOrPast(c types.Clock, day types.Day, t int) bool {
	return Absolute(day, t) <= Absolute(c.Day, c.Time)
}

// Absolute converts a day and time to minutes since Monday midnight.
func Absolute(day types.Day, t int) int {
	return int(day)*types.MinutesPerDay + t
}

// InNight reports whether the clock is at or after sunset or before dawn.
func InNight(c types.Clock, r types.Rules) bool {
	return c.Time >= r.Sunset || c.Time < r.Dawn
}

// DayName returns the full weekday name.
func DayName(d types.Day) string {
	if d < types.Monday || d > types.Sunday {
		return "Someday"
	}
	return dayNames[d]
}

// ShortDayName returns the three-letter weekday name.
func ShortDayName(d types.Day) string {
	return DayName(d)[:3]
}

// ParseDay parses a weekday name, case-insensitively. Three-letter
// abbreviations are accepted.
func ParseDay(s string) (types.Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range dayNames {
		lower := strings.ToLower(name)
		if s == lower || (len(s) == 3 && s == lower[:3]) {
			return types.Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// Format renders minutes since midnight as a 12-hour clock, e.g. "6:05 AM".
func Format(t int) string {
	h, m := t/60, t%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}

// ParseTime parses "HH:MM" (24-hour) into minutes since midnight.
func ParseTime(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatDuration renders minutes as "45 min" or "1h 30m".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
