// Package schedule reacts to clock movement: it fires scheduled world events
// that fell inside the elapsed window, rolls the day over, and detects the
// end of the week.
package schedule

import (
	"fmt"
	"sort"

	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/reward"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// MaxPasses bounds the rollover loop. One pass per day of the week plus the
// pass that settles.
const MaxPasses = types.DaysPerWeek + 1

// Env carries what the scheduler reads besides the session.
type Env struct {
	Defs  *state.Defs
	Rules types.Rules
	Src   reward.Source
}

// Outcome is what one PassTime call did.
type Outcome struct {
	Changes  state.Changes
	Messages []string
	Fired    []string // event IDs in the order applied
	GameOver bool
}

func (o *Outcome) say(s *types.Session, env Env, msg string) {
	state.AddMessage(s, env.Rules, msg)
	o.Messages = append(o.Messages, msg)
	o.Changes |= state.ChangedMessages
}

// PassTime brings the world up to the session clock.
func PassTime(s *types.Session, env Env) (Outcome, error) {
	var out Outcome

	for pass := 0; pass < MaxPasses; pass++ {
		if err := clock.Check(s.Clock); err != nil {
			return out, err
		}

		// 1. Crossing Sunday midnight ends the run before anything resets.
		if s.Clock.IsNewDay && wrapped(s.Clock) {
			s.GameOver = true
			out.GameOver = true
			out.Changes |= state.ChangedGameOver
			out.say(s, env, "The week is over.")
			return out, nil
		}

		// 2. Fire everything in (watermark, now].
		if err := fire(s, env, &out); err != nil {
			return out, err
		}

		// 3. Move the watermark.
		s.Clock.LastTriggeredDay = s.Clock.Day
		s.Clock.LastTriggeredTime = s.Clock.Time

		if !s.Clock.IsNewDay {
			return out, nil
		}

		// 4. Roll the day over and go around again: sleeping through the
		// night moves the clock, which may unlock more events.
		if err := rollover(s, env, &out); err != nil {
			return out, err
		}
	}
	return out, errs.Invariantf("time did not settle after %d passes", MaxPasses)
}

// wrapped reports whether the clock went past the end of the week since
// the watermark.
func wrapped(c types.Clock) bool {
	return clock.Absolute(c.Day, c.Time) <= clock.Absolute(c.LastTriggeredDay, c.LastTriggeredTime)
}

type occurrence struct {
	at  int
	seq int
	ev  types.ScheduledEvent
}

// Due returns the events that fall in the window (watermark, now], ordered
// by time, then recurring events before day-specific ones, then content
// order.
func Due(c types.Clock, events []types.ScheduledEvent) []types.ScheduledEvent {
	start := clock.Absolute(c.LastTriggeredDay, c.LastTriggeredTime)
	end := clock.Absolute(c.Day, c.Time)
	if end < start {
		end += types.DaysPerWeek * types.MinutesPerDay
	}

	var occ []occurrence
	for d := start / types.MinutesPerDay; d <= end/types.MinutesPerDay; d++ {
		day := types.Day(d % types.DaysPerWeek)
		for i, ev := range events {
			if !ev.Daily && ev.Day != day {
				continue
			}
			at := d*types.MinutesPerDay + ev.Time
			if at > start && at <= end {
				occ = append(occ, occurrence{at: at, seq: i, ev: ev})
			}
		}
	}
	sort.SliceStable(occ, func(i, j int) bool {
		a, b := occ[i], occ[j]
		if a.at != b.at {
			return a.at < b.at
		}
		if a.ev.Daily != b.ev.Daily {
			return a.ev.Daily
		}
		return a.seq < b.seq
	})

	out := make([]types.ScheduledEvent, len(occ))
	for i, o := range occ {
		out[i] = o.ev
	}
	return out
}

func fire(s *types.Session, env Env, out *Outcome) error {
	due := Due(s.Clock, env.Defs.Events)
	if len(due) == 0 {
		return nil
	}

	// Later appearances of the same villager win.
	moves := map[string]string{}
	var order []string
	for _, ev := range due {
		switch ev.Kind {
		case types.EventShopPopulates:
			if err := Populate(s, env, ev.Shop, out); err != nil {
				return fmt.Errorf("event %s: %w", ev.ID, err)
			}
		case types.EventVillagerAppears:
			if _, ok := moves[ev.Villager]; !ok {
				order = append(order, ev.Villager)
			}
			moves[ev.Villager] = ev.Place
		default:
			return errs.Invariantf("event %s has unknown kind %d", ev.ID, ev.Kind)
		}
		out.Fired = append(out.Fired, ev.ID)
	}

	for _, id := range order {
		vs, ok := s.Villagers[id]
		if !ok {
			return errs.Invariantf("event moves unknown villager %q", id)
		}
		to := moves[id]
		from := vs.Location
		if from == to {
			continue
		}
		vs.Location = to
		out.Changes |= state.ChangedVillagers
		name := env.Defs.Villagers[id].Name
		switch s.Location {
		case to:
			out.say(s, env, fmt.Sprintf("%s arrives.", name))
		case from:
			out.say(s, env, fmt.Sprintf("%s leaves.", name))
		}
	}
	return nil
}

// Populate rebuilds a shop's stock from its recipe: the fixed seeds, the
// gift slot capped at MaxStack, and one rolled item per merchandise slot.
// The new stock is assembled before the shelves are replaced.
func Populate(s *types.Session, env Env, shopID string, out *Outcome) error {
	recipe, ok := env.Defs.Shops[shopID]
	if !ok {
		return errs.Invariantf("unknown shop recipe %q", shopID)
	}
	pool, err := state.ItemsByIDs(env.Defs, recipe.Pool)
	if err != nil {
		return err
	}

	var rolled []types.Item
	for _, slot := range recipe.Merchandise {
		it, err := reward.RollMerchandise(pool, slot, env.Src)
		if err != nil {
			return fmt.Errorf("shop %s: %w", shopID, err)
		}
		rolled = append(rolled, it)
	}

	var stock []types.ItemToken
	add := func(itemID string, qty int) {
		for i := range stock {
			if stock[i].ItemID == itemID {
				stock[i].Quantity += qty
				return
			}
		}
		tok := state.NewToken(s, itemID)
		tok.Quantity = qty
		stock = append(stock, tok)
	}
	for _, e := range recipe.Seeds {
		add(e.ItemID, e.Quantity)
	}
	if recipe.Gift != nil {
		q := recipe.Gift.Quantity
		if env.Rules.MaxStack > 0 && q > env.Rules.MaxStack {
			q = env.Rules.MaxStack
		}
		add(recipe.Gift.ItemID, q)
	}
	for _, it := range rolled {
		add(it.ID, 1)
	}
	if env.Rules.ShopSlots > 0 && len(stock) > env.Rules.ShopSlots {
		return errs.Invariantf("shop %s stock needs %d slots, has %d", shopID, len(stock), env.Rules.ShopSlots)
	}

	state.Place(s, recipe.Place).Contents = stock
	out.Changes |= state.ChangedPlace
	if s.Location == recipe.Place {
		out.say(s, env, "The shelves have been restocked.")
	}
	return nil
}

func rollover(s *types.Session, env Env, out *Outcome) error {
	// 1. Daily villager flags.
	for _, vs := range s.Villagers {
		vs.TalkedToday = false
		vs.GiftedToday = false
	}
	out.Changes |= state.ChangedVillagers

	// 2. Watered seeds and sprouts grow one night.
	if grow(s, env) {
		out.Changes |= state.ChangedPlace
	}

	// 3. Sleep through the night.
	if s.HeroState.IsInBed {
		if s.Clock.Time < env.Rules.Dawn {
			if err := clock.AdvanceTo(&s.Clock, env.Rules.Dawn); err != nil {
				return err
			}
		}
		out.say(s, env, fmt.Sprintf("Good morning! It's %s.", clock.DayName(s.Clock.Day)))
	} else {
		if s.Clock.Time < env.Rules.OversleepTime {
			if err := clock.AdvanceTo(&s.Clock, env.Rules.OversleepTime); err != nil {
				return err
			}
		}
		out.say(s, env, fmt.Sprintf("You passed out and overslept until %s on %s!",
			clock.Format(s.Clock.Time), clock.DayName(s.Clock.Day)))
	}
	s.HeroState.IsInBed = false
	s.Clock.IsNewDay = false
	out.Changes |= state.ChangedClock | state.ChangedHeroState
	return nil
}

// grow advances watered seeds and sprouts and clears every watered flag.
// Unwatered plants are left alone.
func grow(s *types.Session, env Env) bool {
	changed := false
	for _, ps := range s.Places {
		for i := range ps.Contents {
			tok := &ps.Contents[i]
			it, ok := env.Defs.Items[tok.ItemID]
			if !ok || (it.Category != types.CategorySeed && it.Category != types.CategorySprout) {
				continue
			}
			if !tok.Watered {
				continue
			}
			tok.Watered = false
			tok.DaysGrowing++
			need := it.GrowthDays
			if need < 1 {
				need = 1
			}
			if tok.DaysGrowing >= need && it.GrowsInto != "" {
				tok.ItemID = it.GrowsInto
				tok.DaysGrowing = 0
			}
			changed = true
		}
	}
	return changed
}
