// Package present maps engine values to display-safe views. Nothing here
// mutates a session.
package present

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/engine/dialogue"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// UnknownPrice is shown instead of the price of an unidentified item.
const UnknownPrice = "??"

// ActionView is one menu entry.
type ActionView struct {
	Digest      string `json:"digest"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Cost        string `json:"cost"`
	Icon        string `json:"icon"`
}

// ItemView is an item token as the player sees it.
type ItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji,omitempty"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity,omitempty"`
	Watered  bool   `json:"watered,omitempty"`
}

// VillagerView shows affinity as whole hearts plus progress to the next.
type VillagerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Portrait  string `json:"portrait,omitempty"`
	Hearts    int    `json:"hearts"`
	Remainder int    `json:"remainder"`
	Location  string `json:"location"`
}

// ClockView is the formatted day and time.
type ClockView struct {
	Day     string `json:"day"`
	Time    string `json:"time"`
	Display string `json:"display"`
}

// HeroView is the hero's persistent progress.
type HeroView struct {
	Name       string `json:"name"`
	HighScore  string `json:"high_score"`
	BoostLevel int    `json:"boost_level"`
	LuckLevel  int    `json:"luck_level"`
	Runs       int    `json:"runs"`
}

// SessionView is the whole display state of a run.
type SessionView struct {
	Clock     ClockView      `json:"clock"`
	Place     string         `json:"place"`
	Koin      string         `json:"koin"`
	Hearts    int            `json:"hearts"`
	Earned    string         `json:"earned"`
	Score     string         `json:"score"`
	Inventory []ItemView     `json:"inventory"`
	Storage   []ItemView     `json:"storage"`
	Villagers []VillagerView `json:"villagers"`
	Messages  []string       `json:"messages"`
	GameOver  bool           `json:"game_over"`
}

// TurnView is the outcome of one turn.
type TurnView struct {
	Changed  []string `json:"changed"`
	Messages []string `json:"messages"`
	GameOver bool     `json:"game_over"`
}

var icons = map[actions.Kind]string{
	actions.Travel:   "footsteps",
	actions.Talk:     "speech",
	actions.Give:     "gift",
	actions.Plant:    "seedling",
	actions.Water:    "droplet",
	actions.Harvest:  "basket",
	actions.Buy:      "coin",
	actions.Sell:     "coin",
	actions.Stow:     "chest",
	actions.Retrieve: "chest",
	actions.Gather:   "pick",
	actions.Sleep:    "bed",
}

// Action builds the view of one action.
func Action(a actions.Action) ActionView {
	return ActionView{
		Digest:      a.Digest,
		Kind:        a.Kind.String(),
		Description: a.Description,
		Cost:        Cost(a.Cost),
		Icon:        icons[a.Kind],
	}
}

// Actions builds views for a menu, preserving order.
func Actions(list []actions.Action) []ActionView {
	out := make([]ActionView, 0, len(list))
	for _, a := range list {
		out = append(out, Action(a))
	}
	return out
}

// Cost formats a cost for display.
func Cost(c actions.Cost) string {
	switch c.Unit {
	case actions.Minutes, actions.Hours:
		return clock.FormatDuration(c.Minutes())
	case actions.Koin:
		return Koin(c.Amount)
	default:
		return ""
	}
}

// Koin formats an amount with thousands separators.
func Koin(n int) string {
	return humanize.Comma(int64(n)) + " koin"
}

// Item builds the view of a token. Unidentified items hide their price.
func Item(defs *state.Defs, t types.ItemToken) ItemView {
	it, ok := defs.Items[t.ItemID]
	if !ok {
		return ItemView{ID: t.ID, Name: t.ItemID, Category: string(types.CategoryUnknown), Price: UnknownPrice}
	}
	price := strconv.Itoa(it.Price)
	if it.Category == types.CategoryUnknown {
		price = UnknownPrice
	}
	return ItemView{
		ID:       t.ID,
		Name:     it.Name,
		Emoji:    it.Emoji,
		Category: string(it.Category),
		Price:    price,
		Quantity: t.Quantity,
		Watered:  t.Watered,
	}
}

// Items builds views for a container.
func Items(defs *state.Defs, tokens []types.ItemToken) []ItemView {
	out := make([]ItemView, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, Item(defs, t))
	}
	return out
}

// Villager builds the view of a villager state.
func Villager(defs *state.Defs, vs *types.VillagerState) VillagerView {
	v := defs.Villagers[vs.VillagerID]
	name := v.Name
	if name == "" {
		name = vs.VillagerID
	}
	loc := vs.Location
	if p, ok := defs.Places[loc]; ok {
		loc = p.Name
	}
	return VillagerView{
		ID:        vs.VillagerID,
		Name:      name,
		Portrait:  v.Portrait,
		Hearts:    state.Tier(vs.Affinity),
		Remainder: vs.Affinity % state.AffinityPerTier,
		Location:  loc,
	}
}

// Clock formats the session clock, e.g. "Mon 6:00 AM".
func Clock(c types.Clock) ClockView {
	day := clock.ShortDayName(c.Day)
	t := clock.Format(c.Time)
	return ClockView{Day: day, Time: t, Display: day + " " + t}
}

// Hero builds the view of a hero.
func Hero(h *types.Hero) HeroView {
	return HeroView{
		Name:       h.Name,
		HighScore:  humanize.Comma(int64(h.HighScore)),
		BoostLevel: h.BoostLevel,
		LuckLevel:  h.LuckLevel,
		Runs:       h.RunsCompleted,
	}
}

// Session builds the full display state of a run.
func Session(defs *state.Defs, s *types.Session) SessionView {
	place := s.Location
	if p, ok := defs.Places[place]; ok {
		place = p.Name
	}
	sv := SessionView{
		Clock:     Clock(s.Clock),
		Place:     place,
		Koin:      Koin(s.Wallet),
		Hearts:    s.HeroState.HeartsEarned,
		Earned:    Koin(s.HeroState.KoinEarned),
		Score:     humanize.Comma(int64(state.Score(s.HeroState))),
		Inventory: Items(defs, s.Inventory),
		Storage:   Items(defs, s.Storage),
		Messages:  append([]string{}, s.Messages...),
		GameOver:  s.GameOver,
	}
	for _, id := range defs.VillagerOrder {
		if vs, ok := s.Villagers[id]; ok {
			sv.Villagers = append(sv.Villagers, Villager(defs, vs))
		}
	}
	return sv
}

// Turn builds the view of a turn result.
func Turn(r types.Result) TurnView {
	return TurnView{
		Changed:  append([]string{}, r.Changed...),
		Messages: append([]string{}, r.Messages...),
		GameOver: r.GameOver,
	}
}

// HeartsLine renders a villager view as "Rosa ❤❤ (7/20)".
func HeartsLine(v VillagerView) string {
	return fmt.Sprintf("%s %s (%d/%d)", v.Name, dialogue.Hearts(v.Hearts), v.Remainder, state.AffinityPerTier)
}
