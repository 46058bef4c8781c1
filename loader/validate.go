package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/heartweek/engine/achievements"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

var wildTypes = map[types.PlaceType]bool{
	types.PlaceMountain: true,
	types.PlaceBeach:    true,
	types.PlaceForest:   true,
}

// validate checks the compiled defs for referential integrity and
// consistency. Errors and warnings are both collected.
func validate(defs *state.Defs) *ValidationError {
	ve := &ValidationError{}

	validateGame(defs, ve)
	validateItems(defs, ve)
	validatePlaces(defs, ve)
	validateBridges(defs, ve)
	validateVillagers(defs, ve)
	validateShops(defs, ve)
	validateEvents(defs, ve)
	validateAchievements(defs, ve)

	if len(state.ItemsOfCategory(defs, types.CategoryMythegg)) == 0 {
		ve.warnf("no mythegg items defined; hearts will never hatch one")
	}
	return ve
}

func validateGame(defs *state.Defs, ve *ValidationError) {
	if defs.Game.Title == "" {
		ve.errorf("Game.title is required")
	}
	if defs.Game.Start == "" {
		ve.errorf("Game.start is required")
	} else if _, ok := defs.Places[defs.Game.Start]; !ok {
		ve.errorf("start place %q not found in defined places", defs.Game.Start)
	}
	if fh := defs.Game.Farmhouse; fh != "" {
		p, ok := defs.Places[fh]
		switch {
		case !ok:
			ve.errorf("farmhouse %q not found in defined places", fh)
		case p.Type != types.PlaceHome:
			ve.errorf("farmhouse %q has type %q, want home", fh, p.Type)
		}
	} else {
		homes := 0
		for _, p := range defs.Places {
			if p.Type == types.PlaceHome {
				homes++
			}
		}
		if homes == 0 {
			ve.errorf("no home place defined and Game.farmhouse not set")
		}
	}
}

func validateItems(defs *state.Defs, ve *ValidationError) {
	for _, id := range sortedKeys(defs.Items) {
		it := defs.Items[id]
		if it.Name == "" {
			ve.warnf("item %q has no name", id)
		}
		if it.Price < 0 {
			ve.errorf("item %q has negative price %d", id, it.Price)
		}
		growing := it.Category == types.CategorySeed || it.Category == types.CategorySprout
		switch {
		case growing && it.GrowsInto == "":
			ve.errorf("%s %q must set grows_into", it.Category, id)
		case it.GrowsInto != "":
			if _, ok := defs.Items[it.GrowsInto]; !ok {
				ve.errorf("item %q grows into undefined item %q", id, it.GrowsInto)
			}
			if !growing {
				ve.warnf("item %q is a %s; grows_into is ignored", id, it.Category)
			}
		}
		if it.Category == types.CategoryMythegg && it.Rarity != types.Mythic {
			ve.warnf("mythegg %q is not mythic", id)
		}
	}
}

func validatePlaces(defs *state.Defs, ve *ValidationError) {
	for _, id := range defs.PlaceOrder {
		p := defs.Places[id]
		if p.Name == "" {
			ve.warnf("place %q has no name", id)
		}
		for _, itemID := range p.Pool {
			if _, ok := defs.Items[itemID]; !ok {
				ve.errorf("place %q pool references undefined item %q", id, itemID)
			}
		}
		if wildTypes[p.Type] && len(p.Pool) == 0 {
			ve.errorf("%s %q has an empty pool", p.Type, id)
		}
		b, ok := p.Kind.(types.Building)
		if !ok {
			continue
		}
		outer, ok := defs.Places[b.Surrounding]
		switch {
		case b.Surrounding == "":
			ve.errorf("building %q must set surrounding", id)
		case !ok:
			ve.errorf("building %q is surrounded by undefined place %q", id, b.Surrounding)
		default:
			if _, nested := outer.Kind.(types.Building); nested {
				ve.errorf("building %q is inside another building %q", id, b.Surrounding)
			}
		}
		if h := b.Hours; h != nil {
			if h.Open < 0 || h.Close > types.MinutesPerDay || h.Open >= h.Close {
				ve.errorf("building %q has invalid hours %d-%d", id, h.Open, h.Close)
			}
		}
	}
}

func validateBridges(defs *state.Defs, ve *ValidationError) {
	for i, br := range defs.Bridges {
		for _, end := range []string{br.A, br.B} {
			p, ok := defs.Places[end]
			if !ok {
				ve.errorf("bridge %d references undefined place %q", i+1, end)
				continue
			}
			if _, inside := p.Kind.(types.Building); inside {
				ve.errorf("bridge %d ends in building %q", i+1, end)
			}
		}
		if br.A == br.B {
			ve.errorf("bridge %d connects %q to itself", i+1, br.A)
		}
		if br.Minutes <= 0 {
			ve.errorf("bridge %d (%s-%s) must take positive minutes", i+1, br.A, br.B)
		}
	}
}

func validateVillagers(defs *state.Defs, ve *ValidationError) {
	for _, id := range defs.VillagerOrder {
		v := defs.Villagers[id]
		if v.Name == "" {
			ve.errorf("villager %q has no name", id)
		}
		if _, ok := defs.Places[v.Location]; !ok {
			ve.errorf("villager %q lives at undefined place %q", id, v.Location)
		}
		if v.Friendliness < 0 {
			ve.errorf("villager %q has negative friendliness", id)
		}
		for key := range v.Preferences {
			_, isItem := defs.Items[key]
			_, isCat := categories[key]
			if !isItem && !isCat {
				ve.errorf("villager %q has a preference for %q, which is neither an item nor a category", id, key)
			}
		}
		if n := len(v.Dialogue[types.TriggerTalk]); n == 0 {
			ve.warnf("villager %q has no talk lines", id)
		} else if n < state.MaxTier+1 {
			ve.warnf("villager %q has %d talk lines for %d tiers", id, n, state.MaxTier+1)
		}
	}
}

func validateShops(defs *state.Defs, ve *ValidationError) {
	for _, id := range sortedKeys(defs.Shops) {
		sh := defs.Shops[id]
		p, ok := defs.Places[sh.Place]
		if !ok {
			ve.errorf("shop %q is at undefined place %q", id, sh.Place)
		} else if p.Type != types.PlaceShop {
			ve.errorf("shop %q is at %q which is not a shop", id, sh.Place)
		}
		for _, e := range sh.Seeds {
			it, ok := defs.Items[e.ItemID]
			if !ok {
				ve.errorf("shop %q stocks undefined seed %q", id, e.ItemID)
			} else if it.Category != types.CategorySeed {
				ve.warnf("shop %q stocks %q as a seed but it is a %s", id, e.ItemID, it.Category)
			}
			if e.Quantity <= 0 {
				ve.errorf("shop %q stocks %q with quantity %d", id, e.ItemID, e.Quantity)
			}
		}
		if g := sh.Gift; g != nil {
			if _, ok := defs.Items[g.ItemID]; !ok {
				ve.errorf("shop %q gift slot references undefined item %q", id, g.ItemID)
			}
		}
		for _, itemID := range sh.Pool {
			if _, ok := defs.Items[itemID]; !ok {
				ve.errorf("shop %q pool references undefined item %q", id, itemID)
			}
		}
		if len(sh.Merchandise) > 0 && len(sh.Pool) == 0 {
			ve.errorf("shop %q has merchandise slots but an empty pool", id)
		}
	}
}

func validateEvents(defs *state.Defs, ve *ValidationError) {
	seen := map[string]bool{}
	for _, ev := range defs.Events {
		if seen[ev.ID] {
			ve.errorf("duplicate event ID %q", ev.ID)
		}
		seen[ev.ID] = true
		if ev.Time < 0 || ev.Time >= types.MinutesPerDay {
			ve.errorf("event %q time %d out of range", ev.ID, ev.Time)
		}
		switch ev.Kind {
		case types.EventShopPopulates:
			if _, ok := defs.Shops[ev.Shop]; !ok {
				ve.errorf("event %q populates undefined shop %q", ev.ID, ev.Shop)
			}
		case types.EventVillagerAppears:
			if _, ok := defs.Villagers[ev.Villager]; !ok {
				ve.errorf("event %q moves undefined villager %q", ev.ID, ev.Villager)
			}
			if _, ok := defs.Places[ev.Place]; !ok {
				ve.errorf("event %q moves %q to undefined place %q", ev.ID, ev.Villager, ev.Place)
			}
		}
	}
}

func validateAchievements(defs *state.Defs, ve *ValidationError) {
	seen := map[string]bool{}
	for _, a := range defs.Achievements {
		if seen[a.ID] {
			ve.errorf("duplicate achievement ID %q", a.ID)
		}
		seen[a.ID] = true
		if a.Name == "" {
			ve.errorf("achievement %q has no name", a.ID)
		}
		if !slices.Contains(achievements.Triggers, a.Trigger) {
			ve.errorf("achievement %q has unknown trigger %q", a.ID, a.Trigger)
		}
		if !slices.Contains(achievements.Kinds, a.Kind) {
			ve.errorf("achievement %q has unknown kind %q", a.ID, a.Kind)
		}
		if a.Villager != "" {
			if _, ok := defs.Villagers[a.Villager]; !ok {
				ve.errorf("achievement %q references undefined villager %q", a.ID, a.Villager)
			}
		}
		if a.Kind == types.KindMaxAffinityByDay && a.Villager == "" {
			ve.errorf("achievement %q needs a villager", a.ID)
		}
		if a.Kind == types.KindActivityIncome || a.Kind == types.KindActivityIntake {
			switch a.Activity {
			case types.Farming, types.Mining, types.Fishing, types.Foraging:
			default:
				ve.errorf("achievement %q has unknown activity %q", a.ID, a.Activity)
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
