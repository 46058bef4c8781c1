// Package state holds the immutable content definitions and the helpers
// that read and mutate a running session.
package state

import (
	"fmt"
	"sort"

	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/types"
)

// MaxAffinity is the affinity ceiling; AffinityPerTier points make one heart.
const (
	MaxAffinity     = 100
	AffinityPerTier = 20
	MaxTier         = MaxAffinity / AffinityPerTier
)

// Defs holds the immutable content loaded from Lua.
type Defs struct {
	Game          types.GameDef
	Items         map[string]types.Item
	Places        map[string]types.Place
	PlaceOrder    []string
	Bridges       []types.Bridge
	Villagers     map[string]types.Villager
	VillagerOrder []string
	Shops         map[string]types.ShopRecipe
	Events        []types.ScheduledEvent
	Achievements  []types.AchievementDef
	Universal     map[types.Category]types.Valence
}

// NewSession creates a fresh weekly run from definitions.
func NewSession(defs *Defs, r types.Rules, id, heroID string, seed int64) *types.Session {
	s := &types.Session{
		ID:     id,
		HeroID: heroID,
		Seed:   seed,
		Clock:  clock.New(r.StartDay, r.StartTime),
		HeroState: types.HeroState{
			Income: map[types.Activity]int{},
			Intake: map[types.Activity]int{},
		},
		Location:  defs.Game.Start,
		Wallet:    r.StartKoin,
		Inventory: []types.ItemToken{},
		Storage:   []types.ItemToken{},
		Places:    map[string]*types.PlaceState{},
		Villagers: map[string]*types.VillagerState{},
		Messages:  []string{},
	}
	for _, id := range defs.PlaceOrder {
		s.Places[id] = &types.PlaceState{PlaceID: id, Contents: []types.ItemToken{}}
	}
	for _, id := range defs.VillagerOrder {
		v := defs.Villagers[id]
		s.Villagers[id] = &types.VillagerState{VillagerID: id, Location: v.Location}
	}
	return s
}

// NewToken mints a token for itemID with a session-unique ID.
func NewToken(s *types.Session, itemID string) types.ItemToken {
	s.NextToken++
	return types.ItemToken{ID: fmt.Sprintf("t%d", s.NextToken), ItemID: itemID}
}

// FindToken returns the index of the token with the given ID, or -1.
func FindToken(tokens []types.ItemToken, id string) int {
	for i, t := range tokens {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// RemoveToken removes the token at i, preserving order.
func RemoveToken(tokens []types.ItemToken, i int) []types.ItemToken {
	out := make([]types.ItemToken, 0, len(tokens)-1)
	out = append(out, tokens[:i]...)
	return append(out, tokens[i+1:]...)
}

// CheckCapacity fails with a CapacityError when adding n tokens to a
// container already holding used would exceed limit.
func CheckCapacity(container string, used, n, limit int) error {
	if limit > 0 && used+n > limit {
		return &errs.CapacityError{Container: container, Limit: limit}
	}
	return nil
}

// Place returns the per-run state for a place, creating it if needed.
func Place(s *types.Session, id string) *types.PlaceState {
	ps, ok := s.Places[id]
	if !ok {
		ps = &types.PlaceState{PlaceID: id, Contents: []types.ItemToken{}}
		s.Places[id] = ps
	}
	return ps
}

// VillagersAt returns the villager states located at placeID in content order.
func VillagersAt(s *types.Session, defs *Defs, placeID string) []*types.VillagerState {
	var out []*types.VillagerState
	for _, id := range defs.VillagerOrder {
		if vs, ok := s.Villagers[id]; ok && vs.Location == placeID {
			out = append(out, vs)
		}
	}
	return out
}

// BuildingsAt returns the buildings whose surrounding place is placeID.
func BuildingsAt(defs *Defs, placeID string) []types.Place {
	var out []types.Place
	for _, id := range defs.PlaceOrder {
		p := defs.Places[id]
		if b, ok := p.Kind.(types.Building); ok && b.Surrounding == placeID {
			out = append(out, p)
		}
	}
	return out
}

// IsOpen reports whether a building can be entered at time t.
func IsOpen(b types.Building, t int) bool {
	if b.Hours == nil {
		return true
	}
	return t >= b.Hours.Open && t < b.Hours.Close
}

// Tier converts affinity to hearts.
func Tier(affinity int) int {
	return affinity / AffinityPerTier
}

// AddAffinity changes a villager's affinity, clamped to [0, MaxAffinity],
// and returns the tiers before and after.
func AddAffinity(v *types.VillagerState, delta int) (before, after int) {
	before = Tier(v.Affinity)
	v.Affinity += delta
	if v.Affinity < 0 {
		v.Affinity = 0
	}
	if v.Affinity > MaxAffinity {
		v.Affinity = MaxAffinity
	}
	return before, Tier(v.Affinity)
}

// ValenceFor looks up how a villager feels about an item: the villager's own
// table by item ID then category, the universal table by category, neutral.
func ValenceFor(defs *Defs, v types.Villager, item types.Item) types.Valence {
	if val, ok := v.Preferences[item.ID]; ok {
		return val
	}
	if val, ok := v.Preferences[string(item.Category)]; ok {
		return val
	}
	if val, ok := defs.Universal[item.Category]; ok {
		return val
	}
	return types.Neutral
}

// ActivityFor maps an item category to the statistic it counts toward.
func ActivityFor(c types.Category) (types.Activity, bool) {
	switch c {
	case types.CategoryCrop:
		return types.Farming, true
	case types.CategoryMineral:
		return types.Mining, true
	case types.CategoryFish:
		return types.Fishing, true
	case types.CategoryForage:
		return types.Foraging, true
	default:
		return "", false
	}
}

// Score is koin earned × hearts earned × 10.
func Score(hs types.HeroState) int {
	return hs.KoinEarned * hs.HeartsEarned * 10
}

// AddMessage appends to the session log, keeping at most r.MessageLog lines.
func AddMessage(s *types.Session, r types.Rules, msg string) {
	s.Messages = append(s.Messages, msg)
	if r.MessageLog > 0 && len(s.Messages) > r.MessageLog {
		s.Messages = s.Messages[len(s.Messages)-r.MessageLog:]
	}
}

// ItemsByIDs resolves item IDs, failing on unknown IDs.
func ItemsByIDs(defs *Defs, ids []string) ([]types.Item, error) {
	items := make([]types.Item, 0, len(ids))
	for _, id := range ids {
		it, ok := defs.Items[id]
		if !ok {
			return nil, errs.Invariantf("unknown item %q", id)
		}
		items = append(items, it)
	}
	return items, nil
}

// ItemsOfCategory returns all items of a category in ID order.
func ItemsOfCategory(defs *Defs, c types.Category) []types.Item {
	var out []types.Item
	for _, it := range defs.Items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsHome reports whether placeID is the hero's farmhouse.
func IsHome(defs *Defs, placeID string) bool {
	if defs.Game.Farmhouse != "" {
		return placeID == defs.Game.Farmhouse
	}
	p, ok := defs.Places[placeID]
	return ok && p.Type == types.PlaceHome
}
