// Package reward implements the rarity-weighted, luck-modulated draws used
// for gathering loot, mythegg rewards and shop merchandise.
package reward

import (
	"sort"

	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/types"
)

// Source is the randomness a draw consumes. *engine.RNG and *rand.Rand
// both satisfy it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

var rarities = []types.Rarity{types.Common, types.Uncommon, types.Rare, types.Epic, types.Mythic}

var baseWeight = map[types.Rarity]float64{
	types.Common:   0.65,
	types.Uncommon: 0.20,
	types.Rare:     0.10,
	types.Epic:     0.05,
	types.Mythic:   0,
}

// growthFactor sums to zero across common..epic.
var growthFactor = map[types.Rarity]float64{
	types.Common:   -1,
	types.Uncommon: 4.0 / 7.0,
	types.Rare:     2.0 / 7.0,
	types.Epic:     1.0 / 7.0,
	types.Mythic:   0,
}

// Weight returns the unnormalized draw weight of a rarity at luck p.
// Negative weights clamp to zero.
func Weight(r types.Rarity, p float64) float64 {
	w := baseWeight[r] + p*growthFactor[r]
	if w < 0 {
		return 0
	}
	return w
}

// Luck converts a hero's luck level into the scalar p in [0, 1].
func Luck(level int, r types.Rules) float64 {
	if r.LuckDenominator <= 0 || level <= 0 {
		return 0
	}
	if r.LuckCap > 0 && level > r.LuckCap {
		level = r.LuckCap
	}
	p := float64(level) / float64(r.LuckDenominator)
	if p > 1 {
		p = 1
	}
	return p
}

// Draw picks one item from pool. A rarity is drawn first; a rarity with no
// pool items is removed and the draw repeats. Among the items of the drawn
// rarity a category is picked uniformly, then an item uniformly.
func Draw(pool []types.Item, luck float64, src Source) (types.Item, error) {
	candidates := append([]types.Rarity(nil), rarities...)
	for len(candidates) > 0 {
		i := pickRarity(candidates, luck, src)
		r := candidates[i]
		if matching := ofRarity(pool, r); len(matching) > 0 {
			return pickByCategory(matching, src), nil
		}
		candidates = append(candidates[:i:i], candidates[i+1:]...)
	}
	return types.Item{}, errs.ErrEmptyPool
}

// pickRarity returns an index into candidates. When every candidate weighs
// zero the pick is uniform so a pool of zero-weight rarities still yields.
func pickRarity(candidates []types.Rarity, luck float64, src Source) int {
	total := 0.0
	for _, r := range candidates {
		total += Weight(r, luck)
	}
	if total <= 0 {
		return src.Intn(len(candidates))
	}
	x := src.Float64() * total
	for i, r := range candidates {
		w := Weight(r, luck)
		if w == 0 {
			continue
		}
		if x < w {
			return i
		}
		x -= w
	}
	// Rounding left x at the top edge; take the last weighted candidate.
	for i := len(candidates) - 1; i >= 0; i-- {
		if Weight(candidates[i], luck) > 0 {
			return i
		}
	}
	return len(candidates) - 1
}

func ofRarity(pool []types.Item, r types.Rarity) []types.Item {
	var out []types.Item
	for _, it := range pool {
		if it.Rarity == r {
			out = append(out, it)
		}
	}
	return out
}

// pickByCategory picks a category uniformly, then an item of that category
// uniformly. items must be non-empty.
func pickByCategory(items []types.Item, src Source) types.Item {
	seen := map[types.Category]bool{}
	var cats []types.Category
	for _, it := range items {
		if !seen[it.Category] {
			seen[it.Category] = true
			cats = append(cats, it.Category)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	cat := cats[src.Intn(len(cats))]

	var inCat []types.Item
	for _, it := range items {
		if it.Category == cat {
			inCat = append(inCat, it)
		}
	}
	return inCat[src.Intn(len(inCat))]
}

// MytheggChance is the probability of a mythegg after gaining hearts.
func MytheggChance(hearts int, luck, perHeart float64) float64 {
	if hearts <= 0 {
		return 0
	}
	c := float64(hearts) * perHeart * (1 + luck)
	if c > 1 {
		return 1
	}
	return c
}

// DrawMythegg rolls for a mythegg after hearts were gained. No randomness is
// consumed when the chance is zero or there are no eggs.
func DrawMythegg(eggs []types.Item, hearts int, luck, perHeart float64, src Source) (types.Item, bool) {
	chance := MytheggChance(hearts, luck, perHeart)
	if chance <= 0 || len(eggs) == 0 {
		return types.Item{}, false
	}
	if src.Float64() >= chance {
		return types.Item{}, false
	}
	return eggs[src.Intn(len(eggs))], true
}

// RollMerchandise picks an item of the slot's rarity from pool. When the
// pool has nothing at that rarity it falls back to an unlucky Draw.
func RollMerchandise(pool []types.Item, slot types.Rarity, src Source) (types.Item, error) {
	if matching := ofRarity(pool, slot); len(matching) > 0 {
		return pickByCategory(matching, src), nil
	}
	return Draw(pool, 0, src)
}
