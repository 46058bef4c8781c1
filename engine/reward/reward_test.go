package reward

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/nathoo/heartweek/engine/enginetest"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/types"
)

func mountainPool() []types.Item {
	defs := enginetest.Defs()
	var out []types.Item
	for _, id := range defs.Places["mountain"].Pool {
		out = append(out, defs.Items[id])
	}
	return out
}

func TestWeight_MassConserved(t *testing.T) {
	for _, p := range []float64{0, 0.25, 0.5, 0.65} {
		sum := 0.0
		for _, r := range rarities {
			sum += Weight(r, p)
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("p=%v: weights sum to %v, want 1", p, sum)
		}
	}
}

func TestWeight_ClampsAtZero(t *testing.T) {
	if w := Weight(types.Common, 1); w != 0 {
		t.Errorf("common weight at p=1 = %v, want 0", w)
	}
}

func TestLuck(t *testing.T) {
	r := enginetest.Rules()
	tests := []struct {
		level int
		want  float64
	}{
		{0, 0}, {-5, 0}, {100, 0.5}, {130, 0.65}, {500, 0.65},
	}
	for _, tt := range tests {
		if got := Luck(tt.level, r); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Luck(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDraw_PicksByCumulativeWeight(t *testing.T) {
	pool := mountainPool()
	tests := []struct {
		roll float64
		want string
	}{
		{0.10, "copper"},
		{0.64, "copper"},
		{0.70, "quartz"},
		{0.90, "ruby"},
		{0.97, "geode"},
	}
	for _, tt := range tests {
		src := &enginetest.FixedSource{Values: []float64{tt.roll, 0, 0}}
		got, err := Draw(pool, 0, src)
		if err != nil {
			t.Fatalf("roll %v: %v", tt.roll, err)
		}
		if got.ID != tt.want {
			t.Errorf("roll %v: got %s, want %s", tt.roll, got.ID, tt.want)
		}
	}
}

func TestDraw_LuckShiftsAwayFromCommon(t *testing.T) {
	pool := mountainPool()

	got, _ := Draw(pool, 0, &enginetest.FixedSource{Values: []float64{0.1, 0, 0}})
	if got.ID != "copper" {
		t.Fatalf("without luck got %s, want copper", got.ID)
	}
	// At p=1 common weighs nothing, so the same roll lands on uncommon.
	got, _ = Draw(pool, 1, &enginetest.FixedSource{Values: []float64{0.1, 0, 0}})
	if got.ID != "quartz" {
		t.Errorf("with full luck got %s, want quartz", got.ID)
	}
}

func TestDraw_SingleRarityPool(t *testing.T) {
	pool := []types.Item{
		{ID: "a", Category: types.CategoryFish, Rarity: types.Rare},
		{ID: "b", Category: types.CategoryMineral, Rarity: types.Rare},
	}
	src := rand.New(rand.NewSource(3))
	for _, luck := range []float64{0, 0.3, 0.65, 1} {
		for i := 0; i < 200; i++ {
			it, err := Draw(pool, luck, src)
			if err != nil {
				t.Fatal(err)
			}
			if it.Rarity != types.Rare {
				t.Fatalf("luck %v: drew rarity %d", luck, it.Rarity)
			}
		}
	}
}

func TestDraw_OnlyZeroWeightRarities(t *testing.T) {
	pool := []types.Item{{ID: "egg", Category: types.CategoryMythegg, Rarity: types.Mythic}}
	it, err := Draw(pool, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if it.ID != "egg" {
		t.Errorf("got %s", it.ID)
	}
}

func TestDraw_EmptyPoolFails(t *testing.T) {
	src := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		it, err := Draw(nil, 0.5, src)
		if !errors.Is(err, errs.ErrEmptyPool) {
			t.Fatalf("expected ErrEmptyPool, got %v", err)
		}
		if !errs.IsInvariant(err) {
			t.Error("empty pool should be an invariant error")
		}
		if it.ID != "" {
			t.Errorf("returned item %q alongside error", it.ID)
		}
	}
}

func TestDraw_CategoryBeforeItem(t *testing.T) {
	// Three common minerals and one common fish: the fish is picked half the
	// time, not a quarter.
	pool := []types.Item{
		{ID: "m1", Category: types.CategoryMineral},
		{ID: "m2", Category: types.CategoryMineral},
		{ID: "m3", Category: types.CategoryMineral},
		{ID: "f1", Category: types.CategoryFish},
	}
	src := rand.New(rand.NewSource(11))
	const n = 20000
	fish := 0
	for i := 0; i < n; i++ {
		it, err := Draw(pool, 0, src)
		if err != nil {
			t.Fatal(err)
		}
		if it.ID == "f1" {
			fish++
		}
	}
	frac := float64(fish) / n
	if math.Abs(frac-0.5) > 0.03 {
		t.Errorf("fish fraction = %.3f, want about 0.5", frac)
	}
}

func TestDraw_Distribution(t *testing.T) {
	pool := mountainPool()
	src := rand.New(rand.NewSource(5))
	const n = 20000
	counts := map[types.Rarity]int{}
	for i := 0; i < n; i++ {
		it, err := Draw(pool, 0, src)
		if err != nil {
			t.Fatal(err)
		}
		counts[it.Rarity]++
	}
	for _, r := range []types.Rarity{types.Common, types.Uncommon, types.Rare, types.Epic} {
		got := float64(counts[r]) / n
		if math.Abs(got-baseWeight[r]) > 0.02 {
			t.Errorf("rarity %d: frequency %.3f, want about %.2f", r, got, baseWeight[r])
		}
	}
}

func TestDrawMythegg(t *testing.T) {
	eggs := []types.Item{{ID: "moon_egg", Category: types.CategoryMythegg, Rarity: types.Mythic}}

	src := &enginetest.FixedSource{Values: []float64{0.2, 0}}
	if _, ok := DrawMythegg(eggs, 1, 0, 0.25, src); !ok {
		t.Error("roll 0.2 under chance 0.25 should win")
	}

	src = &enginetest.FixedSource{Values: []float64{0.3}}
	if _, ok := DrawMythegg(eggs, 1, 0, 0.25, src); ok {
		t.Error("roll 0.3 over chance 0.25 should lose")
	}

	src = &enginetest.FixedSource{Values: []float64{0.5}}
	if _, ok := DrawMythegg(eggs, 0, 0.65, 0.25, src); ok || src.Calls() != 0 {
		t.Error("no hearts gained should not roll")
	}
}

func TestMytheggChance_Capped(t *testing.T) {
	if c := MytheggChance(2, 0.5, 0.25); math.Abs(c-0.75) > 1e-9 {
		t.Errorf("chance = %v, want 0.75", c)
	}
	if c := MytheggChance(5, 0.65, 0.25); c != 1 {
		t.Errorf("chance = %v, want capped at 1", c)
	}
}

func TestRollMerchandise(t *testing.T) {
	defs := enginetest.Defs()
	pool := []types.Item{defs.Items["teacup"], defs.Items["silk"], defs.Items["berry"]}
	src := rand.New(rand.NewSource(2))

	for i := 0; i < 50; i++ {
		it, err := RollMerchandise(pool, types.Rare, src)
		if err != nil {
			t.Fatal(err)
		}
		if it.ID != "silk" {
			t.Fatalf("rare slot gave %s", it.ID)
		}
	}

	// No epic items: falls back to a regular draw.
	it, err := RollMerchandise(pool, types.Epic, src)
	if err != nil {
		t.Fatal(err)
	}
	if it.ID == "" {
		t.Error("fallback returned nothing")
	}

	if _, err := RollMerchandise(nil, types.Common, src); !errs.IsInvariant(err) {
		t.Errorf("expected invariant error for empty pool, got %v", err)
	}
}
