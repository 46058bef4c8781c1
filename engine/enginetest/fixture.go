// Package enginetest provides a small, fully-specified world and
// deterministic randomness for engine tests.
package enginetest

import (
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// Rules returns the default tuning used by tests.
func Rules() types.Rules {
	return types.Rules{
		StartDay:              types.Monday,
		StartTime:             360,
		StartKoin:             100,
		Dawn:                  360,
		Sunset:                1200,
		OversleepTime:         600,
		InventorySlots:        12,
		StorageSlots:          24,
		ShopSlots:             12,
		MaxStack:              9,
		MessageLog:            100,
		LuckCap:               130,
		LuckDenominator:       200,
		LuckStep:              10,
		BoostCap:              25,
		BoostDivisor:          30,
		BoostStep:             1,
		MytheggChancePerHeart: 0.25,
	}
}

// Defs builds a small valley:
//
//	farmhouse (home, building in farm)
//	farm <-east/west 20m-> town <-north/south 30m-> mountain
//	town contains general_store (shop, open 8:00-18:00)
//	farm <-south/north 15m-> beach, town <-west/east 25m-> forest
func Defs() *state.Defs {
	tue := types.Tuesday
	return &state.Defs{
		Game: types.GameDef{
			Title:     "Test Valley",
			Author:    "Test",
			Version:   "1.0",
			Start:     "farmhouse",
			Farmhouse: "farmhouse",
		},
		Items: map[string]types.Item{
			"turnip_seed":   {ID: "turnip_seed", Name: "Turnip Seed", Category: types.CategorySeed, Price: 10, Rarity: types.Common, GrowsInto: "turnip_sprout", GrowthDays: 1},
			"turnip_sprout": {ID: "turnip_sprout", Name: "Turnip Sprout", Category: types.CategorySprout, Price: 0, Rarity: types.Common, GrowsInto: "turnip", GrowthDays: 1},
			"turnip":        {ID: "turnip", Name: "Turnip", Category: types.CategoryCrop, Price: 40, Rarity: types.Common},
			"copper":        {ID: "copper", Name: "Copper Ore", Category: types.CategoryMineral, Price: 15, Rarity: types.Common},
			"quartz":        {ID: "quartz", Name: "Quartz", Category: types.CategoryMineral, Price: 30, Rarity: types.Uncommon},
			"ruby":          {ID: "ruby", Name: "Ruby", Category: types.CategoryMineral, Price: 120, Rarity: types.Rare},
			"geode":         {ID: "geode", Name: "Geode", Category: types.CategoryUnknown, Price: 200, Rarity: types.Epic},
			"sardine":       {ID: "sardine", Name: "Sardine", Category: types.CategoryFish, Price: 20, Rarity: types.Common},
			"berry":         {ID: "berry", Name: "Wild Berry", Category: types.CategoryForage, Price: 8, Rarity: types.Common},
			"mushroom":      {ID: "mushroom", Name: "Mushroom", Category: types.CategoryForage, Price: 25, Rarity: types.Uncommon},
			"bouquet":       {ID: "bouquet", Name: "Bouquet", Category: types.CategoryGift, Price: 50, Rarity: types.Uncommon},
			"teacup":        {ID: "teacup", Name: "Teacup", Category: types.CategoryGift, Price: 30, Rarity: types.Common},
			"silk":          {ID: "silk", Name: "Silk Scarf", Category: types.CategoryGift, Price: 90, Rarity: types.Rare},
			"moon_egg":      {ID: "moon_egg", Name: "Moon Egg", Category: types.CategoryMythegg, Price: 0, Rarity: types.Mythic},
		},
		Places: map[string]types.Place{
			"farm":          {ID: "farm", Name: "Farm", Type: types.PlaceFarm, Kind: types.Plain{}},
			"farmhouse":     {ID: "farmhouse", Name: "Farmhouse", Type: types.PlaceHome, Kind: types.Building{Surrounding: "farm"}},
			"town":          {ID: "town", Name: "Town Square", Type: types.PlaceTown, Kind: types.Plain{}},
			"general_store": {ID: "general_store", Name: "General Store", Type: types.PlaceShop, Kind: types.Building{Surrounding: "town", Hours: &types.OpenHours{Open: 480, Close: 1080}}},
			"mountain":      {ID: "mountain", Name: "Mountain", Type: types.PlaceMountain, Kind: types.Plain{}, Pool: []string{"copper", "quartz", "ruby", "geode"}},
			"beach":         {ID: "beach", Name: "Beach", Type: types.PlaceBeach, Kind: types.Plain{}, Pool: []string{"sardine"}},
			"forest":        {ID: "forest", Name: "Forest", Type: types.PlaceForest, Kind: types.Plain{}, Pool: []string{"berry", "mushroom"}},
		},
		PlaceOrder: []string{"farm", "farmhouse", "town", "general_store", "mountain", "beach", "forest"},
		Bridges: []types.Bridge{
			{A: "farm", B: "town", LabelA: "east", LabelB: "west", Minutes: 20},
			{A: "town", B: "mountain", LabelA: "north", LabelB: "south", Minutes: 30},
			{A: "farm", B: "beach", LabelA: "south", LabelB: "north", Minutes: 15},
			{A: "town", B: "forest", LabelA: "west", LabelB: "east", Minutes: 25},
		},
		Villagers: map[string]types.Villager{
			"rosa": {
				ID: "rosa", Name: "Rosa", Friendliness: 5, Location: "town",
				Preferences: map[string]types.Valence{"bouquet": types.Love, "mineral": types.Hate},
				Dialogue: map[string][]string{
					types.TriggerFirstMeeting: {"Oh! A new face. I'm Rosa."},
					types.TriggerTalk:         {"Morning.", "Nice to see you.", "Hello, friend!", "You again! Lovely.", "My favourite person!", "I adore our chats."},
					"love":                    {"I love it!"},
					"hate":                    {"Ugh."},
				},
			},
			"bram": {
				ID: "bram", Name: "Bram", Friendliness: 2, Location: "mountain",
				Preferences: map[string]types.Valence{"ruby": types.Love},
				Dialogue: map[string][]string{
					types.TriggerTalk: {"Hmph.", "Hm.", "Good rocks today.", "Sit, friend.", "You're alright.", "Best miner I know."},
				},
			},
		},
		VillagerOrder: []string{"rosa", "bram"},
		Shops: map[string]types.ShopRecipe{
			"general_store": {
				ID:          "general_store",
				Place:       "general_store",
				Seeds:       []types.StockEntry{{ItemID: "turnip_seed", Quantity: 5}},
				Gift:        &types.StockEntry{ItemID: "bouquet", Quantity: 20},
				Merchandise: []types.Rarity{types.Common, types.Common, types.Rare},
				Pool:        []string{"teacup", "silk", "berry"},
			},
		},
		Events: []types.ScheduledEvent{
			{ID: "store_opens", Daily: true, Time: 480, Kind: types.EventShopPopulates, Shop: "general_store"},
			{ID: "rosa_market", Daily: true, Time: 540, Kind: types.EventVillagerAppears, Villager: "rosa", Place: "town"},
			{ID: "rosa_store", Day: types.Tuesday, Time: 540, Kind: types.EventVillagerAppears, Villager: "rosa", Place: "general_store"},
			{ID: "rosa_home", Daily: true, Time: 1260, Kind: types.EventVillagerAppears, Villager: "rosa", Place: "forest"},
		},
		Achievements: []types.AchievementDef{
			{ID: "hello", Name: "Hello There", Trigger: types.AchTalkToVillagers, Kind: types.KindTalkCount, Threshold: 1},
			{ID: "rosa_best", Name: "Rosa's Best Friend", Trigger: types.AchGainHearts, Kind: types.KindMaxAffinityByDay, Villager: "rosa", Day: &tue},
			{ID: "first_heart", Name: "First Heart", Trigger: types.AchGainHearts, Kind: types.KindHeartsTotal, Threshold: 1},
			{ID: "miner", Name: "Miner", Trigger: types.AchGather, Kind: types.KindActivityIntake, Activity: types.Mining, Threshold: 1},
			{ID: "farmer", Name: "Farmer", Trigger: types.AchEarnMoney, Kind: types.KindActivityIncome, Activity: types.Farming, Threshold: 40},
			{ID: "collector", Name: "Collector", Trigger: types.AchGainAchievement, Kind: types.KindAchievementCount, Threshold: 2},
		},
		Universal: map[types.Category]types.Valence{
			types.CategoryGift:    types.Like,
			types.CategoryMythegg: types.Love,
		},
	}
}

// FixedSource replays a fixed sequence of values. Float64 returns the next
// value; Intn returns the next value scaled into [0, n). The sequence
// repeats when exhausted.
type FixedSource struct {
	Values []float64
	i      int
}

func (f *FixedSource) next() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.i%len(f.Values)]
	f.i++
	return v
}

// Float64 returns the next value in [0, 1).
func (f *FixedSource) Float64() float64 { return f.next() }

// Intn returns the next value scaled into [0, n).
func (f *FixedSource) Intn(n int) int {
	v := int(f.next() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Calls returns how many values were consumed.
func (f *FixedSource) Calls() int { return f.i }
