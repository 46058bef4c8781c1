// Package loader loads Lua content into Go structs at start-up.
// The Lua VM is discarded after loading, so no Lua runs during play.
package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// stringList converts the array part of a Lua table to strings.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

// getTime reads a time of day given as "HH:MM" or as minutes.
func getTime(tbl *lua.LTable, key string) (int, bool, error) {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LString:
		t, err := clock.ParseTime(string(v))
		return t, true, err
	case lua.LNumber:
		return int(v), true, nil
	default:
		return 0, false, nil
	}
}

var rarities = map[string]types.Rarity{
	"common":   types.Common,
	"uncommon": types.Uncommon,
	"rare":     types.Rare,
	"epic":     types.Epic,
	"mythic":   types.Mythic,
}

func parseRarity(s string) (types.Rarity, error) {
	if s == "" {
		return types.Common, nil
	}
	r, ok := rarities[s]
	if !ok {
		return 0, fmt.Errorf("unknown rarity %q", s)
	}
	return r, nil
}

var categories = map[string]types.Category{
	"seed":    types.CategorySeed,
	"sprout":  types.CategorySprout,
	"crop":    types.CategoryCrop,
	"fish":    types.CategoryFish,
	"mineral": types.CategoryMineral,
	"forage":  types.CategoryForage,
	"gift":    types.CategoryGift,
	"mythegg": types.CategoryMythegg,
	"unknown": types.CategoryUnknown,
}

var placeTypes = map[string]types.PlaceType{
	"farm":     types.PlaceFarm,
	"town":     types.PlaceTown,
	"mountain": types.PlaceMountain,
	"forest":   types.PlaceForest,
	"beach":    types.PlaceBeach,
	"shop":     types.PlaceShop,
	"home":     types.PlaceHome,
}

var valences = map[string]types.Valence{
	"love":    types.Love,
	"like":    types.Like,
	"neutral": types.Neutral,
	"dislike": types.Dislike,
	"hate":    types.Hate,
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		Items:     map[string]types.Item{},
		Places:    map[string]types.Place{},
		Villagers: map[string]types.Villager{},
		Shops:     map[string]types.ShopRecipe{},
		Universal: map[types.Category]types.Valence{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.items {
		if _, dup := defs.Items[raw.id]; dup {
			return nil, fmt.Errorf("duplicate item %q", raw.id)
		}
		it, err := compileItem(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling item %s: %w", raw.id, err)
		}
		defs.Items[it.ID] = it
	}

	// Places and buildings share one namespace, in source order.
	places := append(append([]rawDef{}, coll.places...), coll.buildings...)
	sort.SliceStable(places, func(i, j int) bool { return places[i].order < places[j].order })
	isBuilding := map[int]bool{}
	for _, raw := range coll.buildings {
		isBuilding[raw.order] = true
	}
	for _, raw := range places {
		if _, dup := defs.Places[raw.id]; dup {
			return nil, fmt.Errorf("duplicate place %q", raw.id)
		}
		p, err := compilePlace(raw, isBuilding[raw.order])
		if err != nil {
			return nil, fmt.Errorf("compiling place %s: %w", raw.id, err)
		}
		defs.Places[p.ID] = p
		defs.PlaceOrder = append(defs.PlaceOrder, p.ID)
	}

	for _, tbl := range coll.bridges {
		defs.Bridges = append(defs.Bridges, compileBridge(tbl))
	}

	for _, raw := range coll.villagers {
		if _, dup := defs.Villagers[raw.id]; dup {
			return nil, fmt.Errorf("duplicate villager %q", raw.id)
		}
		v, err := compileVillager(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling villager %s: %w", raw.id, err)
		}
		defs.Villagers[v.ID] = v
		defs.VillagerOrder = append(defs.VillagerOrder, v.ID)
	}

	for _, raw := range coll.shops {
		if _, dup := defs.Shops[raw.id]; dup {
			return nil, fmt.Errorf("duplicate shop %q", raw.id)
		}
		sh, err := compileShop(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling shop %s: %w", raw.id, err)
		}
		defs.Shops[sh.ID] = sh
	}

	for _, raw := range coll.events {
		ev, err := compileEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling event %s: %w", raw.id, err)
		}
		defs.Events = append(defs.Events, ev)
	}

	for _, raw := range coll.achievements {
		a, err := compileAchievement(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling achievement %s: %w", raw.id, err)
		}
		defs.Achievements = append(defs.Achievements, a)
	}

	if coll.universal != nil {
		var err error
		coll.universal.ForEach(func(k, v lua.LValue) {
			if err != nil {
				return
			}
			cat, ok := categories[k.String()]
			if !ok {
				err = fmt.Errorf("Universal: unknown category %q", k.String())
				return
			}
			val, ok := valences[v.String()]
			if !ok {
				err = fmt.Errorf("Universal: unknown valence %q", v.String())
				return
			}
			defs.Universal[cat] = val
		})
		if err != nil {
			return nil, err
		}
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:     getString(tbl, "title"),
		Author:    getString(tbl, "author"),
		Version:   getString(tbl, "version"),
		Start:     getString(tbl, "start"),
		Farmhouse: getString(tbl, "farmhouse"),
		Intro:     getString(tbl, "intro"),
	}
}

func compileItem(raw rawDef) (types.Item, error) {
	tbl := raw.table
	it := types.Item{
		ID:         raw.id,
		Name:       getString(tbl, "name"),
		Price:      getInt(tbl, "price"),
		GrowsInto:  getString(tbl, "grows_into"),
		GrowthDays: getInt(tbl, "growth_days"),
		Emoji:      getString(tbl, "emoji"),
	}
	cat, ok := categories[getString(tbl, "category")]
	if !ok {
		return it, fmt.Errorf("unknown category %q", getString(tbl, "category"))
	}
	it.Category = cat
	r, err := parseRarity(getString(tbl, "rarity"))
	if err != nil {
		return it, err
	}
	it.Rarity = r
	if it.Category == types.CategoryMythegg && getString(tbl, "rarity") == "" {
		it.Rarity = types.Mythic
	}
	if (it.Category == types.CategorySeed || it.Category == types.CategorySprout) && it.GrowthDays == 0 {
		it.GrowthDays = 1
	}
	return it, nil
}

func compilePlace(raw rawDef, building bool) (types.Place, error) {
	tbl := raw.table
	p := types.Place{
		ID:    raw.id,
		Name:  getString(tbl, "name"),
		Pool:  stringList(getTable(tbl, "pool")),
		Emoji: getString(tbl, "emoji"),
	}
	pt, ok := placeTypes[getString(tbl, "type")]
	if !ok {
		return p, fmt.Errorf("unknown place type %q", getString(tbl, "type"))
	}
	p.Type = pt
	if !building {
		p.Kind = types.Plain{}
		return p, nil
	}

	b := types.Building{Surrounding: getString(tbl, "surrounding")}
	open, hasOpen, err := getTime(tbl, "open")
	if err != nil {
		return p, err
	}
	closeAt, hasClose, err := getTime(tbl, "close")
	if err != nil {
		return p, err
	}
	if hasOpen != hasClose {
		return p, fmt.Errorf("open and close must be given together")
	}
	if hasOpen {
		b.Hours = &types.OpenHours{Open: open, Close: closeAt}
	}
	p.Kind = b
	return p, nil
}

func compileBridge(tbl *lua.LTable) types.Bridge {
	return types.Bridge{
		A:       getString(tbl, "a"),
		B:       getString(tbl, "b"),
		LabelA:  getString(tbl, "label_a"),
		LabelB:  getString(tbl, "label_b"),
		Minutes: getInt(tbl, "minutes"),
	}
}

func compileVillager(raw rawDef) (types.Villager, error) {
	tbl := raw.table
	v := types.Villager{
		ID:           raw.id,
		Name:         getString(tbl, "name"),
		Friendliness: getInt(tbl, "friendliness"),
		Location:     getString(tbl, "location"),
		Portrait:     getString(tbl, "portrait"),
		Preferences:  map[string]types.Valence{},
		Dialogue:     map[string][]string{},
	}
	for key, s := range tableToStringMap(getTable(tbl, "preferences")) {
		val, ok := valences[s]
		if !ok {
			return v, fmt.Errorf("preference %s: unknown valence %q", key, s)
		}
		v.Preferences[key] = val
	}
	if dlg := getTable(tbl, "dialogue"); dlg != nil {
		dlg.ForEach(func(k, lv lua.LValue) {
			trigger, ok := k.(lua.LString)
			if !ok {
				return
			}
			switch lines := lv.(type) {
			case lua.LString:
				v.Dialogue[string(trigger)] = []string{string(lines)}
			case *lua.LTable:
				v.Dialogue[string(trigger)] = stringList(lines)
			}
		})
	}
	return v, nil
}

func compileStock(tbl *lua.LTable) types.StockEntry {
	return types.StockEntry{ItemID: getString(tbl, "item"), Quantity: getInt(tbl, "quantity")}
}

func compileShop(raw rawDef) (types.ShopRecipe, error) {
	tbl := raw.table
	sh := types.ShopRecipe{
		ID:    raw.id,
		Place: getString(tbl, "place"),
		Pool:  stringList(getTable(tbl, "pool")),
	}
	if sh.Place == "" {
		sh.Place = raw.id
	}
	if seeds := getTable(tbl, "seeds"); seeds != nil {
		for i := 1; i <= seeds.MaxN(); i++ {
			if e, ok := seeds.RawGetInt(i).(*lua.LTable); ok {
				sh.Seeds = append(sh.Seeds, compileStock(e))
			}
		}
	}
	if gift := getTable(tbl, "gift"); gift != nil {
		e := compileStock(gift)
		sh.Gift = &e
	}
	for _, s := range stringList(getTable(tbl, "merchandise")) {
		r, err := parseRarity(s)
		if err != nil {
			return sh, fmt.Errorf("merchandise: %w", err)
		}
		sh.Merchandise = append(sh.Merchandise, r)
	}
	return sh, nil
}

func compileEvent(raw rawDef) (types.ScheduledEvent, error) {
	tbl := raw.table
	ev := types.ScheduledEvent{
		ID:       raw.id,
		Daily:    getBool(tbl, "daily", false),
		Shop:     getString(tbl, "populate"),
		Villager: getString(tbl, "villager"),
		Place:    getString(tbl, "place"),
	}
	t, ok, err := getTime(tbl, "time")
	if err != nil {
		return ev, err
	}
	if !ok {
		return ev, fmt.Errorf("time is required")
	}
	ev.Time = t
	if day := getString(tbl, "day"); day != "" {
		d, err := clock.ParseDay(day)
		if err != nil {
			return ev, err
		}
		ev.Day = d
	} else if !ev.Daily {
		return ev, fmt.Errorf("either day or daily is required")
	}
	switch {
	case ev.Shop != "" && ev.Villager == "":
		ev.Kind = types.EventShopPopulates
	case ev.Villager != "" && ev.Shop == "":
		ev.Kind = types.EventVillagerAppears
	default:
		return ev, fmt.Errorf("event must either populate a shop or move a villager")
	}
	return ev, nil
}

func compileAchievement(raw rawDef) (types.AchievementDef, error) {
	tbl := raw.table
	a := types.AchievementDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Trigger:     getString(tbl, "trigger"),
		Kind:        getString(tbl, "kind"),
		Threshold:   getInt(tbl, "threshold"),
		Villager:    getString(tbl, "villager"),
		Activity:    types.Activity(getString(tbl, "activity")),
	}
	if day := getString(tbl, "day"); day != "" {
		d, err := clock.ParseDay(day)
		if err != nil {
			return a, err
		}
		a.Day = &d
	}
	return a, nil
}

// sortedLuaFiles returns .lua files with game.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
