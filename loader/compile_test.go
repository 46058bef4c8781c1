package loader

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/heartweek/types"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := newVM()
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

func run(t *testing.T, src string) *collector {
	t.Helper()
	L, coll := newTestVM()
	t.Cleanup(L.Close)
	if err := L.DoString(src); err != nil {
		t.Fatal(err)
	}
	return coll
}

const minimalGame = `Game { title = "T", start = "farm" }`

func TestCompile_RequiresGame(t *testing.T) {
	coll := run(t, `Item "x" { name = "X", category = "crop" }`)
	if _, err := compile(coll); err == nil || !strings.Contains(err.Error(), "no Game{}") {
		t.Errorf("got %v", err)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown category", `Item "x" { name = "X", category = "hat" }`, `unknown category "hat"`},
		{"unknown rarity", `Item "x" { name = "X", category = "crop", rarity = "legendary" }`, `unknown rarity "legendary"`},
		{"duplicate item", `Item "x" { category = "crop" } Item "x" { category = "crop" }`, `duplicate item "x"`},
		{"unknown place type", `Place "p" { type = "castle" }`, `unknown place type "castle"`},
		{"duplicate place", `Place "p" { type = "farm" } Building "p" { type = "home" }`, `duplicate place "p"`},
		{"half hours", `Building "b" { type = "shop", open = "08:00" }`, "open and close"},
		{"bad time", `Building "b" { type = "shop", open = "8am", close = "18:00" }`, `time "8am"`},
		{"bad valence", `Villager "v" { preferences = { x = "adore" } }`, `unknown valence "adore"`},
		{"event without time", `Event "e" { daily = true, populate = "s" }`, "time is required"},
		{"event without day", `Event "e" { time = "08:00", populate = "s" }`, "day or daily"},
		{"event with both", `Event "e" { daily = true, time = 1, populate = "s", villager = "v" }`, "either populate"},
		{"bad day", `Event "e" { day = "Caturday", time = 1, populate = "s" }`, "unknown day"},
		{"bad merchandise", `Shop "s" { merchandise = { "shiny" } }`, `unknown rarity "shiny"`},
		{"bad universal", `Universal { hat = "like" }`, `unknown category "hat"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll := run(t, minimalGame+"\n"+tt.src)
			_, err := compile(coll)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestCompileVillager_SingleLineDialogue(t *testing.T) {
	coll := run(t, minimalGame+`
		Villager "v" { name = "V", dialogue = { first_meeting = "Hi.", talk = { "a", "b" } } }
	`)
	defs, err := compile(coll)
	if err != nil {
		t.Fatal(err)
	}
	v := defs.Villagers["v"]
	if len(v.Dialogue[types.TriggerFirstMeeting]) != 1 || len(v.Dialogue[types.TriggerTalk]) != 2 {
		t.Errorf("dialogue = %v", v.Dialogue)
	}
}

func TestCompileItem_GrowthDefaults(t *testing.T) {
	coll := run(t, minimalGame+`
		Item "s" { category = "sprout", grows_into = "c", growth_days = 3 }
		Item "p" { category = "seed", grows_into = "s" }
	`)
	defs, err := compile(coll)
	if err != nil {
		t.Fatal(err)
	}
	if defs.Items["s"].GrowthDays != 3 || defs.Items["p"].GrowthDays != 1 {
		t.Errorf("growth days = %d, %d", defs.Items["s"].GrowthDays, defs.Items["p"].GrowthDays)
	}
}

func TestLoadString(t *testing.T) {
	_, err := LoadString(`Game { title = "T" }`, quiet)
	if err == nil || !strings.Contains(err.Error(), "Game.start is required") {
		t.Errorf("got %v", err)
	}
	if _, err := LoadString(`this is not lua`, quiet); err == nil {
		t.Error("expected syntax error")
	}
}
