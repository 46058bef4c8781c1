package achievements

import (
	"testing"

	"github.com/nathoo/heartweek/engine/enginetest"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

func newContext() Context {
	defs := enginetest.Defs()
	return Context{
		Defs:    defs,
		Session: state.NewSession(defs, enginetest.Rules(), "s1", "h1", 1),
		Hero:    &types.Hero{ID: "h1", Achievements: map[string]bool{}},
	}
}

func ids(us []Unlock) []string {
	var out []string
	for _, u := range us {
		out = append(out, u.ID)
	}
	return out
}

func TestEvaluate_TalkCount(t *testing.T) {
	ctx := newContext()
	if got := Evaluate(types.AchTalkToVillagers, ctx); len(got) != 0 {
		t.Fatalf("unlocked %v before any talk", ids(got))
	}

	ctx.Session.Villagers["rosa"].TalkedToCount = 1
	got := Evaluate(types.AchTalkToVillagers, ctx)
	if len(got) != 1 || got[0].ID != "hello" {
		t.Fatalf("got %v, want [hello]", ids(got))
	}
	if got[0].Message != "🏆 Achievement unlocked: Hello There" {
		t.Errorf("message = %q", got[0].Message)
	}
	if !ctx.Hero.Achievements["hello"] {
		t.Error("achievement not recorded on hero")
	}

	if again := Evaluate(types.AchTalkToVillagers, ctx); len(again) != 0 {
		t.Errorf("earned achievement unlocked twice: %v", ids(again))
	}
}

func TestEvaluate_OnlyMatchingTrigger(t *testing.T) {
	ctx := newContext()
	ctx.Session.HeroState.HeartsEarned = 3
	if got := Evaluate(types.AchTalkToVillagers, ctx); len(got) != 0 {
		t.Errorf("hearts achievement fired on talk trigger: %v", ids(got))
	}
}

func TestEvaluate_MetaAchievementRecursion(t *testing.T) {
	ctx := newContext()
	ctx.Session.HeroState.HeartsEarned = 1
	ctx.Session.Villagers["rosa"].Affinity = 100
	ctx.Session.Clock.Day = types.Tuesday

	got := Evaluate(types.AchGainHearts, ctx)
	want := map[string]bool{"rosa_best": true, "first_heart": true, "collector": true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for _, u := range got {
		if !want[u.ID] {
			t.Errorf("unexpected unlock %s", u.ID)
		}
	}
	if got[len(got)-1].ID != "collector" {
		t.Errorf("meta achievement should unlock last, got %v", ids(got))
	}
}

func TestCheck_MaxAffinityDeadline(t *testing.T) {
	ctx := newContext()
	var def types.AchievementDef
	for _, d := range ctx.Defs.Achievements {
		if d.ID == "rosa_best" {
			def = d
		}
	}
	ctx.Session.Villagers["rosa"].Affinity = 100

	ctx.Session.Clock.Day = types.Tuesday
	if !Check(def, ctx) {
		t.Error("should pass on the deadline day")
	}
	ctx.Session.Clock.Day = types.Wednesday
	if Check(def, ctx) {
		t.Error("should fail after the deadline")
	}
	ctx.Session.Clock.Day = types.Monday
	ctx.Session.Villagers["rosa"].Affinity = 99
	if Check(def, ctx) {
		t.Error("should fail below max affinity")
	}
}

func TestCheck_Kinds(t *testing.T) {
	ctx := newContext()
	hs := &ctx.Session.HeroState
	hs.KoinEarned = 120
	hs.HeartsEarned = 2
	hs.Income[types.Farming] = 80
	hs.Intake[types.Mining] = 3
	ctx.Session.Villagers["rosa"].Affinity = 45
	ctx.Session.Villagers["bram"].Affinity = 41
	ctx.Hero.Achievements["a"] = true

	tests := []struct {
		def  types.AchievementDef
		want bool
	}{
		{types.AchievementDef{Kind: types.KindKoinEarned, Threshold: 120}, true},
		{types.AchievementDef{Kind: types.KindKoinEarned, Threshold: 121}, false},
		{types.AchievementDef{Kind: types.KindActivityIncome, Activity: types.Farming, Threshold: 80}, true},
		{types.AchievementDef{Kind: types.KindActivityIncome, Activity: types.Fishing, Threshold: 1}, false},
		{types.AchievementDef{Kind: types.KindActivityIntake, Activity: types.Mining, Threshold: 3}, true},
		{types.AchievementDef{Kind: types.KindAllVillagersTier, Threshold: 2}, true},
		{types.AchievementDef{Kind: types.KindAllVillagersTier, Threshold: 3}, false},
		{types.AchievementDef{Kind: types.KindScore, Threshold: 2400}, true},
		{types.AchievementDef{Kind: types.KindScore, Threshold: 2401}, false},
		{types.AchievementDef{Kind: types.KindAchievementCount, Threshold: 1}, true},
		{types.AchievementDef{Kind: types.KindTalkCount, Villager: "rosa", Threshold: 1}, false},
		{types.AchievementDef{Kind: "mystery"}, false},
	}
	for _, tt := range tests {
		if got := Check(tt.def, ctx); got != tt.want {
			t.Errorf("Check(%s %d) = %v, want %v", tt.def.Kind, tt.def.Threshold, got, tt.want)
		}
	}
}
