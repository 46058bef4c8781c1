package schedule

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/engine/enginetest"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

func newWorld() (*types.Session, Env) {
	defs := enginetest.Defs()
	r := enginetest.Rules()
	s := state.NewSession(defs, r, "s1", "h1", 42)
	return s, Env{Defs: defs, Rules: r, Src: rand.New(rand.NewSource(1))}
}

// at places the clock and the watermark at day/t.
func at(s *types.Session, day types.Day, t int) {
	s.Clock = clock.New(day, t)
}

func advance(t *testing.T, s *types.Session, minutes int) {
	t.Helper()
	if err := clock.Advance(&s.Clock, minutes); err != nil {
		t.Fatal(err)
	}
}

func contains(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func TestPassTime_Oversleep(t *testing.T) {
	s, env := newWorld()
	s.Location = "farm"
	at(s, types.Monday, 1430)
	advance(t, s, 20)

	out, err := PassTime(s, env)
	if err != nil {
		t.Fatalf("PassTime: %v", err)
	}
	if s.Clock.Day != types.Tuesday || s.Clock.Time != 600 {
		t.Errorf("clock = %s %s, want Tuesday 10:00 AM", clock.DayName(s.Clock.Day), clock.Format(s.Clock.Time))
	}
	if s.Clock.IsNewDay || s.HeroState.IsInBed {
		t.Errorf("flags not cleared: %+v", s.Clock)
	}
	if !contains(out.Messages, "overslept") {
		t.Errorf("missing oversleep warning: %v", out.Messages)
	}
	if s.Clock.LastTriggeredDay != types.Tuesday || s.Clock.LastTriggeredTime != 600 {
		t.Errorf("watermark = %d/%d", s.Clock.LastTriggeredDay, s.Clock.LastTriggeredTime)
	}
	if got := strings.Join(out.Fired, ","); got != "store_opens,rosa_market,rosa_store" {
		t.Errorf("fired = %s, want the Tuesday morning events", got)
	}
	if loc := s.Villagers["rosa"].Location; loc != "general_store" {
		t.Errorf("rosa at %q, want general_store", loc)
	}
}

func TestPassTime_InBedWakesAtDawn(t *testing.T) {
	s, env := newWorld()
	at(s, types.Monday, 1260)
	s.HeroState.IsInBed = true
	if err := clock.AdvanceTo(&s.Clock, 0); err != nil {
		t.Fatal(err)
	}

	out, err := PassTime(s, env)
	if err != nil {
		t.Fatal(err)
	}
	if s.Clock.Day != types.Tuesday || s.Clock.Time != 360 {
		t.Errorf("clock = %+v, want Tuesday dawn", s.Clock)
	}
	if s.HeroState.IsInBed {
		t.Error("hero still in bed after waking")
	}
	if !contains(out.Messages, "Good morning") || contains(out.Messages, "overslept") {
		t.Errorf("messages = %v", out.Messages)
	}
}

func TestPassTime_RolloverResetsDailyFlags(t *testing.T) {
	s, env := newWorld()
	at(s, types.Monday, 1430)
	s.Villagers["rosa"].TalkedToday = true
	s.Villagers["bram"].GiftedToday = true
	advance(t, s, 20)

	if _, err := PassTime(s, env); err != nil {
		t.Fatal(err)
	}
	if s.Villagers["rosa"].TalkedToday || s.Villagers["bram"].GiftedToday {
		t.Error("daily flags not reset")
	}
}

func TestPassTime_GameOverOnSunday(t *testing.T) {
	s, env := newWorld()
	at(s, types.Sunday, 1430)
	s.Villagers["rosa"].TalkedToday = true
	advance(t, s, 20)

	out, err := PassTime(s, env)
	if err != nil {
		t.Fatal(err)
	}
	if !out.GameOver || !s.GameOver {
		t.Fatal("expected game over")
	}
	if !s.Villagers["rosa"].TalkedToday {
		t.Error("day reset ran after game over")
	}
	if s.Clock.Day != types.Monday || s.Clock.Time != 10 {
		t.Errorf("clock moved after game over: %+v", s.Clock)
	}
	if !out.Changes.Has(state.ChangedGameOver) {
		t.Error("gameOver group not marked")
	}
}

func TestPassTime_SaturdayRolloverIsNotGameOver(t *testing.T) {
	s, env := newWorld()
	at(s, types.Saturday, 1430)
	advance(t, s, 20)

	out, err := PassTime(s, env)
	if err != nil {
		t.Fatal(err)
	}
	if out.GameOver || s.Clock.Day != types.Sunday {
		t.Errorf("game over = %v, day = %v", out.GameOver, s.Clock.Day)
	}
}

func TestDue_SpansMidnightInOrder(t *testing.T) {
	defs := enginetest.Defs()
	c := clock.New(types.Monday, 1250)
	c.Day, c.Time = types.Tuesday, 600

	got := Due(c, defs.Events)
	var ids []string
	for _, ev := range got {
		ids = append(ids, ev.ID)
	}
	want := []string{"rosa_home", "store_opens", "rosa_market", "rosa_store"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("due = %v, want %v", ids, want)
	}
}

func TestDue_WindowIsHalfOpen(t *testing.T) {
	defs := enginetest.Defs()
	c := clock.New(types.Monday, 480)
	c.Time = 540
	got := Due(c, defs.Events)
	if len(got) != 1 || got[0].ID != "rosa_market" {
		t.Errorf("due = %+v, want only rosa_market", got)
	}
}

func TestPassTime_SpecificDayOverridesDaily(t *testing.T) {
	s, env := newWorld()
	at(s, types.Tuesday, 500)
	advance(t, s, 60)

	out, err := PassTime(s, env)
	if err != nil {
		t.Fatal(err)
	}
	if loc := s.Villagers["rosa"].Location; loc != "general_store" {
		t.Errorf("rosa at %q, want general_store", loc)
	}
	if strings.Join(out.Fired, ",") != "rosa_market,rosa_store" {
		t.Errorf("fired = %v", out.Fired)
	}
}

func TestPassTime_ArrivalMessage(t *testing.T) {
	s, env := newWorld()
	s.Location = "forest"
	at(s, types.Monday, 1250)
	advance(t, s, 20)

	out, err := PassTime(s, env)
	if err != nil {
		t.Fatal(err)
	}
	if !contains(out.Messages, "Rosa arrives.") {
		t.Errorf("messages = %v", out.Messages)
	}
}

func TestPopulate(t *testing.T) {
	s, env := newWorld()
	var out Outcome
	if err := Populate(s, env, "general_store", &out); err != nil {
		t.Fatal(err)
	}

	qty := map[string]int{}
	for _, tok := range s.Places["general_store"].Contents {
		qty[tok.ItemID] += tok.Quantity
	}
	if qty["turnip_seed"] != 5 {
		t.Errorf("seeds = %d, want 5", qty["turnip_seed"])
	}
	if qty["bouquet"] != 9 {
		t.Errorf("gift slot = %d, want capped at 9", qty["bouquet"])
	}
	if qty["silk"] != 1 {
		t.Errorf("rare slot = %d silk, want 1", qty["silk"])
	}
	if qty["teacup"]+qty["berry"] != 2 {
		t.Errorf("common slots = %v", qty)
	}
	if !out.Changes.Has(state.ChangedPlace) {
		t.Error("place group not marked")
	}
}

func TestPopulate_ReplacesStock(t *testing.T) {
	s, env := newWorld()
	s.Places["general_store"].Contents = []types.ItemToken{{ID: "old", ItemID: "ruby", Quantity: 3}}
	var out Outcome
	if err := Populate(s, env, "general_store", &out); err != nil {
		t.Fatal(err)
	}
	for _, tok := range s.Places["general_store"].Contents {
		if tok.ID == "old" {
			t.Error("old stock survived restock")
		}
	}
}

func TestPopulate_TooManySlots(t *testing.T) {
	s, env := newWorld()
	env.Rules.ShopSlots = 2
	s.Places["general_store"].Contents = []types.ItemToken{{ID: "old", ItemID: "ruby", Quantity: 3}}

	var out Outcome
	err := Populate(s, env, "general_store", &out)
	if !errs.IsInvariant(err) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if s.Places["general_store"].Contents[0].ID != "old" {
		t.Error("stock replaced despite error")
	}
}

func TestRollover_GrowsWateredOnly(t *testing.T) {
	s, env := newWorld()
	at(s, types.Monday, 1430)
	seed := state.NewToken(s, "turnip_seed")
	seed.Watered = true
	dry := state.NewToken(s, "turnip_seed")
	s.Places["farm"].Contents = []types.ItemToken{seed, dry}
	advance(t, s, 20)

	if _, err := PassTime(s, env); err != nil {
		t.Fatal(err)
	}
	field := s.Places["farm"].Contents
	if field[0].ItemID != "turnip_sprout" || field[0].Watered {
		t.Errorf("watered seed = %+v, want unwatered sprout", field[0])
	}
	if field[1].ItemID != "turnip_seed" || field[1].DaysGrowing != 0 {
		t.Errorf("dry seed = %+v, want untouched", field[1])
	}
}

func TestGeneratorAfterGrowth_OnlyHarvest(t *testing.T) {
	s, env := newWorld()
	s.Location = "farm"
	at(s, types.Monday, 1430)
	for i := 0; i < 3; i++ {
		tok := state.NewToken(s, "turnip_sprout")
		tok.Watered = true
		s.Places["farm"].Contents = append(s.Places["farm"].Contents, tok)
	}
	advance(t, s, 20)
	if _, err := PassTime(s, env); err != nil {
		t.Fatal(err)
	}

	ctx, err := actions.ContextFor(s, env.Defs, env.Rules, 0)
	if err != nil {
		t.Fatal(err)
	}
	list, err := actions.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[actions.Kind]int{}
	for _, a := range list {
		counts[a.Kind]++
	}
	if counts[actions.Harvest] != 3 {
		t.Errorf("harvest = %d, want 3", counts[actions.Harvest])
	}
	if counts[actions.Plant] != 0 || counts[actions.Water] != 0 {
		t.Errorf("plant = %d, water = %d, want 0", counts[actions.Plant], counts[actions.Water])
	}
}

func TestPassTime_CorruptClock(t *testing.T) {
	s, env := newWorld()
	s.Clock.Time = -5
	if _, err := PassTime(s, env); !errs.IsInvariant(err) {
		t.Errorf("expected invariant error, got %v", err)
	}
}
