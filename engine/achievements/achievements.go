// Package achievements evaluates achievement predicates after the trigger
// categories that can satisfy them.
package achievements

import (
	"fmt"

	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// Context is what predicates read.
type Context struct {
	Defs    *state.Defs
	Session *types.Session
	Hero    *types.Hero
}

// Unlock is one newly earned achievement.
type Unlock struct {
	ID      string
	Name    string
	Message string
}

// Triggers lists the categories the engine raises.
var Triggers = []string{
	types.AchTalkToVillagers,
	types.AchGainHearts,
	types.AchEarnMoney,
	types.AchHarvest,
	types.AchGather,
	types.AchGainAchievement,
	types.AchScorePoints,
}

// Kinds lists the predicates Check understands.
var Kinds = []string{
	types.KindTalkCount,
	types.KindMaxAffinityByDay,
	types.KindHeartsTotal,
	types.KindAllVillagersTier,
	types.KindKoinEarned,
	types.KindActivityIncome,
	types.KindActivityIntake,
	types.KindAchievementCount,
	types.KindScore,
}

// Check evaluates one definition's predicate. Unknown kinds never pass.
func Check(def types.AchievementDef, ctx Context) bool {
	s := ctx.Session
	hs := s.HeroState

	switch def.Kind {
	case types.KindTalkCount:
		if def.Villager != "" {
			vs, ok := s.Villagers[def.Villager]
			return ok && vs.TalkedToCount >= def.Threshold
		}
		n := 0
		for _, vs := range s.Villagers {
			if vs.TalkedToCount > 0 {
				n++
			}
		}
		return n >= def.Threshold

	case types.KindMaxAffinityByDay:
		vs, ok := s.Villagers[def.Villager]
		if !ok || vs.Affinity < state.MaxAffinity {
			return false
		}
		return def.Day == nil || s.Clock.Day <= *def.Day

	case types.KindHeartsTotal:
		return hs.HeartsEarned >= def.Threshold

	case types.KindAllVillagersTier:
		if len(s.Villagers) == 0 {
			return false
		}
		for _, vs := range s.Villagers {
			if state.Tier(vs.Affinity) < def.Threshold {
				return false
			}
		}
		return true

	case types.KindKoinEarned:
		return hs.KoinEarned >= def.Threshold

	case types.KindActivityIncome:
		return hs.Income[def.Activity] >= def.Threshold

	case types.KindActivityIntake:
		return hs.Intake[def.Activity] >= def.Threshold

	case types.KindAchievementCount:
		return earnedCount(ctx.Hero) >= def.Threshold

	case types.KindScore:
		return state.Score(hs) >= def.Threshold

	default:
		return false
	}
}

func earnedCount(h *types.Hero) int {
	n := 0
	for _, ok := range h.Achievements {
		if ok {
			n++
		}
	}
	return n
}

// Evaluate checks every unearned achievement of the trigger category and
// records the ones that now pass on the hero. Earning anything queues a
// gainAchievement pass, repeated until nothing new unlocks.
func Evaluate(trigger string, ctx Context) []Unlock {
	if ctx.Hero.Achievements == nil {
		ctx.Hero.Achievements = map[string]bool{}
	}

	var unlocked []Unlock
	pending := []string{trigger}
	for len(pending) > 0 {
		cat := pending[0]
		pending = pending[1:]

		earned := false
		for _, def := range ctx.Defs.Achievements {
			if def.Trigger != cat || ctx.Hero.Achievements[def.ID] {
				continue
			}
			if !Check(def, ctx) {
				continue
			}
			ctx.Hero.Achievements[def.ID] = true
			unlocked = append(unlocked, Unlock{
				ID:      def.ID,
				Name:    def.Name,
				Message: fmt.Sprintf("🏆 Achievement unlocked: %s", def.Name),
			})
			earned = true
		}
		if earned {
			pending = append(pending, types.AchGainAchievement)
		}
	}
	return unlocked
}

// EvaluateAll runs Evaluate for each trigger in order.
func EvaluateAll(triggers []string, ctx Context) []Unlock {
	var out []Unlock
	for _, t := range triggers {
		out = append(out, Evaluate(t, ctx)...)
	}
	return out
}
