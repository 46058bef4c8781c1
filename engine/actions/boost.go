package actions

import "github.com/nathoo/heartweek/types"

// Boosted returns a time cost in minutes reduced by the hero's boost level:
// ⌊minutes × (divisor − min(level, cap)) / divisor⌋.
func Boosted(minutes, level int, r types.Rules) int {
	if level <= 0 || r.BoostDivisor <= 0 {
		return minutes
	}
	if r.BoostCap > 0 && level > r.BoostCap {
		level = r.BoostCap
	}
	if level > r.BoostDivisor {
		level = r.BoostDivisor
	}
	return minutes * (r.BoostDivisor - level) / r.BoostDivisor
}

// ApplyBoost rewrites every time cost in place as boosted minutes. Koin and
// free costs are untouched.
func ApplyBoost(list []Action, level int, r types.Rules) {
	for i := range list {
		c := list[i].Cost
		if !c.IsTime() {
			continue
		}
		list[i].Cost = Cost{Amount: Boosted(c.Minutes(), level, r), Unit: Minutes}
	}
}
