// Package dialogue picks villager lines by trigger and heart tier.
package dialogue

import (
	"fmt"
	"strings"

	"github.com/nathoo/heartweek/types"
)

// Fallback is said when a villager has no line for a trigger.
const Fallback = "..."

// Line returns the villager's line for trigger at tier. Tiers past the end
// of the authored lines use the last line.
func Line(v types.Villager, trigger string, tier int) (string, bool) {
	lines := v.Dialogue[trigger]
	if len(lines) == 0 {
		return "", false
	}
	if tier < 0 {
		tier = 0
	}
	if tier >= len(lines) {
		tier = len(lines) - 1
	}
	return lines[tier], true
}

// IsFirstMeeting reports whether the hero has never interacted with vs.
func IsFirstMeeting(vs *types.VillagerState) bool {
	return vs.TalkedToCount == 0 && vs.GiftsReceived == 0
}

// Greeting picks what a villager says when talked to.
func Greeting(v types.Villager, vs *types.VillagerState, tier int) string {
	if IsFirstMeeting(vs) {
		if line, ok := Line(v, types.TriggerFirstMeeting, 0); ok {
			return line
		}
	}
	if line, ok := Line(v, types.TriggerTalk, tier); ok {
		return line
	}
	return Fallback
}

var reactionText = map[types.Valence]string{
	types.Love:    "%s loves it!",
	types.Like:    "%s likes it.",
	types.Neutral: "%s accepts it politely.",
	types.Dislike: "%s doesn't seem to like it.",
	types.Hate:    "%s hates it!",
}

// Reaction describes how a villager takes a gift. An authored line for
// the valence is quoted after the stock sentence.
func Reaction(v types.Villager, val types.Valence, tier int) string {
	text := fmt.Sprintf(reactionText[val], v.Name)
	if line, ok := Line(v, string(val), tier); ok {
		text += fmt.Sprintf(" \"%s\"", line)
	}
	return text
}

// Hearts renders n heart glyphs.
func Hearts(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("❤", n)
}
