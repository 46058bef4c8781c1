// Package actions defines the closed catalog of player actions, the
// generator that lists the legal ones for the current session, and the
// digest used to request one of them back.
package actions

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/heartweek/types"
)

// Kind is one of the closed set of action variants.
type Kind int

const (
	Travel Kind = iota + 1
	Talk
	Give
	Plant
	Water
	Harvest
	Buy
	Sell
	Stow
	Retrieve
	Gather
	Sleep
)

var kindNames = map[Kind]string{
	Travel:   "travel",
	Talk:     "talk",
	Give:     "give",
	Plant:    "plant",
	Water:    "water",
	Harvest:  "harvest",
	Buy:      "buy",
	Sell:     "sell",
	Stow:     "stow",
	Retrieve: "retrieve",
	Gather:   "gather",
	Sleep:    "sleep",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds returns every action kind in declaration order.
func Kinds() []Kind {
	return []Kind{Travel, Talk, Give, Plant, Water, Harvest, Buy, Sell, Stow, Retrieve, Gather, Sleep}
}

// Unit is what a cost is paid in.
type Unit int

const (
	None Unit = iota
	Minutes
	Hours
	Koin
)

// Cost is an amount in a unit.
type Cost struct {
	Amount int
	Unit   Unit
}

// IsTime reports whether the cost is paid in clock time.
func (c Cost) IsTime() bool {
	return c.Unit == Minutes || c.Unit == Hours
}

// Minutes returns the time cost in minutes, or 0 for non-time costs.
func (c Cost) Minutes() int {
	switch c.Unit {
	case Minutes:
		return c.Amount
	case Hours:
		return c.Amount * 60
	default:
		return 0
	}
}

func (c Cost) String() string {
	switch c.Unit {
	case Minutes:
		return fmt.Sprintf("%d min", c.Amount)
	case Hours:
		return fmt.Sprintf("%d h", c.Amount)
	case Koin:
		return fmt.Sprintf("%d koin", c.Amount)
	default:
		return ""
	}
}

// Fixed time costs in minutes.
const (
	BuildingMinutes = 5
	FarmMinutes     = 10
	GiftMinutes     = 10
	TalkPerFriendly = 10
)

// GatherFor returns the gathering activity and its cost for a wild place type.
func GatherFor(pt types.PlaceType) (types.Activity, int, bool) {
	switch pt {
	case types.PlaceMountain:
		return types.Mining, 90, true
	case types.PlaceBeach:
		return types.Fishing, 60, true
	case types.PlaceForest:
		return types.Foraging, 30, true
	default:
		return "", 0, false
	}
}

// Action is one generated, ephemeral choice. Item, Villager and Place are
// its targets; each is empty when unused.
type Action struct {
	Kind        Kind
	Description string
	Cost        Cost
	Item        *types.ItemToken
	Villager    string
	Place       string
	Activity    types.Activity // Gather only
	Template    string
	Digest      string
}

// Targets returns the non-empty target IDs.
func (a Action) Targets() []string {
	var ids []string
	if a.Item != nil {
		ids = append(ids, a.Item.ID)
	}
	if a.Villager != "" {
		ids = append(ids, a.Villager)
	}
	if a.Place != "" {
		ids = append(ids, a.Place)
	}
	return ids
}

// Digest is the stable handle for an action: the kind and its sorted
// target IDs, hashed.
func Digest(a Action) string {
	ids := a.Targets()
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(a.Kind.String() + ":" + strings.Join(ids, ",")))
	return hex.EncodeToString(sum[:6])
}

// Template placeholders.
const (
	PhResult       = "{result}"
	PhItemName     = "{item_name}"
	PhVillagerName = "{villager_name}"
	PhValenceText  = "{valence_text}"
)

var templates = map[Kind]string{
	Travel:   "You head to {result}.",
	Talk:     "{villager_name}: \"{result}\"",
	Give:     "You give the {item_name} to {villager_name}. {valence_text}",
	Plant:    "You plant the {item_name}.",
	Water:    "You water the {item_name}.",
	Harvest:  "You harvest a {item_name}.",
	Buy:      "You buy a {item_name}.",
	Sell:     "You sell the {item_name} for {result}.",
	Stow:     "You stow the {item_name} in your chest.",
	Retrieve: "You take the {item_name} out of your chest.",
	Gather:   "You found {result}!",
	Sleep:    "You climb into bed.",
}

// Template returns the log template for a kind.
func Template(k Kind) string {
	return templates[k]
}

// Fill replaces placeholders in a template. Unknown keys are left alone.
func Fill(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, k, vars[k])
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(tmpl))
}
