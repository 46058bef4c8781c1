package actions

import (
	"fmt"

	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// Context is everything the generator reads. It is never mutated.
type Context struct {
	Defs       *state.Defs
	Rules      types.Rules
	Place      types.Place
	Inventory  []types.ItemToken
	Storage    []types.ItemToken
	Contents   []types.ItemToken
	Villagers  []*types.VillagerState
	Clock      types.Clock
	BoostLevel int
}

// ContextFor builds the generator context for the hero's current location.
func ContextFor(s *types.Session, defs *state.Defs, r types.Rules, boost int) (Context, error) {
	place, ok := defs.Places[s.Location]
	if !ok {
		return Context{}, errs.Validationf("hero is at unknown place %q", s.Location)
	}
	var contents []types.ItemToken
	if ps, ok := s.Places[place.ID]; ok {
		contents = ps.Contents
	}
	return Context{
		Defs:       defs,
		Rules:      r,
		Place:      place,
		Inventory:  s.Inventory,
		Storage:    s.Storage,
		Contents:   contents,
		Villagers:  state.VillagersAt(s, defs, place.ID),
		Clock:      s.Clock,
		BoostLevel: boost,
	}, nil
}

// Generate returns every legal action in ctx. The rules are additive and
// each keeps its input order.
func Generate(ctx Context) ([]Action, error) {
	if err := guard(ctx); err != nil {
		return nil, err
	}
	defs := ctx.Defs
	place := ctx.Place

	var out []Action
	add := func(a Action) {
		if a.Template == "" {
			a.Template = Template(a.Kind)
		}
		out = append(out, a)
	}

	// Leave a building.
	if b, ok := place.Kind.(types.Building); ok && b.Surrounding != "" {
		dest := defs.Places[b.Surrounding]
		add(Action{
			Kind:        Travel,
			Description: "Leave to " + dest.Name,
			Cost:        Cost{BuildingMinutes, Minutes},
			Place:       dest.ID,
		})
	}

	// Bridges, with the label of the near endpoint.
	for _, br := range defs.Bridges {
		var far, label string
		switch place.ID {
		case br.A:
			far, label = br.B, br.LabelA
		case br.B:
			far, label = br.A, br.LabelB
		default:
			continue
		}
		dest := defs.Places[far]
		desc := "Go to " + dest.Name
		if label != "" {
			desc = fmt.Sprintf("Go %s to %s", label, dest.Name)
		}
		add(Action{
			Kind:        Travel,
			Description: desc,
			Cost:        Cost{br.Minutes, Minutes},
			Place:       dest.ID,
		})
	}

	// Open buildings here.
	for _, bp := range state.BuildingsAt(defs, place.ID) {
		if !state.IsOpen(bp.Kind.(types.Building), ctx.Clock.Time) {
			continue
		}
		add(Action{
			Kind:        Travel,
			Description: "Enter " + bp.Name,
			Cost:        Cost{BuildingMinutes, Minutes},
			Place:       bp.ID,
		})
	}

	switch place.Type {
	case types.PlaceFarm:
		for _, tok := range ctx.Inventory {
			it := defs.Items[tok.ItemID]
			if it.Category == types.CategorySeed {
				add(itemAction(Plant, "Plant "+it.Name, Cost{FarmMinutes, Minutes}, tok))
			}
		}
		for _, tok := range ctx.Contents {
			it := defs.Items[tok.ItemID]
			if (it.Category == types.CategorySeed || it.Category == types.CategorySprout) && !tok.Watered {
				add(itemAction(Water, "Water "+it.Name, Cost{FarmMinutes, Minutes}, tok))
			}
		}
		for _, tok := range ctx.Contents {
			it := defs.Items[tok.ItemID]
			if it.Category == types.CategoryCrop {
				add(itemAction(Harvest, "Harvest "+it.Name, Cost{FarmMinutes, Minutes}, tok))
			}
		}

	case types.PlaceShop:
		for _, tok := range ctx.Contents {
			it := defs.Items[tok.ItemID]
			add(itemAction(Buy, "Buy "+it.Name, Cost{it.Price, Koin}, tok))
		}
		for _, tok := range ctx.Inventory {
			it := defs.Items[tok.ItemID]
			if it.Category == types.CategoryMythegg {
				continue
			}
			add(itemAction(Sell, fmt.Sprintf("Sell %s (%d koin)", it.Name, it.Price), Cost{}, tok))
		}

	case types.PlaceMountain, types.PlaceBeach, types.PlaceForest:
		activity, minutes, _ := GatherFor(place.Type)
		add(Action{
			Kind:        Gather,
			Description: "Go " + string(activity),
			Cost:        Cost{minutes, Minutes},
			Place:       place.ID,
			Activity:    activity,
		})
	}

	for _, vs := range ctx.Villagers {
		v := defs.Villagers[vs.VillagerID]
		if !vs.TalkedToday {
			add(Action{
				Kind:        Talk,
				Description: "Talk to " + v.Name,
				Cost:        Cost{v.Friendliness * TalkPerFriendly, Minutes},
				Villager:    v.ID,
			})
		}
		if !vs.GiftedToday {
			for _, tok := range ctx.Inventory {
				it := defs.Items[tok.ItemID]
				a := itemAction(Give, fmt.Sprintf("Give %s to %s", it.Name, v.Name), Cost{GiftMinutes, Minutes}, tok)
				a.Villager = v.ID
				add(a)
			}
		}
	}

	if state.IsHome(defs, place.ID) {
		for _, tok := range ctx.Inventory {
			it := defs.Items[tok.ItemID]
			add(itemAction(Stow, "Stow "+it.Name, Cost{}, tok))
		}
		for _, tok := range ctx.Storage {
			it := defs.Items[tok.ItemID]
			add(itemAction(Retrieve, "Retrieve "+it.Name, Cost{}, tok))
		}
		if clock.InNight(ctx.Clock, ctx.Rules) {
			add(Action{Kind: Sleep, Description: "Sleep"})
		}
	}

	ApplyBoost(out, ctx.BoostLevel, ctx.Rules)
	for i := range out {
		out[i].Digest = Digest(out[i])
	}
	return out, nil
}

func itemAction(k Kind, desc string, c Cost, tok types.ItemToken) Action {
	t := tok
	return Action{Kind: k, Description: desc, Cost: c, Item: &t}
}

// guard rejects inputs that reference entities of the wrong kind or that
// have no definition. Generation fails rather than skipping them.
func guard(ctx Context) error {
	defs := ctx.Defs
	if defs == nil {
		return errs.Validationf("generate: no definitions")
	}
	if _, ok := defs.Places[ctx.Place.ID]; !ok {
		return errs.Validationf("generate: unknown place %q", ctx.Place.ID)
	}
	if ctx.Place.Kind == nil {
		return errs.Validationf("generate: place %q has no kind", ctx.Place.ID)
	}
	for name, tokens := range map[string][]types.ItemToken{
		"inventory": ctx.Inventory,
		"storage":   ctx.Storage,
		"contents":  ctx.Contents,
	} {
		for _, tok := range tokens {
			if tok.ID == "" {
				return errs.Validationf("generate: %s holds a token without an ID", name)
			}
			if _, ok := defs.Items[tok.ItemID]; !ok {
				return errs.Validationf("generate: %s holds %q which is not an item", name, tok.ItemID)
			}
		}
	}
	for _, vs := range ctx.Villagers {
		if vs == nil {
			return errs.Validationf("generate: nil villager state")
		}
		if _, ok := defs.Villagers[vs.VillagerID]; !ok {
			return errs.Validationf("generate: %q is not a villager", vs.VillagerID)
		}
		if vs.Location != ctx.Place.ID {
			return errs.Validationf("generate: villager %q is not at %q", vs.VillagerID, ctx.Place.ID)
		}
	}
	return nil
}
