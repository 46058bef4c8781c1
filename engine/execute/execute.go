// Package execute applies one generated action to a session. Every handler
// checks presence and capacity before its first write.
package execute

import (
	"fmt"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/clock"
	"github.com/nathoo/heartweek/engine/dialogue"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/reward"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// Env carries what handlers read besides the session.
type Env struct {
	Defs  *state.Defs
	Rules types.Rules
	Hero  *types.Hero
	Src   reward.Source
}

// Outcome is what one Execute call did.
type Outcome struct {
	Changes  state.Changes
	Messages []string
	Triggers []string // achievement trigger categories to evaluate
}

func (o *Outcome) say(s *types.Session, env Env, msg string) {
	state.AddMessage(s, env.Rules, msg)
	o.Messages = append(o.Messages, msg)
	o.Changes |= state.ChangedMessages
}

func (o *Outcome) trigger(category string) {
	for _, c := range o.Triggers {
		if c == category {
			return
		}
	}
	o.Triggers = append(o.Triggers, category)
}

// Execute applies a to s. Affordability is checked by the caller.
func Execute(a actions.Action, s *types.Session, env Env) (Outcome, error) {
	var out Outcome
	var err error

	switch a.Kind {
	case actions.Travel:
		err = travel(a, s, env, &out)
	case actions.Talk:
		err = talk(a, s, env, &out)
	case actions.Give:
		err = give(a, s, env, &out)
	case actions.Plant:
		err = plant(a, s, env, &out)
	case actions.Water:
		err = water(a, s, env, &out)
	case actions.Harvest:
		err = harvest(a, s, env, &out)
	case actions.Buy:
		err = buy(a, s, env, &out)
	case actions.Sell:
		err = sell(a, s, env, &out)
	case actions.Stow:
		err = stow(a, s, env, &out)
	case actions.Retrieve:
		err = retrieve(a, s, env, &out)
	case actions.Gather:
		err = gather(a, s, env, &out)
	case actions.Sleep:
		err = sleep(a, s, env, &out)
	default:
		return Outcome{}, errs.Invariantf("no handler for action kind %s", a.Kind)
	}
	if err != nil {
		return Outcome{}, err
	}

	if a.Kind != actions.Sleep && s.HeroState.IsInBed {
		s.HeroState.IsInBed = false
		out.Changes |= state.ChangedHeroState
	}
	return out, nil
}

// spend advances the clock by a's time cost.
func spend(a actions.Action, s *types.Session, out *Outcome) error {
	if !a.Cost.IsTime() {
		return nil
	}
	if err := clock.Advance(&s.Clock, a.Cost.Minutes()); err != nil {
		return err
	}
	out.Changes |= state.ChangedClock
	return nil
}

func item(env Env, id string) (types.Item, error) {
	it, ok := env.Defs.Items[id]
	if !ok {
		return types.Item{}, errs.Invariantf("token references unknown item %q", id)
	}
	return it, nil
}

func tokenIn(tokens []types.ItemToken, a actions.Action, where string) (int, error) {
	if a.Item == nil {
		return -1, errs.Invariantf("%s action has no item target", a.Kind)
	}
	i := state.FindToken(tokens, a.Item.ID)
	if i < 0 {
		return -1, errs.Validationf("that item is no longer in your %s", where)
	}
	return i, nil
}

func presentVillager(a actions.Action, s *types.Session, env Env) (types.Villager, *types.VillagerState, error) {
	v, ok := env.Defs.Villagers[a.Villager]
	if !ok {
		return types.Villager{}, nil, errs.Invariantf("unknown villager %q", a.Villager)
	}
	vs, ok := s.Villagers[a.Villager]
	if !ok || vs.Location != s.Location {
		return types.Villager{}, nil, errs.Validationf("%s is not here", v.Name)
	}
	return v, vs, nil
}

func requirePlace(s *types.Session, env Env, pt types.PlaceType) (types.Place, error) {
	p, ok := env.Defs.Places[s.Location]
	if !ok {
		return types.Place{}, errs.Invariantf("hero is at unknown place %q", s.Location)
	}
	if p.Type != pt {
		return types.Place{}, errs.Validationf("you can't do that at the %s", p.Name)
	}
	return p, nil
}

func requireHome(s *types.Session, env Env) error {
	if !state.IsHome(env.Defs, s.Location) {
		return errs.Validationf("you can only do that at home")
	}
	return nil
}

func itemVars(it types.Item) map[string]string {
	return map[string]string{actions.PhItemName: it.Name}
}

func fill(a actions.Action, vars map[string]string) string {
	tmpl := a.Template
	if tmpl == "" {
		tmpl = actions.Template(a.Kind)
	}
	return actions.Fill(tmpl, vars)
}

func travel(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	dest, ok := env.Defs.Places[a.Place]
	if !ok {
		return errs.Invariantf("travel to unknown place %q", a.Place)
	}
	if err := spend(a, s, out); err != nil {
		return err
	}
	s.Location = dest.ID
	out.Changes |= state.ChangedLocation | state.ChangedVillagers | state.ChangedPlace
	out.say(s, env, fill(a, map[string]string{actions.PhResult: dest.Name}))
	return nil
}

func talk(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	v, vs, err := presentVillager(a, s, env)
	if err != nil {
		return err
	}
	if vs.TalkedToday {
		return errs.Validationf("you already talked to %s today", v.Name)
	}
	if err := spend(a, s, out); err != nil {
		return err
	}

	delta := vs.TalkedToCount + v.Friendliness
	before, after := state.AddAffinity(vs, delta)
	line := dialogue.Greeting(v, vs, after)
	vs.TalkedToCount++
	vs.TalkedToday = true
	out.Changes |= state.ChangedVillagers

	out.say(s, env, fill(a, map[string]string{
		actions.PhVillagerName: v.Name,
		actions.PhResult:       line,
	}))
	out.trigger(types.AchTalkToVillagers)
	hearts(v, before, after, s, env, out)
	return nil
}

// GiftDelta is the affinity change for a gift. The product is truncated
// toward zero, so hate on a common item is -2.
func GiftDelta(val types.Valence, r types.Rarity) int {
	return int(valenceValue[val] * rarityMultiplier[r])
}

var valenceValue = map[types.Valence]float64{
	types.Love:    10,
	types.Like:    5,
	types.Neutral: 2.5,
	types.Dislike: 0,
	types.Hate:    -2.5,
}

var rarityMultiplier = map[types.Rarity]float64{
	types.Common:   1,
	types.Uncommon: 2,
	types.Rare:     3,
	types.Epic:     4,
	types.Mythic:   5,
}

func give(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	v, vs, err := presentVillager(a, s, env)
	if err != nil {
		return err
	}
	if vs.GiftedToday {
		return errs.Validationf("you already gave %s a gift today", v.Name)
	}
	i, err := tokenIn(s.Inventory, a, "bag")
	if err != nil {
		return err
	}
	it, err := item(env, s.Inventory[i].ItemID)
	if err != nil {
		return err
	}
	if err := spend(a, s, out); err != nil {
		return err
	}

	s.Inventory = state.RemoveToken(s.Inventory, i)
	out.Changes |= state.ChangedInventory

	val := state.ValenceFor(env.Defs, v, it)
	before, after := state.AddAffinity(vs, GiftDelta(val, it.Rarity))
	vs.GiftedToday = true
	vs.GiftsReceived++
	out.Changes |= state.ChangedVillagers

	out.say(s, env, fill(a, map[string]string{
		actions.PhItemName:     it.Name,
		actions.PhVillagerName: v.Name,
		actions.PhValenceText:  dialogue.Reaction(v, val, after),
	}))
	hearts(v, before, after, s, env, out)
	return nil
}

// hearts records tier changes from an affinity update. Gains show a bonus
// message, count toward the run, and roll for a mythegg.
func hearts(v types.Villager, before, after int, s *types.Session, env Env, out *Outcome) {
	if after == before {
		return
	}
	s.HeroState.HeartsEarned += after - before
	if s.HeroState.HeartsEarned < 0 {
		s.HeroState.HeartsEarned = 0
	}
	out.Changes |= state.ChangedHeroState
	if after < before {
		out.say(s, env, fmt.Sprintf("%s seems a little cooler toward you.", v.Name))
		return
	}

	gained := after - before
	out.say(s, env, fmt.Sprintf("%s %s", v.Name, dialogue.Hearts(gained)))
	out.trigger(types.AchGainHearts)

	eggs := state.ItemsOfCategory(env.Defs, types.CategoryMythegg)
	luck := reward.Luck(env.Hero.LuckLevel, env.Rules)
	egg, ok := reward.DrawMythegg(eggs, gained, luck, env.Rules.MytheggChancePerHeart, env.Src)
	if !ok {
		return
	}
	if state.CheckCapacity("bag", len(s.Inventory), 1, env.Rules.InventorySlots) != nil {
		out.say(s, env, fmt.Sprintf("%s offers you a %s, but your bag is full.", v.Name, egg.Name))
		return
	}
	s.Inventory = append(s.Inventory, state.NewToken(s, egg.ID))
	out.Changes |= state.ChangedInventory
	out.say(s, env, fmt.Sprintf("%s hands you a %s %s!", v.Name, egg.Emoji, egg.Name))
}

func plant(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if _, err := requirePlace(s, env, types.PlaceFarm); err != nil {
		return err
	}
	i, err := tokenIn(s.Inventory, a, "bag")
	if err != nil {
		return err
	}
	it, err := item(env, s.Inventory[i].ItemID)
	if err != nil {
		return err
	}
	if it.Category != types.CategorySeed {
		return errs.Validationf("you can't plant a %s", it.Name)
	}
	if err := spend(a, s, out); err != nil {
		return err
	}

	tok := s.Inventory[i]
	tok.Watered = false
	tok.DaysGrowing = 0
	s.Inventory = state.RemoveToken(s.Inventory, i)
	ps := state.Place(s, s.Location)
	ps.Contents = append(ps.Contents, tok)
	out.Changes |= state.ChangedInventory | state.ChangedPlace
	out.say(s, env, fill(a, itemVars(it)))
	return nil
}

func water(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if _, err := requirePlace(s, env, types.PlaceFarm); err != nil {
		return err
	}
	ps := state.Place(s, s.Location)
	i, err := tokenIn(ps.Contents, a, "field")
	if err != nil {
		return err
	}
	it, err := item(env, ps.Contents[i].ItemID)
	if err != nil {
		return err
	}
	if it.Category != types.CategorySeed && it.Category != types.CategorySprout {
		return errs.Validationf("the %s doesn't need water", it.Name)
	}
	if ps.Contents[i].Watered {
		return errs.Validationf("the %s is already watered", it.Name)
	}
	if err := spend(a, s, out); err != nil {
		return err
	}

	ps.Contents[i].Watered = true
	out.Changes |= state.ChangedPlace
	out.say(s, env, fill(a, itemVars(it)))
	return nil
}

func harvest(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if _, err := requirePlace(s, env, types.PlaceFarm); err != nil {
		return err
	}
	ps := state.Place(s, s.Location)
	i, err := tokenIn(ps.Contents, a, "field")
	if err != nil {
		return err
	}
	it, err := item(env, ps.Contents[i].ItemID)
	if err != nil {
		return err
	}
	if it.Category != types.CategoryCrop {
		return errs.Validationf("the %s isn't ready", it.Name)
	}
	if err := state.CheckCapacity("bag", len(s.Inventory), 1, env.Rules.InventorySlots); err != nil {
		return err
	}
	if err := spend(a, s, out); err != nil {
		return err
	}

	tok := ps.Contents[i]
	tok.Watered = false
	tok.DaysGrowing = 0
	ps.Contents = state.RemoveToken(ps.Contents, i)
	s.Inventory = append(s.Inventory, tok)
	s.HeroState.Intake[types.Farming]++
	out.Changes |= state.ChangedPlace | state.ChangedInventory | state.ChangedHeroState
	out.say(s, env, fill(a, itemVars(it)))
	out.trigger(types.AchHarvest)
	return nil
}

func buy(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if _, err := requirePlace(s, env, types.PlaceShop); err != nil {
		return err
	}
	ps := state.Place(s, s.Location)
	i, err := tokenIn(ps.Contents, a, "shop")
	if err != nil {
		return err
	}
	it, err := item(env, ps.Contents[i].ItemID)
	if err != nil {
		return err
	}
	if err := state.CheckCapacity("bag", len(s.Inventory), 1, env.Rules.InventorySlots); err != nil {
		return err
	}

	s.Wallet -= it.Price
	if ps.Contents[i].Quantity > 1 {
		ps.Contents[i].Quantity--
	} else {
		ps.Contents = state.RemoveToken(ps.Contents, i)
	}
	tok := state.NewToken(s, it.ID)
	tok.FromShop = true
	s.Inventory = append(s.Inventory, tok)
	out.Changes |= state.ChangedWallet | state.ChangedPlace | state.ChangedInventory
	out.say(s, env, fill(a, itemVars(it)))
	return nil
}

func sell(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if _, err := requirePlace(s, env, types.PlaceShop); err != nil {
		return err
	}
	i, err := tokenIn(s.Inventory, a, "bag")
	if err != nil {
		return err
	}
	tok := s.Inventory[i]
	it, err := item(env, tok.ItemID)
	if err != nil {
		return err
	}
	if it.Category == types.CategoryMythegg {
		return errs.Validationf("nobody would buy a %s", it.Name)
	}

	s.Inventory = state.RemoveToken(s.Inventory, i)
	s.Wallet += it.Price
	out.Changes |= state.ChangedInventory | state.ChangedWallet
	out.say(s, env, fill(a, map[string]string{
		actions.PhItemName: it.Name,
		actions.PhResult:   fmt.Sprintf("%d koin", it.Price),
	}))

	// Store stock goes back on the shelf unearned. Seeds, and items the
	// full shelf cannot take back, are ordinary sales.
	if tok.FromShop && it.Category != types.CategorySeed && restock(s, env, tok) {
		out.Changes |= state.ChangedPlace
		return nil
	}

	s.HeroState.KoinEarned += it.Price
	if act, ok := state.ActivityFor(it.Category); ok {
		s.HeroState.Income[act] += it.Price
	}
	out.Changes |= state.ChangedHeroState
	out.trigger(types.AchEarnMoney)
	return nil
}

// restock returns a sold-back item to the shop's shelves: merged into a
// matching stock entry, or listed in a free slot. It reports whether the
// shop changed.
func restock(s *types.Session, env Env, tok types.ItemToken) bool {
	ps := state.Place(s, s.Location)
	for i := range ps.Contents {
		if ps.Contents[i].ItemID == tok.ItemID {
			ps.Contents[i].Quantity++
			return true
		}
	}
	if state.CheckCapacity("shop", len(ps.Contents), 1, env.Rules.ShopSlots) != nil {
		return false
	}
	ps.Contents = append(ps.Contents, types.ItemToken{ID: tok.ID, ItemID: tok.ItemID, Quantity: 1})
	return true
}

func stow(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if err := requireHome(s, env); err != nil {
		return err
	}
	i, err := tokenIn(s.Inventory, a, "bag")
	if err != nil {
		return err
	}
	it, err := item(env, s.Inventory[i].ItemID)
	if err != nil {
		return err
	}
	if err := state.CheckCapacity("chest", len(s.Storage), 1, env.Rules.StorageSlots); err != nil {
		return err
	}

	s.Storage = append(s.Storage, s.Inventory[i])
	s.Inventory = state.RemoveToken(s.Inventory, i)
	out.Changes |= state.ChangedInventory | state.ChangedStorage
	out.say(s, env, fill(a, itemVars(it)))
	return nil
}

func retrieve(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if err := requireHome(s, env); err != nil {
		return err
	}
	i, err := tokenIn(s.Storage, a, "chest")
	if err != nil {
		return err
	}
	it, err := item(env, s.Storage[i].ItemID)
	if err != nil {
		return err
	}
	if err := state.CheckCapacity("bag", len(s.Inventory), 1, env.Rules.InventorySlots); err != nil {
		return err
	}

	s.Inventory = append(s.Inventory, s.Storage[i])
	s.Storage = state.RemoveToken(s.Storage, i)
	out.Changes |= state.ChangedInventory | state.ChangedStorage
	out.say(s, env, fill(a, itemVars(it)))
	return nil
}

func gather(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	place, ok := env.Defs.Places[s.Location]
	if !ok {
		return errs.Invariantf("hero is at unknown place %q", s.Location)
	}
	activity, _, ok := actions.GatherFor(place.Type)
	if !ok {
		return errs.Validationf("there is nothing to gather at the %s", place.Name)
	}
	pool, err := state.ItemsByIDs(env.Defs, place.Pool)
	if err != nil {
		return err
	}
	if err := state.CheckCapacity("bag", len(s.Inventory), 1, env.Rules.InventorySlots); err != nil {
		return err
	}
	found, err := reward.Draw(pool, reward.Luck(env.Hero.LuckLevel, env.Rules), env.Src)
	if err != nil {
		return fmt.Errorf("gather at %s: %w", place.ID, err)
	}
	if err := spend(a, s, out); err != nil {
		return err
	}

	s.Inventory = append(s.Inventory, state.NewToken(s, found.ID))
	s.HeroState.Intake[activity]++
	out.Changes |= state.ChangedInventory | state.ChangedHeroState
	name := found.Name
	if found.Emoji != "" {
		name = found.Emoji + " " + name
	}
	out.say(s, env, fill(a, map[string]string{actions.PhResult: "a " + name}))
	out.trigger(types.AchGather)
	return nil
}

func sleep(a actions.Action, s *types.Session, env Env, out *Outcome) error {
	if err := requireHome(s, env); err != nil {
		return err
	}
	if !clock.InNight(s.Clock, env.Rules) {
		return errs.Validationf("it's too early to sleep")
	}
	target := 0
	if s.Clock.Time < env.Rules.Dawn {
		target = env.Rules.Dawn
	}
	if err := clock.AdvanceTo(&s.Clock, target); err != nil {
		return err
	}
	s.HeroState.IsInBed = true
	out.Changes |= state.ChangedClock | state.ChangedHeroState
	out.say(s, env, fill(a, nil))
	return nil
}
