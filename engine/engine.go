// Package engine provides the turn pipeline that wires together action
// generation, execution, the scheduler and achievements.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/nathoo/heartweek/engine/achievements"
	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/execute"
	"github.com/nathoo/heartweek/engine/schedule"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// Engine holds the definitions, the hero and the running session.
type Engine struct {
	Defs    *state.Defs
	Rules   types.Rules
	Hero    *types.Hero
	Session *types.Session
	RNG     *RNG
	Logger  *slog.Logger

	ended bool
}

// New starts a fresh weekly run for hero.
func New(defs *state.Defs, r types.Rules, hero *types.Hero, sessionID string, seed int64) *Engine {
	if hero.Achievements == nil {
		hero.Achievements = map[string]bool{}
	}
	s := state.NewSession(defs, r, sessionID, hero.ID, seed)
	if defs.Game.Intro != "" {
		state.AddMessage(s, r, defs.Game.Intro)
	}
	return &Engine{
		Defs:    defs,
		Rules:   r,
		Hero:    hero,
		Session: s,
		RNG:     NewRNG(seed),
		Logger:  slog.Default(),
	}
}

// Resume continues a saved session, restoring the RNG to its position.
func Resume(defs *state.Defs, r types.Rules, hero *types.Hero, s *types.Session) *Engine {
	if hero.Achievements == nil {
		hero.Achievements = map[string]bool{}
	}
	return &Engine{
		Defs:    defs,
		Rules:   r,
		Hero:    hero,
		Session: s,
		RNG:     RestoreRNG(s.Seed, s.RNGPosition),
		Logger:  slog.Default(),
	}
}

// GenerateActions lists the actions legal right now.
func (e *Engine) GenerateActions() ([]actions.Action, error) {
	if e.Session.GameOver {
		return nil, nil
	}
	ctx, err := actions.ContextFor(e.Session, e.Defs, e.Rules, e.Hero.BoostLevel)
	if err != nil {
		return nil, err
	}
	return actions.Generate(ctx)
}

// ExecuteTurn validates and applies the action with the given digest, then
// lets time pass and evaluates achievements. Recoverable errors become the
// result's only message and leave the session untouched; invariant errors
// are logged and returned.
func (e *Engine) ExecuteTurn(digest string) (types.Result, error) {
	var result types.Result
	s := e.Session

	// 0. Game over: nothing more to do this week.
	if s.GameOver {
		result.GameOver = true
		result.Messages = append(result.Messages, "The week is over. Start a new run to play again.")
		return result, nil
	}

	// 1. Regenerate and resolve the requested action.
	list, err := e.GenerateActions()
	if err != nil {
		return e.reject(result, err)
	}
	a, err := actions.Resolve(digest, list)
	if err != nil {
		return e.reject(result, errs.Validationf("that action isn't available right now"))
	}

	// 2. Affordability is checked before the executor runs.
	if a.Cost.Unit == actions.Koin && a.Cost.Amount > s.Wallet {
		return e.reject(result, errs.Validationf("you can't afford that (%d koin, you have %d)", a.Cost.Amount, s.Wallet))
	}

	e.Logger.Debug("turn", "session", s.ID, "turn", s.Turn, "action", a.Kind.String(), "digest", a.Digest)

	// 3. Execute.
	env := execute.Env{Defs: e.Defs, Rules: e.Rules, Hero: e.Hero, Src: e.RNG}
	out, err := execute.Execute(a, s, env)
	if err != nil {
		return e.reject(result, err)
	}
	changes := out.Changes
	result.Messages = append(result.Messages, out.Messages...)

	// 4. React to the clock.
	passed, err := schedule.PassTime(s, schedule.Env{Defs: e.Defs, Rules: e.Rules, Src: e.RNG})
	if err != nil {
		e.Logger.Error("pass time failed", "session", s.ID, "err", err)
		return result, err
	}
	changes |= passed.Changes
	result.Messages = append(result.Messages, passed.Messages...)

	// 5. Achievements for the executor's triggers, then score.
	ach := achievements.Context{Defs: e.Defs, Session: s, Hero: e.Hero}
	unlocks := achievements.EvaluateAll(append(out.Triggers, types.AchScorePoints), ach)
	for _, u := range unlocks {
		state.AddMessage(s, e.Rules, u.Message)
		result.Messages = append(result.Messages, u.Message)
		changes |= state.ChangedAchievements | state.ChangedHero | state.ChangedMessages
	}

	// 6. End of the week.
	if s.GameOver {
		sum := e.EndRun()
		result.Messages = append(result.Messages, sum.Messages...)
		changes |= state.ChangedHero | state.ChangedGameOver | state.ChangedMessages
		result.GameOver = true
	}

	// 7. Track RNG position for save/load.
	s.RNGPosition = e.RNG.Position()
	s.Turn++

	result.Changed = changes.Names()
	return result, nil
}

// reject turns a recoverable error into a player message. Anything else is
// logged and returned.
func (e *Engine) reject(result types.Result, err error) (types.Result, error) {
	if errs.IsRecoverable(err) {
		result.Messages = append(result.Messages, capitalize(err.Error()))
		return result, nil
	}
	e.Logger.Error("turn aborted", "session", e.Session.ID, "err", err)
	return result, err
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// RunSummary reports how a week ended.
type RunSummary struct {
	Score        int
	NewHighScore bool
	BoostLevel   int
	LuckLevel    int
	Messages     []string
}

// EndRun settles the hero's persistent progress once per run. A new high
// score resets luck; otherwise luck grows. Boost always grows.
func (e *Engine) EndRun() RunSummary {
	h := e.Hero
	score := state.Score(e.Session.HeroState)
	sum := RunSummary{Score: score}
	if e.ended {
		sum.NewHighScore = score == h.HighScore && score > 0
		sum.BoostLevel, sum.LuckLevel = h.BoostLevel, h.LuckLevel
		return sum
	}
	e.ended = true

	sum.Messages = append(sum.Messages, fmt.Sprintf("Final score: %d", score))
	if score > h.HighScore {
		h.HighScore = score
		h.LuckLevel = 0
		sum.NewHighScore = true
		sum.Messages = append(sum.Messages, "A new high score!")
	} else {
		h.LuckLevel += e.Rules.LuckStep
		sum.Messages = append(sum.Messages, "Luck is on your side next week.")
	}
	h.BoostLevel += e.Rules.BoostStep
	h.RunsCompleted++
	sum.BoostLevel, sum.LuckLevel = h.BoostLevel, h.LuckLevel

	for _, m := range sum.Messages {
		state.AddMessage(e.Session, e.Rules, m)
	}
	e.Logger.Info("run ended", "hero", h.ID, "score", score, "high_score", h.HighScore,
		"boost", h.BoostLevel, "luck", h.LuckLevel)
	return sum
}
