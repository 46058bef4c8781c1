// Package service runs turns against stored sessions. Every call loads the
// hero's week, applies one operation and saves it back, holding a per-hero
// lock so two requests never interleave on the same week.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/heartweek/engine"
	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/present"
	"github.com/nathoo/heartweek/engine/save"
	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/store"
	"github.com/nathoo/heartweek/types"
)

// Service is the boundary between front-ends and the engine. The key of
// every operation is the hero ID; a hero has at most one running week.
type Service struct {
	Defs   *state.Defs
	Rules  types.Rules
	Repo   store.Repository
	Logger *slog.Logger
	Seed   int64 // 0 seeds each run from the wall clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Service over repo. A nil logger falls back to slog.Default.
func New(defs *state.Defs, r types.Rules, repo store.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Defs:   defs,
		Rules:  r,
		Repo:   repo,
		Logger: logger,
		locks:  map[string]*sync.Mutex{},
	}
}

func (s *Service) lock(key string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = map[string]*sync.Mutex{}
	}
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) seed() int64 {
	if s.Seed != 0 {
		return s.Seed
	}
	return time.Now().UnixNano()
}

// Start returns the ID of the hero called name, creating the hero and a
// first week when none exists yet.
func (s *Service) Start(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.Validationf("a hero needs a name")
	}
	unlockName := s.lock("name:" + name)
	defer unlockName()

	found, err := s.Repo.Heroes(ctx, store.ByName(name))
	if err != nil {
		return "", fmt.Errorf("find hero: %w", err)
	}
	if len(found) > 0 {
		s.Logger.Info("hero returns", "hero", found[0].ID, "name", name)
		return found[0].ID, nil
	}

	hero := &types.Hero{ID: uuid.NewString(), Name: name, Achievements: map[string]bool{}}
	unlock := s.lock(hero.ID)
	defer unlock()

	e := s.fresh(hero)
	if err := s.Repo.Save(ctx, hero, e.Session); err != nil {
		return "", fmt.Errorf("save new hero: %w", err)
	}
	s.Logger.Info("hero created", "hero", hero.ID, "name", name, "session", e.Session.ID)
	return hero.ID, nil
}

func (s *Service) fresh(hero *types.Hero) *engine.Engine {
	e := engine.New(s.Defs, s.Rules, hero, uuid.NewString(), s.seed())
	e.Logger = s.Logger
	return e
}

// load resumes the hero's week, starting a new one when none is stored.
func (s *Service) load(ctx context.Context, key string) (*engine.Engine, error) {
	hero, err := s.Repo.Hero(ctx, key)
	if err != nil {
		return nil, err
	}
	sess, err := s.Repo.ActiveSession(ctx, key)
	if errs.IsNotFound(err) {
		e := s.fresh(hero)
		if err := s.Repo.Save(ctx, hero, e.Session); err != nil {
			return nil, fmt.Errorf("save new week: %w", err)
		}
		s.Logger.Info("new week", "hero", hero.ID, "session", e.Session.ID)
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	e := engine.Resume(s.Defs, s.Rules, hero, sess)
	e.Logger = s.Logger
	return e, nil
}

// Menu lists the actions available to the hero right now.
func (s *Service) Menu(ctx context.Context, key string) ([]actions.Action, error) {
	unlock := s.lock(key)
	defer unlock()

	e, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.GenerateActions()
}

// Turn executes the action with the given digest. A finished week settles
// the hero and discards the session; the next call starts a new week.
func (s *Service) Turn(ctx context.Context, key, digest string) (types.Result, error) {
	unlock := s.lock(key)
	defer unlock()

	e, err := s.load(ctx, key)
	if err != nil {
		return types.Result{}, err
	}
	res, err := e.ExecuteTurn(digest)
	if err != nil {
		return res, err
	}
	if !res.GameOver {
		return res, s.Repo.Save(ctx, e.Hero, e.Session)
	}

	if err := s.Repo.SaveHero(ctx, e.Hero); err != nil {
		return res, fmt.Errorf("save hero: %w", err)
	}
	if err := s.Repo.DeleteSession(ctx, e.Session.ID); err != nil && !errs.IsNotFound(err) {
		return res, fmt.Errorf("discard finished week: %w", err)
	}
	s.Logger.Info("week finished", "hero", key, "session", e.Session.ID,
		"score", state.Score(e.Session.HeroState), "high_score", e.Hero.HighScore)
	return res, nil
}

// Snapshot is a read-only copy of a hero and their week.
type Snapshot struct {
	Hero     *types.Hero
	Session  *types.Session
	View     present.SessionView
	HeroView present.HeroView
}

// View returns the hero and their current week.
func (s *Service) View(ctx context.Context, key string) (Snapshot, error) {
	unlock := s.lock(key)
	defer unlock()

	e, err := s.load(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Hero:     e.Hero,
		Session:  e.Session,
		View:     present.Session(s.Defs, e.Session),
		HeroView: present.Hero(e.Hero),
	}, nil
}

// Reset abandons the running week, unscored, and starts a new one.
func (s *Service) Reset(ctx context.Context, key string) error {
	unlock := s.lock(key)
	defer unlock()

	hero, err := s.Repo.Hero(ctx, key)
	if err != nil {
		return err
	}
	if old, err := s.Repo.ActiveSession(ctx, key); err == nil {
		if err := s.Repo.DeleteSession(ctx, old.ID); err != nil && !errs.IsNotFound(err) {
			return err
		}
		s.Logger.Info("week abandoned", "hero", key, "session", old.ID, "turn", old.Turn)
	} else if !errs.IsNotFound(err) {
		return err
	}
	e := s.fresh(hero)
	return s.Repo.Save(ctx, hero, e.Session)
}

// Export encodes the hero and their week as a save file.
func (s *Service) Export(ctx context.Context, key string) ([]byte, error) {
	unlock := s.lock(key)
	defer unlock()

	e, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return save.Save(e.Session, e.Hero, s.Defs)
}

// ErrWrongGame is returned when a save belongs to different content.
var ErrWrongGame = errors.New("save belongs to a different game")

// Import replaces the hero's week with the one in data. The hero's
// persistent progress comes from the save when it carries one.
func (s *Service) Import(ctx context.Context, key string, data []byte) error {
	sd, err := save.Load(data)
	if err != nil {
		return err
	}
	if sd.Game != s.Defs.Game.Title {
		return fmt.Errorf("%w: %q", ErrWrongGame, sd.Game)
	}

	unlock := s.lock(key)
	defer unlock()

	hero, err := s.Repo.Hero(ctx, key)
	if err != nil {
		return err
	}
	if sd.Hero != nil {
		name := hero.Name
		hero = sd.Hero
		hero.ID, hero.Name = key, name
	}
	if old, err := s.Repo.ActiveSession(ctx, key); err == nil && old.ID != sd.Session.ID {
		if err := s.Repo.DeleteSession(ctx, old.ID); err != nil && !errs.IsNotFound(err) {
			return err
		}
	}
	sd.Session.HeroID = key
	s.Logger.Info("week loaded", "hero", key, "session", sd.Session.ID, "turn", sd.Session.Turn)
	return s.Repo.Save(ctx, hero, sd.Session)
}
