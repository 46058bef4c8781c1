// Package store persists heroes and their running weeks.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/types"
)

// Repository loads and saves heroes and sessions. Misses are reported as
// *errs.NotFoundError.
type Repository interface {
	Hero(ctx context.Context, id string) (*types.Hero, error)
	Heroes(ctx context.Context, match func(*types.Hero) bool) ([]*types.Hero, error)
	SaveHero(ctx context.Context, hero *types.Hero) error

	Session(ctx context.Context, key string) (*types.Session, error)
	// ActiveSession returns the hero's unfinished week.
	ActiveSession(ctx context.Context, heroID string) (*types.Session, error)
	// Save writes the hero and the session together, or neither.
	Save(ctx context.Context, hero *types.Hero, s *types.Session) error
	DeleteSession(ctx context.Context, key string) error

	Close() error
}

// ByName matches heroes by exact name.
func ByName(name string) func(*types.Hero) bool {
	return func(h *types.Hero) bool { return h.Name == name }
}

func heroNotFound(id string) error {
	return &errs.NotFoundError{Kind: "hero", Key: id}
}

func sessionNotFound(key string) error {
	return &errs.NotFoundError{Kind: "session", Key: key}
}

func marshalAchievements(h *types.Hero) (string, error) {
	a := h.Achievements
	if a == nil {
		a = map[string]bool{}
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("achievements: %w", err)
	}
	return string(raw), nil
}

func cloneHero(h *types.Hero) *types.Hero {
	c := *h
	c.Achievements = make(map[string]bool, len(h.Achievements))
	for k, v := range h.Achievements {
		c.Achievements[k] = v
	}
	return &c
}

// Open returns the repository for driver, "memory" or "sqlite".
func Open(ctx context.Context, driver, path string) (Repository, error) {
	switch driver {
	case "", "memory":
		return NewMemoryRepo(), nil
	case "sqlite":
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
