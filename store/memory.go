package store

import (
	"context"
	"sort"
	"sync"

	"github.com/nathoo/heartweek/engine/save"
	"github.com/nathoo/heartweek/types"
)

// MemoryRepo keeps everything in process. Sessions are stored as encoded
// blobs so callers never share state with the repository.
type MemoryRepo struct {
	mu       sync.RWMutex
	heroes   map[string]*types.Hero
	sessions map[string][]byte
	owners   map[string]string // session key -> hero id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		heroes:   map[string]*types.Hero{},
		sessions: map[string][]byte{},
		owners:   map[string]string{},
	}
}

// Hero returns a copy of the hero with the given ID.
func (r *MemoryRepo) Hero(ctx context.Context, id string) (*types.Hero, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.heroes[id]
	if !ok {
		return nil, heroNotFound(id)
	}
	return cloneHero(h), nil
}

// Heroes returns copies of the heroes accepted by match, ordered by name.
func (r *MemoryRepo) Heroes(ctx context.Context, match func(*types.Hero) bool) ([]*types.Hero, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.Hero, 0, len(r.heroes))
	for _, h := range r.heroes {
		if match == nil || match(h) {
			out = append(out, cloneHero(h))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveHero stores a copy of hero.
func (r *MemoryRepo) SaveHero(ctx context.Context, hero *types.Hero) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.heroes[hero.ID] = cloneHero(hero)
	return nil
}

// Session decodes the stored session with the given ID.
func (r *MemoryRepo) Session(ctx context.Context, key string) (*types.Session, error) {
	_ = ctx
	r.mu.RLock()
	blob, ok := r.sessions[key]
	r.mu.RUnlock()

	if !ok {
		return nil, sessionNotFound(key)
	}
	return save.Decode(blob)
}

// ActiveSession decodes the running week of a hero.
func (r *MemoryRepo) ActiveSession(ctx context.Context, heroID string) (*types.Session, error) {
	r.mu.RLock()
	key := ""
	for k, owner := range r.owners {
		if owner == heroID && (key == "" || k < key) {
			key = k
		}
	}
	r.mu.RUnlock()

	if key == "" {
		return nil, sessionNotFound("hero:" + heroID)
	}
	return r.Session(ctx, key)
}

// Save stores the hero and the session together.
func (r *MemoryRepo) Save(ctx context.Context, hero *types.Hero, s *types.Session) error {
	_ = ctx
	blob, err := save.Encode(s)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.heroes[hero.ID] = cloneHero(hero)
	r.sessions[s.ID] = blob
	r.owners[s.ID] = s.HeroID
	return nil
}

// DeleteSession removes a session.
func (r *MemoryRepo) DeleteSession(ctx context.Context, key string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[key]; !ok {
		return sessionNotFound(key)
	}
	delete(r.sessions, key)
	delete(r.owners, key)
	return nil
}

// Close is a no-op.
func (r *MemoryRepo) Close() error { return nil }
