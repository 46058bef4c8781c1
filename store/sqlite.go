package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nathoo/heartweek/engine/save"
	"github.com/nathoo/heartweek/types"
)

// SQLiteRepo stores heroes as rows and sessions as encoded blobs.
type SQLiteRepo struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchemas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func createSchemas(ctx context.Context, db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS heroes (
			hero_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			portrait TEXT NOT NULL DEFAULT '',
			high_score INTEGER NOT NULL DEFAULT 0,
			boost_level INTEGER NOT NULL DEFAULT 0,
			luck_level INTEGER NOT NULL DEFAULT 0,
			runs_completed INTEGER NOT NULL DEFAULT 0,
			achievements_json TEXT NOT NULL DEFAULT '{}',
			last_updated DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			hero_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			blob BLOB NOT NULL,
			last_updated DATETIME NOT NULL,
			FOREIGN KEY (hero_id) REFERENCES heroes(hero_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_heroes_name ON heroes(name);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_hero_id ON sessions(hero_id);`,
	}
	for _, query := range schemas {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertHero(ctx context.Context, ex execer, h *types.Hero) error {
	ach, err := marshalAchievements(h)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO heroes (hero_id, name, portrait, high_score, boost_level, luck_level, runs_completed, achievements_json, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hero_id) DO UPDATE SET
			name = excluded.name,
			portrait = excluded.portrait,
			high_score = excluded.high_score,
			boost_level = excluded.boost_level,
			luck_level = excluded.luck_level,
			runs_completed = excluded.runs_completed,
			achievements_json = excluded.achievements_json,
			last_updated = excluded.last_updated`,
		h.ID, h.Name, h.Portrait, h.HighScore, h.BoostLevel, h.LuckLevel, h.RunsCompleted, ach, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save hero %s: %w", h.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHero(row scanner) (*types.Hero, error) {
	var (
		h   types.Hero
		ach string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Portrait, &h.HighScore, &h.BoostLevel, &h.LuckLevel, &h.RunsCompleted, &ach); err != nil {
		return nil, err
	}
	h.Achievements = map[string]bool{}
	if err := json.Unmarshal([]byte(ach), &h.Achievements); err != nil {
		return nil, fmt.Errorf("hero %s achievements: %w", h.ID, err)
	}
	return &h, nil
}

const heroColumns = `hero_id, name, portrait, high_score, boost_level, luck_level, runs_completed, achievements_json`

// Hero loads the hero with the given ID.
func (r *SQLiteRepo) Hero(ctx context.Context, id string) (*types.Hero, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+heroColumns+` FROM heroes WHERE hero_id = ?`, id)
	h, err := scanHero(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, heroNotFound(id)
	}
	return h, err
}

// Heroes returns the heroes accepted by match, ordered by name.
func (r *SQLiteRepo) Heroes(ctx context.Context, match func(*types.Hero) bool) ([]*types.Hero, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+heroColumns+` FROM heroes ORDER BY name, hero_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Hero
	for rows.Next() {
		h, err := scanHero(rows)
		if err != nil {
			return nil, err
		}
		if match == nil || match(h) {
			out = append(out, h)
		}
	}
	return out, rows.Err()
}

// SaveHero inserts or updates a hero.
func (r *SQLiteRepo) SaveHero(ctx context.Context, hero *types.Hero) error {
	return upsertHero(ctx, r.db, hero)
}

// Session loads the session with the given ID.
func (r *SQLiteRepo) Session(ctx context.Context, key string) (*types.Session, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx, `SELECT blob FROM sessions WHERE session_id = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sessionNotFound(key)
	}
	if err != nil {
		return nil, err
	}
	return save.Decode(blob)
}

// ActiveSession loads the running week of a hero.
func (r *SQLiteRepo) ActiveSession(ctx context.Context, heroID string) (*types.Session, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT blob FROM sessions WHERE hero_id = ? ORDER BY last_updated DESC, session_id LIMIT 1`, heroID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sessionNotFound("hero:" + heroID)
	}
	if err != nil {
		return nil, err
	}
	return save.Decode(blob)
}

// Save writes the hero and the session in one transaction.
func (r *SQLiteRepo) Save(ctx context.Context, hero *types.Hero, s *types.Session) error {
	blob, err := save.Encode(s)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertHero(ctx, tx, hero); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, hero_id, turn, blob, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			hero_id = excluded.hero_id,
			turn = excluded.turn,
			blob = excluded.blob,
			last_updated = excluded.last_updated`,
		s.ID, s.HeroID, s.Turn, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return tx.Commit()
}

// DeleteSession removes a session.
func (r *SQLiteRepo) DeleteSession(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sessionNotFound(key)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRepo) Close() error { return r.db.Close() }
