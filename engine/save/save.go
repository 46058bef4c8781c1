// Package save implements the session snapshot format: JSON validated
// against an embedded schema, compressed with zstd.
package save

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nathoo/heartweek/engine/state"
	"github.com/nathoo/heartweek/types"
)

// Format is the current snapshot format number.
const Format = 1

//go:embed schema.json
var schemaJSON string

const schemaURL = "heartweek://save.schema.json"

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Format  int            `json:"format"`
	Game    string         `json:"game"`
	Version string         `json:"version"`
	Hero    *types.Hero    `json:"hero,omitempty"`
	Session *types.Session `json:"session"`
}

var (
	schemaOnce    sync.Once
	saveSchema    *jsonschema.Schema
	sessionSchema *jsonschema.Schema
	schemaErr     error
)

func schemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader([]byte(schemaJSON))); err != nil {
			schemaErr = err
			return
		}
		saveSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			return
		}
		sessionSchema, schemaErr = c.Compile(schemaURL + "#/$defs/session")
	})
	return saveSchema, sessionSchema, schemaErr
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// decompress accepts zstd frames and passes plain JSON through.
func decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse save: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid save: %w", err)
	}
	return nil
}

// Save serializes a session and, optionally, its hero.
func Save(s *types.Session, hero *types.Hero, defs *state.Defs) ([]byte, error) {
	data := SaveData{
		Format:  Format,
		Game:    defs.Game.Title,
		Version: defs.Game.Version,
		Hero:    hero,
		Session: s,
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return compress(raw)
}

// Load validates and deserializes a save.
func Load(data []byte) (*SaveData, error) {
	full, _, err := schemas()
	if err != nil {
		return nil, fmt.Errorf("compile save schema: %w", err)
	}
	raw, err := decompress(data)
	if err != nil {
		return nil, err
	}
	if err := validate(full, raw); err != nil {
		return nil, err
	}
	var sd SaveData
	if err := json.Unmarshal(raw, &sd); err != nil {
		return nil, err
	}
	Normalize(sd.Session)
	if sd.Hero != nil && sd.Hero.Achievements == nil {
		sd.Hero.Achievements = map[string]bool{}
	}
	return &sd, nil
}

// Encode serializes a session alone, for storage blobs.
func Encode(s *types.Session) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return compress(raw)
}

// Decode validates and deserializes a session blob.
func Decode(data []byte) (*types.Session, error) {
	_, sess, err := schemas()
	if err != nil {
		return nil, fmt.Errorf("compile save schema: %w", err)
	}
	raw, err := decompress(data)
	if err != nil {
		return nil, err
	}
	if err := validate(sess, raw); err != nil {
		return nil, err
	}
	var s types.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	Normalize(&s)
	return &s, nil
}

// Normalize replaces nil collections so a loaded session behaves like a
// fresh one.
func Normalize(s *types.Session) {
	if s.Inventory == nil {
		s.Inventory = []types.ItemToken{}
	}
	if s.Storage == nil {
		s.Storage = []types.ItemToken{}
	}
	if s.Messages == nil {
		s.Messages = []string{}
	}
	if s.Places == nil {
		s.Places = map[string]*types.PlaceState{}
	}
	for _, ps := range s.Places {
		if ps.Contents == nil {
			ps.Contents = []types.ItemToken{}
		}
	}
	if s.Villagers == nil {
		s.Villagers = map[string]*types.VillagerState{}
	}
	if s.HeroState.Income == nil {
		s.HeroState.Income = map[types.Activity]int{}
	}
	if s.HeroState.Intake == nil {
		s.HeroState.Intake = map[types.Activity]int{}
	}
}

// WriteFile saves to path.
func WriteFile(path string, s *types.Session, hero *types.Hero, defs *state.Defs) error {
	data, err := Save(s, hero, defs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads from path.
func ReadFile(path string) (*SaveData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}
