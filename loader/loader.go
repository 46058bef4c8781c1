package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/heartweek/engine/state"
)

// rawDef holds a curried definition before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
	order int
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	game         *lua.LTable
	universal    *lua.LTable
	bridges      []*lua.LTable
	items        []rawDef
	places       []rawDef
	buildings    []rawDef
	villagers    []rawDef
	shops        []rawDef
	events       []rawDef
	achievements []rawDef
	order        int
}

func (c *collector) nextSourceOrder() int {
	c.order++
	return c.order
}

// Load reads all .lua files from dir, compiles them into content
// definitions, validates references, and returns the immutable Defs. The
// Lua VM is discarded after loading. Warnings go to logger.
func Load(dir string, logger *slog.Logger) (*state.Defs, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	// Sort: game.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	L := newVM()
	defer L.Close()
	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}
	return build(coll, logger)
}

// LoadString compiles a single chunk of Lua source. Used by tests and
// embedded content.
func LoadString(src string, logger *slog.Logger) (*state.Defs, error) {
	if logger == nil {
		logger = slog.Default()
	}
	L := newVM()
	defer L.Close()
	coll := &collector{}
	registerAPI(L, coll)
	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("executing content: %w", err)
	}
	return build(coll, logger)
}

func build(coll *collector, logger *slog.Logger) (*state.Defs, error) {
	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling content: %w", err)
	}
	ve := validate(defs)
	for _, w := range ve.Warnings {
		logger.Warn("content", "warning", w)
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}
	return defs, nil
}

// newVM creates a sandboxed Lua state.
func newVM() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	return L
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content is static; randomness belongs to the engine.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("random", lua.LNil)
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
