package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Universal { gift = "like", ... }: category preferences shared by
	// every villager.
	L.SetGlobal("Universal", L.NewFunction(func(L *lua.LState) int {
		coll.universal = L.CheckTable(1)
		return 0
	}))

	// Bridge { a = "farm", b = "town", label_a = "east", label_b = "west", minutes = 20 }
	L.SetGlobal("Bridge", L.NewFunction(func(L *lua.LState) int {
		coll.bridges = append(coll.bridges, L.CheckTable(1))
		return 0
	}))

	// Curried constructors: Item "id" { ... }.
	curried := func(name string, dst *[]rawDef) {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				*dst = append(*dst, rawDef{id: id, table: tbl, order: coll.nextSourceOrder()})
				return 0
			}))
			return 1
		}))
	}
	curried("Item", &coll.items)
	curried("Place", &coll.places)
	curried("Building", &coll.buildings)
	curried("Villager", &coll.villagers)
	curried("Shop", &coll.shops)
	curried("Event", &coll.events)
	curried("Achievement", &coll.achievements)

	// Stock("item", n) builds a stock entry for Shop seeds and gift.
	L.SetGlobal("Stock", L.NewFunction(func(L *lua.LState) int {
		item := L.CheckString(1)
		qty := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("item", lua.LString(item))
		tbl.RawSetString("quantity", qty)
		L.Push(tbl)
		return 1
	}))
}
