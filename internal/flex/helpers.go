package flex

import (
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// RegisterHelpers exposes tag helpers to filter scripts, both as globals and
// under the "osmgraph" table
func RegisterHelpers(L *lua.LState) {
	helpers := map[string]lua.LGFunction{
		"trim":            luaTrim,
		"lower":           luaLower,
		"parse_int":       luaParseInt,
		"parse_bool":      luaParseBool,
		"parse_direction": luaParseDirection,
		"has_prefix":      luaHasPrefix,
	}

	mod := L.NewTable()
	for name, fn := range helpers {
		lfn := L.NewFunction(fn)
		L.SetField(mod, name, lfn)
		L.SetGlobal(name, lfn)
	}
	L.SetGlobal("osmgraph", mod)
}

func luaTrim(L *lua.LState) int {
	L.Push(lua.LString(strings.TrimSpace(L.CheckString(1))))
	return 1
}

func luaLower(L *lua.LState) int {
	L.Push(lua.LString(strings.ToLower(L.CheckString(1))))
	return 1
}

// luaParseInt parses an integer, truncating decimals; the optional second
// argument is returned when parsing fails
func luaParseInt(L *lua.LState) int {
	s := strings.TrimSpace(L.CheckString(1))
	def := int64(0)
	if L.GetTop() >= 2 {
		def = L.CheckInt64(2)
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		L.Push(lua.LNumber(v))
	} else if fv, err := strconv.ParseFloat(s, 64); err == nil {
		L.Push(lua.LNumber(int64(fv)))
	} else {
		L.Push(lua.LNumber(def))
	}
	return 1
}

// luaParseBool follows OSM usage: any non-empty value other than an explicit
// negative counts as true
func luaParseBool(L *lua.LState) int {
	switch strings.ToLower(strings.TrimSpace(L.CheckString(1))) {
	case "no", "false", "0", "off", "":
		L.Push(lua.LFalse)
	default:
		L.Push(lua.LTrue)
	}
	return 1
}

// luaParseDirection maps oneway values to 1 (forward), -1 (backward) or 0
func luaParseDirection(L *lua.LState) int {
	switch strings.ToLower(strings.TrimSpace(L.CheckString(1))) {
	case "yes", "true", "1":
		L.Push(lua.LNumber(1))
	case "-1", "reverse", "backward":
		L.Push(lua.LNumber(-1))
	default:
		L.Push(lua.LNumber(0))
	}
	return 1
}

func luaHasPrefix(L *lua.LState) int {
	L.Push(lua.LBool(strings.HasPrefix(L.CheckString(1), L.CheckString(2))))
	return 1
}
