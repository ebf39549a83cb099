package flex

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// Filter runs a user Lua script that decides which points and ways are ingested.
//
// The script may define either of these globals:
//
//	function keep_way(tags, node_count) return tags.highway ~= nil end
//	function keep_point(tags, lon, lat) return true end
//
// A missing callback keeps everything. A Filter wraps a single LState and is
// not safe for concurrent use; ingestion calls it from one goroutine.
type Filter struct {
	L         *lua.LState
	keepWay   lua.LValue
	keepPoint lua.LValue
}

// NewFilter creates a Lua runtime with the helper functions registered
func NewFilter() *Filter {
	L := lua.NewState()
	RegisterHelpers(L)
	return &Filter{L: L}
}

// LoadFile loads and executes a filter script
func LoadFile(path string) (*Filter, error) {
	f := NewFilter()
	if err := f.L.DoFile(path); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to load Lua file: %w", err)
	}
	f.extractCallbacks()
	return f, nil
}

// LoadString loads and executes filter code from a string
func LoadString(code string) (*Filter, error) {
	f := NewFilter()
	if err := f.L.DoString(code); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to load Lua code: %w", err)
	}
	f.extractCallbacks()
	return f, nil
}

// Close releases Lua resources
func (f *Filter) Close() {
	f.L.Close()
}

func (f *Filter) extractCallbacks() {
	if fn := f.L.GetGlobal("keep_way"); fn.Type() == lua.LTFunction {
		f.keepWay = fn
	}
	if fn := f.L.GetGlobal("keep_point"); fn.Type() == lua.LTFunction {
		f.keepPoint = fn
	}
}

// HasWayFilter reports whether the script defines keep_way
func (f *Filter) HasWayFilter() bool { return f.keepWay != nil }

// HasPointFilter reports whether the script defines keep_point
func (f *Filter) HasPointFilter() bool { return f.keepPoint != nil }

// KeepWay calls keep_way(tags, node_count)
func (f *Filter) KeepWay(tags map[string]string, nodeCount int) (bool, error) {
	if f.keepWay == nil {
		return true, nil
	}
	return f.call(f.keepWay, f.tagsToLua(tags), lua.LNumber(nodeCount))
}

// KeepPoint calls keep_point(tags, lon, lat)
func (f *Filter) KeepPoint(tags map[string]string, lon, lat float64) (bool, error) {
	if f.keepPoint == nil {
		return true, nil
	}
	return f.call(f.keepPoint, f.tagsToLua(tags), lua.LNumber(lon), lua.LNumber(lat))
}

func (f *Filter) call(fn lua.LValue, args ...lua.LValue) (bool, error) {
	if err := f.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return false, fmt.Errorf("lua callback error: %w", err)
	}
	ret := f.L.Get(-1)
	f.L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// tagsToLua converts tags to a Lua table, inserting keys in sorted order so
// iteration inside scripts is reproducible
func (f *Filter) tagsToLua(tags map[string]string) *lua.LTable {
	tbl := f.L.CreateTable(0, len(tags))
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tbl.RawSetString(k, lua.LString(tags[k]))
	}
	return tbl
}
