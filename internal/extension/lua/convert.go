// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package lua

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// toLua converts a hook argument into a Lua value. Unknown types are passed
// as their string form.
func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case []string:
		t := L.CreateTable(len(v), 0)
		for _, s := range v {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := L.CreateTable(len(v), 0)
		for _, item := range v {
			t.Append(toLua(L, item))
		}
		return t
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := L.CreateTable(0, len(v))
		for _, k := range keys {
			t.RawSetString(k, toLua(L, v[k]))
		}
		return t
	case fmt.Stringer:
		return lua.LString(v.String())
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// fromLua converts a Lua value returned by a filter into Go. Sequences of
// strings become []string, so a filter over a string list keeps its type;
// other sequences become []any and keyed tables map[string]any. Whole
// numbers become int.
func fromLua(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LString:
		return string(v)
	case lua.LNumber:
		if f := float64(v); f == float64(int(f)) {
			return int(f)
		}
		return float64(v)
	case *lua.LTable:
		return tableFromLua(v)
	default:
		return v.String()
	}
}

func tableFromLua(t *lua.LTable) any {
	n := t.Len()
	keyed := false
	t.ForEach(func(k, _ lua.LValue) {
		if num, ok := k.(lua.LNumber); !ok || int(num) < 1 || int(num) > n || float64(num) != float64(int(num)) {
			keyed = true
		}
	})

	if keyed {
		out := make(map[string]any)
		t.ForEach(func(k, val lua.LValue) {
			out[k.String()] = fromLua(val)
		})
		return out
	}

	strs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s, ok := t.RawGetInt(i).(lua.LString)
		if !ok {
			strs = nil
			break
		}
		strs = append(strs, string(s))
	}
	if strs != nil {
		return strs
	}

	items := make([]any, n)
	for i := 1; i <= n; i++ {
		items[i-1] = fromLua(t.RawGetInt(i))
	}
	return items
}
