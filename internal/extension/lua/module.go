// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package lua

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/host"
)

// ModuleName is the global table scripts use to reach the engine.
const ModuleName = "gnist"

// runtime is one extension's Lua state bound to one bus. LState is not
// safe for concurrent use, so every entry into the state holds mu.
type runtime struct {
	name   string
	state  *lua.LState
	bus    *hook.Bus
	host   *Host
	logger *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	regs   []hook.Registration
	denied error
}

func (rt *runtime) owner() string {
	return "extension:" + rt.name
}

// register installs the gnist module into the runtime's state.
func (rt *runtime) register() {
	L := rt.state
	mod := L.NewTable()

	L.SetField(mod, "add_action", L.NewFunction(rt.addActionFn))
	L.SetField(mod, "add_filter", L.NewFunction(rt.addFilterFn))
	L.SetField(mod, "did_action", L.NewFunction(rt.didActionFn))
	L.SetField(mod, "current_hook", L.NewFunction(rt.currentHookFn))
	L.SetField(mod, "request_id", L.NewFunction(rt.requestIDFn))
	L.SetField(mod, "name", L.NewFunction(rt.nameFn))
	L.SetField(mod, "log", L.NewFunction(rt.logFn))
	L.SetField(mod, "new_request_id", L.NewFunction(newRequestIDFn))
	L.SetField(mod, "extension", lua.LString(rt.name))

	L.SetGlobal(ModuleName, mod)
}

func (rt *runtime) close() {
	for _, reg := range rt.regs {
		rt.bus.Remove(reg)
	}
	rt.regs = nil
	rt.state.Close()
}

// subscribe resolves and checks the hook argument shared by add_action and
// add_filter. It raises a Lua error when the hook is not granted.
func (rt *runtime) subscribe(L *lua.LState) (name string, fn *lua.LFunction, priority int) {
	short := L.CheckString(1)
	fn = L.CheckFunction(2)
	priority = L.OptInt(3, hook.DefaultPriority)

	if !rt.host.enforcer.Check(rt.name, short) {
		rt.denied = ErrHookDenied(rt.name, short)
		L.RaiseError("%s", rt.denied.Error())
		return "", nil, 0
	}
	return rt.host.namer.Name(short), fn, priority
}

func (rt *runtime) addActionFn(L *lua.LState) int {
	name, fn, priority := rt.subscribe(L)

	reg, err := rt.bus.AddAction(name, priority, func(ctx context.Context, args ...any) error {
		_, err := rt.call(ctx, name, fn, 0, args)
		return err
	}, hook.Owner(rt.owner()))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	rt.regs = append(rt.regs, reg)
	return 0
}

// addFilterFn registers a filter. A filter function that returns nil leaves
// the value unchanged.
func (rt *runtime) addFilterFn(L *lua.LState) int {
	name, fn, priority := rt.subscribe(L)

	reg, err := rt.bus.AddFilter(name, priority, func(ctx context.Context, value any, args ...any) (any, error) {
		ret, err := rt.call(ctx, name, fn, 1, append([]any{value}, args...))
		if err != nil {
			return nil, err
		}
		if ret == lua.LNil {
			return value, nil
		}
		return fromLua(ret), nil
	}, hook.Owner(rt.owner()))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	rt.regs = append(rt.regs, reg)
	return 0
}

// call runs fn inside the state with ctx as the current dispatch context.
// With nret 1 it returns the function's first result.
func (rt *runtime) call(ctx context.Context, name string, fn *lua.LFunction, nret int, args []any) (lua.LValue, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	L := rt.state
	prev := rt.ctx
	rt.ctx = ctx
	L.SetContext(ctx)
	defer func() {
		rt.ctx = prev
		if prev != nil {
			L.SetContext(prev)
		} else {
			L.RemoveContext()
		}
	}()

	largs := make([]lua.LValue, len(args))
	for i, arg := range args {
		largs[i] = toLua(L, arg)
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    nret,
		Protect: true,
	}, largs...); err != nil {
		return lua.LNil, oops.In("lua").
			Code(CodeHandlerFailed).
			With("extension", rt.name).
			With("hook", name).
			Wrap(err)
	}

	if nret == 0 {
		return lua.LNil, nil
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

func (rt *runtime) didActionFn(L *lua.LState) int {
	short := L.CheckString(1)
	L.Push(lua.LNumber(rt.bus.DidAction(rt.host.namer.Name(short))))
	return 1
}

func (rt *runtime) currentHookFn(L *lua.LState) int {
	current := hook.Current(rt.ctx)
	if current == "" {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(current))
	return 1
}

func (rt *runtime) requestIDFn(L *lua.LState) int {
	req, ok := host.RequestFromContext(rt.ctx)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(req.ID.String()))
	return 1
}

func (rt *runtime) nameFn(L *lua.LState) int {
	L.Push(lua.LString(rt.host.namer.Name(L.CheckString(1))))
	return 1
}

func (rt *runtime) logFn(L *lua.LState) int {
	level := L.CheckString(1)
	message := L.CheckString(2)

	var attrs []any
	if current := hook.Current(rt.ctx); current != "" {
		attrs = append(attrs, "hook", current)
	}
	if req, ok := host.RequestFromContext(rt.ctx); ok {
		attrs = append(attrs, "request_id", req.ID.String())
	}

	switch level {
	case "debug":
		rt.logger.DebugContext(rt.ctx, message, attrs...)
	case "warn":
		rt.logger.WarnContext(rt.ctx, message, attrs...)
	case "error":
		rt.logger.ErrorContext(rt.ctx, message, attrs...)
	default:
		rt.logger.InfoContext(rt.ctx, message, attrs...)
	}
	return 0
}

func newRequestIDFn(L *lua.LState) int {
	L.Push(lua.LString(host.NewID().String()))
	return 1
}
