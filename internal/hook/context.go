// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package hook

import "context"

type stackKey struct{}

// push returns a context whose hook stack ends with name. The stack slice is
// copied so sibling dispatches never share backing arrays.
func push(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	prev, _ := ctx.Value(stackKey{}).([]string)
	next := make([]string, len(prev)+1)
	copy(next, prev)
	next[len(prev)] = name
	return context.WithValue(ctx, stackKey{}, next)
}

// Current returns the innermost hook being dispatched, or "" outside a dispatch.
func Current(ctx context.Context) string {
	stack, _ := ctx.Value(stackKey{}).([]string)
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// Doing reports whether name is anywhere on the dispatch stack of ctx.
func Doing(ctx context.Context, name string) bool {
	stack, _ := ctx.Value(stackKey{}).([]string)
	for _, n := range stack {
		if n == name {
			return true
		}
	}
	return false
}

// Stack returns a copy of the dispatch stack, outermost first.
func Stack(ctx context.Context) []string {
	stack, _ := ctx.Value(stackKey{}).([]string)
	out := make([]string, len(stack))
	copy(out, stack)
	return out
}
