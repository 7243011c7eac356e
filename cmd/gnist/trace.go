// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/relay"
)

// emission is one relayed hook seen on a bus.
type emission struct {
	Hook  string `json:"hook" yaml:"hook"`
	Kind  string `json:"kind" yaml:"kind"`
	Args  []any  `json:"args,omitempty" yaml:"args,omitempty"`
	Depth int    `json:"depth" yaml:"depth"`
}

// trace records every namespaced hook the relay emits on a bus, in firing
// order.
type trace struct {
	mu        sync.Mutex
	emissions []emission
}

// newTrace registers recorders on every hook r can emit. They run before
// any other handler so nested emissions are recorded in firing order.
func newTrace(r *relay.Relay, bus *hook.Bus) (*trace, error) {
	tr := &trace{}
	owner := hook.Owner("trace")

	for _, route := range r.Routes() {
		for _, name := range route.Emits {
			if _, err := bus.AddAction(name, math.MinInt, tr.action(name), owner); err != nil {
				return nil, fmt.Errorf("failed to trace %s: %w", name, err)
			}
		}
		if route.Filter != "" {
			if _, err := bus.AddFilter(route.Filter, math.MinInt, tr.filter(route.Filter), owner); err != nil {
				return nil, fmt.Errorf("failed to trace %s: %w", route.Filter, err)
			}
		}
	}
	return tr, nil
}

func (tr *trace) record(ctx context.Context, name string, kind hook.Kind, args []any) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.emissions = append(tr.emissions, emission{
		Hook:  name,
		Kind:  kind.String(),
		Args:  args,
		Depth: len(hook.Stack(ctx)) - 1,
	})
}

func (tr *trace) action(name string) hook.ActionFunc {
	return func(ctx context.Context, args ...any) error {
		tr.record(ctx, name, hook.KindAction, args)
		return nil
	}
}

func (tr *trace) filter(name string) hook.FilterFunc {
	return func(ctx context.Context, value any, args ...any) (any, error) {
		tr.record(ctx, name, hook.KindFilter, append([]any{value}, args...))
		return value, nil
	}
}

// Emissions returns a copy of the recorded emissions.
func (tr *trace) Emissions() []emission {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]emission(nil), tr.emissions...)
}

// Hooks returns the recorded hook names in order.
func (tr *trace) Hooks() []string {
	emissions := tr.Emissions()
	names := make([]string, len(emissions))
	for i, e := range emissions {
		names[i] = e.Hook
	}
	return names
}

// WriteTo writes one line per emission, indented by nesting depth.
func (tr *trace) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, e := range tr.Emissions() {
		b.WriteString(strings.Repeat("  ", max(e.Depth-1, 0)))
		b.WriteString(e.Hook)
		if e.Kind == hook.KindFilter.String() {
			b.WriteString(" [filter]")
		}
		if len(e.Args) > 0 {
			b.WriteString(" ")
			b.WriteString(formatArgs(e.Args))
		}
		b.WriteString("\n")
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		case []string:
			parts[i] = fmt.Sprintf("%q", v)
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
