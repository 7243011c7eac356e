// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package hook provides the explicit hook registry that host signals and
// namespaced relay signals are dispatched through.
//
// A Bus holds action and filter handlers keyed by hook name. Handlers run in
// ascending priority order; handlers sharing a priority run in the order they
// were registered. Dispatch is synchronous on the caller's goroutine.
package hook

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("gnist/hook")

// DefaultPriority is the priority hosts assign when none is given.
const DefaultPriority = 10

// Kind distinguishes action handlers from filter handlers.
type Kind uint8

// Handler kinds.
const (
	KindAction Kind = iota + 1
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// ActionFunc handles an action. A non-nil error aborts the remaining
// handlers of the same dispatch and is returned to whoever fired the hook.
type ActionFunc func(ctx context.Context, args ...any) error

// FilterFunc receives the current value and returns the value handed to the
// next filter.
type FilterFunc func(ctx context.Context, value any, args ...any) (any, error)

// Observer is notified after every dispatch.
type Observer interface {
	ObserveDispatch(name string, kind Kind, handlers int, elapsed time.Duration, err error)
}

// Registration identifies one handler attached to a hook.
type Registration struct {
	Name     string
	Priority int
	Kind     Kind
	Owner    string
	seq      uint64
}

// IsZero reports whether r was never returned by a successful registration.
func (r Registration) IsZero() bool {
	return r.seq == 0
}

type handler struct {
	reg    Registration
	action ActionFunc
	filter FilterFunc
}

// RegisterOption configures a single registration.
type RegisterOption func(*Registration)

// Owner labels a registration with the component that added it.
func Owner(label string) RegisterOption {
	return func(r *Registration) {
		r.Owner = label
	}
}

// Option configures a Bus.
type Option func(*Bus)

// WithObserver reports every dispatch to o.
func WithObserver(o Observer) Option {
	return func(b *Bus) {
		b.observer = o
	}
}

// Bus is a registry of prioritized hook handlers.
//
// Bus is safe for concurrent use. Dispatch iterates a snapshot of the handlers
// taken when the hook fires, so handlers registered during a dispatch run from
// the next firing on.
type Bus struct {
	mu       sync.RWMutex
	hooks    map[string][]handler
	fired    map[string]int
	seq      uint64
	observer Observer
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		hooks: make(map[string][]handler),
		fired: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddAction attaches fn to the action name at the given priority.
func (b *Bus) AddAction(name string, priority int, fn ActionFunc, opts ...RegisterOption) (Registration, error) {
	if fn == nil {
		return Registration{}, ErrNilHandler(name)
	}
	return b.add(name, priority, KindAction, handler{action: fn}, opts)
}

// AddFilter attaches fn to the filter name at the given priority.
func (b *Bus) AddFilter(name string, priority int, fn FilterFunc, opts ...RegisterOption) (Registration, error) {
	if fn == nil {
		return Registration{}, ErrNilHandler(name)
	}
	return b.add(name, priority, KindFilter, handler{filter: fn}, opts)
}

func (b *Bus) add(name string, priority int, kind Kind, h handler, opts []RegisterOption) (Registration, error) {
	if name == "" {
		return Registration{}, ErrEmptyHookName()
	}

	reg := Registration{Name: name, Priority: priority, Kind: kind}
	for _, opt := range opts {
		opt(&reg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	reg.seq = b.seq
	h.reg = reg

	list := b.hooks[name]
	// Insert after every handler with priority <= p to keep registration order.
	i := sort.Search(len(list), func(i int) bool {
		return list[i].reg.Priority > priority
	})
	list = append(list, handler{})
	copy(list[i+1:], list[i:])
	list[i] = h
	b.hooks[name] = list

	return reg, nil
}

// Remove detaches a registration. It reports whether the handler was found.
func (b *Bus) Remove(reg Registration) bool {
	if reg.IsZero() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.hooks[reg.Name]
	for i, h := range list {
		if h.reg.seq != reg.seq {
			continue
		}
		next := make([]handler, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.hooks, reg.Name)
		} else {
			b.hooks[reg.Name] = next
		}
		return true
	}
	return false
}

// DoAction fires the action name, passing args unchanged to every action
// handler. It counts as one firing even when nothing is attached.
func (b *Bus) DoAction(ctx context.Context, name string, args ...any) (err error) {
	handlers := b.snapshot(name, KindAction, true)

	ctx = push(ctx, name)
	ctx, span := tracer.Start(ctx, "hook.do_action", trace.WithAttributes(
		attribute.String("hook.name", name),
		attribute.Int("hook.handlers", len(handlers)),
	))
	start := time.Now()
	defer func() {
		b.finish(span, name, KindAction, len(handlers), start, err)
	}()

	for _, h := range handlers {
		if err := h.action(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFilters threads value through every filter handler of name and
// returns the result. With no filters attached, value is returned as is.
func (b *Bus) ApplyFilters(ctx context.Context, name string, value any, args ...any) (result any, err error) {
	handlers := b.snapshot(name, KindFilter, false)

	ctx = push(ctx, name)
	ctx, span := tracer.Start(ctx, "hook.apply_filters", trace.WithAttributes(
		attribute.String("hook.name", name),
		attribute.Int("hook.handlers", len(handlers)),
	))
	start := time.Now()
	defer func() {
		b.finish(span, name, KindFilter, len(handlers), start, err)
	}()

	for _, h := range handlers {
		value, err = h.filter(ctx, value, args...)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

func (b *Bus) snapshot(name string, kind Kind, count bool) []handler {
	if count {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.fired[name]++
	} else {
		b.mu.RLock()
		defer b.mu.RUnlock()
	}

	list := b.hooks[name]
	out := make([]handler, 0, len(list))
	for _, h := range list {
		if h.reg.Kind == kind {
			out = append(out, h)
		}
	}
	return out
}

func (b *Bus) finish(span trace.Span, name string, kind Kind, n int, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if b.observer != nil {
		b.observer.ObserveDispatch(name, kind, n, time.Since(start), err)
	}
}

// DidAction returns how many times the action name has fired on this bus.
func (b *Bus) DidAction(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fired[name]
}

// HasHook reports whether any handler is attached to name.
func (b *Bus) HasHook(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks[name]) > 0
}

// Hooks returns the registrations attached to name in dispatch order.
func (b *Bus) Hooks(name string) []Registration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := b.hooks[name]
	regs := make([]Registration, len(list))
	for i, h := range list {
		regs[i] = h.reg
	}
	return regs
}

// Names returns every hook name with at least one handler, sorted.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.hooks))
	for name := range b.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
