// Package pool provides fixed-capacity arenas of reusable instances keyed
// by an opaque resource kind and addressed by generation-checked integer
// handles.
package pool

import (
	"errors"
	"fmt"
)

// Kind identifies a resource kind (an effect or sound type).
type Kind string

// Handle addresses one instance. Handles go stale when the instance is
// released, so a handle cannot release a slot twice.
type Handle struct {
	Kind       Kind
	Index      int
	Generation uint32
}

// Valid reports whether the handle was ever issued.
func (h Handle) Valid() bool {
	return h.Kind != "" && h.Generation != 0
}

// String formats the handle for logs.
func (h Handle) String() string {
	return fmt.Sprintf("%s#%d.%d", h.Kind, h.Index, h.Generation)
}

var (
	// ErrUnknownKind is returned for a kind that was never registered.
	ErrUnknownKind = errors.New("pool: unknown kind")

	// ErrExhausted is returned when every slot of a kind is in use.
	ErrExhausted = errors.New("pool: capacity exhausted")

	// ErrStaleHandle is returned for a handle whose slot was already
	// released or reused.
	ErrStaleHandle = errors.New("pool: stale handle")
)

type slot[T any] struct {
	value      T
	active     bool
	generation uint32
}

type arena[T any] struct {
	capacity int
	slots    []*slot[T]
	free     []int
}

// Pool holds one arena per kind. It is not safe for concurrent use;
// callers that share a pool across goroutines lock around it.
type Pool[T any] struct {
	arenas map[Kind]*arena[T]
	reset  func(*T)
}

// New creates an empty Pool. reset, if non-nil, is called on an instance
// when it is released.
func New[T any](reset func(*T)) *Pool[T] {
	return &Pool[T]{arenas: make(map[Kind]*arena[T]), reset: reset}
}

// Register declares a kind with a maximum number of live instances.
// Re-registering a kind changes its capacity but keeps existing slots.
func (p *Pool[T]) Register(kind Kind, capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if a, ok := p.arenas[kind]; ok {
		a.capacity = max(capacity, len(a.slots))
		return
	}
	p.arenas[kind] = &arena[T]{capacity: capacity}
}

// Acquire returns an inactive instance of kind, allocating a new slot if
// none is free and the kind is below capacity.
func (p *Pool[T]) Acquire(kind Kind) (Handle, *T, error) {
	a, ok := p.arenas[kind]
	if !ok {
		return Handle{}, nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var idx int
	switch {
	case len(a.free) > 0:
		idx = a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
	case len(a.slots) < a.capacity:
		a.slots = append(a.slots, &slot[T]{})
		idx = len(a.slots) - 1
	default:
		return Handle{}, nil, fmt.Errorf("%w: %q (%d)", ErrExhausted, kind, a.capacity)
	}

	s := a.slots[idx]
	s.active = true
	s.generation++
	return Handle{Kind: kind, Index: idx, Generation: s.generation}, &s.value, nil
}

func (p *Pool[T]) lookup(h Handle) (*arena[T], *slot[T], error) {
	a, ok := p.arenas[h.Kind]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, h.Kind)
	}
	if h.Index < 0 || h.Index >= len(a.slots) {
		return nil, nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	s := a.slots[h.Index]
	if !s.active || s.generation != h.Generation {
		return nil, nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return a, s, nil
}

// Get returns the live instance behind h.
func (p *Pool[T]) Get(h Handle) (*T, error) {
	_, s, err := p.lookup(h)
	if err != nil {
		return nil, err
	}
	return &s.value, nil
}

// Release deactivates the instance behind h and returns it to its arena.
func (p *Pool[T]) Release(h Handle) error {
	a, s, err := p.lookup(h)
	if err != nil {
		return err
	}
	if p.reset != nil {
		p.reset(&s.value)
	}
	s.active = false
	a.free = append(a.free, h.Index)
	return nil
}

// Each calls fn for every live instance. fn must not acquire or release.
func (p *Pool[T]) Each(fn func(Handle, *T)) {
	for kind, a := range p.arenas {
		for i, s := range a.slots {
			if s.active {
				fn(Handle{Kind: kind, Index: i, Generation: s.generation}, &s.value)
			}
		}
	}
}

// Stats reports the usage of one kind.
type Stats struct {
	Capacity  int
	Allocated int
	Active    int
}

// Stats returns usage for kind.
func (p *Pool[T]) Stats(kind Kind) Stats {
	a, ok := p.arenas[kind]
	if !ok {
		return Stats{}
	}
	return Stats{
		Capacity:  a.capacity,
		Allocated: len(a.slots),
		Active:    len(a.slots) - len(a.free),
	}
}
