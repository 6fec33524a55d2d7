// Package singleton provides an initialize-once holder for process-wide
// values.
//
// A Holder is meant to be declared as a package-level variable:
//
//	var registry = singleton.New(func(ctx context.Context) (*Registry, error) {
//	    return loadRegistry(ctx)
//	})
//
//	reg, err := registry.Get(ctx)
//
// The constructor runs at most once at a time. Concurrent callers wait for
// the running constructor. A failed construction is not kept, so the next
// Get tries again. A constructor that calls Get on its own holder (directly or
// through other code that receives its context) gets types.ErrReentrant
// instead of deadlocking.
package singleton

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

// Constructor builds the singleton value.
type Constructor[T any] func(ctx context.Context) (T, error)

// building marks a context passed to a holder's constructor.
type building struct{ holder any }

// Holder lazily builds and keeps one value of type T. It is safe for
// concurrent use. The zero value is not usable; call New.
type Holder[T any] struct {
	ctor  Constructor[T]
	value atomic.Pointer[T] // nil until built

	mu   sync.Mutex
	done chan struct{} // non-nil while the constructor runs
}

// New creates a holder that builds its value with ctor on first use.
func New[T any](ctor Constructor[T]) *Holder[T] {
	return &Holder[T]{ctor: ctor}
}

// Get returns the value, building it on the first call. If the value
// implements types.Initializer, Initialize runs once right after
// construction and its failure counts as a failed construction.
//
// Callers that arrive while the constructor runs wait for it, or until ctx is
// done.
func (h *Holder[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if p := h.value.Load(); p != nil {
		return *p, nil
	}
	if ctx.Value(building{h}) != nil {
		return zero, types.ErrReentrant
	}

	for {
		h.mu.Lock()
		if p := h.value.Load(); p != nil {
			h.mu.Unlock()
			return *p, nil
		}
		if h.done != nil {
			wait := h.done
			h.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
		h.done = make(chan struct{})
		h.mu.Unlock()

		return h.build(ctx)
	}
}

func (h *Holder[T]) build(ctx context.Context) (T, error) {
	ok := false
	var v T
	defer func() {
		h.mu.Lock()
		if ok {
			h.value.Store(&v)
		}
		close(h.done)
		h.done = nil
		h.mu.Unlock()
	}()

	v, err := h.construct(context.WithValue(ctx, building{h}, true))
	ok = err == nil
	return v, err
}

func (h *Holder[T]) construct(ctx context.Context) (T, error) {
	var zero T
	v, err := h.ctor(ctx)
	if err != nil {
		return zero, fmt.Errorf("constructing singleton: %w", err)
	}
	if init, ok := any(v).(types.Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return zero, fmt.Errorf("initializing singleton: %w", err)
		}
	}
	return v, nil
}

// Loaded reports whether the value has been built.
func (h *Holder[T]) Loaded() bool { return h.value.Load() != nil }

// Reset drops the built value so the next Get builds a new one. It returns
// false, and does nothing, while the constructor is running. It may run
// concurrently with Get; a Get racing with Reset returns either the old
// value or a newly built one. Intended for tests.
func (h *Holder[T]) Reset() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return false
	}
	h.value.Store(nil)
	return true
}
