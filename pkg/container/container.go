// Package container implements types.Container: a keyed store of handle
// values (non-nil pointers) with type-derived default keys, per-instance
// identity tokens, and teardown through types.Disposable.
package container

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/patterns/internal/typename"
	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

var (
	_ types.Container[any] = (*Container[any])(nil)
	_ types.LoggerAware    = (*Container[any])(nil)
)

// instance identifies an attached object by address. Handles to zero-size
// values may share an address without being the same instance, so for those
// the holding key is part of the identity.
type instance struct {
	addr uintptr
	key  string
}

func instanceOf(key string, obj any) instance {
	if typename.ZeroSize(obj) {
		return instance{addr: typename.Pointer(obj), key: key}
	}
	return instance{addr: typename.Pointer(obj)}
}

// token is the identity of one attached instance. refs counts the keys that
// currently hold the instance.
type token struct {
	id   string
	refs int
}

// Container holds objects by key. It is not safe for concurrent use.
type Container[T any] struct {
	objects *store.Store[T]
	tokens  map[instance]token
	logger  *slog.Logger
}

// New creates an empty container.
func New[T any]() *Container[T] {
	return &Container[T]{
		objects: store.New[T](),
		tokens:  make(map[instance]token),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used for rejected writes and disposal failures.
func (c *Container[T]) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c.logger = logger
}

// newID generates a UUID v7 identity token.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// Attach stores obj under the simple name of its type (*pkg.Cache → "Cache")
// and returns that key. An occupied key is not overwritten.
func (c *Container[T]) Attach(obj T) (string, bool) {
	key := typename.Of(obj)
	return key, c.AttachAs(key, obj)
}

// AttachAs stores obj under key. It returns false if obj is not a non-nil
// pointer, key is empty, or key is occupied.
func (c *Container[T]) AttachAs(key string, obj T) bool {
	if key == "" || !typename.IsHandle(obj) {
		c.logger.Debug("container: rejected non-handle value", "key", key, "type", fmt.Sprintf("%T", obj))
		return false
	}
	if !c.objects.Store(key, obj) {
		c.logger.Debug("container: key already occupied", "key", key)
		return false
	}
	c.retain(key, obj)
	return true
}

// Detach removes key.
func (c *Container[T]) Detach(key string) bool {
	obj, ok := c.objects.Get(key)
	if !ok {
		return false
	}
	c.objects.Remove(key)
	c.release(key, obj)
	return true
}

// Contains reports whether key is occupied.
func (c *Container[T]) Contains(key string) bool { return c.objects.Has(key) }

// Get returns the object held under key.
func (c *Container[T]) Get(key string) (T, bool) { return c.objects.Get(key) }

// IdentityOf returns the identity token of the object held under key. The
// token is issued when an instance first enters the container and is shared
// by every key holding that same instance. Handles to zero-size values get
// one token per key.
func (c *Container[T]) IdentityOf(key string) (string, bool) {
	obj, ok := c.objects.Get(key)
	if !ok {
		return "", false
	}
	t, ok := c.tokens[instanceOf(key, obj)]
	return t.id, ok
}

// Len returns the number of held objects.
func (c *Container[T]) Len() int { return c.objects.Len() }

// Keys returns the keys in attachment order.
func (c *Container[T]) Keys() []string { return c.objects.Keys() }

// All iterates over the held objects in attachment order.
func (c *Container[T]) All() iter.Seq2[string, T] { return c.objects.All() }

// Exchange replaces every object with entries and returns the previous
// contents. Non-handle values in entries are skipped. This and Merge are the
// only writes that overwrite an occupied key.
func (c *Container[T]) Exchange(entries map[string]T) map[string]T {
	prev := c.objects.Exchange(c.handles(entries))
	c.rebuildTokens()
	return prev
}

// Merge overlays entries and returns the previous contents. Non-handle
// values in entries are skipped.
func (c *Container[T]) Merge(entries map[string]T) map[string]T {
	prev := c.objects.Merge(c.handles(entries))
	c.rebuildTokens()
	return prev
}

// DisposeAll calls Dispose on every held object implementing
// types.Disposable, in attachment order, then empties the container. Objects
// without the hook are skipped. An instance held under several keys is
// disposed once; handles to zero-size values are disposed once per key.
// Hook errors do not stop the teardown; they are joined and returned.
func (c *Container[T]) DisposeAll() error {
	var errs []error
	disposed := make(map[instance]bool)
	for key, obj := range c.objects.All() {
		id := instanceOf(key, obj)
		if disposed[id] {
			continue
		}
		disposed[id] = true

		d, ok := any(obj).(types.Disposable)
		if !ok {
			continue
		}
		if err := d.Dispose(); err != nil {
			c.logger.Warn("container: dispose failed", "key", key, "error", err)
			errs = append(errs, fmt.Errorf("disposing %s: %w", key, err))
		}
	}
	c.objects.Clear()
	c.tokens = make(map[instance]token)
	return errors.Join(errs...)
}

func (c *Container[T]) handles(entries map[string]T) map[string]T {
	out := make(map[string]T, len(entries))
	for k, v := range entries {
		if k == "" || !typename.IsHandle(v) {
			c.logger.Debug("container: skipped non-handle value", "key", k)
			continue
		}
		out[k] = v
	}
	return out
}

func (c *Container[T]) retain(key string, obj T) {
	p := instanceOf(key, obj)
	t := c.tokens[p]
	if t.id == "" {
		t.id = newID()
	}
	t.refs++
	c.tokens[p] = t
}

func (c *Container[T]) release(key string, obj T) {
	p := instanceOf(key, obj)
	t, ok := c.tokens[p]
	if !ok {
		return
	}
	t.refs--
	if t.refs <= 0 {
		delete(c.tokens, p)
		return
	}
	c.tokens[p] = t
}

// rebuildTokens recounts references after a bulk write, keeping the tokens
// of instances that stayed in the container.
func (c *Container[T]) rebuildTokens() {
	old := c.tokens
	c.tokens = make(map[instance]token, c.objects.Len())
	for key, obj := range c.objects.All() {
		p := instanceOf(key, obj)
		t, seen := c.tokens[p]
		if !seen {
			t.id = old[p].id
			if t.id == "" {
				t.id = newID()
			}
		}
		t.refs++
		c.tokens[p] = t
	}
}
