// Package registry implements types.Registry: a keyed store whose writes are
// gated by a validator.
//
// A value that fails validation is dropped without an error; Register reports
// false and the registry is unchanged. Validation happens once, at write time.
// Occupied keys are never overwritten by Register. TryRegisterAs reports the
// reason a write was refused for callers that need it.
//
// Typical usage:
//
//	codecs := registry.New[Codec](registry.ValidatorFunc[Codec](func(c Codec) bool {
//	    return c.Name() != ""
//	}), registry.WithCaseFold())
//	codecs.Register(&JSONCodec{})          // key "JSONCodec"
//	codecs.RegisterAs("yaml", &YAMLCodec{})
package registry

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/mesh-intelligence/patterns/internal/typename"
	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

var _ types.Registry[any] = (*Registry[any])(nil)

// ValidatorFunc adapts a function to types.Validator.
type ValidatorFunc[V any] func(value V) bool

// Validate calls f(value).
func (f ValidatorFunc[V]) Validate(value V) bool { return f(value) }

// AcceptAll is a validator that accepts every value.
func AcceptAll[V any]() types.Validator[V] {
	return ValidatorFunc[V](func(V) bool { return true })
}

// Options control registry behavior.
type Options struct {
	// Normalizer canonicalizes keys on every read and write. If nil, keys are
	// used as-is.
	Normalizer func(string) string
}

// Option modifies Options.
type Option func(*Options)

// WithNormalizer sets a custom key normalizer.
func WithNormalizer(fn func(string) string) Option {
	return func(o *Options) { o.Normalizer = fn }
}

// WithCaseFold makes keys case-insensitive by lowercasing them.
func WithCaseFold() Option {
	return WithNormalizer(strings.ToLower)
}

// Registry is a validation-gated keyed store. It is not safe for concurrent
// use.
type Registry[V any] struct {
	entries   *store.Store[V]
	validator types.Validator[V]
	opt       Options
	sealed    bool
}

// New creates an empty registry. A nil validator accepts every value.
func New[V any](validator types.Validator[V], opts ...Option) *Registry[V] {
	if validator == nil {
		validator = AcceptAll[V]()
	}
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	return &Registry[V]{
		entries:   store.New[V](),
		validator: validator,
		opt:       o,
	}
}

func (r *Registry[V]) normalize(key string) string {
	if r.opt.Normalizer != nil {
		return r.opt.Normalizer(key)
	}
	return key
}

// Register stores value under the simple name of its type.
func (r *Registry[V]) Register(value V) bool {
	return r.TryRegister(value) == nil
}

// RegisterAs stores value under key. It returns false when the registry is
// sealed, the key is empty or occupied, or the validator rejects value.
func (r *Registry[V]) RegisterAs(key string, value V) bool {
	return r.TryRegisterAs(key, value) == nil
}

// TryRegister is Register with the refusal reason.
func (r *Registry[V]) TryRegister(value V) error {
	return r.TryRegisterAs(typename.Of(value), value)
}

// TryRegisterAs is RegisterAs with the refusal reason: types.ErrSealed,
// types.ErrInvalidKey, types.ErrRejected or types.ErrDuplicate.
func (r *Registry[V]) TryRegisterAs(key string, value V) error {
	if r.sealed {
		return types.ErrSealed
	}
	key = r.normalize(key)
	if key == "" {
		return types.ErrInvalidKey
	}
	if !r.validator.Validate(value) {
		return types.ErrRejected
	}
	if !r.entries.Store(key, value) {
		return types.ErrDuplicate
	}
	return nil
}

// Unregister removes key. Unregistering is allowed on a sealed registry.
func (r *Registry[V]) Unregister(key string) bool {
	return r.entries.Remove(r.normalize(key))
}

// Exists reports whether key is registered.
func (r *Registry[V]) Exists(key string) bool {
	return r.entries.Has(r.normalize(key))
}

// Get returns the value registered under key.
func (r *Registry[V]) Get(key string) (V, bool) {
	return r.entries.Get(r.normalize(key))
}

// Len returns the number of registered values.
func (r *Registry[V]) Len() int { return r.entries.Len() }

// IsEmpty reports whether nothing is registered.
func (r *Registry[V]) IsEmpty() bool { return r.entries.Len() == 0 }

// Keys returns the registered keys in registration order.
func (r *Registry[V]) Keys() []string { return r.entries.Keys() }

// All iterates over the registered values in registration order.
func (r *Registry[V]) All() iter.Seq2[string, V] { return r.entries.All() }

// ToMap returns a copy of the registered values.
func (r *Registry[V]) ToMap() map[string]V { return r.entries.ToMap() }

// Clear unregisters everything and returns what was registered.
func (r *Registry[V]) Clear() map[string]V { return r.entries.Clear() }

// DisposeAll calls Dispose on every registered value implementing
// types.Disposable, in registration order, then unregisters everything. A
// handle registered under several keys is disposed once. Errors do not stop
// the teardown; they are joined and returned. Sealing does not prevent it.
func (r *Registry[V]) DisposeAll() error {
	var errs []error
	seen := make(map[uintptr]bool)
	for key, value := range r.entries.All() {
		if typename.IsHandle(value) && !typename.ZeroSize(value) {
			p := typename.Pointer(value)
			if seen[p] {
				continue
			}
			seen[p] = true
		}
		d, ok := any(value).(types.Disposable)
		if !ok {
			continue
		}
		if err := d.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("disposing %s: %w", key, err))
		}
	}
	r.entries.Clear()
	return errors.Join(errs...)
}

// Seal prevents further registrations. It returns true if this call changed
// the registry from unsealed to sealed.
func (r *Registry[V]) Seal() bool {
	changed := !r.sealed
	r.sealed = true
	return changed
}

// Sealed reports whether the registry refuses registrations.
func (r *Registry[V]) Sealed() bool { return r.sealed }
