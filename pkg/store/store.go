// Package store implements types.KeyedStore: an insertion-ordered map from
// string keys to values with policy-driven writes.
//
// A Store is not safe for concurrent use. Has followed by Store is not atomic;
// callers sharing a Store across goroutines must synchronize externally.
package store

import (
	"iter"
	"maps"
	"reflect"
	"slices"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

var _ types.KeyedStore[any] = (*Store[any])(nil)

// MergeFunc combines the value already stored under a key with an incoming
// one. It is used by types.PolicyMergeOverlay.
type MergeFunc[V any] func(old, incoming V) V

// EqualFunc reports whether two values are equal. It is used by Search.
type EqualFunc[V any] func(a, b V) bool

// Entry is a key/value pair in insertion order.
type Entry[V any] struct {
	Key   string
	Value V
}

// Option configures a Store.
type Option[V any] func(*Store[V])

// WithPolicy sets the policy used by Store. The default is
// types.PolicyRejectIfExists.
func WithPolicy[V any](p types.Policy) Option[V] {
	return func(s *Store[V]) { s.policy = p }
}

// WithMerge sets the function used by types.PolicyMergeOverlay. Without it,
// MergeOverlay behaves like Replace.
func WithMerge[V any](fn MergeFunc[V]) Option[V] {
	return func(s *Store[V]) { s.merge = fn }
}

// WithEqual sets the equality used by Search when scanning values. The
// default is reflect.DeepEqual.
func WithEqual[V any](fn EqualFunc[V]) Option[V] {
	return func(s *Store[V]) { s.equal = fn }
}

// Store is a generic keyed store. The zero value is not usable; call New.
type Store[V any] struct {
	entries map[string]V
	order   []string
	policy  types.Policy
	merge   MergeFunc[V]
	equal   EqualFunc[V]
}

// New creates an empty Store.
func New[V any](opts ...Option[V]) *Store[V] {
	s := &Store[V]{
		entries: make(map[string]V),
		equal:   func(a, b V) bool { return reflect.DeepEqual(a, b) },
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Policy returns the default write policy of the store.
func (s *Store[V]) Policy() types.Policy { return s.policy }

// Get returns the value stored under key.
func (s *Store[V]) Get(key string) (V, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Has reports whether key is occupied.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Store writes value under key with the store's default policy. With the
// default policy a second write to the same key is ignored and returns false.
func (s *Store[V]) Store(key string, value V) bool {
	return s.StoreWith(key, value, s.policy)
}

// StoreWith writes value under key with the given policy.
// Absent keys are always written. For an occupied key, PolicyRejectIfExists
// leaves the old value, PolicyReplace overwrites it in place, and
// PolicyMergeOverlay stores merge(old, value).
func (s *Store[V]) StoreWith(key string, value V, policy types.Policy) bool {
	old, exists := s.entries[key]
	if !exists {
		s.entries[key] = value
		s.order = append(s.order, key)
		return true
	}

	switch policy {
	case types.PolicyRejectIfExists:
		return false
	case types.PolicyReplace:
		s.entries[key] = value
		return true
	case types.PolicyMergeOverlay:
		if s.merge != nil {
			value = s.merge(old, value)
		}
		s.entries[key] = value
		return true
	default:
		return false
	}
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store[V]) Remove(key string) bool {
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

// Merge overlays entries onto the store: existing keys take the incoming
// value in place and new keys are appended in sorted key order. It returns
// the entries held before the call.
func (s *Store[V]) Merge(entries map[string]V) map[string]V {
	return s.MergeEntries(sortedEntries(entries))
}

// MergeEntries is Merge with a caller-defined order for new keys.
func (s *Store[V]) MergeEntries(entries []Entry[V]) map[string]V {
	prev := s.ToMap()
	for _, e := range entries {
		if _, ok := s.entries[e.Key]; !ok {
			s.order = append(s.order, e.Key)
		}
		s.entries[e.Key] = e.Value
	}
	return prev
}

// Exchange replaces every entry with entries, ordered by key. It returns the
// entries held before the call.
func (s *Store[V]) Exchange(entries map[string]V) map[string]V {
	return s.ExchangeEntries(sortedEntries(entries))
}

// ExchangeEntries is Exchange with a caller-defined order. A key repeated in
// entries keeps its first position and its last value.
func (s *Store[V]) ExchangeEntries(entries []Entry[V]) map[string]V {
	prev := s.ToMap()
	s.entries = make(map[string]V, len(entries))
	s.order = make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := s.entries[e.Key]; !ok {
			s.order = append(s.order, e.Key)
		}
		s.entries[e.Key] = e.Value
	}
	return prev
}

// Search looks needle up as a key first. If needle is not a key but has the
// store's value type, the first value (in insertion order) equal to needle is
// returned. A nil needle stands for the nil value of an interface, pointer,
// map, slice, func or channel value type. Otherwise fallback is returned.
func (s *Store[V]) Search(needle any, fallback V) V {
	if v, ok := s.lookup(needle); ok {
		return v
	}
	return fallback
}

// Find performs the same lookup as Search and returns the match as a slice
// of zero or one element.
func (s *Store[V]) Find(needle any) []V {
	if v, ok := s.lookup(needle); ok {
		return []V{v}
	}
	return []V{}
}

func (s *Store[V]) lookup(needle any) (V, bool) {
	if key, ok := needle.(string); ok {
		if v, ok := s.entries[key]; ok {
			return v, true
		}
	}
	want, ok := needle.(V)
	if !ok && needle == nil && nilable[V]() {
		ok = true
	}
	if ok {
		for _, key := range s.order {
			if v := s.entries[key]; s.equal(want, v) {
				return v, true
			}
		}
	}
	var zero V
	return zero, false
}

func nilable[V any]() bool {
	switch reflect.TypeFor[V]().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// Len returns the number of entries.
func (s *Store[V]) Len() int { return len(s.entries) }

// Keys returns the keys in insertion order.
func (s *Store[V]) Keys() []string { return slices.Clone(s.order) }

// Entries returns a copy of the entries in insertion order.
func (s *Store[V]) Entries() []Entry[V] {
	out := make([]Entry[V], 0, len(s.order))
	for _, key := range s.order {
		out = append(out, Entry[V]{Key: key, Value: s.entries[key]})
	}
	return out
}

// All iterates over the entries in insertion order. Mutating the store while
// iterating is not supported.
func (s *Store[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, key := range s.order {
			if !yield(key, s.entries[key]) {
				return
			}
		}
	}
}

// ToMap returns a copy of all entries.
func (s *Store[V]) ToMap() map[string]V {
	return maps.Clone(s.entries)
}

// Clear removes every entry and returns the entries held before the call.
func (s *Store[V]) Clear() map[string]V {
	prev := s.entries
	s.entries = make(map[string]V)
	s.order = nil
	return prev
}

// sortedEntries flattens a map into entries ordered by key so that bulk
// writes from a map are deterministic.
func sortedEntries[V any](m map[string]V) []Entry[V] {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]Entry[V], 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry[V]{Key: k, Value: m[k]})
	}
	return out
}
