package types

import "errors"

// KeyedStore is a mapping from string keys to values of type V with
// existence-checked reads and policy-driven writes.
// Lookups of missing keys return the zero value and false; writes that are
// refused report false. Neither ever returns an error.
type KeyedStore[V any] interface {
	// Get returns the value stored under key.
	Get(key string) (V, bool)

	// Has reports whether key is occupied.
	Has(key string) bool

	// Store writes value under key using the store's default policy
	// (PolicyRejectIfExists unless configured otherwise). Returns whether the
	// value was written.
	Store(key string, value V) bool

	// StoreWith writes value under key using the given policy.
	StoreWith(key string, value V, policy Policy) bool

	// Remove deletes key. Returns false if the key was not present.
	Remove(key string) bool

	// Merge overlays entries onto the store; entries win on conflict.
	// Returns a snapshot of the entries held before the call.
	Merge(entries map[string]V) map[string]V

	// Exchange replaces all entries. Returns the entries held before the call.
	Exchange(entries map[string]V) map[string]V

	// Search returns the value under needle when needle is a key, else the
	// first stored value equal to needle, else fallback.
	Search(needle any, fallback V) V

	// Len returns the number of entries.
	Len() int

	// ToMap returns a copy of all entries.
	ToMap() map[string]V

	// Clear removes every entry and returns the entries held before the call.
	Clear() map[string]V
}

// Validator decides whether a value may enter a registry.
type Validator[V any] interface {
	Validate(value V) bool
}

// Registry is a keyed store whose writes are gated by a Validator.
// Invalid values are dropped without an error.
type Registry[V any] interface {
	// Register stores value under a key derived from its type name.
	Register(value V) bool

	// RegisterAs stores value under key.
	RegisterAs(key string, value V) bool

	// Unregister removes key.
	Unregister(key string) bool

	// Exists reports whether key is registered.
	Exists(key string) bool

	// Get returns the value registered under key.
	Get(key string) (V, bool)

	// Len returns the number of registered values.
	Len() int
}

// Container holds handle values (pointers) keyed by name. Keys default to the
// simple type name of the value.
type Container[T any] interface {
	// Attach stores obj under its simple type name and returns that key.
	Attach(obj T) (string, bool)

	// AttachAs stores obj under key.
	AttachAs(key string, obj T) bool

	// Detach removes key.
	Detach(key string) bool

	// Contains reports whether key is occupied.
	Contains(key string) bool

	// Get returns the object held under key.
	Get(key string) (T, bool)

	// IdentityOf returns the identity token of the object held under key.
	IdentityOf(key string) (string, bool)

	// DisposeAll calls Dispose on every Disposable object and empties the
	// container.
	DisposeAll() error

	// Len returns the number of held objects.
	Len() int
}

// Store and registry errors.
var (
	ErrInvalidKey = errors.New("invalid key")
	ErrSealed     = errors.New("registry is sealed")
	ErrDuplicate  = errors.New("key already registered")
	ErrRejected   = errors.New("value rejected by validator")
)
