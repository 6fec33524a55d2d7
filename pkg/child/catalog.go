package child

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

// Factory builds a new child instance with no arguments.
// Implementations must be safe to call concurrently.
type Factory func() (any, error)

// Key locates a child factory: Base is the search root a resolver is
// configured with, Name the qualified child name ("namespace.ClassName").
type Key struct {
	Base string
	Name string
}

// String returns a human-readable representation "base:name".
func (k Key) String() string {
	if k.Base == "" {
		return k.Name
	}
	return k.Base + ":" + k.Name
}

// Catalog maps keys to child factories. It is populated at startup, usually
// from init functions, and is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	factories map[Key]Factory
	sealed    atomic.Bool
}

// Default is the process-wide catalog used by resolvers created without one.
var Default = NewCatalog()

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[Key]Factory)}
}

// Register adds a factory for k. It fails with types.ErrSealed on a sealed
// catalog, types.ErrInvalidKey for an empty name or nil factory, and
// types.ErrDuplicate if k is already registered.
func (c *Catalog) Register(k Key, f Factory) error {
	if c.sealed.Load() {
		return types.ErrSealed
	}
	if k.Name == "" || f == nil {
		return fmt.Errorf("%w: %q", types.ErrInvalidKey, k.String())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[k]; exists {
		return fmt.Errorf("%w: %s", types.ErrDuplicate, k)
	}
	c.factories[k] = f
	return nil
}

// MustRegister panics on registration error. Useful from init() blocks.
func (c *Catalog) MustRegister(k Key, f Factory) {
	if err := c.Register(k, f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory for k, if present.
func (c *Catalog) Lookup(k Key) (Factory, bool) {
	c.mu.RLock()
	f, ok := c.factories[k]
	c.mu.RUnlock()
	return f, ok
}

// Unregister removes the factory for k. It is allowed on a sealed catalog.
func (c *Catalog) Unregister(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.factories[k]; !ok {
		return false
	}
	delete(c.factories, k)
	return true
}

// Keys returns all registered keys in lexicographic order.
func (c *Catalog) Keys() []Key {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.factories))
	for k := range c.factories {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Base == keys[j].Base {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Base < keys[j].Base
	})
	return keys
}

// Seal prevents further registrations. It is idempotent and returns true if
// this call changed the state.
func (c *Catalog) Seal() bool { return !c.sealed.Swap(true) }

// Sealed reports whether the catalog refuses registrations.
func (c *Catalog) Sealed() bool { return c.sealed.Load() }

// IsDuplicate reports whether err came from registering an existing key.
func IsDuplicate(err error) bool { return errors.Is(err, types.ErrDuplicate) }
