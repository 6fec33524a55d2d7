// Package child resolves named child components lazily through an explicit
// factory Catalog and memoizes the result per resolver.
//
// Each name moves through UNRESOLVED → RESOLVING → RESOLVED, or back to
// UNRESOLVED on failure. Failures are not cached: a later call retries, so a
// factory registered after a miss is picked up without recreating the
// resolver.
//
// Typical usage:
//
//	func init() {
//	    child.Default.MustRegister(child.Key{Name: "app.Mailer"}, func() (any, error) {
//	        return &Mailer{}, nil
//	    })
//	}
//
//	r := child.NewResolver(nil, child.WithNamespace("app"))
//	mailer, ok := child.ChildAs[*Mailer](r, "mailer")
package child

import (
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/mesh-intelligence/patterns/internal/typename"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

var (
	_ types.Parent      = (*Resolver)(nil)
	_ types.LoggerAware = (*Resolver)(nil)
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithBasePath sets the search root. See SetBasePath.
func WithBasePath(p string) Option { return func(r *Resolver) { r.SetBasePath(p) } }

// WithNamespace sets the namespace prefix. See SetNamespace.
func WithNamespace(ns string) Option { return func(r *Resolver) { r.SetNamespace(ns) } }

// WithOwner derives the namespace from owner's type name when no namespace
// is set explicitly: a resolver owned by *app.Store looks children up under
// "Store".
func WithOwner(owner any) Option { return func(r *Resolver) { r.owner = owner } }

// WithLogger sets the logger used to report failed resolutions.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.SetLogger(l) } }

// Resolver resolves and caches children. It is not safe for concurrent use.
type Resolver struct {
	catalog   *Catalog
	owner     any
	basePath  string
	namespace string
	resolved  map[string]any
	order     []string
	resolving map[string]bool
	logger    *slog.Logger
}

// NewResolver creates a resolver backed by catalog, or Default if nil.
func NewResolver(catalog *Catalog, opts ...Option) *Resolver {
	if catalog == nil {
		catalog = Default
	}
	r := &Resolver{
		catalog:   catalog,
		resolved:  make(map[string]any),
		resolving: make(map[string]bool),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(r)
	}
	if r.namespace == "" && r.owner != nil {
		r.namespace = typename.Of(r.owner)
	}
	return r
}

// SetLogger sets the logger used to report failed resolutions.
func (r *Resolver) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	r.logger = l
}

// SetBasePath sets the search root children are looked up under. It is
// meant to be set once before the first resolution; children already cached
// are not re-resolved when it changes.
func (r *Resolver) SetBasePath(p string) *Resolver {
	p = strings.TrimSpace(p)
	if p != "" {
		p = path.Clean(p)
	}
	r.basePath = p
	return r
}

// SetNamespace sets the namespace prefix children are qualified with.
// Trailing separators are dropped. Like SetBasePath it does not affect
// children already cached.
func (r *Resolver) SetNamespace(ns string) *Resolver {
	r.namespace = normalizeNamespace(ns)
	return r
}

// BasePath returns the configured search root.
func (r *Resolver) BasePath() string { return r.basePath }

// Namespace returns the configured namespace prefix.
func (r *Resolver) Namespace() string { return r.namespace }

// Child returns the child called name, resolving it on first use.
func (r *Resolver) Child(name string) (any, bool) {
	v, err := r.Resolve(name)
	return v, err == nil
}

// Resolve returns the child called name. A cached child is returned as is.
// Otherwise the factory registered under Key{BasePath, Qualify(Namespace,
// name)} is called; a child implementing types.ParentAware receives this
// resolver as its parent before it is cached.
//
// Errors: types.ErrInvalidName for an empty name, types.ErrChildNotFound when
// no factory is registered or the factory returns nil, types.ErrResolving
// when name is requested again while its factory is still running, or the
// factory's own error. None of them is cached.
func (r *Resolver) Resolve(name string) (any, error) {
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}
	if v, ok := r.resolved[name]; ok {
		return v, nil
	}
	if r.resolving[name] {
		return nil, fmt.Errorf("%w: %s", types.ErrResolving, name)
	}

	key := r.Key(name)
	factory, ok := r.catalog.Lookup(key)
	if !ok {
		r.logger.Debug("child: no factory registered", "child", name, "key", key.String())
		return nil, fmt.Errorf("%w: %s", types.ErrChildNotFound, key)
	}

	v, err := r.build(name, factory)
	if err != nil {
		r.logger.Warn("child: factory failed", "child", name, "key", key.String(), "error", err)
		return nil, fmt.Errorf("resolving child %s: %w", name, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s returned nil", types.ErrChildNotFound, key)
	}

	if pa, ok := v.(types.ParentAware); ok {
		pa.SetParent(r)
	}
	r.resolved[name] = v
	r.order = append(r.order, name)
	r.logger.Debug("child: resolved", "child", name, "key", key.String())
	return v, nil
}

// build runs factory with name marked as resolving. The mark is cleared even
// when factory panics, so a later Resolve retries.
func (r *Resolver) build(name string, factory Factory) (any, error) {
	r.resolving[name] = true
	defer delete(r.resolving, name)
	return factory()
}

// Key returns the catalog key name resolves to under the current
// configuration.
func (r *Resolver) Key(name string) Key {
	return Key{Base: r.basePath, Name: Qualify(r.namespace, name)}
}

// IsResolved reports whether name is cached.
func (r *Resolver) IsResolved(name string) bool {
	_, ok := r.resolved[name]
	return ok
}

// Resolved returns the cached child names in resolution order.
func (r *Resolver) Resolved() []string { return slices.Clone(r.order) }

// ChildAs resolves name and asserts the child to T.
func ChildAs[T any](r *Resolver, name string) (T, bool) {
	var zero T
	v, ok := r.Child(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Base can be embedded by children that want a parent back-reference. It
// implements types.ParentAware.
type Base struct {
	parent types.Parent
}

// SetParent stores the non-owning parent reference.
func (b *Base) SetParent(p types.Parent) { b.parent = p }

// Parent returns the resolver that created the child, or nil.
func (b *Base) Parent() types.Parent { return b.parent }
