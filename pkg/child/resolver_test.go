package child

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

type Mailer struct {
	Base
	sent int
}

type plainChild struct{ name string }

type Shop struct{}

// countingFactory returns a factory that counts its invocations.
func countingFactory(calls *int, build func() (any, error)) Factory {
	return func() (any, error) {
		*calls++
		return build()
	}
}

func TestResolveCachesFirstSuccess(t *testing.T) {
	c := NewCatalog()
	calls := 0
	c.MustRegister(Key{Name: "app.Foo"}, countingFactory(&calls, func() (any, error) {
		return &plainChild{name: "foo"}, nil
	}))
	r := NewResolver(c, WithNamespace("app"))

	first, ok := r.Child("Foo")
	require.True(t, ok)
	second, ok := r.Child("Foo")
	require.True(t, ok)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls, "second lookup makes no resolution attempt")
	assert.True(t, r.IsResolved("Foo"))
	assert.Equal(t, []string{"Foo"}, r.Resolved())
}

func TestResolveFailureIsNotCached(t *testing.T) {
	c := NewCatalog()
	r := NewResolver(c, WithNamespace("app"))

	_, err := r.Resolve("mailer")
	assert.ErrorIs(t, err, types.ErrChildNotFound)
	assert.False(t, r.IsResolved("mailer"))

	// The module becomes available later.
	c.MustRegister(Key{Name: "app.Mailer"}, func() (any, error) { return &Mailer{}, nil })

	v, err := r.Resolve("mailer")
	require.NoError(t, err)
	assert.IsType(t, &Mailer{}, v)
}

func TestResolveFactoryErrorRetries(t *testing.T) {
	c := NewCatalog()
	calls := 0
	boom := errors.New("not ready")
	c.MustRegister(Key{Name: "Flaky"}, countingFactory(&calls, func() (any, error) {
		if calls == 1 {
			return nil, boom
		}
		return &plainChild{}, nil
	}))
	r := NewResolver(c)

	_, err := r.Resolve("flaky")
	assert.ErrorIs(t, err, boom)

	_, err = r.Resolve("flaky")
	require.NoError(t, err)
	_, err = r.Resolve("flaky")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestResolvePanicLeavesResolverUsable(t *testing.T) {
	c := NewCatalog()
	calls := 0
	c.MustRegister(Key{Name: "Fragile"}, countingFactory(&calls, func() (any, error) {
		if calls == 1 {
			panic("factory exploded")
		}
		return &plainChild{name: "fragile"}, nil
	}))
	r := NewResolver(c)

	assert.Panics(t, func() { _, _ = r.Resolve("fragile") })
	assert.False(t, r.IsResolved("fragile"))

	v, err := r.Resolve("fragile")
	require.NoError(t, err)
	assert.Equal(t, &plainChild{name: "fragile"}, v)
	assert.Equal(t, 2, calls)
}

func TestResolveNilFromFactory(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(Key{Name: "Nothing"}, func() (any, error) { return nil, nil })

	_, err := NewResolver(c).Resolve("nothing")
	assert.ErrorIs(t, err, types.ErrChildNotFound)
}

func TestResolveEmptyName(t *testing.T) {
	_, err := NewResolver(NewCatalog()).Resolve("  ")
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestResolveWiresParent(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(Key{Name: "app.Mailer"}, func() (any, error) { return &Mailer{}, nil })
	c.MustRegister(Key{Name: "app.Plain"}, func() (any, error) { return &plainChild{}, nil })
	r := NewResolver(c, WithNamespace("app"))

	m, ok := ChildAs[*Mailer](r, "mailer")
	require.True(t, ok)
	assert.Same(t, r, m.Parent(), "child-aware child gets a back-reference")

	sibling, ok := m.Parent().Child("plain")
	require.True(t, ok)
	assert.IsType(t, &plainChild{}, sibling)
}

func TestResolveReentrant(t *testing.T) {
	c := NewCatalog()
	r := NewResolver(c)
	var inner error
	c.MustRegister(Key{Name: "Loop"}, func() (any, error) {
		_, inner = r.Resolve("loop")
		return &plainChild{}, nil
	})

	_, err := r.Resolve("loop")
	require.NoError(t, err)
	assert.ErrorIs(t, inner, types.ErrResolving)
}

func TestBasePathScopesLookup(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(Key{Base: "plugins/v2", Name: "Mailer"}, func() (any, error) { return &Mailer{}, nil })

	r := NewResolver(c, WithBasePath("plugins/v2/"))
	assert.Equal(t, "plugins/v2", r.BasePath())
	_, ok := r.Child("mailer")
	assert.True(t, ok)

	_, ok = NewResolver(c).Child("mailer")
	assert.False(t, ok, "other base paths do not see the factory")
}

func TestOwnerDerivesNamespace(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(Key{Name: "Shop.Cart"}, func() (any, error) { return &plainChild{}, nil })

	r := NewResolver(c, WithOwner(&Shop{}))
	assert.Equal(t, "Shop", r.Namespace())
	_, ok := r.Child("cart")
	assert.True(t, ok)

	explicit := NewResolver(c, WithOwner(&Shop{}), WithNamespace("other"))
	assert.Equal(t, "other", explicit.Namespace())
}

func TestReconfigureKeepsCachedChildren(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(Key{Name: "a.Svc"}, func() (any, error) { return &plainChild{name: "a"}, nil })
	c.MustRegister(Key{Name: "b.Svc"}, func() (any, error) { return &plainChild{name: "b"}, nil })
	r := NewResolver(c, WithNamespace("a"))

	before, _ := ChildAs[*plainChild](r, "svc")
	r.SetNamespace("b.")
	after, _ := ChildAs[*plainChild](r, "svc")

	assert.Equal(t, "a", before.name)
	assert.Same(t, before, after, "cached child is not re-resolved")
	assert.Equal(t, Key{Name: "b.Svc"}, r.Key("svc"))
}

func TestChildAsWrongType(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(Key{Name: "Plain"}, func() (any, error) { return &plainChild{}, nil })
	r := NewResolver(c)

	_, ok := ChildAs[*Mailer](r, "plain")
	assert.False(t, ok)
	_, ok = ChildAs[*Mailer](r, "missing")
	assert.False(t, ok)
}

func TestDefaultCatalog(t *testing.T) {
	k := Key{Base: t.Name(), Name: "Mailer"}
	Default.MustRegister(k, func() (any, error) { return &Mailer{}, nil })
	t.Cleanup(func() { Default.Unregister(k) })

	_, ok := NewResolver(nil, WithBasePath(t.Name())).Child("mailer")
	assert.True(t, ok)
}
