package observer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

type recorder struct {
	name string
	log  *[]string
	err  error
}

func (r *recorder) OnNotify(subject types.Subject) error {
	state, _ := StateOf[string](subject)
	*r.log = append(*r.log, r.name+":"+state)
	return r.err
}

// valueObserver has a non-comparable dynamic type.
type valueObserver struct{ tags []string }

func (v valueObserver) OnNotify(types.Subject) error { return nil }

// taggedObserver has a comparable type whose tag may hold a slice.
type taggedObserver struct{ tag any }

func (o taggedObserver) OnNotify(types.Subject) error { return nil }

func TestAttachDeduplicates(t *testing.T) {
	var log []string
	s := New("")
	o := &recorder{name: "a", log: &log}

	assert.True(t, s.Attach(o))
	assert.False(t, s.Attach(o))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Notify())
	assert.Equal(t, []string{"a:"}, log, "notified exactly once")
}

func TestNotifyInAttachmentOrder(t *testing.T) {
	var log []string
	s := New("ready")
	s.Attach(&recorder{name: "first", log: &log})
	s.Attach(&recorder{name: "second", log: &log})
	s.Attach(&recorder{name: "third", log: &log})

	require.NoError(t, s.Notify())
	assert.Equal(t, []string{"first:ready", "second:ready", "third:ready"}, log)
}

func TestNotifyStopsAtFirstFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	s := New("x")
	s.Attach(&recorder{name: "ok", log: &log})
	s.Attach(&recorder{name: "bad", log: &log, err: boom})
	s.Attach(&recorder{name: "never", log: &log})

	err := s.Notify()

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, types.ErrObserverFailed)
	assert.Equal(t, []string{"ok:x", "bad:x"}, log)
}

func TestDetach(t *testing.T) {
	var log []string
	s := New("")
	a := &recorder{name: "a", log: &log}
	b := &recorder{name: "b", log: &log}
	s.Attach(a)
	s.Attach(b)

	assert.True(t, s.Detach(a))
	assert.False(t, s.Detach(a))
	assert.Equal(t, []types.Observer{b}, s.Observers())
}

func TestAttachRejectsUnidentifiableObservers(t *testing.T) {
	s := New(0)

	assert.False(t, s.Attach(nil))
	assert.False(t, s.Attach(valueObserver{tags: []string{"x"}}))
	assert.False(t, s.Detach(valueObserver{}))
	assert.Equal(t, 0, s.Len())

	assert.NotPanics(t, func() {
		assert.False(t, s.Attach(taggedObserver{tag: []int{0}}))
		assert.False(t, s.Attach(taggedObserver{tag: []int{1}}))
		assert.False(t, s.Detach(taggedObserver{tag: []int{0}}))
	})
	assert.Equal(t, 0, s.Len())

	// The same type holding a comparable value is accepted.
	assert.True(t, s.Attach(taggedObserver{tag: "a"}))
	assert.False(t, s.Attach(taggedObserver{tag: "a"}))
	assert.NotPanics(t, func() { assert.False(t, s.Attach(taggedObserver{tag: []int{2}})) })
	assert.Equal(t, 1, s.Len())
}

func TestSetStateReturnsPrevious(t *testing.T) {
	s := New(1)

	assert.Equal(t, 1, s.SetState(2))
	assert.Equal(t, 2, s.SetState(3))
	assert.Equal(t, 3, s.State())
}

func TestFuncObserver(t *testing.T) {
	s := New(10)
	var seen []int
	o := Func(func(subject types.Subject) error {
		v, ok := StateOf[int](subject)
		require.True(t, ok)
		seen = append(seen, v)
		return nil
	})

	assert.True(t, s.Attach(o))
	assert.False(t, s.Attach(o))
	require.NoError(t, s.Notify())
	s.SetState(11)
	require.NoError(t, s.Notify())

	assert.Equal(t, []int{10, 11}, seen)
	assert.True(t, s.Detach(o))
}

func TestStateOfWrongType(t *testing.T) {
	_, ok := StateOf[string](New(5))
	assert.False(t, ok)
}

func TestObserverMayDetachDuringNotify(t *testing.T) {
	s := New("")
	calls := 0
	var self types.Observer
	self = Func(func(subject types.Subject) error {
		calls++
		subject.Detach(self)
		return nil
	})
	s.Attach(self)

	require.NoError(t, s.Notify())
	require.NoError(t, s.Notify())
	assert.Equal(t, 1, calls)
}
