// Package observer implements types.Subject with a single state slot.
package observer

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

var _ types.Subject = (*Subject[any])(nil)

// Subject keeps an ordered set of observers and one state value. It does not
// own its observers; Detach only removes membership. A Subject is not safe
// for concurrent use.
type Subject[S any] struct {
	observers []types.Observer
	state     S
}

// New creates a subject holding initial as its state.
func New[S any](initial S) *Subject[S] {
	return &Subject[S]{state: initial}
}

// Attach adds observer unless it is already attached. Observers whose
// dynamic value is not comparable cannot be identified and are refused.
func (s *Subject[S]) Attach(observer types.Observer) bool {
	if !identifiable(observer) || slices.Contains(s.observers, observer) {
		return false
	}
	s.observers = append(s.observers, observer)
	return true
}

// Detach removes observer.
func (s *Subject[S]) Detach(observer types.Observer) bool {
	if !identifiable(observer) {
		return false
	}
	i := slices.Index(s.observers, observer)
	if i < 0 {
		return false
	}
	s.observers = slices.Delete(s.observers, i, i+1)
	return true
}

// Notify calls OnNotify on every observer in attachment order, passing the
// subject. The first failing observer stops the loop; its error is returned
// wrapped in types.ErrObserverFailed and later observers are not called.
// Observers may attach or detach during Notify; the change applies to the
// next call.
func (s *Subject[S]) Notify() error {
	for i, o := range slices.Clone(s.observers) {
		if err := o.OnNotify(s); err != nil {
			return fmt.Errorf("%w: observer %d (%T): %w", types.ErrObserverFailed, i, o, err)
		}
	}
	return nil
}

// Observers returns the attached observers in attachment order.
func (s *Subject[S]) Observers() []types.Observer {
	return slices.Clone(s.observers)
}

// Len returns the number of attached observers.
func (s *Subject[S]) Len() int { return len(s.observers) }

// State returns the current state.
func (s *Subject[S]) State() S { return s.state }

// SetState replaces the state and returns the previous one.
func (s *Subject[S]) SetState(state S) S {
	old := s.state
	s.state = state
	return old
}

// StateOf returns the state of subject when it is a *Subject[S].
func StateOf[S any](subject types.Subject) (S, bool) {
	if s, ok := subject.(*Subject[S]); ok {
		return s.state, true
	}
	var zero S
	return zero, false
}

// identifiable reports whether o can be compared with ==. The dynamic value
// is checked because a comparable struct type may hold an interface field
// whose current value is not comparable.
func identifiable(o types.Observer) bool {
	if o == nil {
		return false
	}
	return reflect.ValueOf(o).Comparable()
}

// funcObserver gives a function an identity so it can be attached and
// detached.
type funcObserver struct {
	fn func(types.Subject) error
}

func (f *funcObserver) OnNotify(subject types.Subject) error { return f.fn(subject) }

// Func wraps fn as an Observer. Each call returns a distinct observer; keep
// the result to detach it later.
func Func(fn func(subject types.Subject) error) types.Observer {
	return &funcObserver{fn: fn}
}
