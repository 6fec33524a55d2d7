package types

import "errors"

// Observer receives notifications from a Subject.
// Observers are compared by interface equality, so implementations should be
// pointer types.
type Observer interface {
	OnNotify(subject Subject) error
}

// Subject publishes notifications to its attached observers.
type Subject interface {
	// Attach adds observer unless it is already attached.
	Attach(observer Observer) bool

	// Detach removes observer.
	Detach(observer Observer) bool

	// Notify calls every observer in attachment order. The first error stops
	// the loop and is returned.
	Notify() error
}

// ErrObserverFailed wraps the error returned by a failing observer.
var ErrObserverFailed = errors.New("observer failed")
