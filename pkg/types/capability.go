package types

import (
	"context"
	"log/slog"
)

// Disposable is implemented by values that hold resources to release when a
// container is torn down. Containers probe for it; it is never required.
type Disposable interface {
	Dispose() error
}

// Parent is the upward view a child gets of the resolver that created it.
type Parent interface {
	// Child returns the sibling registered under name, resolving it if needed.
	Child(name string) (any, bool)
}

// ParentAware is implemented by children that want a back-reference to their
// parent. The reference is non-owning.
type ParentAware interface {
	SetParent(parent Parent)
}

// Initializer is implemented by singleton values that need a one-time setup
// step after construction.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// LoggerAware is implemented by components that accept a logger.
type LoggerAware interface {
	SetLogger(logger *slog.Logger)
}
