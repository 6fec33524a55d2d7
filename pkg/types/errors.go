package types

import "errors"

// Child resolution errors.
var (
	ErrChildNotFound = errors.New("child not found")
	ErrResolving     = errors.New("child is already being resolved")
	ErrInvalidName   = errors.New("invalid name")
)

// Singleton errors.
var (
	ErrReentrant = errors.New("singleton constructor re-entered its holder")
)

// Snapshot backend errors.
var (
	ErrNotFound        = errors.New("shelf not found")
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
