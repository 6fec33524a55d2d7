// Package types defines the contracts of the patterns library: the keyed
// store, registry, object container, observer/subject and child resolver
// interfaces, the optional capabilities a value may implement, the write
// policy enum, log levels, configuration, and the standard error values.
//
// Concrete implementations live in sibling packages (store, registry,
// container, observer, child, singleton). This package has no behavior
// beyond validation helpers, so any of them can be swapped without touching
// callers that depend only on these interfaces.
package types
