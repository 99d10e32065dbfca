package ports

import "reflect"

// Hierarchy answers the two questions root resolution asks of the host
// type system.
type Hierarchy interface {
	// Carries reports whether t carries the plugin capability.
	Carries(t reflect.Type) bool

	// ParentOf returns the type t descends from, if any.
	ParentOf(t reflect.Type) (reflect.Type, bool)
}

// RootRecorder is implemented by hierarchies that store each type's family
// root when the type is defined, so no ancestor walk is needed.
type RootRecorder interface {
	RootOf(t reflect.Type) (reflect.Type, bool)
}
