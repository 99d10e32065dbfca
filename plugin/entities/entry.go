package entities

import (
	"reflect"

	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// Entry is the value a registry stores for one plugin type of one family.
// It holds either a concrete type handle or, for forward references, only
// the type's name until the name is resolved.
type Entry struct {
	name values.TypeName
	typ  reflect.Type
}

// NewEntry creates a resolved entry for typ.
func NewEntry(typ reflect.Type) *Entry {
	return &Entry{name: values.TypeNameOf(typ), typ: typ}
}

// NewPendingEntry creates an entry that names a type not yet known.
func NewPendingEntry(name values.TypeName) *Entry {
	return &Entry{name: name}
}

// Name returns the entry's fully-qualified type name.
func (e *Entry) Name() values.TypeName {
	return e.name
}

// Type returns the resolved type, or nil while the entry is pending.
func (e *Entry) Type() reflect.Type {
	return e.typ
}

// IsResolved reports whether the entry has a concrete type.
func (e *Entry) IsResolved() bool {
	return e.typ != nil
}

// Bind resolves a pending entry. Resolved entries are left untouched.
func (e *Entry) Bind(typ reflect.Type) {
	if e.typ == nil {
		e.typ = typ
	}
}
