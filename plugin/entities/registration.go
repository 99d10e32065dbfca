package entities

import (
	"reflect"
	"slices"

	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// Registration is one type's part of a batch registration. Type is set for
// loaded types; otherwise Name names a type to resolve later.
type Registration struct {
	Type        reflect.Type
	Name        values.TypeName
	Identifiers []values.Identifier

	// Detached identifiers are appended to the type's identifier list but
	// not bound for lookup.
	Detached []values.Identifier
}

// TypeName returns the name of the registered type.
func (r Registration) TypeName() values.TypeName {
	if r.Type != nil {
		return values.TypeNameOf(r.Type)
	}
	return r.Name
}

// Binds reports whether id becomes a lookup key for the type.
func (r Registration) Binds(id values.Identifier) bool {
	return !slices.Contains(r.Detached, id)
}
