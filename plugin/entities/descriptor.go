package entities

import (
	"slices"

	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// Descriptor is a point-in-time view of one registered plugin type.
type Descriptor struct {
	Root     values.TypeName
	Type     values.TypeName
	Resolved bool
	// Identifiers still bound to the type, sorted.
	Identifiers []values.Identifier
	// Registered is every identifier the type registered, in call order,
	// including duplicates and identifiers since rebound to other types.
	Registered []values.Identifier
}

// HasIdentifier reports whether id is still bound to the type.
func (d Descriptor) HasIdentifier(id values.Identifier) bool {
	return slices.Contains(d.Identifiers, id)
}

// Stale returns the registered identifiers no longer bound to the type, in
// first-registration order without duplicates.
func (d Descriptor) Stale() []values.Identifier {
	var stale []values.Identifier
	for _, id := range d.Registered {
		if !d.HasIdentifier(id) && !slices.Contains(stale, id) {
			stale = append(stale, id)
		}
	}
	return stale
}
