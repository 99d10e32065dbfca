package registry

import (
	"reflect"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/ports"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// FamilyRegistry manages plugin types keyed by family root.
type FamilyRegistry interface {
	ports.PluginRegistry

	// IdentifiersOfName returns the identifiers registered for a type name,
	// whether the type was registered by handle or by name.
	IdentifiersOfName(root reflect.Type, name values.TypeName) []values.Identifier

	// Pending returns every registration whose type is not resolved yet.
	Pending() []entities.Descriptor
}

var _ FamilyRegistry = (*Registry)(nil)
