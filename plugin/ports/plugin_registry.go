package ports

import (
	"reflect"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// PluginRegistry stores, per family root, the mapping between identifiers
// and plugin types.
type PluginRegistry interface {
	// Register binds each identifier to typ within root's family.
	Register(root, typ reflect.Type, ids ...values.Identifier) error

	// RegisterName binds each identifier to a type known only by name.
	// The name is resolved on lookup or by Resolve.
	RegisterName(root reflect.Type, name values.TypeName, ids ...values.Identifier) error

	// RegisterBatch applies every registration or, on error, none of them.
	RegisterBatch(root reflect.Type, regs ...entities.Registration) error

	// IdentifiersOf returns the identifiers typ registered under root, in
	// registration order.
	IdentifiersOf(root, typ reflect.Type) []values.Identifier

	// Find returns the type bound to id. A miss returns ok == false and a
	// nil error; an unresolvable forward reference returns an error.
	Find(root reflect.Type, id values.Identifier) (reflect.Type, bool, error)

	// FindAll returns every distinct type reachable in root's family.
	FindAll(root reflect.Type) ([]reflect.Type, error)

	// Match returns every distinct type with an identifier matching pattern.
	Match(root reflect.Type, pattern string) ([]reflect.Type, error)

	// Resolve resolves all pending forward references.
	Resolve() error

	// Plugins returns every type still bound to at least one identifier.
	Plugins() []entities.Descriptor

	// Registrations returns every registered type, including those whose
	// identifiers were all rebound to other types.
	Registrations() []entities.Descriptor
}
