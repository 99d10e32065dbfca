package ports

import (
	"reflect"

	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// TypeResolver converts a fully-qualified type name into a loaded type.
type TypeResolver interface {
	ResolveType(name values.TypeName) (reflect.Type, error)
}
