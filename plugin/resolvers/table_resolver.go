package resolvers

import (
	"cmp"
	"reflect"
	"slices"
	"sync"

	"github.com/reglet-dev/plugin-registry/plugin/services"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// TableResolver resolves names against an explicit table of loaded types.
// Types are added once they are defined; lookups for names not in the table
// are delegated to the next resolver.
type TableResolver struct {
	services.BaseResolver
	mu    sync.RWMutex
	types map[values.TypeName]reflect.Type
}

// NewTableResolver creates a table resolver seeded with types.
func NewTableResolver(types ...reflect.Type) *TableResolver {
	r := &TableResolver{
		types: make(map[values.TypeName]reflect.Type),
	}
	r.Add(types...)
	return r
}

// Add records types under their fully-qualified names. A later type with
// the same name replaces the earlier one.
func (r *TableResolver) Add(types ...reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		if t == nil {
			continue
		}
		r.types[values.TypeNameOf(t)] = t
	}
}

// ResolveType looks name up in the table, otherwise delegates to next.
func (r *TableResolver) ResolveType(name values.TypeName) (reflect.Type, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}
	return r.ResolveNext(name)
}

// Names returns the known type names in lexical order.
func (r *TableResolver) Names() []values.TypeName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]values.TypeName, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b values.TypeName) int {
		return cmp.Compare(a.String(), b.String())
	})
	return names
}
