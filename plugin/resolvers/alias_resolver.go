package resolvers

import (
	"reflect"

	"github.com/reglet-dev/plugin-registry/plugin/services"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// AliasResolver rewrites legacy type names to their current names before
// delegating to the next resolver. Names without an alias pass through.
type AliasResolver struct {
	services.BaseResolver
	aliases map[values.TypeName]values.TypeName
}

// NewAliasResolver creates an alias resolver from old → new name pairs.
func NewAliasResolver(aliases map[values.TypeName]values.TypeName) *AliasResolver {
	copied := make(map[values.TypeName]values.TypeName, len(aliases))
	for from, to := range aliases {
		copied[from] = to
	}
	return &AliasResolver{aliases: copied}
}

// ResolveType follows at most one alias and delegates.
func (r *AliasResolver) ResolveType(name values.TypeName) (reflect.Type, error) {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	return r.ResolveNext(name)
}
