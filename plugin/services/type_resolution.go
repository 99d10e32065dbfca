package services

import (
	"reflect"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/ports"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// TypeResolutionStrategy defines the interface for type name resolution.
// Implements Chain of Responsibility pattern.
type TypeResolutionStrategy interface {
	ports.TypeResolver

	// SetNext sets the next resolver in the chain.
	SetNext(next TypeResolutionStrategy)
}

// BaseResolver provides common chain-of-responsibility logic.
type BaseResolver struct {
	next TypeResolutionStrategy
}

// SetNext sets the next resolver in chain.
func (b *BaseResolver) SetNext(next TypeResolutionStrategy) {
	b.next = next
}

// ResolveNext delegates to next resolver in chain.
func (b *BaseResolver) ResolveNext(name values.TypeName) (reflect.Type, error) {
	if b.next == nil {
		return nil, &entities.TypeNotFoundError{Name: name}
	}
	return b.next.ResolveType(name)
}

// Chain links resolvers in order and returns the head of the chain.
// Returns nil when no resolvers are given.
func Chain(resolvers ...TypeResolutionStrategy) TypeResolutionStrategy {
	if len(resolvers) == 0 {
		return nil
	}
	for i := 0; i < len(resolvers)-1; i++ {
		resolvers[i].SetNext(resolvers[i+1])
	}
	return resolvers[0]
}
