package plugin

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/ports"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// Base gives a struct type the plugin capability when embedded. A struct
// that embeds a capable struct inherits the capability and joins its family.
//
//	type Filter struct{ plugin.Base }
//	type ERB struct{ Filter }
type Base struct{}

func (*Base) pluginCapability() {}

type capable interface{ pluginCapability() }

var (
	baseType    = reflect.TypeFor[Base]()
	capableType = reflect.TypeFor[capable]()
)

// indirect strips pointer indirections so *T and T share one identity.
func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// EmbeddingHierarchy derives ancestry from struct embedding. The parent of
// a type is its first embedded field that is capable or is Base itself.
type EmbeddingHierarchy struct{}

// NewEmbeddingHierarchy creates an EmbeddingHierarchy.
func NewEmbeddingHierarchy() ports.Hierarchy {
	return EmbeddingHierarchy{}
}

// Carries reports whether t embeds Base, directly or through a parent.
func (EmbeddingHierarchy) Carries(t reflect.Type) bool {
	t = indirect(t)
	if t == nil || t == baseType || t.Kind() != reflect.Struct {
		return false
	}
	return reflect.PointerTo(t).Implements(capableType)
}

// ParentOf returns the embedded type t descends from.
func (h EmbeddingHierarchy) ParentOf(t reflect.Type) (reflect.Type, bool) {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := indirect(f.Type)
		if ft == baseType || h.Carries(ft) {
			return ft, true
		}
	}
	return nil, false
}

// ExplicitHierarchy records adoption and descent as types are defined.
// Each record stores the family root directly, so root lookups never walk
// the chain. Works for any type kind, not only structs.
type ExplicitHierarchy struct {
	mu      sync.RWMutex
	parents map[reflect.Type]reflect.Type // nil for adopters
	roots   map[reflect.Type]reflect.Type
}

var (
	_ ports.Hierarchy    = (*ExplicitHierarchy)(nil)
	_ ports.RootRecorder = (*ExplicitHierarchy)(nil)
)

// NewExplicitHierarchy creates an empty ExplicitHierarchy.
func NewExplicitHierarchy() *ExplicitHierarchy {
	return &ExplicitHierarchy{
		parents: make(map[reflect.Type]reflect.Type),
		roots:   make(map[reflect.Type]reflect.Type),
	}
}

// Adopt makes root the head of a new family. Adopting an existing root
// again is a no-op.
func (h *ExplicitHierarchy) Adopt(root reflect.Type) error {
	root = indirect(root)
	if root == nil {
		return fmt.Errorf("adopt: %w", entities.ErrNilType)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if parent, ok := h.parents[root]; ok {
		if parent == nil {
			return nil
		}
		return fmt.Errorf("cannot adopt %s: already descends from %s",
			values.TypeNameOf(root), values.TypeNameOf(parent))
	}
	h.parents[root] = nil
	h.roots[root] = root
	return nil
}

// Extend records child as a descendant of parent. Parent must already carry
// the capability. Ancestry is immutable: redefining child with another
// parent fails.
func (h *ExplicitHierarchy) Extend(child, parent reflect.Type) error {
	child, parent = indirect(child), indirect(parent)
	if child == nil || parent == nil {
		return fmt.Errorf("extend: %w", entities.ErrNilType)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	root, ok := h.roots[parent]
	if !ok {
		return fmt.Errorf("cannot extend %s: %w", values.TypeNameOf(parent), entities.ErrNotPlugin)
	}
	if existing, ok := h.parents[child]; ok {
		if existing == parent {
			return nil
		}
		return fmt.Errorf("cannot extend %s from %s: already descends from %s",
			values.TypeNameOf(child), values.TypeNameOf(parent), values.TypeNameOf(existing))
	}
	h.parents[child] = parent
	h.roots[child] = root
	return nil
}

// MustExtend is like Extend but panics on error
func (h *ExplicitHierarchy) MustExtend(child, parent reflect.Type) {
	if err := h.Extend(child, parent); err != nil {
		panic(err)
	}
}

// Carries reports whether t was adopted or extended.
func (h *ExplicitHierarchy) Carries(t reflect.Type) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.roots[indirect(t)]
	return ok
}

// ParentOf returns the recorded parent of t.
func (h *ExplicitHierarchy) ParentOf(t reflect.Type) (reflect.Type, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	parent := h.parents[indirect(t)]
	return parent, parent != nil
}

// RootOf returns the family root stored for t.
func (h *ExplicitHierarchy) RootOf(t reflect.Type) (reflect.Type, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	root, ok := h.roots[indirect(t)]
	return root, ok
}
