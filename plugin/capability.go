// Package plugin gives families of Go types a shared namespace of
// identifiers. A family is headed by the type that first adopted the
// capability; every descendant registers into and looks up from the same
// namespace.
package plugin

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/ports"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// Capability binds a registry to a hierarchy and hands out per-type handles.
type Capability struct {
	registry  ports.PluginRegistry
	hierarchy ports.Hierarchy
	logger    *slog.Logger

	mu    sync.Mutex
	roots map[reflect.Type]reflect.Type
}

// CapabilityOption configures a Capability.
type CapabilityOption func(*Capability)

// WithCapabilityLogger sets the logger.
func WithCapabilityLogger(l *slog.Logger) CapabilityOption {
	return func(c *Capability) { c.logger = l }
}

// NewCapability creates a capability backed by registry. Roots are derived
// from hierarchy.
func NewCapability(registry ports.PluginRegistry, hierarchy ports.Hierarchy, opts ...CapabilityOption) *Capability {
	c := &Capability{
		registry:  registry,
		hierarchy: hierarchy,
		logger:    slog.Default(),
		roots:     make(map[reflect.Type]reflect.Type),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the backing registry.
func (c *Capability) Registry() ports.PluginRegistry {
	return c.registry
}

// RootOf returns the family root of t: the first type up the ancestor chain
// whose parent does not carry the capability. Ancestry never changes once a
// type is defined, so the result is memoized.
func (c *Capability) RootOf(t reflect.Type) (reflect.Type, error) {
	t = indirect(t)
	if t == nil {
		return nil, fmt.Errorf("root of: %w", entities.ErrNilType)
	}

	c.mu.Lock()
	root, ok := c.roots[t]
	c.mu.Unlock()
	if ok {
		return root, nil
	}

	if !c.hierarchy.Carries(t) {
		return nil, fmt.Errorf("%s: %w", values.TypeNameOf(t), entities.ErrNotPlugin)
	}

	recorded := false
	if rec, isRecorder := c.hierarchy.(ports.RootRecorder); isRecorder {
		root, recorded = rec.RootOf(t)
	}
	if !recorded {
		root = c.walk(t)
	}

	c.mu.Lock()
	c.roots[t] = root
	c.mu.Unlock()

	c.logger.Debug("resolved plugin family root",
		"type", values.TypeNameOf(t).String(),
		"root", values.TypeNameOf(root).String())
	return root, nil
}

func (c *Capability) walk(t reflect.Type) reflect.Type {
	seen := map[reflect.Type]bool{t: true}
	for {
		parent, ok := c.hierarchy.ParentOf(t)
		if !ok || !c.hierarchy.Carries(parent) || seen[parent] {
			return t
		}
		seen[parent] = true
		t = parent
	}
}

// For returns the plugin handle of t.
func (c *Capability) For(t reflect.Type) (*Handle, error) {
	root, err := c.RootOf(t)
	if err != nil {
		return nil, err
	}
	return &Handle{capability: c, typ: indirect(t), root: root}, nil
}

// Of returns the plugin handle of T.
func Of[T any](c *Capability) (*Handle, error) {
	return c.For(reflect.TypeFor[T]())
}

// MustOf is like Of but panics on error
func MustOf[T any](c *Capability) *Handle {
	h, err := Of[T](c)
	if err != nil {
		panic(err)
	}
	return h
}

// Handle exposes the plugin operations of one type.
type Handle struct {
	capability *Capability
	typ        reflect.Type
	root       reflect.Type
}

// Type returns the handle's type.
func (h *Handle) Type() reflect.Type {
	return h.typ
}

// RootClass returns the family root of the handle's type.
func (h *Handle) RootClass() reflect.Type {
	return h.root
}

// AddIdentifiers registers the type under each identifier. Repeated calls
// accumulate.
func (h *Handle) AddIdentifiers(ids ...values.Identifier) error {
	return h.capability.registry.Register(h.root, h.typ, ids...)
}

// AddIdentifier registers the type under a single identifier.
func (h *Handle) AddIdentifier(id values.Identifier) error {
	return h.AddIdentifiers(id)
}

// Identifiers returns every identifier the type registered, in order.
func (h *Handle) Identifiers() []values.Identifier {
	return h.capability.registry.IdentifiersOf(h.root, h.typ)
}

// Identifier returns the type's first identifier.
func (h *Handle) Identifier() (values.Identifier, bool) {
	ids := h.Identifiers()
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// Named returns the family member registered under id.
func (h *Handle) Named(id values.Identifier) (reflect.Type, bool, error) {
	return h.capability.registry.Find(h.root, id)
}

// All returns every family member.
func (h *Handle) All() ([]reflect.Type, error) {
	return h.capability.registry.FindAll(h.root)
}

// Match returns the family members with an identifier matching pattern.
func (h *Handle) Match(pattern string) ([]reflect.Type, error) {
	return h.capability.registry.Match(h.root, pattern)
}

// RegisterName registers a family member that is only known by name. The
// name is resolved when it is first looked up.
func (h *Handle) RegisterName(name values.TypeName, ids ...values.Identifier) error {
	return h.capability.registry.RegisterName(h.root, name, ids...)
}

// New returns a pointer to a new zero value of the member registered
// under id.
func (h *Handle) New(id values.Identifier) (any, bool, error) {
	typ, ok, err := h.Named(id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return reflect.New(typ).Interface(), true, nil
}
