// Package registry implements an in-memory plugin registry scoped by family
// root.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/ports"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// errNoResolver is the cause reported for forward references when the
// registry has no TypeResolver.
var errNoResolver = errors.New("no type resolver configured")

// family holds one root's bidirectional mapping. Loaded types are keyed by
// reflect.Type; names only key forward references that are still pending.
type family struct {
	root     reflect.Type
	byID     map[values.Identifier]*entities.Entry
	ids      map[*entities.Entry][]values.Identifier
	resolved map[reflect.Type]*entities.Entry
	pending  map[values.TypeName]*entities.Entry
	order    []*entities.Entry // first-registration order
}

func newFamily(root reflect.Type) *family {
	return &family{
		root:     root,
		byID:     make(map[values.Identifier]*entities.Entry),
		ids:      make(map[*entities.Entry][]values.Identifier),
		resolved: make(map[reflect.Type]*entities.Entry),
		pending:  make(map[values.TypeName]*entities.Entry),
	}
}

// lookup returns the entry reg extends, or nil if it needs a new one.
// A loaded type claims a pending entry of the same name.
func (f *family) lookup(reg entities.Registration) *entities.Entry {
	if reg.Type != nil {
		if e, ok := f.resolved[reg.Type]; ok {
			return e
		}
		return f.pending[values.TypeNameOf(reg.Type)]
	}
	if e, ok := f.pending[reg.Name]; ok {
		return e
	}
	return f.named(reg.Name)
}

// named returns the only loaded entry called name. Distinct types sharing a
// name make it ambiguous.
func (f *family) named(name values.TypeName) *entities.Entry {
	var found *entities.Entry
	for _, e := range f.order {
		if !e.IsResolved() || e.Name() != name {
			continue
		}
		if found != nil {
			return nil
		}
		found = e
	}
	return found
}

// promote moves a freshly bound entry from the pending to the loaded index.
func (f *family) promote(e *entities.Entry) {
	if f.pending[e.Name()] == e {
		delete(f.pending, e.Name())
	}
	if _, ok := f.resolved[e.Type()]; !ok {
		f.resolved[e.Type()] = e
	}
}

// reachable returns the identifiers currently bound to e, sorted.
func (f *family) reachable(e *entities.Entry) []values.Identifier {
	var ids []values.Identifier
	for id, cur := range f.byID {
		if cur == e {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Registry implements FamilyRegistry using in-memory storage.
// Writers hold the lock across both mappings, so readers never observe a
// half-applied registration.
type Registry struct {
	families   map[reflect.Type]*family
	mu         sync.RWMutex
	strictMode bool
	resolver   ports.TypeResolver
	logger     *slog.Logger
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithStrictMode rejects registrations that would rebind an identifier to a
// different type. Without it the last registration wins.
func WithStrictMode(strict bool) RegistryOption {
	return func(r *Registry) {
		r.strictMode = strict
	}
}

// WithTypeResolver sets the resolver used for types registered by name.
func WithTypeResolver(tr ports.TypeResolver) RegistryOption {
	return func(r *Registry) {
		r.resolver = tr
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates a new plugin registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		families: make(map[reflect.Type]*family),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds each identifier to typ within root's family.
func (r *Registry) Register(root, typ reflect.Type, ids ...values.Identifier) error {
	if typ == nil {
		return fmt.Errorf("register: %w", entities.ErrNilType)
	}
	return r.RegisterBatch(root, entities.Registration{Type: typ, Identifiers: ids})
}

// RegisterName binds each identifier to a type known only by name.
func (r *Registry) RegisterName(root reflect.Type, name values.TypeName, ids ...values.Identifier) error {
	return r.RegisterBatch(root, entities.Registration{Name: name, Identifiers: ids})
}

// RegisterBatch applies regs in order under one lock. Invalid input or a
// strict-mode conflict, within the batch or against the registry, rejects
// the whole batch.
func (r *Registry) RegisterBatch(root reflect.Type, regs ...entities.Registration) error {
	if root == nil {
		return fmt.Errorf("register: %w", entities.ErrNilType)
	}
	for _, reg := range regs {
		if err := validate(reg); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.families[root]
	if f == nil {
		f = newFamily(root)
	}
	if r.strictMode {
		if err := checkConflicts(f, regs); err != nil {
			return err
		}
	}
	r.families[root] = f

	for _, reg := range regs {
		r.apply(f, reg)
	}
	return nil
}

func validate(reg entities.Registration) error {
	name := reg.TypeName()
	if name.IsEmpty() {
		return fmt.Errorf("register: %w", entities.ErrNilType)
	}
	if len(reg.Identifiers) == 0 {
		return fmt.Errorf("register %s: %w", name, entities.ErrNoIdentifiers)
	}
	for _, id := range reg.Identifiers {
		if err := id.Validate(); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}

// pendingKey identifies a registration that creates a new entry.
type pendingKey struct {
	typ  reflect.Type
	name values.TypeName
}

type claim struct {
	owner any // *entities.Entry or pendingKey
	name  values.TypeName
}

// checkConflicts must be called with r.mu held.
func checkConflicts(f *family, regs []entities.Registration) error {
	claimed := make(map[values.Identifier]claim)
	for _, reg := range regs {
		target := f.lookup(reg)
		var owner any = pendingKey{typ: reg.Type, name: reg.Name}
		if target != nil {
			owner = target
		}
		incoming := reg.TypeName()

		for _, id := range reg.Identifiers {
			if !reg.Binds(id) {
				continue
			}
			existing, ok := claimed[id]
			if !ok {
				if cur, bound := f.byID[id]; bound {
					existing, ok = claim{owner: cur, name: cur.Name()}, true
				}
			}
			if ok && existing.owner != owner {
				return &entities.IdentifierConflictError{
					Root:       values.TypeNameOf(f.root),
					Identifier: id,
					Existing:   existing.name,
					Incoming:   incoming,
				}
			}
			claimed[id] = claim{owner: owner, name: incoming}
		}
	}
	return nil
}

// apply must be called with r.mu held.
func (r *Registry) apply(f *family, reg entities.Registration) {
	e := f.lookup(reg)
	switch {
	case e == nil && reg.Type != nil:
		e = entities.NewEntry(reg.Type)
		f.resolved[reg.Type] = e
		f.order = append(f.order, e)
	case e == nil:
		e = entities.NewPendingEntry(reg.Name)
		f.pending[reg.Name] = e
		f.order = append(f.order, e)
	case reg.Type != nil && !e.IsResolved():
		e.Bind(reg.Type)
		f.promote(e)
	}

	rootName := values.TypeNameOf(f.root)
	for _, id := range reg.Identifiers {
		f.ids[e] = append(f.ids[e], id)
		if !reg.Binds(id) {
			continue
		}
		if prev, ok := f.byID[id]; ok && prev != e {
			r.logger.Warn("plugin identifier overwritten",
				"root", rootName.String(),
				"identifier", id.String(),
				"previous", prev.Name().String(),
				"type", e.Name().String())
		}
		f.byID[id] = e
	}

	r.logger.Debug("registered plugin",
		"root", rootName.String(),
		"type", e.Name().String(),
		"resolved", e.IsResolved(),
		"identifiers", reg.Identifiers)
}

// IdentifiersOf returns the identifiers typ registered under root. A
// pending entry of the same name counts as typ until it resolves.
func (r *Registry) IdentifiersOf(root, typ reflect.Type) []values.Identifier {
	if typ == nil {
		return []values.Identifier{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	f := r.families[root]
	if f == nil {
		return []values.Identifier{}
	}
	return f.listOf(f.lookup(entities.Registration{Type: typ}))
}

// IdentifiersOfName returns the identifiers registered for name under root.
// The list keeps duplicates and identifiers since rebound to other types.
// Distinct types sharing the name contribute in first-registration order.
func (r *Registry) IdentifiersOfName(root reflect.Type, name values.TypeName) []values.Identifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f := r.families[root]
	if f == nil {
		return []values.Identifier{}
	}
	out := []values.Identifier{}
	for _, e := range f.order {
		if e.Name() == name {
			out = append(out, f.ids[e]...)
		}
	}
	return out
}

func (f *family) listOf(e *entities.Entry) []values.Identifier {
	if e == nil || len(f.ids[e]) == 0 {
		return []values.Identifier{}
	}
	return slices.Clone(f.ids[e])
}

// Find returns the type bound to id within root's family.
func (r *Registry) Find(root reflect.Type, id values.Identifier) (reflect.Type, bool, error) {
	r.mu.RLock()
	f := r.families[root]
	if f == nil {
		r.mu.RUnlock()
		return nil, false, nil
	}
	e, ok := f.byID[id]
	var typ reflect.Type
	if ok {
		typ = e.Type()
	}
	r.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if typ != nil {
		return typ, true, nil
	}

	typ, err := r.resolveEntry(root, e, id)
	if err != nil {
		return nil, false, err
	}
	return typ, true, nil
}

// FindAll returns the distinct types reachable through at least one
// identifier of root's family, in first-registration order.
func (r *Registry) FindAll(root reflect.Type) ([]reflect.Type, error) {
	return r.collect(root, func(values.Identifier) bool { return true })
}

// Match returns the distinct types owning an identifier that matches the
// doublestar pattern, in first-registration order.
func (r *Registry) Match(root reflect.Type, pattern string) ([]reflect.Type, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidPattern, pattern)
	}
	return r.collect(root, func(id values.Identifier) bool {
		return doublestar.MatchUnvalidated(pattern, id.String())
	})
}

type candidate struct {
	entry *entities.Entry
	typ   reflect.Type
}

func (r *Registry) collect(root reflect.Type, keep func(values.Identifier) bool) ([]reflect.Type, error) {
	r.mu.RLock()
	f := r.families[root]
	if f == nil {
		r.mu.RUnlock()
		return []reflect.Type{}, nil
	}
	selected := make(map[*entities.Entry]bool)
	for id, e := range f.byID {
		if keep(id) {
			selected[e] = true
		}
	}
	candidates := make([]candidate, 0, len(selected))
	for _, e := range f.order {
		if selected[e] {
			candidates = append(candidates, candidate{entry: e, typ: e.Type()})
		}
	}
	r.mu.RUnlock()

	types := make([]reflect.Type, 0, len(candidates))
	seen := make(map[reflect.Type]bool, len(candidates))
	var failed []*entities.UnresolvedReferenceError
	for _, c := range candidates {
		typ := c.typ
		if typ == nil {
			var err error
			if typ, err = r.resolveEntry(root, c.entry, ""); err != nil {
				var ure *entities.UnresolvedReferenceError
				if errors.As(err, &ure) {
					failed = append(failed, ure)
				}
				continue
			}
		}
		if !seen[typ] {
			seen[typ] = true
			types = append(types, typ)
		}
	}

	if len(failed) > 0 {
		return types, &entities.UnresolvedSetError{References: failed}
	}
	return types, nil
}

// resolveEntry resolves a pending entry and caches the result. The resolver
// runs without the registry lock held.
func (r *Registry) resolveEntry(root reflect.Type, e *entities.Entry, id values.Identifier) (reflect.Type, error) {
	var (
		typ reflect.Type
		err = errNoResolver
	)
	if r.resolver != nil {
		typ, err = r.resolver.ResolveType(e.Name())
		if err == nil && typ == nil {
			err = entities.ErrNilType
		}
	}
	if err != nil {
		r.logger.Warn("failed to resolve plugin type",
			"root", values.TypeNameOf(root).String(),
			"type", e.Name().String(),
			"error", err)
		return nil, &entities.UnresolvedReferenceError{
			Root:       values.TypeNameOf(root),
			Identifier: id,
			Name:       e.Name(),
			Err:        err,
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !e.IsResolved() {
		e.Bind(typ)
		r.families[root].promote(e)
	}
	return e.Type(), nil
}

// Resolve resolves every pending forward reference that is still bound to
// an identifier, across all families. Every failure is reported;
// successfully resolved entries stay resolved.
func (r *Registry) Resolve() error {
	type pending struct {
		root  reflect.Type
		entry *entities.Entry
	}

	r.mu.RLock()
	var todo []pending
	for _, f := range r.sortedFamilies() {
		bound := make(map[*entities.Entry]bool, len(f.byID))
		for _, e := range f.byID {
			bound[e] = true
		}
		for _, e := range f.order {
			if !e.IsResolved() && bound[e] {
				todo = append(todo, pending{root: f.root, entry: e})
			}
		}
	}
	r.mu.RUnlock()

	var failed []*entities.UnresolvedReferenceError
	for _, p := range todo {
		if _, err := r.resolveEntry(p.root, p.entry, ""); err != nil {
			var ure *entities.UnresolvedReferenceError
			if errors.As(err, &ure) {
				failed = append(failed, ure)
			}
		}
	}
	if len(failed) > 0 {
		return &entities.UnresolvedSetError{References: failed}
	}
	return nil
}

// Registrations returns every registered type. Roots are ordered by name,
// types by first registration.
func (r *Registry) Registrations() []entities.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entities.Descriptor
	for _, f := range r.sortedFamilies() {
		rootName := values.TypeNameOf(f.root)
		for _, e := range f.order {
			out = append(out, entities.Descriptor{
				Root:        rootName,
				Type:        e.Name(),
				Resolved:    e.IsResolved(),
				Identifiers: f.reachable(e),
				Registered:  slices.Clone(f.ids[e]),
			})
		}
	}
	return out
}

// Plugins returns every registered type that still owns at least one
// identifier. Identifiers are sorted alphabetically.
func (r *Registry) Plugins() []entities.Descriptor {
	var out []entities.Descriptor
	for _, d := range r.Registrations() {
		if len(d.Identifiers) > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Pending returns the registrations whose type is not resolved yet.
func (r *Registry) Pending() []entities.Descriptor {
	var out []entities.Descriptor
	for _, d := range r.Plugins() {
		if !d.Resolved {
			out = append(out, d)
		}
	}
	return out
}

// sortedFamilies must be called with r.mu held.
func (r *Registry) sortedFamilies() []*family {
	fams := make([]*family, 0, len(r.families))
	for _, f := range r.families {
		fams = append(fams, f)
	}
	slices.SortFunc(fams, func(a, b *family) int {
		return cmp.Compare(values.TypeNameOf(a.root).String(), values.TypeNameOf(b.root).String())
	})
	return fams
}
