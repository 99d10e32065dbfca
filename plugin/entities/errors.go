package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// Sentinel errors for common error patterns.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	// ErrUnresolvedReference is returned when a type registered by name
	// cannot be resolved to a loaded type.
	ErrUnresolvedReference = errors.New("unresolved type reference")

	// ErrIdentifierConflict is returned in strict mode when an identifier is
	// already bound to a different type of the same family.
	ErrIdentifierConflict = errors.New("identifier already registered")

	// ErrNoIdentifiers is returned when a registration carries no identifiers.
	ErrNoIdentifiers = errors.New("at least one identifier is required")

	// ErrNilType is returned when a registration has no root or no type.
	ErrNilType = errors.New("type cannot be nil")

	// ErrNotPlugin is returned when a type does not carry the plugin capability.
	ErrNotPlugin = errors.New("type does not carry the plugin capability")

	// ErrInvalidPattern is returned when an identifier glob cannot be parsed.
	ErrInvalidPattern = errors.New("invalid identifier pattern")

	// ErrTypeNotFound is returned when no resolver in a chain knows a type name.
	ErrTypeNotFound = errors.New("type not found")

	// ErrInvalidManifest is returned when a plugin manifest fails validation.
	ErrInvalidManifest = errors.New("invalid plugin manifest")
)

// InvalidManifestError lists the validation problems of a manifest.
type InvalidManifestError struct {
	Problems []string
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("invalid plugin manifest: %s", strings.Join(e.Problems, "; "))
}

// Is implements error matching for errors.Is() checks.
func (e *InvalidManifestError) Is(target error) bool {
	return target == ErrInvalidManifest
}

// TypeNotFoundError indicates a type name no resolver could map to a type.
type TypeNotFoundError struct {
	Name values.TypeName
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("type not found: %s", e.Name)
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, entities.ErrTypeNotFound)
func (e *TypeNotFoundError) Is(target error) bool {
	return target == ErrTypeNotFound
}

// UnresolvedReferenceError indicates a forward reference that does not name
// a loaded type. Distinguishes "registered but broken" from a plain miss.
type UnresolvedReferenceError struct {
	Root       values.TypeName
	Identifier values.Identifier // empty when raised outside a lookup
	Name       values.TypeName
	Err        error
}

func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unresolved type reference %s in family %s", e.Name, e.Root)
	if !e.Identifier.IsEmpty() {
		fmt.Fprintf(&b, " (identifier %q)", e.Identifier)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, entities.ErrUnresolvedReference)
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return e.Err
}

// UnresolvedSetError collects every reference that failed to resolve in one
// resolution pass.
type UnresolvedSetError struct {
	References []*UnresolvedReferenceError
}

func (e *UnresolvedSetError) Error() string {
	names := make([]string, len(e.References))
	for i, ref := range e.References {
		names[i] = ref.Name.String()
	}
	return fmt.Sprintf("%d unresolved type reference(s): %s", len(e.References), strings.Join(names, ", "))
}

// Is implements error matching for errors.Is() checks.
func (e *UnresolvedSetError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// Unwrap exposes each failure for errors.As.
func (e *UnresolvedSetError) Unwrap() []error {
	errs := make([]error, len(e.References))
	for i, ref := range e.References {
		errs[i] = ref
	}
	return errs
}

// IdentifierConflictError indicates an identifier already owned by another
// type in the same family.
type IdentifierConflictError struct {
	Root       values.TypeName
	Identifier values.Identifier
	Existing   values.TypeName
	Incoming   values.TypeName
}

func (e *IdentifierConflictError) Error() string {
	return fmt.Sprintf(
		"identifier %q in family %s already registered to %s, cannot register %s",
		e.Identifier, e.Root, e.Existing, e.Incoming,
	)
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, entities.ErrIdentifierConflict)
func (e *IdentifierConflictError) Is(target error) bool {
	return target == ErrIdentifierConflict
}
