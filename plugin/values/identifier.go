package values

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrEmptyIdentifier is returned when an identifier has no characters.
var ErrEmptyIdentifier = errors.New("identifier cannot be empty")

// Identifier names a plugin type within one family.
// Identifiers are case-sensitive and compared byte for byte; no trimming or
// folding is applied.
type Identifier string

// ID canonicalizes any string-kinded value into an Identifier.
// Named string types used as symbols (type Kind string) and plain strings
// with the same content produce equal identifiers.
func ID[S ~string](s S) Identifier {
	return Identifier(s)
}

// IdentifierOf canonicalizes an arbitrary value into an Identifier.
// Accepts Identifier, string, fmt.Stringer and any value whose underlying
// kind is string.
func IdentifierOf(v any) (Identifier, error) {
	var id Identifier
	switch x := v.(type) {
	case Identifier:
		id = x
	case string:
		id = Identifier(x)
	case fmt.Stringer:
		id = Identifier(x.String())
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Kind() != reflect.String {
			return "", fmt.Errorf("cannot use %T as identifier", v)
		}
		id = Identifier(rv.String())
	}
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Identifiers canonicalizes a list of string-kinded values.
func Identifiers[S ~string](ss ...S) []Identifier {
	ids := make([]Identifier, len(ss))
	for i, s := range ss {
		ids[i] = Identifier(s)
	}
	return ids
}

// Validate reports whether the identifier can be used as a registry key.
func (id Identifier) Validate() error {
	if id == "" {
		return ErrEmptyIdentifier
	}
	return nil
}

// String returns the string representation
func (id Identifier) String() string {
	return string(id)
}

// IsEmpty returns true if this is the zero value
func (id Identifier) IsEmpty() bool {
	return id == ""
}
