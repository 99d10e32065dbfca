package values

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeName is the fully-qualified name of a Go type.
// Format: <import path>.<Name>, e.g. example.com/filters.ERB.
// Predeclared and unnamed types use their reflect string form.
type TypeName struct {
	pkgPath string // example.com/filters
	name    string // ERB
}

// TypeNameOf returns the name of t. Pointer types name their element type
// so *ERB and ERB share one name.
func TypeNameOf(t reflect.Type) TypeName {
	if t == nil {
		return TypeName{}
	}
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return TypeName{name: t.String()}
	}
	return TypeName{pkgPath: t.PkgPath(), name: t.Name()}
}

// ParseTypeName parses a fully-qualified type name.
// Examples:
//   - example.com/filters.ERB
//   - example.com/filters.Box[example.com/filters.ERB]
//   - main.Dog
//   - string
func ParseTypeName(s string) (TypeName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeName{}, fmt.Errorf("type name cannot be empty")
	}

	// Type arguments carry their own qualified names, so only the part
	// before the first '[' holds the package path.
	base := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		base = s[:i]
	}
	if strings.ContainsAny(base, " \t\n") {
		return TypeName{}, fmt.Errorf("invalid type name %q: contains whitespace", s)
	}

	// The package path may itself contain dots (example.com), so split on the
	// last dot after the last slash.
	slash := strings.LastIndex(base, "/")
	dot := strings.LastIndex(base[slash+1:], ".")
	if dot < 0 {
		if slash >= 0 {
			return TypeName{}, fmt.Errorf("invalid type name %q: missing type after package path", s)
		}
		return TypeName{name: s}, nil
	}
	dot += slash + 1

	pkg, name := s[:dot], s[dot+1:]
	if pkg == "" || name == "" || name[0] == '[' {
		return TypeName{}, fmt.Errorf("invalid type name %q", s)
	}
	return TypeName{pkgPath: pkg, name: name}, nil
}

// MustParseTypeName parses a TypeName or panics
func MustParseTypeName(s string) TypeName {
	tn, err := ParseTypeName(s)
	if err != nil {
		panic(err)
	}
	return tn
}

// String returns the canonical fully-qualified name.
func (n TypeName) String() string {
	if n.pkgPath == "" {
		return n.name
	}
	return n.pkgPath + "." + n.name
}

// PkgPath returns the import path, empty for predeclared types.
func (n TypeName) PkgPath() string {
	return n.pkgPath
}

// Name returns the unqualified type name.
func (n TypeName) Name() string {
	return n.name
}

// IsEmpty returns true if this is the zero value
func (n TypeName) IsEmpty() bool {
	return n.name == ""
}

// Equals checks if two type names are equal
func (n TypeName) Equals(other TypeName) bool {
	return n == other
}

// MarshalText implements encoding.TextMarshaler.
func (n TypeName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *TypeName) UnmarshalText(data []byte) error {
	parsed, err := ParseTypeName(string(data))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
