package entities

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reglet-dev/plugin-registry/plugin/values"
)

func TestUnresolvedReferenceError(t *testing.T) {
	cause := errors.New("no such type")
	err := &UnresolvedReferenceError{
		Root:       values.MustParseTypeName("main.Filter"),
		Identifier: "erb",
		Name:       values.MustParseTypeName("main.ERB"),
		Err:        cause,
	}

	assert.ErrorIs(t, err, ErrUnresolvedReference)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `unresolved type reference main.ERB in family main.Filter (identifier "erb"): no such type`, err.Error())

	wrapped := fmt.Errorf("lookup: %w", err)
	var target *UnresolvedReferenceError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "main.ERB", target.Name.String())
}

func TestUnresolvedSetError(t *testing.T) {
	set := &UnresolvedSetError{References: []*UnresolvedReferenceError{
		{Name: values.MustParseTypeName("main.A")},
		{Name: values.MustParseTypeName("main.B")},
	}}

	assert.ErrorIs(t, set, ErrUnresolvedReference)
	assert.Equal(t, "2 unresolved type reference(s): main.A, main.B", set.Error())

	var first *UnresolvedReferenceError
	assert.True(t, errors.As(set, &first))
	assert.Equal(t, "main.A", first.Name.String())
}

func TestIdentifierConflictError(t *testing.T) {
	err := &IdentifierConflictError{
		Root:       values.MustParseTypeName("main.Filter"),
		Identifier: "erb",
		Existing:   values.MustParseTypeName("main.ERB"),
		Incoming:   values.MustParseTypeName("main.Erubi"),
	}
	assert.ErrorIs(t, err, ErrIdentifierConflict)
	assert.NotErrorIs(t, err, ErrUnresolvedReference)
	assert.Contains(t, err.Error(), "already registered to main.ERB")
}

type widget struct{}

func TestEntry(t *testing.T) {
	typ := reflect.TypeOf(widget{})

	resolved := NewEntry(typ)
	assert.True(t, resolved.IsResolved())
	assert.Equal(t, values.TypeNameOf(typ), resolved.Name())

	pending := NewPendingEntry(values.TypeNameOf(typ))
	assert.False(t, pending.IsResolved())
	assert.Nil(t, pending.Type())

	pending.Bind(typ)
	assert.Equal(t, typ, pending.Type())

	pending.Bind(reflect.TypeOf(0))
	assert.Equal(t, typ, pending.Type(), "bind does not replace a resolved type")
}

func TestDescriptor_HasIdentifier(t *testing.T) {
	d := Descriptor{Identifiers: []values.Identifier{"cat", "kitty"}}
	assert.True(t, d.HasIdentifier("kitty"))
	assert.False(t, d.HasIdentifier("dog"))
}

func TestDescriptor_Stale(t *testing.T) {
	d := Descriptor{
		Identifiers: []values.Identifier{"cat"},
		Registered:  []values.Identifier{"kitty", "cat", "tom", "kitty"},
	}
	assert.Equal(t, []values.Identifier{"kitty", "tom"}, d.Stale())
	assert.Empty(t, Descriptor{Identifiers: []values.Identifier{"cat"}, Registered: []values.Identifier{"cat"}}.Stale())
}

func TestInvalidManifestError(t *testing.T) {
	err := &InvalidManifestError{Problems: []string{"/root: empty", "/plugins: empty"}}
	assert.ErrorIs(t, err, ErrInvalidManifest)
	assert.Equal(t, "invalid plugin manifest: /root: empty; /plugins: empty", err.Error())
}

func TestTypeNotFoundError(t *testing.T) {
	err := &TypeNotFoundError{Name: values.MustParseTypeName("main.Gone")}
	assert.ErrorIs(t, err, ErrTypeNotFound)
	assert.Equal(t, "type not found: main.Gone", err.Error())
}
