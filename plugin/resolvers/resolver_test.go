package resolvers

import (
	"errors"
	"reflect"
	"testing"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/services"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

type (
	textFilter  struct{}
	imageFilter struct{}
)

func TestTableResolver(t *testing.T) {
	textType := reflect.TypeOf(textFilter{})
	imageType := reflect.TypeOf(imageFilter{})

	t.Run("ResolvesKnownType", func(t *testing.T) {
		resolver := NewTableResolver(textType)

		got, err := resolver.ResolveType(values.TypeNameOf(textType))
		if err != nil {
			t.Fatalf("ResolveType failed: %v", err)
		}
		if got != textType {
			t.Errorf("expected %v, got %v", textType, got)
		}
	})

	t.Run("AddAfterConstruction", func(t *testing.T) {
		resolver := NewTableResolver()
		resolver.Add(imageType, nil)

		got, err := resolver.ResolveType(values.TypeNameOf(imageType))
		if err != nil {
			t.Fatalf("ResolveType failed: %v", err)
		}
		if got != imageType {
			t.Errorf("expected %v, got %v", imageType, got)
		}
	})

	t.Run("UnknownEndsChain", func(t *testing.T) {
		resolver := NewTableResolver(textType)

		_, err := resolver.ResolveType(values.MustParseTypeName("example.com/filters.Missing"))
		if !errors.Is(err, entities.ErrTypeNotFound) {
			t.Errorf("expected ErrTypeNotFound, got %v", err)
		}
	})

	t.Run("DelegatesOnMiss", func(t *testing.T) {
		first := NewTableResolver(textType)
		second := NewTableResolver(imageType)
		services.Chain(first, second)

		got, err := first.ResolveType(values.TypeNameOf(imageType))
		if err != nil {
			t.Fatalf("ResolveType failed: %v", err)
		}
		if got != imageType {
			t.Errorf("expected %v, got %v", imageType, got)
		}
	})

	t.Run("Names", func(t *testing.T) {
		resolver := NewTableResolver(textType, imageType)
		names := resolver.Names()
		if len(names) != 2 {
			t.Fatalf("expected 2 names, got %d", len(names))
		}
		if names[0] != values.TypeNameOf(imageType) || names[1] != values.TypeNameOf(textType) {
			t.Errorf("names not sorted: %v", names)
		}
	})
}

func TestAliasResolver(t *testing.T) {
	textType := reflect.TypeOf(textFilter{})
	legacy := values.MustParseTypeName("example.com/legacy.TextFilter")

	aliases := map[values.TypeName]values.TypeName{legacy: values.TypeNameOf(textType)}
	alias := NewAliasResolver(aliases)
	services.Chain(alias, NewTableResolver(textType))

	delete(aliases, legacy)

	got, err := alias.ResolveType(legacy)
	if err != nil {
		t.Fatalf("ResolveType failed: %v", err)
	}
	if got != textType {
		t.Errorf("expected %v, got %v", textType, got)
	}

	got, err = alias.ResolveType(values.TypeNameOf(textType))
	if err != nil || got != textType {
		t.Errorf("unaliased name should pass through, got %v, %v", got, err)
	}

	_, err = NewAliasResolver(nil).ResolveType(legacy)
	var notFound *entities.TypeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected TypeNotFoundError, got %v", err)
	}
	if notFound.Name != legacy {
		t.Errorf("expected %v, got %v", legacy, notFound.Name)
	}
}
