package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/reglet-dev/plugin-registry/parser"
	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/ports"
	"github.com/reglet-dev/plugin-registry/plugin/values"
	"github.com/reglet-dev/plugin-registry/validation"
)

// ManifestService registers plugin families declared in manifests.
// Entries become forward references in the family of the manifest's root.
type ManifestService struct {
	capability     *Capability
	types          ports.TypeResolver
	parser         parser.ManifestParser
	validator      validation.ManifestValidator
	resolveEagerly bool
	logger         *slog.Logger
}

// ManifestServiceOption configures a ManifestService.
type ManifestServiceOption func(*ManifestService)

// NewManifestService creates a manifest service.
// The capability and the resolver used to find manifest roots are required
// dependencies.
func NewManifestService(
	capability *Capability,
	types ports.TypeResolver,
	opts ...ManifestServiceOption,
) *ManifestService {
	s := &ManifestService{
		capability: capability,
		types:      types,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithParser fixes the manifest format. By default the format is detected
// from the content.
func WithParser(p parser.ManifestParser) ManifestServiceOption {
	return func(s *ManifestService) { s.parser = p }
}

// WithValidator sets the manifest validator.
func WithValidator(v validation.ManifestValidator) ManifestServiceOption {
	return func(s *ManifestService) { s.validator = v }
}

// WithEagerResolution resolves every pending reference after loading, so
// broken names surface at load time instead of first lookup.
func WithEagerResolution(eager bool) ManifestServiceOption {
	return func(s *ManifestService) { s.resolveEagerly = eager }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManifestServiceOption {
	return func(s *ManifestService) { s.logger = l }
}

// LoadResult summarizes a loaded manifest.
type LoadResult struct {
	Root        reflect.Type
	Types       int
	Identifiers int
}

// Load parses, validates and registers a manifest. Entries are registered
// as one batch: a malformed entry, a strict-mode conflict or a canceled
// context leaves the registry untouched.
func (s *ManifestService) Load(ctx context.Context, data []byte) (*LoadResult, error) {
	p := s.parser
	if p == nil {
		p = parser.ForContent(data)
	}
	manifest, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	if s.validator != nil {
		res, err := s.validator.Validate(manifest)
		if err != nil {
			return nil, fmt.Errorf("manifest validation failed: %w", err)
		}
		if !res.Valid {
			return nil, &entities.InvalidManifestError{Problems: res.Errors}
		}
	}

	rootName, err := manifest.ToRootName()
	if err != nil {
		return nil, fmt.Errorf("invalid manifest root: %w", err)
	}
	rootType, err := s.types.ResolveType(rootName)
	if err != nil {
		return nil, fmt.Errorf("manifest root %s: %w", rootName, err)
	}
	root, err := s.capability.For(rootType)
	if err != nil {
		return nil, fmt.Errorf("manifest root: %w", err)
	}

	regs := make([]entities.Registration, 0, len(manifest.Plugins))
	result := &LoadResult{Root: root.RootClass()}
	for i := range manifest.Plugins {
		name, err := manifest.Plugins[i].ToTypeName()
		if err != nil {
			return nil, fmt.Errorf("manifest plugin %d: %w", i, err)
		}
		ids, err := manifest.Plugins[i].ToIdentifiers()
		if err != nil {
			return nil, fmt.Errorf("manifest plugin %d: %w", i, err)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("manifest plugin %s: %w", name, entities.ErrNoIdentifiers)
		}
		regs = append(regs, entities.Registration{Name: name, Identifiers: ids})
		result.Identifiers += len(ids)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.capability.Registry().RegisterBatch(result.Root, regs...); err != nil {
		return nil, fmt.Errorf("registering manifest plugins: %w", err)
	}
	result.Types = len(regs)

	s.logger.Info("plugin manifest loaded",
		"root", values.TypeNameOf(result.Root).String(),
		"types", result.Types,
		"identifiers", result.Identifiers)

	if s.resolveEagerly {
		if err := s.capability.Registry().Resolve(); err != nil {
			return result, fmt.Errorf("resolving manifest plugins: %w", err)
		}
	}
	return result, nil
}
