// Package validation checks plugin manifests against a JSON schema derived
// from the manifest DTO.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/invopop/jsonschema"
	schemavalidator "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/plugin-registry/plugin/dto"
)

// DefaultAPIVersionConstraint accepts every 1.x manifest.
const DefaultAPIVersionConstraint = "^1.0.0"

const schemaURL = "manifest.schema.json"

// ManifestSchema returns the JSON schema of dto.ManifestDTO.
var ManifestSchema = sync.OnceValues(func() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		Anonymous:      true,
	}
	s := reflector.Reflect(&dto.ManifestDTO{})
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated schema: %w", err)
	}
	return b, nil
})

var compiledSchema = sync.OnceValues(func() (*schemavalidator.Schema, error) {
	raw, err := ManifestSchema()
	if err != nil {
		return nil, err
	}
	c := schemavalidator.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", schemaURL, err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", schemaURL, err)
	}
	return sch, nil
})

// SchemaManifestValidator implements ManifestValidator.
type SchemaManifestValidator struct {
	constraint *semver.Constraints
}

// ValidatorOption configures a SchemaManifestValidator.
type ValidatorOption func(*validatorConfig)

type validatorConfig struct {
	apiVersions string
}

// WithAPIVersionConstraint sets the semver constraint manifests must satisfy.
func WithAPIVersionConstraint(constraint string) ValidatorOption {
	return func(c *validatorConfig) {
		c.apiVersions = constraint
	}
}

// NewManifestValidator creates a validator. The schema is compiled once
// per process.
func NewManifestValidator(opts ...ValidatorOption) (*SchemaManifestValidator, error) {
	cfg := validatorConfig{apiVersions: DefaultAPIVersionConstraint}
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := semver.NewConstraint(cfg.apiVersions)
	if err != nil {
		return nil, fmt.Errorf("invalid API version constraint %q: %w", cfg.apiVersions, err)
	}
	if _, err := compiledSchema(); err != nil {
		return nil, err
	}
	return &SchemaManifestValidator{constraint: c}, nil
}

// Validate checks manifest structure and API version.
func (v *SchemaManifestValidator) Validate(manifest *dto.ManifestDTO) (*ValidationResult, error) {
	if manifest == nil {
		return &ValidationResult{Errors: []string{"manifest is empty"}}, nil
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	content, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	var problems []string
	if err := sch.Validate(doc); err != nil {
		var ve *schemavalidator.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}
		problems = append(problems, flatten(ve)...)
	}

	if manifest.APIVersion != "" {
		version, err := semver.NewVersion(manifest.APIVersion)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("/apiVersion: %q is not a semantic version", manifest.APIVersion))
		case !v.constraint.Check(version):
			problems = append(problems, fmt.Sprintf("/apiVersion: %s does not satisfy %s", version, v.constraint))
		}
	}

	sort.Strings(problems)
	return &ValidationResult{Valid: len(problems) == 0, Errors: problems}, nil
}

// flatten collects the leaf causes of a validation error.
func flatten(ve *schemavalidator.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{fmt.Sprintf("%s: %s", loc, ve.Message)}
	}
	var out []string
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
