package validation

import "github.com/reglet-dev/plugin-registry/plugin/dto"

// ValidationResult lists the problems found in a manifest.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ManifestValidator validates plugin manifests before registration.
type ManifestValidator interface {
	// Validate checks the manifest against the manifest schema and the
	// supported API versions. The error is reserved for validator failures.
	Validate(manifest *dto.ManifestDTO) (*ValidationResult, error)
}
