// Package parser provides functionality for parsing plugin manifests.
package parser

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/plugin-registry/plugin/dto"
)

// YamlManifestParser implements ManifestParser for YAML.
type YamlManifestParser struct{}

// NewYamlManifestParser creates a new YamlManifestParser.
func NewYamlManifestParser() ManifestParser {
	return &YamlManifestParser{}
}

// Parse unmarshals YAML bytes into a ManifestDTO. Unknown fields are
// rejected.
func (p *YamlManifestParser) Parse(data []byte) (*dto.ManifestDTO, error) {
	var manifest dto.ManifestDTO
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parsing YAML manifest: %w", err)
	}
	return &manifest, nil
}
