package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/plugin-registry/plugin/dto"
)

// JSONManifestParser implements ManifestParser for JSON.
type JSONManifestParser struct{}

// NewJSONManifestParser creates a new JSONManifestParser.
func NewJSONManifestParser() ManifestParser {
	return &JSONManifestParser{}
}

// Parse unmarshals JSON bytes into a ManifestDTO. Unknown fields are
// rejected.
func (p *JSONManifestParser) Parse(data []byte) (*dto.ManifestDTO, error) {
	var manifest dto.ManifestDTO
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parsing JSON manifest: %w", err)
	}
	return &manifest, nil
}
