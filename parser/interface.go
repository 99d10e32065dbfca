package parser

import "github.com/reglet-dev/plugin-registry/plugin/dto"

// ManifestParser parses raw manifest bytes into a Manifest.
type ManifestParser interface {
	// Parse unmarshals manifest bytes into a ManifestDTO.
	Parse(data []byte) (*dto.ManifestDTO, error)
}

// ForContent picks a parser from the document's first significant byte:
// JSON objects start with '{', everything else is treated as YAML.
func ForContent(data []byte) ManifestParser {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return NewJSONManifestParser()
		}
		break
	}
	return NewYamlManifestParser()
}
