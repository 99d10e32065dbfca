package dto

import (
	"fmt"

	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// ManifestDTO declares plugin types of one family by name. Registering a
// manifest creates forward references that resolve once the types are
// loaded.
type ManifestDTO struct {
	APIVersion string           `json:"apiVersion" yaml:"apiVersion" jsonschema:"minLength=1"`
	Root       string           `json:"root" yaml:"root" jsonschema:"minLength=1"`
	Plugins    []PluginEntryDTO `json:"plugins" yaml:"plugins" jsonschema:"minItems=1"`
}

// PluginEntryDTO names one plugin type and its identifiers.
type PluginEntryDTO struct {
	Type        string   `json:"type" yaml:"type" jsonschema:"minLength=1"`
	Identifiers []string `json:"identifiers" yaml:"identifiers" jsonschema:"minItems=1"`
}

// ToRootName parses the family root's type name.
func (m *ManifestDTO) ToRootName() (values.TypeName, error) {
	return values.ParseTypeName(m.Root)
}

// ToTypeName parses the entry's type name.
func (e *PluginEntryDTO) ToTypeName() (values.TypeName, error) {
	return values.ParseTypeName(e.Type)
}

// ToIdentifiers canonicalizes the entry's identifiers.
func (e *PluginEntryDTO) ToIdentifiers() ([]values.Identifier, error) {
	ids := make([]values.Identifier, 0, len(e.Identifiers))
	for i, raw := range e.Identifiers {
		id, err := values.IdentifierOf(raw)
		if err != nil {
			return nil, fmt.Errorf("identifier %d of %s: %w", i, e.Type, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
