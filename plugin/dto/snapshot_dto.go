package dto

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// SnapshotDTO represents the YAML structure of a registry snapshot.
type SnapshotDTO struct {
	Generated time.Time        `yaml:"generated"`
	Version   int              `yaml:"snapshot_version"`
	Families  []FamilySnapshot `yaml:"families"`
}

// FamilySnapshot lists the registered types of one root.
type FamilySnapshot struct {
	Root    string           `yaml:"root"`
	Plugins []PluginSnapshot `yaml:"plugins"`
}

// PluginSnapshot is one registered type. Identifiers keeps the type's
// registration order; Stale lists those since rebound to other types.
type PluginSnapshot struct {
	Type        string   `yaml:"type"`
	Resolved    bool     `yaml:"resolved"`
	Identifiers []string `yaml:"identifiers"`
	Stale       []string `yaml:"stale,omitempty"`
}

// FromDescriptors groups descriptors by root, keeping their order.
func FromDescriptors(descs []entities.Descriptor, generated time.Time) *SnapshotDTO {
	s := &SnapshotDTO{
		Generated: generated.UTC(),
		Version:   SnapshotVersion,
		Families:  []FamilySnapshot{},
	}
	index := make(map[values.TypeName]int)
	for _, d := range descs {
		i, ok := index[d.Root]
		if !ok {
			i = len(s.Families)
			index[d.Root] = i
			s.Families = append(s.Families, FamilySnapshot{Root: d.Root.String()})
		}
		s.Families[i].Plugins = append(s.Families[i].Plugins, PluginSnapshot{
			Type:        d.Type.String(),
			Resolved:    d.Resolved,
			Identifiers: toStrings(d.Registered),
			Stale:       toStrings(d.Stale()),
		})
	}
	return s
}

func toStrings(ids []values.Identifier) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func toIdentifiers(raw []string, typ values.TypeName) ([]values.Identifier, error) {
	ids := make([]values.Identifier, 0, len(raw))
	for _, r := range raw {
		id, err := values.IdentifierOf(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot plugin %s: %w", typ, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ToDescriptors converts the snapshot back to descriptors.
func (s *SnapshotDTO) ToDescriptors() ([]entities.Descriptor, error) {
	var out []entities.Descriptor
	for _, fam := range s.Families {
		root, err := values.ParseTypeName(fam.Root)
		if err != nil {
			return nil, fmt.Errorf("snapshot root: %w", err)
		}
		for _, p := range fam.Plugins {
			typ, err := values.ParseTypeName(p.Type)
			if err != nil {
				return nil, fmt.Errorf("snapshot plugin of %s: %w", root, err)
			}
			registered, err := toIdentifiers(p.Identifiers, typ)
			if err != nil {
				return nil, err
			}
			stale, err := toIdentifiers(p.Stale, typ)
			if err != nil {
				return nil, err
			}

			var bound []values.Identifier
			for _, id := range registered {
				if !slices.Contains(stale, id) && !slices.Contains(bound, id) {
					bound = append(bound, id)
				}
			}
			slices.Sort(bound)

			out = append(out, entities.Descriptor{
				Root:        root,
				Type:        typ,
				Resolved:    p.Resolved,
				Identifiers: bound,
				Registered:  registered,
			})
		}
	}
	return out, nil
}

// Encode writes the snapshot as YAML.
func (s *SnapshotDTO) Encode(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()

	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a YAML snapshot.
func DecodeSnapshot(r io.Reader) (*SnapshotDTO, error) {
	var out SnapshotDTO
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding snapshot YAML: %w", err)
	}
	if out.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", out.Version)
	}
	return &out, nil
}
