package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/reglet-dev/plugin-registry/plugin/dto"
	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/ports"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

// SnapshotService exports the registry contents and restores them into
// another registry as forward references.
type SnapshotService struct {
	capability *Capability
	types      ports.TypeResolver
	now        func() time.Time
	logger     *slog.Logger
}

// SnapshotServiceOption configures a SnapshotService.
type SnapshotServiceOption func(*SnapshotService)

// WithClock overrides the time stamped on exported snapshots.
func WithClock(now func() time.Time) SnapshotServiceOption {
	return func(s *SnapshotService) { s.now = now }
}

// WithSnapshotLogger sets the logger.
func WithSnapshotLogger(l *slog.Logger) SnapshotServiceOption {
	return func(s *SnapshotService) { s.logger = l }
}

// NewSnapshotService creates a snapshot service. The resolver finds the
// family roots named in restored snapshots.
func NewSnapshotService(capability *Capability, types ports.TypeResolver, opts ...SnapshotServiceOption) *SnapshotService {
	s := &SnapshotService{
		capability: capability,
		types:      types,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export writes every registered type with its identifier list, in
// registration order, as YAML.
func (s *SnapshotService) Export(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	descs := s.capability.Registry().Registrations()
	if err := dto.FromDescriptors(descs, s.now()).Encode(w); err != nil {
		return fmt.Errorf("exporting snapshot: %w", err)
	}
	s.logger.Debug("exported plugin snapshot", "plugins", len(descs))
	return nil
}

// RestoreResult summarizes a restored snapshot.
type RestoreResult struct {
	Families    int
	Types       int
	Identifiers int
}

// Restore registers every snapshot entry by name, recreating each type's
// identifier list in its original order. Stale identifiers are listed but
// not bound. Roots must be resolvable and carry the capability; nothing is
// registered otherwise. Each family is registered as one batch. Restoring
// into a registry that already holds the same names appends duplicate
// identifiers.
func (s *SnapshotService) Restore(ctx context.Context, r io.Reader) (*RestoreResult, error) {
	snapshot, err := dto.DecodeSnapshot(r)
	if err != nil {
		return nil, fmt.Errorf("restoring snapshot: %w", err)
	}
	descs, err := snapshot.ToDescriptors()
	if err != nil {
		return nil, fmt.Errorf("restoring snapshot: %w", err)
	}

	var roots []values.TypeName
	handles := make(map[values.TypeName]*Handle)
	batches := make(map[values.TypeName][]entities.Registration)
	for _, d := range descs {
		if _, ok := handles[d.Root]; !ok {
			rootType, err := s.types.ResolveType(d.Root)
			if err != nil {
				return nil, fmt.Errorf("snapshot root %s: %w", d.Root, err)
			}
			h, err := s.capability.For(rootType)
			if err != nil {
				return nil, fmt.Errorf("snapshot root: %w", err)
			}
			handles[d.Root] = h
			roots = append(roots, d.Root)
		}
		if len(d.Registered) == 0 {
			continue
		}
		var detached []values.Identifier
		for _, id := range d.Registered {
			if !d.HasIdentifier(id) {
				detached = append(detached, id)
			}
		}
		batches[d.Root] = append(batches[d.Root], entities.Registration{
			Name:        d.Type,
			Identifiers: d.Registered,
			Detached:    detached,
		})
	}

	result := &RestoreResult{}
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		regs := batches[root]
		if len(regs) == 0 {
			continue
		}
		if err := s.capability.Registry().RegisterBatch(handles[root].RootClass(), regs...); err != nil {
			return result, fmt.Errorf("restoring family %s: %w", root, err)
		}
		result.Families++
		for _, reg := range regs {
			result.Types++
			result.Identifiers += len(reg.Identifiers)
		}
	}

	s.logger.Info("plugin snapshot restored",
		"families", result.Families,
		"types", result.Types,
		"identifiers", result.Identifiers)
	return result, nil
}
