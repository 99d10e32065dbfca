package plugin_test

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/plugin-registry/plugin"
	"github.com/reglet-dev/plugin-registry/plugin/dto"
	"github.com/reglet-dev/plugin-registry/plugin/entities"
	"github.com/reglet-dev/plugin-registry/plugin/values"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestSnapshotService_ExportRestore(t *testing.T) {
	src := newServiceFixture(filterType, erbType, hamlType, animalType, dogType)
	require.NoError(t, plugin.MustOf[ERBFilter](src.capability).AddIdentifiers("erb", "erubis"))
	require.NoError(t, plugin.MustOf[HamlFilter](src.capability).AddIdentifier("haml"))
	require.NoError(t, plugin.MustOf[Dog](src.capability).AddIdentifier("dog"))

	exporter := plugin.NewSnapshotService(src.capability, src.table,
		plugin.WithClock(fixedClock),
		plugin.WithSnapshotLogger(plugin.NewTestLogger()))

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(context.Background(), &buf))

	snapshot, err := dto.DecodeSnapshot(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, fixedClock().Equal(snapshot.Generated), "generated %v", snapshot.Generated)
	assert.Len(t, snapshot.Families, 2)

	dst := newServiceFixture(filterType, erbType, hamlType, animalType, dogType)
	restorer := plugin.NewSnapshotService(dst.capability, dst.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger()))

	res, err := restorer.Restore(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, &plugin.RestoreResult{Families: 2, Types: 3, Identifiers: 4}, res)

	got, ok, err := plugin.MustOf[Filter](dst.capability).Named("erubis")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, erbType, got)

	got, _, err = plugin.MustOf[Animal](dst.capability).Named("dog")
	require.NoError(t, err)
	assert.Equal(t, dogType, got)

	assert.Equal(t, []values.Identifier{"erb", "erubis"}, plugin.MustOf[ERBFilter](dst.capability).Identifiers())
}

func TestSnapshotService_ExportEmpty(t *testing.T) {
	f := newServiceFixture()
	svc := plugin.NewSnapshotService(f.capability, f.table,
		plugin.WithClock(fixedClock),
		plugin.WithSnapshotLogger(plugin.NewTestLogger()))

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf))
	assert.Contains(t, buf.String(), "snapshot_version: 1")

	snapshot, err := dto.DecodeSnapshot(&buf)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Families)
}

func TestSnapshotService_RestoreUnknownRoot(t *testing.T) {
	src := newServiceFixture(filterType, erbType)
	require.NoError(t, plugin.MustOf[ERBFilter](src.capability).AddIdentifier("erb"))

	var buf bytes.Buffer
	require.NoError(t, plugin.NewSnapshotService(src.capability, src.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Export(context.Background(), &buf))

	dst := newServiceFixture(erbType)
	_, err := plugin.NewSnapshotService(dst.capability, dst.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Restore(context.Background(), &buf)
	assert.ErrorIs(t, err, entities.ErrTypeNotFound)
	assert.Empty(t, dst.registry.Plugins())
}

func TestSnapshotService_RestoreRejectsVersion(t *testing.T) {
	f := newServiceFixture()
	svc := plugin.NewSnapshotService(f.capability, f.table, plugin.WithSnapshotLogger(plugin.NewTestLogger()))

	_, err := svc.Restore(context.Background(), strings.NewReader("snapshot_version: 7\nfamilies: []\n"))
	assert.ErrorContains(t, err, "unsupported snapshot version 7")
}

func TestSnapshotService_RestoreCanceled(t *testing.T) {
	src := newServiceFixture(filterType, erbType)
	require.NoError(t, plugin.MustOf[ERBFilter](src.capability).AddIdentifier("erb"))

	var buf bytes.Buffer
	require.NoError(t, plugin.NewSnapshotService(src.capability, src.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Export(context.Background(), &buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := newServiceFixture(filterType, erbType)
	_, err := plugin.NewSnapshotService(dst.capability, dst.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Restore(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dst.registry.Plugins())
}

func TestSnapshotService_PendingEntriesSurvive(t *testing.T) {
	src := newServiceFixture(filterType)
	require.NoError(t, plugin.MustOf[Filter](src.capability).RegisterName(values.TypeNameOf(hamlType), "haml"))

	var buf bytes.Buffer
	require.NoError(t, plugin.NewSnapshotService(src.capability, src.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Export(context.Background(), &buf))
	assert.Contains(t, buf.String(), "resolved: false")

	dst := newServiceFixture(filterType, hamlType)
	_, err := plugin.NewSnapshotService(dst.capability, dst.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Restore(context.Background(), &buf)
	require.NoError(t, err)

	all, err := plugin.MustOf[Filter](dst.capability).All()
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{hamlType}, all)
}

func roundTrip(t *testing.T, src, dst *serviceFixture) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, plugin.NewSnapshotService(src.capability, src.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Export(context.Background(), &buf))
	_, err := plugin.NewSnapshotService(dst.capability, dst.table,
		plugin.WithSnapshotLogger(plugin.NewTestLogger())).Restore(context.Background(), &buf)
	require.NoError(t, err)
}

func TestSnapshotService_KeepsIdentifierOrder(t *testing.T) {
	src := newServiceFixture(filterType, erbType)
	require.NoError(t, plugin.MustOf[ERBFilter](src.capability).AddIdentifiers("zeta", "alpha"))

	dst := newServiceFixture(filterType, erbType)
	roundTrip(t, src, dst)

	before := plugin.MustOf[ERBFilter](src.capability)
	after := plugin.MustOf[ERBFilter](dst.capability)
	assert.Equal(t, before.Identifiers(), after.Identifiers())
	assert.Equal(t, []values.Identifier{"zeta", "alpha"}, after.Identifiers())
	id, ok := after.Identifier()
	assert.True(t, ok)
	assert.Equal(t, values.Identifier("zeta"), id)
}

func TestSnapshotService_KeepsReboundIdentifiers(t *testing.T) {
	src := newServiceFixture(filterType, erbType, hamlType)
	require.NoError(t, plugin.MustOf[ERBFilter](src.capability).AddIdentifiers("erb", "template"))
	require.NoError(t, plugin.MustOf[HamlFilter](src.capability).AddIdentifiers("haml", "template"))

	dst := newServiceFixture(filterType, erbType, hamlType)
	roundTrip(t, src, dst)

	for _, f := range []*serviceFixture{src, dst} {
		assert.Equal(t, []values.Identifier{"erb", "template"}, plugin.MustOf[ERBFilter](f.capability).Identifiers())
		assert.Equal(t, []values.Identifier{"haml", "template"}, plugin.MustOf[HamlFilter](f.capability).Identifiers())

		got, ok, err := plugin.MustOf[Filter](f.capability).Named("template")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, hamlType, got)
	}
}

func TestSnapshotService_KeepsFullyReboundTypes(t *testing.T) {
	src := newServiceFixture(filterType, erbType, hamlType)
	require.NoError(t, plugin.MustOf[ERBFilter](src.capability).AddIdentifier("template"))
	require.NoError(t, plugin.MustOf[HamlFilter](src.capability).AddIdentifier("template"))

	dst := newServiceFixture(filterType, erbType, hamlType)
	roundTrip(t, src, dst)

	assert.Equal(t, []values.Identifier{"template"}, plugin.MustOf[ERBFilter](dst.capability).Identifiers())
	all, err := plugin.MustOf[Filter](dst.capability).All()
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{hamlType}, all)
}
