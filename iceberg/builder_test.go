package iceberg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestBuilder_NewTableBuilder_AssignsUUIDAndPartitionFloor(t *testing.T) {
	old := NowFunc
	NowFunc = fixedClock(1000)
	defer func() { NowFunc = old }()

	b := NewTableBuilder(2, "s3://bucket/db/table")
	meta, err := b.Build()
	require.NoError(t, err)
	assert.NotEmpty(t, meta.TableUUID)
	assert.Equal(t, FirstPartitionFieldID-1, meta.LastPartitionID)
	assert.Equal(t, int64(1000), meta.LastUpdatedMs)
	assert.Nil(t, meta.NextRowID)
}

func TestBuilder_NewTableBuilder_V3HasNextRowID(t *testing.T) {
	b := NewTableBuilder(3, "loc")
	meta, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, meta.NextRowID)
	assert.Equal(t, int64(0), *meta.NextRowID)
}

func TestBuilder_AddSchema_TracksLastColumnID(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	schema := Schema{SchemaID: 0, Struct: StructType{Fields: []NestedField{
		{ID: 1, Name: "id", Required: true, Type: Int64},
		{ID: 5, Name: "data", Type: String},
	}}}
	_, err := b.AddSchema(schema)
	require.NoError(t, err)
	_, err = b.SetCurrentSchema(0)
	require.NoError(t, err)

	meta, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 5, meta.LastColumnID)
	assert.Equal(t, 0, meta.CurrentSchemaID)
}

func TestBuilder_SetCurrentSchema_RejectsUnknownID(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	_, err := b.SetCurrentSchema(7)
	require.Error(t, err)
}

func TestBuilder_AddPartitionSpec_TracksLastPartitionID(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	spec := PartitionSpec{SpecID: 0, Fields: []PartitionField{
		{SourceID: 1, FieldID: b.NextPartitionFieldID(), Name: "id_bucket", Transform: Bucket(16)},
	}}
	_, err := b.AddPartitionSpec(spec)
	require.NoError(t, err)
	_, err = b.SetDefaultSpec(0)
	require.NoError(t, err)

	meta, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, FirstPartitionFieldID, meta.LastPartitionID)
	assert.Equal(t, 0, meta.DefaultSpecID)
}

func TestBuilder_AddPartitionSpec_RejectsFieldIDBelowFloor(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	spec := PartitionSpec{SpecID: 0, Fields: []PartitionField{
		{SourceID: 1, FieldID: 5, Name: "bad", Transform: IdentityTransform},
	}}
	_, err := b.AddPartitionSpec(spec)
	require.Error(t, err)
}

func TestBuilder_AddSnapshot_IncrementsSequenceAndSetsRef(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	_, err := b.AddSnapshot(Snapshot{SnapshotID: 100, TimestampMs: 1, ManifestList: "m1.avro", Summary: SnapshotSummary{Operation: OpAppend}}, 10)
	require.NoError(t, err)
	_, err = b.AddSnapshot(Snapshot{SnapshotID: 101, TimestampMs: 2, ManifestList: "m2.avro", Summary: SnapshotSummary{Operation: OpAppend}}, 20)
	require.NoError(t, err)

	meta, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.LastSequenceNumber)
	require.Len(t, meta.Snapshots, 2)
	assert.Equal(t, int64(1), meta.Snapshots[0].SequenceNumber)
	assert.Equal(t, int64(2), meta.Snapshots[1].SequenceNumber)
	require.NotNil(t, meta.CurrentSnapshotID)
	assert.Equal(t, int64(101), *meta.CurrentSnapshotID)
	require.Len(t, meta.SnapshotLog, 2)
	assert.Equal(t, meta.Refs[MainBranch].SnapshotID, int64(101))
}

func TestBuilder_AddSnapshot_V3AdvancesNextRowID(t *testing.T) {
	b := NewTableBuilder(3, "loc")
	_, err := b.AddSnapshot(Snapshot{SnapshotID: 1, TimestampMs: 1, ManifestList: "m1.avro", Summary: SnapshotSummary{Operation: OpAppend}}, 100)
	require.NoError(t, err)
	_, err = b.AddSnapshot(Snapshot{SnapshotID: 2, TimestampMs: 2, ManifestList: "m2.avro", Summary: SnapshotSummary{Operation: OpAppend}}, 50)
	require.NoError(t, err)

	meta, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, meta.NextRowID)
	assert.Equal(t, int64(150), *meta.NextRowID)
	require.NotNil(t, meta.Snapshots[0].FirstRowID)
	assert.Equal(t, int64(0), *meta.Snapshots[0].FirstRowID)
	require.NotNil(t, meta.Snapshots[1].FirstRowID)
	assert.Equal(t, int64(100), *meta.Snapshots[1].FirstRowID)
}

func TestBuilder_RemoveSnapshots(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	_, err := b.AddSnapshot(Snapshot{SnapshotID: 1, TimestampMs: 1, ManifestList: "m1.avro", Summary: SnapshotSummary{Operation: OpAppend}}, 1)
	require.NoError(t, err)
	b.RemoveSnapshots([]int64{1})

	meta, err := b.Build()
	// current-snapshot-id still points at the removed snapshot here;
	// a real commit pairs RemoveSnapshots with RemoveSnapshotRef/SetSnapshotRef.
	require.Error(t, err)
	assert.Empty(t, meta.Snapshots)
}

func TestBuilder_SetAndRemoveSnapshotRef(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	_, err := b.AddSnapshot(Snapshot{SnapshotID: 1, TimestampMs: 1, ManifestList: "m1.avro", Summary: SnapshotSummary{Operation: OpAppend}}, 1)
	require.NoError(t, err)
	_, err = b.SetSnapshotRef("audit-tag", SnapshotRef{SnapshotID: 1, Type: RefTag})
	require.NoError(t, err)

	meta, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, RefTag, meta.Refs["audit-tag"].Type)

	b.RemoveSnapshotRef("audit-tag")
	meta, err = b.Build()
	require.NoError(t, err)
	_, ok := meta.Refs["audit-tag"]
	assert.False(t, ok)
}

func TestBuilder_SetSnapshotRef_RejectsUnknownSnapshot(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	_, err := b.SetSnapshotRef("main", SnapshotRef{SnapshotID: 999, Type: RefBranch})
	require.Error(t, err)
}

func TestBuilder_Properties_SetAndRemove(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	b.SetProperties(map[string]string{"a": "1", "b": "2"})
	meta, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "1", meta.Properties["a"])

	b.RemoveProperties([]string{"a"})
	meta, err = b.Build()
	require.NoError(t, err)
	_, ok := meta.Properties["a"]
	assert.False(t, ok)
	assert.Equal(t, "2", meta.Properties["b"])
}

func TestBuilder_UpgradeFormatVersion_RejectsDowngrade(t *testing.T) {
	b := NewTableBuilder(3, "loc")
	_, err := b.UpgradeFormatVersion(2)
	require.Error(t, err)
}

func TestBuilder_UpgradeFormatVersion_AssignsNextRowID(t *testing.T) {
	b := NewTableBuilder(2, "loc")
	_, err := b.UpgradeFormatVersion(3)
	require.NoError(t, err)
	meta, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, meta.NextRowID)
}
