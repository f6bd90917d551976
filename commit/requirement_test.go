package commit

import (
	"testing"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertCreate(t *testing.T) {
	assert.NoError(t, AssertCreate{}.Check(&iceberg.TableMetadata{}, false))
	assert.Error(t, AssertCreate{}.Check(&iceberg.TableMetadata{}, true))
	assert.False(t, AssertCreate{}.Rebaseable())
}

func TestAssertTableUUID(t *testing.T) {
	meta := &iceberg.TableMetadata{TableUUID: "abc"}
	assert.NoError(t, AssertTableUUID{UUID: "abc"}.Check(meta, true))
	assert.Error(t, AssertTableUUID{UUID: "def"}.Check(meta, true))
	assert.Error(t, AssertTableUUID{UUID: "abc"}.Check(meta, false))
}

func TestAssertRefSnapshotID(t *testing.T) {
	id := int64(10)
	meta := &iceberg.TableMetadata{Refs: map[string]iceberg.SnapshotRef{
		"main": {SnapshotID: 10, Type: iceberg.RefBranch},
	}}
	require.NoError(t, AssertRefSnapshotID{Ref: "main", SnapshotID: &id}.Check(meta, true))

	other := int64(11)
	err := AssertRefSnapshotID{Ref: "main", SnapshotID: &other}.Check(meta, true)
	require.Error(t, err)

	assert.NoError(t, AssertRefSnapshotID{Ref: "absent", SnapshotID: nil}.Check(meta, true))
	assert.Error(t, AssertRefSnapshotID{Ref: "absent", SnapshotID: &id}.Check(meta, true))
}

func TestAssertRefSnapshotID_Rebase(t *testing.T) {
	meta := &iceberg.TableMetadata{Refs: map[string]iceberg.SnapshotRef{
		"main": {SnapshotID: 99, Type: iceberg.RefBranch},
	}}
	stale := int64(1)
	r := AssertRefSnapshotID{Ref: "main", SnapshotID: &stale}
	rebased := r.Rebase(meta, true).(AssertRefSnapshotID)
	require.NotNil(t, rebased.SnapshotID)
	assert.Equal(t, int64(99), *rebased.SnapshotID)
}

func TestAssertCurrentSchemaID_RebaseAndCheck(t *testing.T) {
	meta := &iceberg.TableMetadata{CurrentSchemaID: 2}
	assert.Error(t, AssertCurrentSchemaID{ID: 1}.Check(meta, true))
	rebased := AssertCurrentSchemaID{ID: 1}.Rebase(meta, true).(AssertCurrentSchemaID)
	assert.Equal(t, 2, rebased.ID)
	assert.NoError(t, rebased.Check(meta, true))
}

func TestAssertDefaultSpecAndSortOrderAndPartitionAndFieldID(t *testing.T) {
	meta := &iceberg.TableMetadata{
		LastColumnID:    5,
		LastPartitionID: 1001,
		DefaultSpecID:   2,
	}
	assert.Error(t, AssertLastAssignedFieldID{ID: 4}.Check(meta, true))
	assert.NoError(t, AssertLastAssignedFieldID{ID: 5}.Check(meta, true))

	assert.Error(t, AssertLastAssignedPartitionID{ID: 1000}.Check(meta, true))
	assert.NoError(t, AssertLastAssignedPartitionID{ID: 1001}.Check(meta, true))

	assert.Error(t, AssertDefaultSpecID{ID: 0}.Check(meta, true))
	assert.NoError(t, AssertDefaultSpecID{ID: 2}.Check(meta, true))

	assert.NoError(t, AssertDefaultSortOrderID{ID: 0}.Check(meta, true))
}
