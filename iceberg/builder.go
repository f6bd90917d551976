package iceberg

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/icebergd/coreberg/pkg/errors"
)

var (
	// ErrBuilderState is returned when a builder operation is invoked
	// against a state it cannot apply to (e.g. setting current-schema to
	// an ID that hasn't been added yet).
	ErrBuilderState = errors.MustNewCode("iceberg.invalid_builder_state")
)

// NowFunc is overridable in tests; production code leaves it as
// time.Now.
var NowFunc = time.Now

// Builder mutates a TableMetadata value through the discrete
// operations the REST catalog's update actions need. Every mutating
// call bumps LastUpdatedMs. A Builder is single-use per commit
// attempt: construct one from the previously persisted metadata,
// apply operations, then call Build.
type Builder struct {
	meta TableMetadata
}

// NewBuilder starts a builder from an existing metadata value. The value
// is copied and its Properties and Refs maps are cloned, so the
// builder's writes never reach the source; slices are only appended to
// or replaced. Callers must not mutate the source after this call.
func NewBuilder(meta TableMetadata) *Builder {
	meta.Properties = maps.Clone(meta.Properties)
	meta.Refs = maps.Clone(meta.Refs)
	return &Builder{meta: meta}
}

// NewTableBuilder starts a fresh builder for a brand-new table at
// formatVersion with the given location, format-version, and an
// auto-assigned UUID.
func NewTableBuilder(formatVersion int, location string) *Builder {
	b := &Builder{meta: TableMetadata{
		FormatVersion:   formatVersion,
		Location:        location,
		LastPartitionID: FirstPartitionFieldID - 1,
		CurrentSchemaID: -1,
		DefaultSpecID:   0,
		Properties:      map[string]string{},
		Refs:            map[string]SnapshotRef{},
	}}
	b.AssignUUID(uuid.NewString())
	if formatVersion >= 3 {
		zero := int64(0)
		b.meta.NextRowID = &zero
	}
	b.touch()
	return b
}

func (b *Builder) touch() {
	b.meta.LastUpdatedMs = NowFunc().UnixMilli()
}

// Build returns the accumulated metadata, validated.
func (b *Builder) Build() (TableMetadata, error) {
	if err := b.meta.Validate(); err != nil {
		return TableMetadata{}, err
	}
	return b.meta, nil
}

// SetLocation updates the table's base location.
func (b *Builder) SetLocation(location string) *Builder {
	b.meta.Location = location
	b.touch()
	return b
}

// AssignUUID sets the table's identifying UUID. Used once, at creation.
func (b *Builder) AssignUUID(id string) *Builder {
	b.meta.TableUUID = id
	b.touch()
	return b
}

// UpgradeFormatVersion moves the table to a newer format version. It
// never downgrades.
func (b *Builder) UpgradeFormatVersion(version int) (*Builder, error) {
	if version < b.meta.FormatVersion {
		return b, errors.Newf(ErrBuilderState, "cannot downgrade format-version from %d to %d", b.meta.FormatVersion, version)
	}
	if b.meta.FormatVersion < 3 && version >= 3 && b.meta.NextRowID == nil {
		zero := int64(0)
		b.meta.NextRowID = &zero
	}
	b.meta.FormatVersion = version
	b.touch()
	return b, nil
}

// AddSchema appends a new schema, tracking last-column-id as the
// high-water mark across the table's entire schema history.
func (b *Builder) AddSchema(schema Schema) (*Builder, error) {
	if err := schema.Validate(); err != nil {
		return b, err
	}
	for _, s := range b.meta.Schemas {
		if s.SchemaID == schema.SchemaID {
			return b, errors.Newf(ErrBuilderState, "schema-id %d already exists", schema.SchemaID)
		}
	}
	b.meta.Schemas = append(b.meta.Schemas, schema)
	if hi := schema.HighestFieldID(); hi > b.meta.LastColumnID {
		b.meta.LastColumnID = hi
	}
	b.touch()
	return b, nil
}

// SetCurrentSchema points current-schema-id at an already-added schema.
func (b *Builder) SetCurrentSchema(schemaID int) (*Builder, error) {
	found := false
	for _, s := range b.meta.Schemas {
		if s.SchemaID == schemaID {
			found = true
			break
		}
	}
	if !found {
		return b, errors.Newf(ErrBuilderState, "cannot set current schema to unknown schema-id %d", schemaID)
	}
	b.meta.CurrentSchemaID = schemaID
	b.touch()
	return b, nil
}

// AddPartitionSpec appends a partition spec. Each of its fields must
// already carry a global field-id >= FirstPartitionFieldID; the builder
// advances last-partition-id to the highest one observed.
func (b *Builder) AddPartitionSpec(spec PartitionSpec) (*Builder, error) {
	for _, p := range b.meta.PartitionSpecs {
		if p.SpecID == spec.SpecID {
			return b, errors.Newf(ErrBuilderState, "partition spec-id %d already exists", spec.SpecID)
		}
	}
	for _, f := range spec.Fields {
		if f.FieldID < FirstPartitionFieldID {
			return b, errors.Newf(ErrBuilderState, "partition field-id %d below floor %d", f.FieldID, FirstPartitionFieldID)
		}
		if f.FieldID > b.meta.LastPartitionID {
			b.meta.LastPartitionID = f.FieldID
		}
	}
	b.meta.PartitionSpecs = append(b.meta.PartitionSpecs, spec)
	b.touch()
	return b, nil
}

// NextPartitionFieldID allocates (without yet consuming) the field ID
// the next AddPartitionSpec field should use.
func (b *Builder) NextPartitionFieldID() int {
	return b.meta.LastPartitionID + 1
}

// SetDefaultSpec points default-spec-id at an already-added spec.
func (b *Builder) SetDefaultSpec(specID int) (*Builder, error) {
	found := false
	for _, p := range b.meta.PartitionSpecs {
		if p.SpecID == specID {
			found = true
			break
		}
	}
	if !found {
		return b, errors.Newf(ErrBuilderState, "cannot set default spec to unknown spec-id %d", specID)
	}
	b.meta.DefaultSpecID = specID
	b.touch()
	return b, nil
}

// AddSortOrder appends a sort order.
func (b *Builder) AddSortOrder(order SortOrder) (*Builder, error) {
	for _, o := range b.meta.SortOrders {
		if o.OrderID == order.OrderID {
			return b, errors.Newf(ErrBuilderState, "sort order-id %d already exists", order.OrderID)
		}
	}
	b.meta.SortOrders = append(b.meta.SortOrders, order)
	b.touch()
	return b, nil
}

// SetDefaultSortOrder points default-sort-order-id at an already-added
// order.
func (b *Builder) SetDefaultSortOrder(orderID int) (*Builder, error) {
	if orderID == 0 {
		b.meta.DefaultSortOrderID = 0
		b.touch()
		return b, nil
	}
	found := false
	for _, o := range b.meta.SortOrders {
		if o.OrderID == orderID {
			found = true
			break
		}
	}
	if !found {
		return b, errors.Newf(ErrBuilderState, "cannot set default sort order to unknown order-id %d", orderID)
	}
	b.meta.DefaultSortOrderID = orderID
	b.touch()
	return b, nil
}

// AddSnapshot appends a snapshot, assigning its sequence-number from
// last-sequence-number+1 and, for v3 tables, its first-row-id from the
// current next-row-id before advancing next-row-id by addedRows. The
// snapshot log gets a matching append-only entry.
func (b *Builder) AddSnapshot(snap Snapshot, addedRows int64) (*Builder, error) {
	b.meta.LastSequenceNumber++
	snap.SequenceNumber = b.meta.LastSequenceNumber

	if b.meta.FormatVersion >= 3 {
		if b.meta.NextRowID == nil {
			zero := int64(0)
			b.meta.NextRowID = &zero
		}
		first := *b.meta.NextRowID
		snap.FirstRowID = &first
		snap.AddedRows = &addedRows
		next := first + addedRows
		b.meta.NextRowID = &next
	}

	b.meta.Snapshots = append(b.meta.Snapshots, snap)
	b.meta.SnapshotLog = append(b.meta.SnapshotLog, SnapshotLogEntry{
		SnapshotID:  snap.SnapshotID,
		TimestampMs: snap.TimestampMs,
	})

	id := snap.SnapshotID
	b.meta.CurrentSnapshotID = &id
	if b.meta.Refs == nil {
		b.meta.Refs = map[string]SnapshotRef{}
	}
	b.meta.Refs[MainBranch] = SnapshotRef{SnapshotID: id, Type: RefBranch}

	b.touch()
	return b, nil
}

// RemoveSnapshots drops the snapshots with the given IDs. Refs pointing
// at a removed snapshot are left untouched by this call; callers must
// issue a matching RemoveSnapshotRef/SetSnapshotRef if a ref needs to
// move; the REST update taxonomy keeps these separate actions.
func (b *Builder) RemoveSnapshots(ids []int64) *Builder {
	remove := make(map[int64]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}
	// Filter into a fresh slice: the source slice's backing array is
	// shared with the metadata value this builder was constructed from.
	kept := make([]Snapshot, 0, len(b.meta.Snapshots))
	for _, s := range b.meta.Snapshots {
		if !remove[s.SnapshotID] {
			kept = append(kept, s)
		}
	}
	b.meta.Snapshots = kept
	b.touch()
	return b
}

// SetSnapshotRef creates or moves a named branch/tag.
func (b *Builder) SetSnapshotRef(name string, ref SnapshotRef) (*Builder, error) {
	if _, ok := b.meta.SnapshotByID(ref.SnapshotID); !ok {
		return b, errors.Newf(ErrBuilderState, "cannot set ref %q to unknown snapshot-id %d", name, ref.SnapshotID)
	}
	if b.meta.Refs == nil {
		b.meta.Refs = map[string]SnapshotRef{}
	}
	b.meta.Refs[name] = ref
	if name == MainBranch {
		id := ref.SnapshotID
		b.meta.CurrentSnapshotID = &id
	}
	b.touch()
	return b, nil
}

// RemoveSnapshotRef drops a named branch/tag.
func (b *Builder) RemoveSnapshotRef(name string) *Builder {
	delete(b.meta.Refs, name)
	if name == MainBranch {
		b.meta.CurrentSnapshotID = nil
	}
	b.touch()
	return b
}

// SetProperties merges key/value pairs into the table's properties.
func (b *Builder) SetProperties(props map[string]string) *Builder {
	if b.meta.Properties == nil {
		b.meta.Properties = map[string]string{}
	}
	for k, v := range props {
		b.meta.Properties[k] = v
	}
	b.touch()
	return b
}

// RemoveProperties deletes keys from the table's properties.
func (b *Builder) RemoveProperties(keys []string) *Builder {
	for _, k := range keys {
		delete(b.meta.Properties, k)
	}
	b.touch()
	return b
}
