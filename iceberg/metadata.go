package iceberg

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/icebergd/coreberg/pkg/errors"
)

var (
	// ErrInvalidMetadata is returned when TableMetadata fails its
	// invariant checks (dangling schema/spec/sort-order/ref/
	// snapshot references).
	ErrInvalidMetadata = errors.MustNewCode("iceberg.invalid_metadata")
)

// TableMetadata is the root document of a table. It is never
// mutated in place; Builder produces a new value for every commit.
type TableMetadata struct {
	FormatVersion      int
	TableUUID          string
	Location           string
	LastSequenceNumber int64
	LastUpdatedMs      int64
	LastColumnID       int
	CurrentSchemaID    int
	Schemas            []Schema
	DefaultSpecID      int
	PartitionSpecs     []PartitionSpec
	LastPartitionID    int
	DefaultSortOrderID int
	SortOrders         []SortOrder
	CurrentSnapshotID  *int64
	Snapshots          []Snapshot
	SnapshotLog        []SnapshotLogEntry
	MetadataLog        []MetadataLogEntry
	Refs               map[string]SnapshotRef
	Properties         map[string]string
	// NextRowID is a v3-only monotonic row-id counter; left
	// nil for format-version 2 tables.
	NextRowID *int64
}

// CurrentSchema returns the schema named by CurrentSchemaID.
func (m *TableMetadata) CurrentSchema() (Schema, bool) {
	for _, s := range m.Schemas {
		if s.SchemaID == m.CurrentSchemaID {
			return s, true
		}
	}
	return Schema{}, false
}

// DefaultPartitionSpec returns the spec named by DefaultSpecID.
func (m *TableMetadata) DefaultPartitionSpec() (PartitionSpec, bool) {
	for _, p := range m.PartitionSpecs {
		if p.SpecID == m.DefaultSpecID {
			return p, true
		}
	}
	return PartitionSpec{}, false
}

// DefaultSortOrder returns the order named by DefaultSortOrderID.
func (m *TableMetadata) DefaultSortOrder() (SortOrder, bool) {
	for _, o := range m.SortOrders {
		if o.OrderID == m.DefaultSortOrderID {
			return o, true
		}
	}
	return SortOrder{}, false
}

// SnapshotByID finds a retained snapshot by ID.
func (m *TableMetadata) SnapshotByID(id int64) (Snapshot, bool) {
	for _, s := range m.Snapshots {
		if s.SnapshotID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// Validate checks the table spec's cross-reference invariants: every
// ID a field points at must exist in its collection.
func (m *TableMetadata) Validate() error {
	if m.FormatVersion != 2 && m.FormatVersion != 3 {
		return errors.Newf(ErrInvalidMetadata, "format-version must be 2 or 3, got %d", m.FormatVersion)
	}
	if _, ok := m.CurrentSchema(); !ok && len(m.Schemas) > 0 {
		return errors.Newf(ErrInvalidMetadata, "current-schema-id %d not found among schemas", m.CurrentSchemaID)
	}
	if _, ok := m.DefaultPartitionSpec(); !ok && len(m.PartitionSpecs) > 0 {
		return errors.Newf(ErrInvalidMetadata, "default-spec-id %d not found among partition specs", m.DefaultSpecID)
	}
	if _, ok := m.DefaultSortOrder(); !ok && len(m.SortOrders) > 0 {
		return errors.Newf(ErrInvalidMetadata, "default-sort-order-id %d not found among sort orders", m.DefaultSortOrderID)
	}
	if m.CurrentSnapshotID != nil {
		if _, ok := m.SnapshotByID(*m.CurrentSnapshotID); !ok {
			return errors.Newf(ErrInvalidMetadata, "current-snapshot-id %d not found among snapshots", *m.CurrentSnapshotID)
		}
	}
	for name, ref := range m.Refs {
		if _, ok := m.SnapshotByID(ref.SnapshotID); !ok {
			return errors.Newf(ErrInvalidMetadata, "ref %q points at unknown snapshot-id %d", name, ref.SnapshotID)
		}
	}
	prev := int64(-1)
	for _, s := range m.Snapshots {
		if s.SequenceNumber < prev {
			return errors.Newf(ErrInvalidMetadata, "snapshot sequence numbers must be non-decreasing in table order")
		}
		prev = s.SequenceNumber
	}
	return nil
}

// metadataJSON mirrors TableMetadata field-for-field but as an ordered
// struct: encoding/json emits struct fields in declaration order, and
// format-version is declared first (downstream engines require it to
// be the first key). current-snapshot-id is a *int64 so json.Marshal
// emits a literal null rather than omitting the key.
type metadataJSON struct {
	FormatVersion      int                    `json:"format-version"`
	TableUUID          string                 `json:"table-uuid"`
	Location           string                 `json:"location"`
	LastSequenceNumber int64                  `json:"last-sequence-number"`
	LastUpdatedMs      int64                  `json:"last-updated-ms"`
	LastColumnID       int                    `json:"last-column-id"`
	Schemas            []Schema               `json:"schemas"`
	CurrentSchemaID    int                    `json:"current-schema-id"`
	PartitionSpecs     []PartitionSpec        `json:"partition-specs"`
	DefaultSpecID      int                    `json:"default-spec-id"`
	LastPartitionID    int                    `json:"last-partition-id"`
	SortOrders         []SortOrder            `json:"sort-orders"`
	DefaultSortOrderID int                    `json:"default-sort-order-id"`
	Properties         map[string]string      `json:"properties,omitempty"`
	CurrentSnapshotID  *int64                 `json:"current-snapshot-id"`
	Snapshots          []Snapshot             `json:"snapshots,omitempty"`
	SnapshotLog        []SnapshotLogEntry     `json:"snapshot-log,omitempty"`
	MetadataLog        []MetadataLogEntry     `json:"metadata-log,omitempty"`
	Refs               map[string]SnapshotRef `json:"refs,omitempty"`
	NextRowID          *int64                 `json:"next-row-id,omitempty"`
}

// MarshalJSON enforces the key-order and always-present-current-snapshot-id
// rules the on-disk metadata.json shape requires.
func (m TableMetadata) MarshalJSON() ([]byte, error) {
	mj := metadataJSON{
		FormatVersion:      m.FormatVersion,
		TableUUID:          m.TableUUID,
		Location:           m.Location,
		LastSequenceNumber: m.LastSequenceNumber,
		LastUpdatedMs:      m.LastUpdatedMs,
		LastColumnID:       m.LastColumnID,
		Schemas:            m.Schemas,
		CurrentSchemaID:    m.CurrentSchemaID,
		PartitionSpecs:     m.PartitionSpecs,
		DefaultSpecID:      m.DefaultSpecID,
		LastPartitionID:    m.LastPartitionID,
		SortOrders:         m.SortOrders,
		DefaultSortOrderID: m.DefaultSortOrderID,
		Properties:         m.Properties,
		CurrentSnapshotID:  m.CurrentSnapshotID,
		Snapshots:          m.Snapshots,
		SnapshotLog:        m.SnapshotLog,
		MetadataLog:        m.MetadataLog,
		Refs:               m.Refs,
		NextRowID:          m.NextRowID,
	}
	buf := bytes.NewBuffer(nil)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(mj); err != nil {
		return nil, errors.New(errors.CommonInternal, "failed to marshal table metadata", err)
	}
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	if !bytes.HasPrefix(out, []byte(`{"format-version":`)) {
		previewLen := 40
		if len(out) < previewLen {
			previewLen = len(out)
		}
		return nil, errors.Newf(errors.CommonInternal, "format-version was not emitted as the first key: %s", string(out[:previewLen]))
	}
	return out, nil
}

// UnmarshalJSON parses a metadata.json document.
func (m *TableMetadata) UnmarshalJSON(data []byte) error {
	var mj metadataJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return errors.New(errors.CommonValidation, "invalid table metadata document", err)
	}
	m.FormatVersion = mj.FormatVersion
	m.TableUUID = mj.TableUUID
	m.Location = mj.Location
	m.LastSequenceNumber = mj.LastSequenceNumber
	m.LastUpdatedMs = mj.LastUpdatedMs
	m.LastColumnID = mj.LastColumnID
	m.Schemas = mj.Schemas
	m.CurrentSchemaID = mj.CurrentSchemaID
	m.PartitionSpecs = mj.PartitionSpecs
	m.DefaultSpecID = mj.DefaultSpecID
	m.LastPartitionID = mj.LastPartitionID
	m.SortOrders = mj.SortOrders
	m.DefaultSortOrderID = mj.DefaultSortOrderID
	m.Properties = mj.Properties
	m.CurrentSnapshotID = mj.CurrentSnapshotID
	m.Snapshots = mj.Snapshots
	m.SnapshotLog = mj.SnapshotLog
	m.MetadataLog = mj.MetadataLog
	m.Refs = mj.Refs
	m.NextRowID = mj.NextRowID
	return nil
}

// MetadataFileName renders the monotonically-numbered filename
// "v<N>.metadata.json".
func MetadataFileName(version int) string {
	return fmt.Sprintf("v%d.metadata.json", version)
}
