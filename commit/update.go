package commit

import (
	"github.com/icebergd/coreberg/iceberg"
)

// Update is one change to apply to table metadata (the REST catalog's update
// taxonomy). RebaseSafe reports whether the update's semantics are
// independent of the specific value any requirement asserted; the
// engine refuses to rebase a commit whose update set contains even one
// rebase-unsafe update.
type Update interface {
	Kind() string
	RebaseSafe() bool
	Apply(b *iceberg.Builder) error
}

// AssignUUID sets the table's identifying UUID (creation only).
type AssignUUID struct{ UUID string }

func (AssignUUID) Kind() string       { return "assign-uuid" }
func (AssignUUID) RebaseSafe() bool   { return false }
func (u AssignUUID) Apply(b *iceberg.Builder) error {
	b.AssignUUID(u.UUID)
	return nil
}

// UpgradeFormatVersion moves the table to a newer format version.
type UpgradeFormatVersion struct{ Version int }

func (UpgradeFormatVersion) Kind() string     { return "upgrade-format-version" }
func (UpgradeFormatVersion) RebaseSafe() bool { return true }
func (u UpgradeFormatVersion) Apply(b *iceberg.Builder) error {
	_, err := b.UpgradeFormatVersion(u.Version)
	return err
}

// AddSchema appends a new schema. Additive and placeholder-ID-driven,
// so it is rebase-safe.
type AddSchema struct{ Schema iceberg.Schema }

func (AddSchema) Kind() string     { return "add-schema" }
func (AddSchema) RebaseSafe() bool { return true }
func (u AddSchema) Apply(b *iceberg.Builder) error {
	_, err := b.AddSchema(u.Schema)
	return err
}

// SetCurrentSchema points current-schema-id at an existing schema. Its
// semantics depend on a specific schema-id, so it is rebase-unsafe.
type SetCurrentSchema struct{ SchemaID int }

func (SetCurrentSchema) Kind() string     { return "set-current-schema" }
func (SetCurrentSchema) RebaseSafe() bool { return false }
func (u SetCurrentSchema) Apply(b *iceberg.Builder) error {
	_, err := b.SetCurrentSchema(u.SchemaID)
	return err
}

// AddPartitionSpec appends a partition spec.
type AddPartitionSpec struct{ Spec iceberg.PartitionSpec }

func (AddPartitionSpec) Kind() string     { return "add-partition-spec" }
func (AddPartitionSpec) RebaseSafe() bool { return true }
func (u AddPartitionSpec) Apply(b *iceberg.Builder) error {
	_, err := b.AddPartitionSpec(u.Spec)
	return err
}

// SetDefaultSpec points default-spec-id at an existing spec.
type SetDefaultSpec struct{ SpecID int }

func (SetDefaultSpec) Kind() string     { return "set-default-spec" }
func (SetDefaultSpec) RebaseSafe() bool { return false }
func (u SetDefaultSpec) Apply(b *iceberg.Builder) error {
	_, err := b.SetDefaultSpec(u.SpecID)
	return err
}

// AddSortOrder appends a sort order.
type AddSortOrder struct{ Order iceberg.SortOrder }

func (AddSortOrder) Kind() string     { return "add-sort-order" }
func (AddSortOrder) RebaseSafe() bool { return true }
func (u AddSortOrder) Apply(b *iceberg.Builder) error {
	_, err := b.AddSortOrder(u.Order)
	return err
}

// SetDefaultSortOrder points default-sort-order-id at an existing order.
type SetDefaultSortOrder struct{ OrderID int }

func (SetDefaultSortOrder) Kind() string     { return "set-default-sort-order" }
func (SetDefaultSortOrder) RebaseSafe() bool { return false }
func (u SetDefaultSortOrder) Apply(b *iceberg.Builder) error {
	_, err := b.SetDefaultSortOrder(u.OrderID)
	return err
}

// AddSnapshot appends a new snapshot (append-only: additive and
// sequence-number-assigning, so rebase-safe).
type AddSnapshot struct {
	Snapshot  iceberg.Snapshot
	AddedRows int64
}

func (AddSnapshot) Kind() string     { return "add-snapshot" }
func (AddSnapshot) RebaseSafe() bool { return true }
func (u AddSnapshot) Apply(b *iceberg.Builder) error {
	_, err := b.AddSnapshot(u.Snapshot, u.AddedRows)
	return err
}

// RemoveSnapshots drops the snapshots with the given IDs. Not
// rebase-safe: which snapshots exist to remove is exactly the kind of
// state a concurrent writer may have changed.
type RemoveSnapshots struct{ IDs []int64 }

func (RemoveSnapshots) Kind() string     { return "remove-snapshots" }
func (RemoveSnapshots) RebaseSafe() bool { return false }
func (u RemoveSnapshots) Apply(b *iceberg.Builder) error {
	b.RemoveSnapshots(u.IDs)
	return nil
}

// RemoveSnapshotRef drops a named branch/tag.
type RemoveSnapshotRef struct{ Name string }

func (RemoveSnapshotRef) Kind() string     { return "remove-snapshot-ref" }
func (RemoveSnapshotRef) RebaseSafe() bool { return false }
func (u RemoveSnapshotRef) Apply(b *iceberg.Builder) error {
	b.RemoveSnapshotRef(u.Name)
	return nil
}

// SetSnapshotRef creates or moves a named branch/tag.
type SetSnapshotRef struct {
	Name string
	Ref  iceberg.SnapshotRef
}

func (SetSnapshotRef) Kind() string     { return "set-snapshot-ref" }
func (SetSnapshotRef) RebaseSafe() bool { return false }
func (u SetSnapshotRef) Apply(b *iceberg.Builder) error {
	_, err := b.SetSnapshotRef(u.Name, u.Ref)
	return err
}

// SetProperties merges key/value pairs into the table's properties.
// Additive/idempotent per key, so rebase-safe.
type SetProperties struct{ Properties map[string]string }

func (SetProperties) Kind() string     { return "set-properties" }
func (SetProperties) RebaseSafe() bool { return true }
func (u SetProperties) Apply(b *iceberg.Builder) error {
	b.SetProperties(u.Properties)
	return nil
}

// RemoveProperties deletes keys from the table's properties.
type RemoveProperties struct{ Keys []string }

func (RemoveProperties) Kind() string     { return "remove-properties" }
func (RemoveProperties) RebaseSafe() bool { return true }
func (u RemoveProperties) Apply(b *iceberg.Builder) error {
	b.RemoveProperties(u.Keys)
	return nil
}

// SetLocation updates the table's base location.
type SetLocation struct{ Location string }

func (SetLocation) Kind() string     { return "set-location" }
func (SetLocation) RebaseSafe() bool { return false }
func (u SetLocation) Apply(b *iceberg.Builder) error {
	b.SetLocation(u.Location)
	return nil
}
