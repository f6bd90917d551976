// Package commit implements the atomic multi-update commit protocol:
// the single serialization point for table mutations, matching the
// Iceberg REST Catalog updateTable semantics.
package commit

import (
	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrRequirementFailed is the code carried by a failed requirement
// check. The commit engine does not pass it on: a failed requirement
// that cannot be rebased is reported as ErrCommitConflict, with the
// requirement's kind in the error context.
var ErrRequirementFailed = errors.MustNewCode("commit.requirement_failed")

// Requirement is an assertion about a table's pre-commit state. For a
// table that does not yet exist (assert-create's target) the engine
// passes zero-value metadata with exists set to false.
type Requirement interface {
	// Kind names the requirement per the REST catalog's taxonomy.
	Kind() string
	// Check reports whether the requirement holds against meta. exists
	// is false when the table has not yet been created.
	Check(meta *iceberg.TableMetadata, exists bool) error
	// Rebaseable reports whether a failed instance of this requirement
	// kind can ever be updated to an observed value and retried. Hard
	// identity assertions (assert-create, assert-table-uuid) cannot.
	Rebaseable() bool
	// Rebase returns a copy of this requirement updated to match the
	// observed state in meta. Only called when Rebaseable is true and
	// the engine has already decided the whole update set is
	// rebase-safe; callers of a non-rebaseable requirement's Rebase get
	// the requirement back unchanged.
	Rebase(meta *iceberg.TableMetadata, exists bool) Requirement
}

// AssertCreate requires the table not yet exist.
type AssertCreate struct{}

func (AssertCreate) Kind() string { return "assert-create" }
func (AssertCreate) Rebaseable() bool { return false }
func (r AssertCreate) Rebase(_ *iceberg.TableMetadata, _ bool) Requirement { return r }
func (AssertCreate) Check(_ *iceberg.TableMetadata, exists bool) error {
	if exists {
		return errors.New(ErrRequirementFailed, "assert-create: table already exists", nil)
	}
	return nil
}

// AssertTableUUID requires the table's current UUID match UUID exactly.
type AssertTableUUID struct {
	UUID string
}

func (AssertTableUUID) Kind() string { return "assert-table-uuid" }
func (AssertTableUUID) Rebaseable() bool { return false }
func (r AssertTableUUID) Rebase(_ *iceberg.TableMetadata, _ bool) Requirement { return r }
func (r AssertTableUUID) Check(meta *iceberg.TableMetadata, exists bool) error {
	if !exists || meta.TableUUID != r.UUID {
		return errors.Newf(ErrRequirementFailed, "assert-table-uuid: expected %s", r.UUID)
	}
	return nil
}

// AssertRefSnapshotID requires the named ref currently point at
// SnapshotID (or be absent when SnapshotID is nil).
type AssertRefSnapshotID struct {
	Ref        string
	SnapshotID *int64
}

func (AssertRefSnapshotID) Kind() string { return "assert-ref-snapshot-id" }
func (AssertRefSnapshotID) Rebaseable() bool { return true }
func (r AssertRefSnapshotID) Rebase(meta *iceberg.TableMetadata, exists bool) Requirement {
	if !exists {
		return AssertRefSnapshotID{Ref: r.Ref, SnapshotID: nil}
	}
	ref, ok := meta.Refs[r.Ref]
	if !ok {
		return AssertRefSnapshotID{Ref: r.Ref, SnapshotID: nil}
	}
	id := ref.SnapshotID
	return AssertRefSnapshotID{Ref: r.Ref, SnapshotID: &id}
}
func (r AssertRefSnapshotID) Check(meta *iceberg.TableMetadata, exists bool) error {
	if !exists {
		if r.SnapshotID == nil {
			return nil
		}
		return errors.Newf(ErrRequirementFailed, "assert-ref-snapshot-id: ref %q expected snapshot %d but table does not exist", r.Ref, *r.SnapshotID)
	}
	ref, ok := meta.Refs[r.Ref]
	if !ok {
		if r.SnapshotID == nil {
			return nil
		}
		return errors.Newf(ErrRequirementFailed, "assert-ref-snapshot-id: ref %q is absent, expected snapshot %d", r.Ref, *r.SnapshotID)
	}
	if r.SnapshotID == nil {
		return errors.Newf(ErrRequirementFailed, "assert-ref-snapshot-id: ref %q exists pointing at %d, expected absent", r.Ref, ref.SnapshotID)
	}
	if ref.SnapshotID != *r.SnapshotID {
		return errors.Newf(ErrRequirementFailed, "assert-ref-snapshot-id: ref %q points at %d, expected %d", r.Ref, ref.SnapshotID, *r.SnapshotID)
	}
	return nil
}

// AssertLastAssignedFieldID requires last-column-id equal N.
type AssertLastAssignedFieldID struct{ ID int }

func (AssertLastAssignedFieldID) Kind() string     { return "assert-last-assigned-field-id" }
func (AssertLastAssignedFieldID) Rebaseable() bool { return true }
func (r AssertLastAssignedFieldID) Rebase(meta *iceberg.TableMetadata, exists bool) Requirement {
	if !exists {
		return r
	}
	return AssertLastAssignedFieldID{ID: meta.LastColumnID}
}
func (r AssertLastAssignedFieldID) Check(meta *iceberg.TableMetadata, exists bool) error {
	if !exists || meta.LastColumnID != r.ID {
		return errors.Newf(ErrRequirementFailed, "assert-last-assigned-field-id: expected %d", r.ID)
	}
	return nil
}

// AssertCurrentSchemaID requires current-schema-id equal N.
type AssertCurrentSchemaID struct{ ID int }

func (AssertCurrentSchemaID) Kind() string     { return "assert-current-schema-id" }
func (AssertCurrentSchemaID) Rebaseable() bool { return true }
func (r AssertCurrentSchemaID) Rebase(meta *iceberg.TableMetadata, exists bool) Requirement {
	if !exists {
		return r
	}
	return AssertCurrentSchemaID{ID: meta.CurrentSchemaID}
}
func (r AssertCurrentSchemaID) Check(meta *iceberg.TableMetadata, exists bool) error {
	if !exists || meta.CurrentSchemaID != r.ID {
		return errors.Newf(ErrRequirementFailed, "assert-current-schema-id: expected %d", r.ID)
	}
	return nil
}

// AssertLastAssignedPartitionID requires last-partition-id equal N.
type AssertLastAssignedPartitionID struct{ ID int }

func (AssertLastAssignedPartitionID) Kind() string     { return "assert-last-assigned-partition-id" }
func (AssertLastAssignedPartitionID) Rebaseable() bool { return true }
func (r AssertLastAssignedPartitionID) Rebase(meta *iceberg.TableMetadata, exists bool) Requirement {
	if !exists {
		return r
	}
	return AssertLastAssignedPartitionID{ID: meta.LastPartitionID}
}
func (r AssertLastAssignedPartitionID) Check(meta *iceberg.TableMetadata, exists bool) error {
	if !exists || meta.LastPartitionID != r.ID {
		return errors.Newf(ErrRequirementFailed, "assert-last-assigned-partition-id: expected %d", r.ID)
	}
	return nil
}

// AssertDefaultSpecID requires default-spec-id equal N.
type AssertDefaultSpecID struct{ ID int }

func (AssertDefaultSpecID) Kind() string     { return "assert-default-spec-id" }
func (AssertDefaultSpecID) Rebaseable() bool { return true }
func (r AssertDefaultSpecID) Rebase(meta *iceberg.TableMetadata, exists bool) Requirement {
	if !exists {
		return r
	}
	return AssertDefaultSpecID{ID: meta.DefaultSpecID}
}
func (r AssertDefaultSpecID) Check(meta *iceberg.TableMetadata, exists bool) error {
	if !exists || meta.DefaultSpecID != r.ID {
		return errors.Newf(ErrRequirementFailed, "assert-default-spec-id: expected %d", r.ID)
	}
	return nil
}

// AssertDefaultSortOrderID requires default-sort-order-id equal N.
type AssertDefaultSortOrderID struct{ ID int }

func (AssertDefaultSortOrderID) Kind() string     { return "assert-default-sort-order-id" }
func (AssertDefaultSortOrderID) Rebaseable() bool { return true }
func (r AssertDefaultSortOrderID) Rebase(meta *iceberg.TableMetadata, exists bool) Requirement {
	if !exists {
		return r
	}
	return AssertDefaultSortOrderID{ID: meta.DefaultSortOrderID}
}
func (r AssertDefaultSortOrderID) Check(meta *iceberg.TableMetadata, exists bool) error {
	if !exists || meta.DefaultSortOrderID != r.ID {
		return errors.Newf(ErrRequirementFailed, "assert-default-sort-order-id: expected %d", r.ID)
	}
	return nil
}
