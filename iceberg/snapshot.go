package iceberg

import "encoding/json"

// RefType distinguishes a branch (mutable, advances on commit) from a
// tag (fixed to one snapshot).
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// MainBranch is the default branch name every table starts with once it
// has a current snapshot.
const MainBranch = "main"

// SnapshotRef points a named branch or tag at a snapshot, with optional
// retention overrides.
type SnapshotRef struct {
	SnapshotID             int64    `json:"snapshot-id"`
	Type                   RefType  `json:"type"`
	MinSnapshotsToKeep     *int     `json:"min-snapshots-to-keep,omitempty"`
	MaxSnapshotAgeMs       *int64   `json:"max-snapshot-age-ms,omitempty"`
	MaxRefAgeMs            *int64   `json:"max-ref-age-ms,omitempty"`
}

// Snapshot is one immutable point-in-time view of the table.
// v3 adds FirstRowID and AddedRows.
type Snapshot struct {
	SnapshotID       int64             `json:"snapshot-id"`
	ParentSnapshotID *int64            `json:"parent-snapshot-id,omitempty"`
	SequenceNumber   int64             `json:"sequence-number"`
	TimestampMs      int64             `json:"timestamp-ms"`
	ManifestList     string            `json:"manifest-list"`
	Summary          SnapshotSummary   `json:"summary"`
	SchemaID         *int              `json:"schema-id,omitempty"`
	FirstRowID       *int64            `json:"first-row-id,omitempty"`
	AddedRows        *int64            `json:"added-rows,omitempty"`
}

// Operation is the kind of mutation a snapshot represents.
type Operation string

const (
	OpAppend    Operation = "append"
	OpOverwrite Operation = "overwrite"
	OpReplace   Operation = "replace"
	OpDelete    Operation = "delete"
)

// SnapshotSummary carries the operation tag plus engine-defined metric
// counters, all stored as strings per the Iceberg spec.
type SnapshotSummary struct {
	Operation Operation         `json:"operation"`
	Metrics   map[string]string `json:"-"`
}

// MarshalJSON flattens Operation and Metrics into one string-keyed
// object, matching the wire format (operation is just another key).
func (s SnapshotSummary) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(s.Metrics)+1)
	for k, v := range s.Metrics {
		out[k] = v
	}
	out["operation"] = string(s.Operation)
	return json.Marshal(out)
}

// UnmarshalJSON splits the flat string map back into Operation+Metrics.
func (s *SnapshotSummary) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Operation = Operation(raw["operation"])
	delete(raw, "operation")
	s.Metrics = raw
	return nil
}

// SnapshotLogEntry is one append-only record of a branch's history.
type SnapshotLogEntry struct {
	SnapshotID  int64 `json:"snapshot-id"`
	TimestampMs int64 `json:"timestamp-ms"`
}

// MetadataLogEntry records a prior metadata.json file's location and
// the time it was superseded.
type MetadataLogEntry struct {
	MetadataFile string `json:"metadata-file"`
	TimestampMs  int64  `json:"timestamp-ms"`
}
