// Package manifest generates and reads Iceberg manifest files and
// manifest-list entries: the Avro-encoded layer between table metadata
// and the underlying data files.
package manifest

// EntryStatus is a manifest entry's lifecycle tag.
type EntryStatus int

const (
	StatusExisting EntryStatus = 0
	StatusAdded    EntryStatus = 1
	StatusDeleted  EntryStatus = 2
)

// FileContent distinguishes a data file from a deletion file.
type FileContent int

const (
	ContentData            FileContent = 0
	ContentPositionDeletes FileContent = 1
	ContentEqualityDeletes FileContent = 2
)

// DataFile mirrors the Iceberg "data_file" record. Maps are keyed by
// schema field-id.
type DataFile struct {
	Content         FileContent
	FilePath        string
	FileFormat      string
	Partition       map[int]any
	RecordCount     int64
	FileSizeInBytes int64
	ColumnSizes     map[int]int64
	ValueCounts     map[int]int64
	NullValueCounts map[int]int64
	NanValueCounts  map[int]int64
	LowerBounds     map[int][]byte
	UpperBounds     map[int][]byte
	KeyMetadata     []byte
	SplitOffsets    []int64
	EqualityIDs     []int
	SortOrderID     *int

	// v3 fields. FirstRowID/ReferencedDataFile/ContentOffset/
	// ContentSizeInBytes apply to deletion-vector data files.
	FirstRowID          *int64
	ReferencedDataFile  *string
	ContentOffset       *int64
	ContentSizeInBytes  *int64
}

// ManifestEntry is one row of a manifest file.
type ManifestEntry struct {
	Status             EntryStatus
	SnapshotID         *int64
	SequenceNumber     *int64
	FileSequenceNumber *int64
	DataFile           DataFile
}

// PartitionFieldSummary is the per-partition-column bounds summary
// carried in a manifest-list entry.
type PartitionFieldSummary struct {
	ContainsNull bool
	ContainsNaN  *bool
	LowerBound   []byte
	UpperBound   []byte
}

// ManifestListEntry references one manifest file from a snapshot's
// manifest list.
type ManifestListEntry struct {
	ManifestPath      string
	ManifestLength    int64
	PartitionSpecID   int
	Content           FileContent
	SequenceNumber    int64
	MinSequenceNumber int64
	AddedSnapshotID   int64
	AddedFilesCount   *int
	ExistingFilesCount *int
	DeletedFilesCount *int
	AddedRowsCount    *int64
	ExistingRowsCount *int64
	DeletedRowsCount  *int64
	Partitions        []PartitionFieldSummary
	KeyMetadata       []byte

	// v3
	FirstRowID *int64
}
