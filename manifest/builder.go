package manifest

import (
	"bytes"
	"math"

	"github.com/rs/zerolog"

	"github.com/icebergd/coreberg/avro"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrEmptyManifest is returned when Summarize is asked to compute a
// manifest-list entry for zero manifest entries.
var ErrEmptyManifest = errors.MustNewCode("manifest.empty_manifest")

// Writer accumulates manifest entries for one manifest file and renders
// them to Avro OCF bytes plus the manifest-list entry that references
// it.
type Writer struct {
	FormatVersion   int
	PartitionSpecID int
	Logger          zerolog.Logger
	entries         []ManifestEntry
}

// NewWriter starts a manifest writer for the given format version and
// partition spec.
func NewWriter(formatVersion, partitionSpecID int) *Writer {
	return &Writer{FormatVersion: formatVersion, PartitionSpecID: partitionSpecID, Logger: zerolog.Nop()}
}

// Add appends one entry (added/existing/deleted) to the manifest.
func (w *Writer) Add(e ManifestEntry) { w.entries = append(w.entries, e) }

// Entries returns the accumulated entries.
func (w *Writer) Entries() []ManifestEntry { return w.entries }

// WriteTo renders the accumulated entries as an Avro OCF manifest file.
func (w *Writer) WriteTo(dst *bytes.Buffer) error {
	schema := avro.ManifestEntrySchema(w.FormatVersion)
	ocfWriter, err := avro.NewOCFWriter(dst, schema)
	if err != nil {
		return err
	}
	if err := ocfWriter.WriteHeader(); err != nil {
		return err
	}
	if len(w.entries) == 0 {
		return nil
	}
	payload := bytes.NewBuffer(nil)
	for _, e := range w.entries {
		payload.Write(EncodeManifestEntry(e, w.FormatVersion))
	}
	if err := ocfWriter.WriteBlock(len(w.entries), payload.Bytes()); err != nil {
		return err
	}
	w.Logger.Debug().
		Int("entries", len(w.entries)).
		Int("format_version", w.FormatVersion).
		Int("partition_spec_id", w.PartitionSpecID).
		Msg("wrote manifest file")
	return nil
}

// Summarize computes the manifest-list entry this manifest's entries
// would produce, given the already-rendered file's path and byte length:
// added/existing/deleted file and row sums, min/max sequence numbers,
// and partition bounds.
func (w *Writer) Summarize(manifestPath string, manifestLength int64, addedSnapshotID int64) (ManifestListEntry, error) {
	if len(w.entries) == 0 {
		return ManifestListEntry{}, errors.New(ErrEmptyManifest, "cannot summarize a manifest with no entries", nil)
	}

	var addedFiles, existingFiles, deletedFiles int
	var addedRows, existingRows, deletedRows int64
	var minSeq int64 = -1
	var maxSeq int64

	for _, e := range w.entries {
		switch e.Status {
		case StatusAdded:
			addedFiles++
			addedRows += e.DataFile.RecordCount
		case StatusExisting:
			existingFiles++
			existingRows += e.DataFile.RecordCount
		case StatusDeleted:
			deletedFiles++
			deletedRows += e.DataFile.RecordCount
		}
		if e.SequenceNumber != nil {
			if minSeq == -1 || *e.SequenceNumber < minSeq {
				minSeq = *e.SequenceNumber
			}
			if *e.SequenceNumber > maxSeq {
				maxSeq = *e.SequenceNumber
			}
		}
	}
	if minSeq == -1 {
		minSeq = 0
	}

	content := ContentData
	if w.entries[0].DataFile.Content != ContentData {
		content = w.entries[0].DataFile.Content
	}

	return ManifestListEntry{
		ManifestPath:       manifestPath,
		ManifestLength:     manifestLength,
		PartitionSpecID:    w.PartitionSpecID,
		Content:            content,
		SequenceNumber:     maxSeq,
		MinSequenceNumber:  minSeq,
		AddedSnapshotID:    addedSnapshotID,
		AddedFilesCount:    &addedFiles,
		ExistingFilesCount: &existingFiles,
		DeletedFilesCount:  &deletedFiles,
		AddedRowsCount:     &addedRows,
		ExistingRowsCount:  &existingRows,
		DeletedRowsCount:   &deletedRows,
		Partitions:         partitionSummaries(w.entries),
	}, nil
}

// partitionSummaries computes per-partition-column contains-null /
// contains-nan / lower-bound / upper-bound across every entry's
// partition tuple. Columns are ordered by field-id. NaN values are kept
// out of the bounds; contains-nan is set (to true) only when one is seen.
func partitionSummaries(entries []ManifestEntry) []PartitionFieldSummary {
	fieldIDs := map[int]bool{}
	for _, e := range entries {
		for id := range e.DataFile.Partition {
			fieldIDs[id] = true
		}
	}
	if len(fieldIDs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(fieldIDs))
	for id := range fieldIDs {
		ids = append(ids, id)
	}
	sortInts(ids)

	out := make([]PartitionFieldSummary, len(ids))
	for i, id := range ids {
		summary := PartitionFieldSummary{}
		var lower, upper []byte
		sawNaN := false
		for _, e := range entries {
			v, ok := e.DataFile.Partition[id]
			if !ok || v == nil {
				summary.ContainsNull = true
				continue
			}
			nan := false
			switch f := v.(type) {
			case float32:
				nan = math.IsNaN(float64(f))
			case float64:
				nan = math.IsNaN(f)
			}
			if nan {
				sawNaN = true
				continue
			}
			b, err := SerializeStatAny(v)
			if err != nil {
				continue
			}
			if lower == nil || bytes.Compare(b, lower) < 0 {
				lower = b
			}
			if upper == nil || bytes.Compare(b, upper) > 0 {
				upper = b
			}
		}
		summary.LowerBound = lower
		summary.UpperBound = upper
		if sawNaN {
			summary.ContainsNaN = &sawNaN
		}
		out[i] = summary
	}
	return out
}

func sortInts(ids []int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// ListWriter renders a snapshot's full set of manifest-list entries as
// an Avro OCF manifest-list file.
type ListWriter struct {
	FormatVersion int
	entries       []ManifestListEntry
}

// NewListWriter starts a manifest-list writer.
func NewListWriter(formatVersion int) *ListWriter {
	return &ListWriter{FormatVersion: formatVersion}
}

// Add appends one manifest reference.
func (w *ListWriter) Add(e ManifestListEntry) { w.entries = append(w.entries, e) }

// Entries returns the accumulated entries.
func (w *ListWriter) Entries() []ManifestListEntry { return w.entries }

// WriteTo renders the accumulated entries as an Avro OCF manifest-list
// file.
func (w *ListWriter) WriteTo(dst *bytes.Buffer) error {
	schema := avro.ManifestFileSchema(w.FormatVersion)
	ocfWriter, err := avro.NewOCFWriter(dst, schema)
	if err != nil {
		return err
	}
	if err := ocfWriter.WriteHeader(); err != nil {
		return err
	}
	if len(w.entries) == 0 {
		return nil
	}
	payload := bytes.NewBuffer(nil)
	for _, e := range w.entries {
		payload.Write(EncodeManifestListEntry(e, w.FormatVersion))
	}
	return ocfWriter.WriteBlock(len(w.entries), payload.Bytes())
}
