package manifest

import (
	"bytes"
	"sort"

	"github.com/icebergd/coreberg/avro"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrDecodeManifest is returned when a manifest entry or manifest-list
// entry's binary encoding doesn't match the expected field layout.
var ErrDecodeManifest = errors.MustNewCode("manifest.decode_failed")

// The manifest Avro record layout is fixed field order, not schema-driven
// reflection: Iceberg manifest readers depend on a specific field
// sequence per format version, so the encoder/decoder walk
// that exact sequence directly against the avro package's primitives.

func encodeIntLongPairs(m map[int]int64) []byte {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	type pair struct {
		Key   int
		Value int64
	}
	pairs := make([]pair, len(keys))
	for i, k := range keys {
		pairs[i] = pair{Key: k, Value: m[k]}
	}
	return avro.EncodeArrayBlocks(pairs, func(p pair) []byte {
		return append(avro.EncodeInt(int32(p.Key)), avro.EncodeLong(p.Value)...)
	})
}

func decodeIntLongPairs(buf []byte) (map[int]int64, int, error) {
	out := map[int]int64{}
	_, n, err := avro.DecodeBlocks(buf, func(b []byte) (int, error) {
		k, kn, err := avro.DecodeInt(b)
		if err != nil {
			return 0, err
		}
		v, vn, err := avro.DecodeLong(b[kn:])
		if err != nil {
			return 0, err
		}
		out[int(k)] = v
		return kn + vn, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, n, nil
}

func encodeIntBytesPairs(m map[int][]byte) []byte {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	type pair struct {
		Key   int
		Value []byte
	}
	pairs := make([]pair, len(keys))
	for i, k := range keys {
		pairs[i] = pair{Key: k, Value: m[k]}
	}
	return avro.EncodeArrayBlocks(pairs, func(p pair) []byte {
		return append(avro.EncodeInt(int32(p.Key)), avro.EncodeBytes(p.Value)...)
	})
}

func decodeIntBytesPairs(buf []byte) (map[int][]byte, int, error) {
	out := map[int][]byte{}
	_, n, err := avro.DecodeBlocks(buf, func(b []byte) (int, error) {
		k, kn, err := avro.DecodeInt(b)
		if err != nil {
			return 0, err
		}
		v, vn, err := avro.DecodeBytes(b[kn:])
		if err != nil {
			return 0, err
		}
		out[int(k)] = v
		return kn + vn, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, n, nil
}

func encodeOptionalMapLong(present bool, m map[int]int64) []byte {
	return avro.EncodeUnionNull(present, func() []byte { return encodeIntLongPairs(m) })
}

func encodeOptionalMapBytes(present bool, m map[int][]byte) []byte {
	return avro.EncodeUnionNull(present, func() []byte { return encodeIntBytesPairs(m) })
}

func encodeOptionalLong(v *int64) []byte {
	return avro.EncodeUnionNull(v != nil, func() []byte {
		return avro.EncodeLong(*v)
	})
}

func encodeOptionalInt(v *int) []byte {
	return avro.EncodeUnionNull(v != nil, func() []byte {
		return avro.EncodeInt(int32(*v))
	})
}

func encodeOptionalString(v *string) []byte {
	return avro.EncodeUnionNull(v != nil, func() []byte {
		return avro.EncodeString(*v)
	})
}

func encodeOptionalBytes(v []byte) []byte {
	return avro.EncodeUnionNull(v != nil, func() []byte {
		return avro.EncodeBytes(v)
	})
}

func encodeOptionalBool(v *bool) []byte {
	return avro.EncodeUnionNull(v != nil, func() []byte {
		val := false
		if v != nil {
			val = *v
		}
		return avro.EncodeBoolean(val)
	})
}

// unionReader decodes a nullable-union prefix (branch 0 = null, 1 =
// present) and runs decodeValue only when present.
func unionReader(buf []byte, decodeValue func([]byte) (int, error)) (present bool, n int, err error) {
	branch, bn, err := avro.DecodeUnionBranch(buf, 2)
	if err != nil {
		return false, 0, err
	}
	if branch == 0 {
		return false, bn, nil
	}
	vn, err := decodeValue(buf[bn:])
	if err != nil {
		return false, 0, err
	}
	return true, bn + vn, nil
}

// EncodeDataFile writes one data_file record body (no surrounding
// union/array framing) in manifest-entry field order.
func EncodeDataFile(f DataFile, formatVersion int) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(avro.EncodeInt(int32(f.Content)))
	buf.Write(avro.EncodeString(f.FilePath))
	buf.Write(avro.EncodeString(f.FileFormat))
	buf.Write(encodePartition(f.Partition))
	buf.Write(avro.EncodeLong(f.RecordCount))
	buf.Write(avro.EncodeLong(f.FileSizeInBytes))
	buf.Write(encodeOptionalMapLong(f.ColumnSizes != nil, f.ColumnSizes))
	buf.Write(encodeOptionalMapLong(f.ValueCounts != nil, f.ValueCounts))
	buf.Write(encodeOptionalMapLong(f.NullValueCounts != nil, f.NullValueCounts))
	buf.Write(encodeOptionalMapLong(f.NanValueCounts != nil, f.NanValueCounts))
	buf.Write(encodeOptionalMapBytes(f.LowerBounds != nil, f.LowerBounds))
	buf.Write(encodeOptionalMapBytes(f.UpperBounds != nil, f.UpperBounds))
	buf.Write(encodeOptionalBytes(f.KeyMetadata))
	buf.Write(avro.EncodeUnionNull(f.SplitOffsets != nil, func() []byte {
		return avro.EncodeArrayBlocks(f.SplitOffsets, avro.EncodeLong)
	}))
	buf.Write(avro.EncodeUnionNull(f.EqualityIDs != nil, func() []byte {
		return avro.EncodeArrayBlocks(f.EqualityIDs, func(v int) []byte { return avro.EncodeInt(int32(v)) })
	}))
	buf.Write(encodeOptionalInt(f.SortOrderID))
	if formatVersion >= 3 {
		buf.Write(encodeOptionalLong(f.FirstRowID))
		buf.Write(encodeOptionalString(f.ReferencedDataFile))
		buf.Write(encodeOptionalLong(f.ContentOffset))
		buf.Write(encodeOptionalLong(f.ContentSizeInBytes))
	}
	return buf.Bytes()
}

// encodePartition encodes the partition tuple as an ordered array of
// field-id-tagged values; the partition struct's shape is determined by
// the table's partition spec, so values are carried pre-serialized the
// way the manifest layer serializes all stats (see stats.go).
func encodePartition(p map[int]any) []byte {
	keys := make([]int, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	type pair struct {
		Key   int
		Value []byte
	}
	pairs := make([]pair, len(keys))
	for i, k := range keys {
		b, _ := SerializeStatAny(p[k])
		pairs[i] = pair{Key: k, Value: b}
	}
	return avro.EncodeArrayBlocks(pairs, func(pr pair) []byte {
		return append(avro.EncodeInt(int32(pr.Key)), avro.EncodeBytes(pr.Value)...)
	})
}

// DecodeDataFile parses a data_file record body starting at buf[0],
// returning the number of bytes consumed.
func DecodeDataFile(buf []byte, formatVersion int) (DataFile, int, error) {
	var f DataFile
	off := 0

	content, n, err := avro.DecodeInt(buf[off:])
	if err != nil {
		return f, 0, err
	}
	f.Content = FileContent(content)
	off += n

	path, n, err := avro.DecodeString(buf[off:])
	if err != nil {
		return f, 0, err
	}
	f.FilePath = path
	off += n

	format, n, err := avro.DecodeString(buf[off:])
	if err != nil {
		return f, 0, err
	}
	f.FileFormat = format
	off += n

	partition, n, err := decodeIntBytesPairsRaw(buf[off:])
	if err != nil {
		return f, 0, err
	}
	f.Partition = make(map[int]any, len(partition))
	for k, v := range partition {
		f.Partition[k] = v
	}
	off += n

	recCount, n, err := avro.DecodeLong(buf[off:])
	if err != nil {
		return f, 0, err
	}
	f.RecordCount = recCount
	off += n

	size, n, err := avro.DecodeLong(buf[off:])
	if err != nil {
		return f, 0, err
	}
	f.FileSizeInBytes = size
	off += n

	for _, target := range []*map[int]int64{&f.ColumnSizes, &f.ValueCounts, &f.NullValueCounts, &f.NanValueCounts} {
		present, un, err := unionReader(buf[off:], func(b []byte) (int, error) {
			m, mn, err := decodeIntLongPairs(b)
			if err != nil {
				return 0, err
			}
			*target = m
			return mn, nil
		})
		if err != nil {
			return f, 0, err
		}
		_ = present
		off += un
	}

	for _, target := range []*map[int][]byte{&f.LowerBounds, &f.UpperBounds} {
		_, un, err := unionReader(buf[off:], func(b []byte) (int, error) {
			m, mn, err := decodeIntBytesPairs(b)
			if err != nil {
				return 0, err
			}
			*target = m
			return mn, nil
		})
		if err != nil {
			return f, 0, err
		}
		off += un
	}

	_, un, err := unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeBytes(b)
		if err != nil {
			return 0, err
		}
		f.KeyMetadata = v
		return vn, nil
	})
	if err != nil {
		return f, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		_, an, err := avro.DecodeBlocks(b, func(ib []byte) (int, error) {
			v, vn, err := avro.DecodeLong(ib)
			if err != nil {
				return 0, err
			}
			f.SplitOffsets = append(f.SplitOffsets, v)
			return vn, nil
		})
		return an, err
	})
	if err != nil {
		return f, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		_, an, err := avro.DecodeBlocks(b, func(ib []byte) (int, error) {
			v, vn, err := avro.DecodeInt(ib)
			if err != nil {
				return 0, err
			}
			f.EqualityIDs = append(f.EqualityIDs, int(v))
			return vn, nil
		})
		return an, err
	})
	if err != nil {
		return f, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeInt(b)
		if err != nil {
			return 0, err
		}
		sid := int(v)
		f.SortOrderID = &sid
		return vn, nil
	})
	if err != nil {
		return f, 0, err
	}
	off += un

	if formatVersion >= 3 {
		_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
			v, vn, err := avro.DecodeLong(b)
			if err != nil {
				return 0, err
			}
			f.FirstRowID = &v
			return vn, nil
		})
		if err != nil {
			return f, 0, err
		}
		off += un

		_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
			v, vn, err := avro.DecodeString(b)
			if err != nil {
				return 0, err
			}
			f.ReferencedDataFile = &v
			return vn, nil
		})
		if err != nil {
			return f, 0, err
		}
		off += un

		_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
			v, vn, err := avro.DecodeLong(b)
			if err != nil {
				return 0, err
			}
			f.ContentOffset = &v
			return vn, nil
		})
		if err != nil {
			return f, 0, err
		}
		off += un

		_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
			v, vn, err := avro.DecodeLong(b)
			if err != nil {
				return 0, err
			}
			f.ContentSizeInBytes = &v
			return vn, nil
		})
		if err != nil {
			return f, 0, err
		}
		off += un
	}

	return f, off, nil
}

func decodeIntBytesPairsRaw(buf []byte) (map[int][]byte, int, error) {
	return decodeIntBytesPairs(buf)
}

// EncodeManifestEntry writes one manifest_entry record body.
func EncodeManifestEntry(e ManifestEntry, formatVersion int) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(avro.EncodeInt(int32(e.Status)))
	buf.Write(encodeOptionalLong(e.SnapshotID))
	buf.Write(encodeOptionalLong(e.SequenceNumber))
	buf.Write(encodeOptionalLong(e.FileSequenceNumber))
	buf.Write(EncodeDataFile(e.DataFile, formatVersion))
	return buf.Bytes()
}

// DecodeManifestEntry parses one manifest_entry record body.
func DecodeManifestEntry(buf []byte, formatVersion int) (ManifestEntry, int, error) {
	var e ManifestEntry
	off := 0

	status, n, err := avro.DecodeInt(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.Status = EntryStatus(status)
	off += n

	_, un, err := unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeLong(b)
		if err != nil {
			return 0, err
		}
		e.SnapshotID = &v
		return vn, nil
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeLong(b)
		if err != nil {
			return 0, err
		}
		e.SequenceNumber = &v
		return vn, nil
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeLong(b)
		if err != nil {
			return 0, err
		}
		e.FileSequenceNumber = &v
		return vn, nil
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	df, n, err := DecodeDataFile(buf[off:], formatVersion)
	if err != nil {
		return e, 0, err
	}
	e.DataFile = df
	off += n

	return e, off, nil
}
