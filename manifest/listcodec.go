package manifest

import (
	"bytes"

	"github.com/icebergd/coreberg/avro"
)

// EncodeManifestListEntry writes one manifest_file record body.
func EncodeManifestListEntry(e ManifestListEntry, formatVersion int) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(avro.EncodeString(e.ManifestPath))
	buf.Write(avro.EncodeLong(e.ManifestLength))
	buf.Write(avro.EncodeInt(int32(e.PartitionSpecID)))
	buf.Write(avro.EncodeInt(int32(e.Content)))
	buf.Write(avro.EncodeLong(e.SequenceNumber))
	buf.Write(avro.EncodeLong(e.MinSequenceNumber))
	buf.Write(avro.EncodeLong(e.AddedSnapshotID))
	buf.Write(encodeOptionalInt(e.AddedFilesCount))
	buf.Write(encodeOptionalInt(e.ExistingFilesCount))
	buf.Write(encodeOptionalInt(e.DeletedFilesCount))
	buf.Write(encodeOptionalLong(e.AddedRowsCount))
	buf.Write(encodeOptionalLong(e.ExistingRowsCount))
	buf.Write(encodeOptionalLong(e.DeletedRowsCount))
	buf.Write(avro.EncodeUnionNull(e.Partitions != nil, func() []byte {
		return avro.EncodeArrayBlocks(e.Partitions, encodePartitionFieldSummary)
	}))
	buf.Write(encodeOptionalBytes(e.KeyMetadata))
	if formatVersion >= 3 {
		buf.Write(encodeOptionalLong(e.FirstRowID))
	}
	return buf.Bytes()
}

func encodePartitionFieldSummary(p PartitionFieldSummary) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(avro.EncodeBoolean(p.ContainsNull))
	buf.Write(encodeOptionalBool(p.ContainsNaN))
	buf.Write(encodeOptionalBytes(p.LowerBound))
	buf.Write(encodeOptionalBytes(p.UpperBound))
	return buf.Bytes()
}

// DecodeManifestListEntry parses one manifest_file record body.
func DecodeManifestListEntry(buf []byte, formatVersion int) (ManifestListEntry, int, error) {
	var e ManifestListEntry
	off := 0

	path, n, err := avro.DecodeString(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.ManifestPath = path
	off += n

	length, n, err := avro.DecodeLong(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.ManifestLength = length
	off += n

	specID, n, err := avro.DecodeInt(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.PartitionSpecID = int(specID)
	off += n

	content, n, err := avro.DecodeInt(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.Content = FileContent(content)
	off += n

	seq, n, err := avro.DecodeLong(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.SequenceNumber = seq
	off += n

	minSeq, n, err := avro.DecodeLong(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.MinSequenceNumber = minSeq
	off += n

	addedSnap, n, err := avro.DecodeLong(buf[off:])
	if err != nil {
		return e, 0, err
	}
	e.AddedSnapshotID = addedSnap
	off += n

	_, un, err := unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeInt(b)
		if err != nil {
			return 0, err
		}
		i := int(v)
		e.AddedFilesCount = &i
		return vn, nil
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeInt(b)
		if err != nil {
			return 0, err
		}
		i := int(v)
		e.ExistingFilesCount = &i
		return vn, nil
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeInt(b)
		if err != nil {
			return 0, err
		}
		i := int(v)
		e.DeletedFilesCount = &i
		return vn, nil
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	for _, target := range []**int64{&e.AddedRowsCount, &e.ExistingRowsCount, &e.DeletedRowsCount} {
		_, un, err := unionReader(buf[off:], func(b []byte) (int, error) {
			v, vn, err := avro.DecodeLong(b)
			if err != nil {
				return 0, err
			}
			*target = &v
			return vn, nil
		})
		if err != nil {
			return e, 0, err
		}
		off += un
	}

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		_, an, err := avro.DecodeBlocks(b, func(ib []byte) (int, error) {
			p, pn, err := decodePartitionFieldSummary(ib)
			if err != nil {
				return 0, err
			}
			e.Partitions = append(e.Partitions, p)
			return pn, nil
		})
		return an, err
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeBytes(b)
		if err != nil {
			return 0, err
		}
		e.KeyMetadata = v
		return vn, nil
	})
	if err != nil {
		return e, 0, err
	}
	off += un

	if formatVersion >= 3 {
		_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
			v, vn, err := avro.DecodeLong(b)
			if err != nil {
				return 0, err
			}
			e.FirstRowID = &v
			return vn, nil
		})
		if err != nil {
			return e, 0, err
		}
		off += un
	}

	return e, off, nil
}

func decodePartitionFieldSummary(buf []byte) (PartitionFieldSummary, int, error) {
	var p PartitionFieldSummary
	off := 0
	containsNull, n, err := avro.DecodeBoolean(buf[off:])
	if err != nil {
		return p, 0, err
	}
	p.ContainsNull = containsNull
	off += n

	_, un, err := unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeBoolean(b)
		if err != nil {
			return 0, err
		}
		p.ContainsNaN = &v
		return vn, nil
	})
	if err != nil {
		return p, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeBytes(b)
		if err != nil {
			return 0, err
		}
		p.LowerBound = v
		return vn, nil
	})
	if err != nil {
		return p, 0, err
	}
	off += un

	_, un, err = unionReader(buf[off:], func(b []byte) (int, error) {
		v, vn, err := avro.DecodeBytes(b)
		if err != nil {
			return 0, err
		}
		p.UpperBound = v
		return vn, nil
	})
	if err != nil {
		return p, 0, err
	}
	off += un

	return p, off, nil
}
