package avro

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/icebergd/coreberg/pkg/errors"
)

var (
	// ErrBadMagic is returned when a file does not start with the Avro OCF magic bytes.
	ErrBadMagic = errors.MustNewCode("avro.bad_magic")
	// ErrSyncMismatch is returned when a data block's trailing sync marker
	// doesn't match the header's sync marker.
	ErrSyncMismatch = errors.MustNewCode("avro.sync_mismatch")
)

var ocfMagic = []byte{'O', 'b', 'j', 0x01}

const syncMarkerSize = 16

// HeaderKeySchema and HeaderKeyCodec are the two OCF header metadata
// keys Iceberg writers populate.
const (
	HeaderKeySchema = "avro.schema"
	HeaderKeyCodec  = "avro.codec"
	CodecNull       = "null"
)

// OCFWriter writes an Avro Object Container File: magic, header, sync
// marker, then one data block per Flush call.
type OCFWriter struct {
	w      io.Writer
	sync   [syncMarkerSize]byte
	header map[string][]byte
	wrote  bool
}

// NewOCFWriter creates a writer with the given schema JSON and no
// compression (Iceberg manifests are always written uncompressed in
// this implementation, matching codec "null").
func NewOCFWriter(w io.Writer, schemaJSON string) (*OCFWriter, error) {
	var sync [syncMarkerSize]byte
	if _, err := rand.Read(sync[:]); err != nil {
		return nil, errors.New(errors.CommonInternal, "failed to generate sync marker", err)
	}
	return &OCFWriter{
		w:    w,
		sync: sync,
		header: map[string][]byte{
			HeaderKeySchema: []byte(schemaJSON),
			HeaderKeyCodec:  []byte(CodecNull),
		},
	}, nil
}

// WriteHeader emits the magic bytes, header map, and sync marker. It
// must be called exactly once before any WriteBlock call.
func (w *OCFWriter) WriteHeader() error {
	if w.wrote {
		return errors.New(errors.CommonInternal, "OCF header already written", nil)
	}
	w.wrote = true

	buf := bytes.NewBuffer(nil)
	buf.Write(ocfMagic)

	// Header map is string->bytes, block-framed like any Avro map.
	keys := []string{HeaderKeySchema, HeaderKeyCodec}
	entries := make([]MapEntry[[]byte], 0, len(keys))
	for _, k := range keys {
		entries = append(entries, MapEntry[[]byte]{Key: k, Value: w.header[k]})
	}
	buf.Write(EncodeMapBlocks(entries, func(v []byte) []byte { return EncodeBytes(v) }))

	buf.Write(w.sync[:])

	_, err := w.w.Write(buf.Bytes())
	if err != nil {
		return errors.New(errors.CommonInternal, "failed to write OCF header", err)
	}
	return nil
}

// WriteBlock writes one data block containing objectCount pre-encoded
// objects concatenated in objectBytes.
func (w *OCFWriter) WriteBlock(objectCount int, objectBytes []byte) error {
	if !w.wrote {
		if err := w.WriteHeader(); err != nil {
			return err
		}
	}
	buf := bytes.NewBuffer(nil)
	buf.Write(EncodeLong(int64(objectCount)))
	buf.Write(EncodeLong(int64(len(objectBytes))))
	buf.Write(objectBytes)
	buf.Write(w.sync[:])

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return errors.New(errors.CommonInternal, "failed to write OCF data block", err)
	}
	return nil
}

// Sync returns the 16-byte sync marker selected for this file.
func (w *OCFWriter) Sync() [syncMarkerSize]byte { return w.sync }

// OCFRecord is one decoded object from a data block, as raw bytes; the
// caller decodes it with the Avro record's own decoder.
type OCFRecord struct {
	Bytes []byte
}

// OCFFile is a fully-parsed Object Container File.
type OCFFile struct {
	SchemaJSON string
	Codec      string
	Sync       [syncMarkerSize]byte
	// Blocks holds each data block's raw payload (post byte-size,
	// pre-sync); the caller decodes objectCount records from each using
	// its record schema's decoder since object boundaries aren't
	// self-describing at this layer.
	Blocks []OCFBlock
}

// OCFBlock is one raw data block.
type OCFBlock struct {
	ObjectCount int64
	Payload     []byte
}

// ReadOCF parses an entire Object Container File from data.
func ReadOCF(data []byte) (*OCFFile, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], ocfMagic) {
		return nil, errors.New(ErrBadMagic, "missing Avro OCF magic bytes", nil)
	}
	offset := 4

	header := make(map[string][]byte)
	_, n, err := DecodeBlocks(data[offset:], func(buf []byte) (int, error) {
		key, kn, err := DecodeString(buf)
		if err != nil {
			return 0, err
		}
		val, vn, err := DecodeBytes(buf[kn:])
		if err != nil {
			return 0, err
		}
		header[key] = val
		return kn + vn, nil
	})
	if err != nil {
		return nil, errors.New(errors.CommonInternal, "failed to decode OCF header map", err)
	}
	offset += n

	if offset+syncMarkerSize > len(data) {
		return nil, errors.New(ErrBufferTooShort, "truncated OCF header sync marker", nil)
	}
	var sync [syncMarkerSize]byte
	copy(sync[:], data[offset:offset+syncMarkerSize])
	offset += syncMarkerSize

	file := &OCFFile{
		SchemaJSON: string(header[HeaderKeySchema]),
		Codec:      string(header[HeaderKeyCodec]),
		Sync:       sync,
	}

	for offset < len(data) {
		objectCount, n1, err := DecodeLong(data[offset:])
		if err != nil {
			return nil, errors.New(errors.CommonInternal, "failed to decode block object count", err)
		}
		offset += n1

		byteSize, n2, err := DecodeLong(data[offset:])
		if err != nil {
			return nil, errors.New(errors.CommonInternal, "failed to decode block byte size", err)
		}
		offset += n2

		if byteSize < 0 || offset+int(byteSize) > len(data) {
			return nil, errors.Newf(errors.CommonInternal, "block byte size %d exceeds remaining data", byteSize)
		}
		payload := data[offset : offset+int(byteSize)]
		offset += int(byteSize)

		if offset+syncMarkerSize > len(data) {
			return nil, errors.New(ErrBufferTooShort, "truncated data block sync marker", nil)
		}
		var blockSync [syncMarkerSize]byte
		copy(blockSync[:], data[offset:offset+syncMarkerSize])
		offset += syncMarkerSize

		if !bytes.Equal(blockSync[:], sync[:]) {
			return nil, errors.New(ErrSyncMismatch, "data block sync marker does not match header", nil)
		}

		file.Blocks = append(file.Blocks, OCFBlock{ObjectCount: objectCount, Payload: payload})
	}

	return file, nil
}
