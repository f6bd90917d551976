// Package avro implements the subset of the Apache Avro 1.11 binary
// encoding that Iceberg manifests and manifest lists rely on: zig-zag
// varints, block-framed arrays/maps, and the Object Container File
// wrapper. It intentionally does not implement Avro schema resolution,
// JSON encoding, or RPC framing; those are out of the core's scope.
package avro

import (
	"encoding/binary"
	"math"

	"github.com/icebergd/coreberg/pkg/errors"
)

var (
	// ErrVarintTooLong is returned when a varint does not terminate
	// within the maximum number of bytes for its width.
	ErrVarintTooLong = errors.MustNewCode("avro.varint_too_long")
	// ErrBufferTooShort is returned when a decode reads past the end
	// of the supplied buffer.
	ErrBufferTooShort = errors.MustNewCode("avro.buffer_too_short")
	// ErrUnionBranch is returned when a union branch index is out of range.
	ErrUnionBranch = errors.MustNewCode("avro.union_branch_out_of_range")
	// ErrFixedSize is returned when a fixed value's length doesn't match
	// its declared size.
	ErrFixedSize = errors.MustNewCode("avro.fixed_size_mismatch")
)

const (
	maxIntVarintBytes  = 5  // ceil(32/7)
	maxLongVarintBytes = 10 // ceil(64/7)
)

// ZigZagEncode32 maps a signed 32-bit int to an unsigned 32-bit int
// so that small-magnitude values varint-encode to few bytes.
func ZigZagEncode32(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// ZigZagDecode32 inverts ZigZagEncode32.
func ZigZagDecode32(n uint32) int32 {
	return int32(n>>1) ^ -int32(n&1)
}

// ZigZagEncode64 maps a signed 64-bit int to an unsigned 64-bit int.
func ZigZagEncode64(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// ZigZagDecode64 inverts ZigZagEncode64.
func ZigZagDecode64(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

// EncodeInt encodes an Avro "int" (32-bit) as a zig-zag varint.
func EncodeInt(n int32) []byte {
	return putUvarint(uint64(ZigZagEncode32(n)))
}

// DecodeInt decodes an Avro "int" from buf, returning the value and the
// number of bytes consumed.
func DecodeInt(buf []byte) (int32, int, error) {
	u, n, err := getUvarint(buf, maxIntVarintBytes)
	if err != nil {
		return 0, 0, err
	}
	return ZigZagDecode32(uint32(u)), n, nil
}

// EncodeLong encodes an Avro "long" (64-bit) as a zig-zag varint.
func EncodeLong(n int64) []byte {
	return putUvarint(ZigZagEncode64(n))
}

// DecodeLong decodes an Avro "long" from buf, returning the value and
// the number of bytes consumed.
func DecodeLong(buf []byte) (int64, int, error) {
	u, n, err := getUvarint(buf, maxLongVarintBytes)
	if err != nil {
		return 0, 0, err
	}
	return ZigZagDecode64(u), n, nil
}

// EncodeBoolean encodes an Avro "boolean" as a single byte.
func EncodeBoolean(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeBoolean decodes an Avro "boolean".
func DecodeBoolean(buf []byte) (bool, int, error) {
	if len(buf) < 1 {
		return false, 0, errors.New(ErrBufferTooShort, "truncated boolean", nil)
	}
	return buf[0] != 0, 1, nil
}

// EncodeFloat encodes an Avro "float" (IEEE-754 single, little-endian).
func EncodeFloat(f float32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
	return buf
}

// DecodeFloat decodes an Avro "float".
func DecodeFloat(buf []byte) (float32, int, error) {
	if len(buf) < 4 {
		return 0, 0, errors.New(ErrBufferTooShort, "truncated float", nil)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf)), 4, nil
}

// EncodeDouble encodes an Avro "double" (IEEE-754 double, little-endian).
func EncodeDouble(f float64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
	return buf
}

// DecodeDouble decodes an Avro "double".
func DecodeDouble(buf []byte) (float64, int, error) {
	if len(buf) < 8 {
		return 0, 0, errors.New(ErrBufferTooShort, "truncated double", nil)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), 8, nil
}

// EncodeBytes encodes an Avro "bytes" value: a long length followed by
// the raw payload.
func EncodeBytes(b []byte) []byte {
	out := EncodeLong(int64(len(b)))
	return append(out, b...)
}

// DecodeBytes decodes an Avro "bytes" value.
func DecodeBytes(buf []byte) ([]byte, int, error) {
	n, consumed, err := DecodeLong(buf)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		return nil, 0, errors.Newf(ErrBufferTooShort, "negative bytes length %d", n)
	}
	end := consumed + int(n)
	if end > len(buf) || end < consumed {
		return nil, 0, errors.Newf(ErrBufferTooShort, "bytes length %d exceeds remaining buffer", n)
	}
	return buf[consumed:end], end, nil
}

// EncodeString encodes an Avro "string" value: a long length followed
// by the UTF-8 payload.
func EncodeString(s string) []byte {
	return EncodeBytes([]byte(s))
}

// DecodeString decodes an Avro "string" value.
func DecodeString(buf []byte) (string, int, error) {
	b, n, err := DecodeBytes(buf)
	if err != nil {
		return "", 0, err
	}
	return string(b), n, nil
}

// EncodeFixed encodes an Avro "fixed" value. It fails if value's length
// does not match size exactly.
func EncodeFixed(value []byte, size int) ([]byte, error) {
	if len(value) != size {
		return nil, errors.Newf(ErrFixedSize, "fixed value has length %d, want %d", len(value), size)
	}
	out := make([]byte, size)
	copy(out, value)
	return out, nil
}

// DecodeFixed decodes an Avro "fixed" value of the given size.
func DecodeFixed(buf []byte, size int) ([]byte, int, error) {
	if len(buf) < size {
		return nil, 0, errors.Newf(ErrBufferTooShort, "truncated fixed(%d)", size)
	}
	out := make([]byte, size)
	copy(out, buf[:size])
	return out, size, nil
}

// EncodeEnum encodes an Avro "enum" as its ordinal index.
func EncodeEnum(ordinal int32) []byte {
	return EncodeInt(ordinal)
}

// DecodeEnum decodes an Avro "enum" ordinal index.
func DecodeEnum(buf []byte) (int32, int, error) {
	return DecodeInt(buf)
}

// EncodeUnionNull encodes a nullable-union value: branch 0 is null,
// branch 1 wraps encodeValue's output. This matches Iceberg's
// convention of declaring optional fields as ["null", T].
func EncodeUnionNull(present bool, encodeValue func() []byte) []byte {
	if !present {
		return EncodeLong(0)
	}
	out := EncodeLong(1)
	return append(out, encodeValue()...)
}

// DecodeUnionBranch decodes the long branch index of a union and
// validates it against branchCount.
func DecodeUnionBranch(buf []byte, branchCount int) (int64, int, error) {
	idx, n, err := DecodeLong(buf)
	if err != nil {
		return 0, 0, err
	}
	if idx < 0 || int(idx) >= branchCount {
		return 0, 0, errors.Newf(ErrUnionBranch, "union branch %d out of range [0,%d)", idx, branchCount)
	}
	return idx, n, nil
}

func putUvarint(u uint64) []byte {
	buf := make([]byte, 0, maxLongVarintBytes)
	for u >= 0x80 {
		buf = append(buf, byte(u)|0x80)
		u >>= 7
	}
	buf = append(buf, byte(u))
	return buf
}

func getUvarint(buf []byte, maxBytes int) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		if i >= len(buf) {
			return 0, 0, errors.New(ErrBufferTooShort, "truncated varint", nil)
		}
		b := buf[i]
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.Newf(ErrVarintTooLong, "varint did not terminate within %d bytes", maxBytes)
}
