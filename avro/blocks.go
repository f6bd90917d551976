package avro

import "github.com/icebergd/coreberg/pkg/errors"

// ErrBlockCount is returned when a block's item count cannot be
// interpreted (e.g. the skippable byte-size long is itself truncated).
var ErrBlockCount = errors.MustNewCode("avro.block_count_invalid")

// EncodeBlocks frames n items into a single positive-count block
// followed by the zero-count terminator. Iceberg writers never emit
// multi-block or negative-count arrays/maps, only single blocks.
func EncodeBlocks(n int, encodeItem func(i int) []byte) []byte {
	if n == 0 {
		return EncodeLong(0)
	}
	out := EncodeLong(int64(n))
	for i := 0; i < n; i++ {
		out = append(out, encodeItem(i)...)
	}
	out = append(out, EncodeLong(0)...)
	return out
}

// DecodeBlocks decodes a sequence of blocks terminated by a zero-count
// block, calling decodeItem once per item in buffer order. Per the
// Avro spec, a negative block count is followed by a long byte-size
// that readers may use to skip the block without
// decoding each item; this implementation always decodes items and
// only checks that the byte-size long parses, without comparing it to
// the bytes the items actually consumed.
func DecodeBlocks(buf []byte, decodeItem func(buf []byte) (int, error)) (int, int, error) {
	offset := 0
	count := 0
	for {
		blockCount, n, err := DecodeLong(buf[offset:])
		if err != nil {
			return 0, 0, err
		}
		offset += n

		if blockCount == 0 {
			return count, offset, nil
		}

		itemCount := blockCount
		if itemCount < 0 {
			itemCount = -itemCount
			// Skippable block: a long byte-size follows. We don't use it
			// to skip (we still want the items), but it must parse.
			_, sn, err := DecodeLong(buf[offset:])
			if err != nil {
				return 0, 0, errors.New(ErrBlockCount, "truncated block byte-size", err)
			}
			offset += sn
		}

		for i := int64(0); i < itemCount; i++ {
			if offset > len(buf) {
				return 0, 0, errors.New(ErrBufferTooShort, "truncated block item", nil)
			}
			consumed, err := decodeItem(buf[offset:])
			if err != nil {
				return 0, 0, err
			}
			offset += consumed
			count++
		}
	}
}

// EncodeArrayBlocks is EncodeBlocks specialised for array values (kept
// as a distinct name for readability at call sites).
func EncodeArrayBlocks[T any](items []T, encodeItem func(T) []byte) []byte {
	return EncodeBlocks(len(items), func(i int) []byte {
		return encodeItem(items[i])
	})
}

// MapEntry is one key/value pair of an Avro map, used by EncodeMapBlocks.
type MapEntry[V any] struct {
	Key   string
	Value V
}

// EncodeMapBlocks frames a map's entries the same way EncodeBlocks frames
// array items, except each "item" is a (string key, value) pair.
func EncodeMapBlocks[V any](entries []MapEntry[V], encodeValue func(V) []byte) []byte {
	return EncodeBlocks(len(entries), func(i int) []byte {
		out := EncodeString(entries[i].Key)
		out = append(out, encodeValue(entries[i].Value)...)
		return out
	})
}
