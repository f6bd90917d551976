package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// An array of 3 longs [1,2,3] is 5 bytes total.
func TestEncodeBlocks_ArrayOfThreeLongs(t *testing.T) {
	buf := EncodeArrayBlocks([]int64{1, 2, 3}, EncodeLong)
	assert.Equal(t, []byte{0x06, 0x02, 0x04, 0x06, 0x00}, buf)

	var got []int64
	count, n, err := DecodeBlocks(buf, func(b []byte) (int, error) {
		v, consumed, err := DecodeLong(b)
		if err != nil {
			return 0, err
		}
		got = append(got, v)
		return consumed, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestEncodeBlocks_EmptyArray(t *testing.T) {
	buf := EncodeArrayBlocks([]int64{}, EncodeLong)
	assert.Equal(t, []byte{0x00}, buf)

	count, _, err := DecodeBlocks(buf, func(b []byte) (int, error) {
		t.Fatal("decodeItem should not be called for an empty array")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// Array split across multiple blocks must decode identically to one block.
func TestDecodeBlocks_MultiBlockMatchesSingleBlock(t *testing.T) {
	single := EncodeArrayBlocks([]int64{1, 2, 3, 4}, EncodeLong)

	// Hand-build a two-block encoding: [1,2] then [3,4] then terminator.
	var multi []byte
	multi = append(multi, EncodeLong(2)...)
	multi = append(multi, EncodeLong(1)...)
	multi = append(multi, EncodeLong(2)...)
	multi = append(multi, EncodeLong(2)...)
	multi = append(multi, EncodeLong(3)...)
	multi = append(multi, EncodeLong(4)...)
	multi = append(multi, EncodeLong(0)...)

	decode := func(buf []byte) []int64 {
		var got []int64
		_, _, err := DecodeBlocks(buf, func(b []byte) (int, error) {
			v, n, err := DecodeLong(b)
			if err != nil {
				return 0, err
			}
			got = append(got, v)
			return n, nil
		})
		require.NoError(t, err)
		return got
	}

	assert.Equal(t, decode(single), decode(multi))
}

// Negative block counts (skippable form) must be accepted on decode.
func TestDecodeBlocks_NegativeCountSkippableForm(t *testing.T) {
	itemsBytes := append(EncodeLong(10), EncodeLong(20)...)
	var buf []byte
	buf = append(buf, EncodeLong(-2)...)               // negative count => 2 items
	buf = append(buf, EncodeLong(int64(len(itemsBytes)))...) // byte size of the block
	buf = append(buf, itemsBytes...)
	buf = append(buf, EncodeLong(0)...) // terminator

	var got []int64
	count, _, err := DecodeBlocks(buf, func(b []byte) (int, error) {
		v, n, err := DecodeLong(b)
		if err != nil {
			return 0, err
		}
		got = append(got, v)
		return n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []int64{10, 20}, got)
}

func TestEncodeMapBlocks_RoundTrip(t *testing.T) {
	entries := []MapEntry[int64]{{Key: "a", Value: 1}, {Key: "b", Value: 2}}
	buf := EncodeMapBlocks(entries, EncodeLong)

	got := map[string]int64{}
	_, _, err := DecodeBlocks(buf, func(b []byte) (int, error) {
		k, kn, err := DecodeString(b)
		if err != nil {
			return 0, err
		}
		v, vn, err := DecodeLong(b[kn:])
		if err != nil {
			return 0, err
		}
		got[k] = v
		return kn + vn, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "b": 2}, got)
}
