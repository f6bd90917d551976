package avro

import (
	"testing"

	"github.com/icebergd/coreberg/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigZag32_RoundTrip(t *testing.T) {
	values := []int32{0, -1, 1, -2, 2, 2147483647, -2147483648, 300, -300}
	for _, v := range values {
		got := ZigZagDecode32(ZigZagEncode32(v))
		assert.Equal(t, v, got)
	}
}

func TestZigZag64_RoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, 1 << 40, -(1 << 40), 9223372036854775807, -9223372036854775808}
	for _, v := range values {
		got := ZigZagDecode64(ZigZagEncode64(v))
		assert.Equal(t, v, got)
	}
}

// encodeInt(300) -> zig-zag 600 -> varint bytes 0xD8 0x04.
func TestEncodeInt_300(t *testing.T) {
	buf := EncodeInt(300)
	assert.Equal(t, []byte{0xD8, 0x04}, buf)

	v, n, err := DecodeInt(buf)
	require.NoError(t, err)
	assert.Equal(t, int32(300), v)
	assert.Equal(t, 2, n)
}

func TestEncodeLong_RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 300, -300, 1 << 33}
	for _, v := range values {
		buf := EncodeLong(v)
		assert.LessOrEqual(t, len(buf), 10)
		got, n, err := DecodeLong(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestVarintBounds(t *testing.T) {
	// int32 values must fit in <=5 bytes
	for _, v := range []int32{0, 2147483647, -2147483648} {
		assert.LessOrEqual(t, len(EncodeInt(v)), 5)
	}
	// int64 values must fit in <=10 bytes
	for _, v := range []int64{0, 9223372036854775807, -9223372036854775808} {
		assert.LessOrEqual(t, len(EncodeLong(v)), 10)
	}
}

func TestDecodeLong_UnterminatedVarintFails(t *testing.T) {
	// All continuation bits set, never terminates within 10 bytes.
	buf := make([]byte, 10)
	for i := range buf {
		buf[i] = 0xFF
	}
	_, _, err := DecodeLong(buf)
	require.Error(t, err)
	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrVarintTooLong, code)
}

func TestBoolean_RoundTrip(t *testing.T) {
	b, n, err := DecodeBoolean(EncodeBoolean(true))
	require.NoError(t, err)
	assert.True(t, b)
	assert.Equal(t, 1, n)

	b, _, err = DecodeBoolean(EncodeBoolean(false))
	require.NoError(t, err)
	assert.False(t, b)
}

func TestFloatDouble_RoundTrip(t *testing.T) {
	f, _, err := DecodeFloat(EncodeFloat(3.14))
	require.NoError(t, err)
	assert.InDelta(t, float32(3.14), f, 0.0001)

	d, _, err := DecodeDouble(EncodeDouble(2.71828))
	require.NoError(t, err)
	assert.InDelta(t, 2.71828, d, 0.00001)
}

// An empty string is a single 0x00 length byte.
func TestEncodeString_Empty(t *testing.T) {
	buf := EncodeString("")
	assert.Equal(t, []byte{0x00}, buf)

	s, n, err := DecodeString(buf)
	require.NoError(t, err)
	assert.Equal(t, "", s)
	assert.Equal(t, 1, n)
}

func TestString_RoundTrip(t *testing.T) {
	s, _, err := DecodeString(EncodeString("hello iceberg"))
	require.NoError(t, err)
	assert.Equal(t, "hello iceberg", s)
}

func TestBytes_DeclaredLengthExceedsBuffer(t *testing.T) {
	// long length = 100, but no payload follows.
	buf := EncodeLong(100)
	_, _, err := DecodeBytes(buf)
	require.Error(t, err)
}

func TestFixed_SizeMismatchFails(t *testing.T) {
	_, err := EncodeFixed([]byte{1, 2, 3}, 4)
	require.Error(t, err)
}

func TestFixed_RoundTrip(t *testing.T) {
	enc, err := EncodeFixed([]byte{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	dec, n, err := DecodeFixed(enc, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, dec)
	assert.Equal(t, 4, n)
}

func TestUnion_OutOfRangeBranchFails(t *testing.T) {
	buf := EncodeLong(5)
	_, _, err := DecodeUnionBranch(buf, 2)
	require.Error(t, err)
}

func TestUnionNull_PresentAndAbsent(t *testing.T) {
	absent := EncodeUnionNull(false, func() []byte { return EncodeLong(42) })
	idx, n, err := DecodeUnionBranch(absent, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), idx)
	assert.Equal(t, len(absent), n)

	present := EncodeUnionNull(true, func() []byte { return EncodeLong(42) })
	idx, n, err = DecodeUnionBranch(present, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), idx)
	v, _, err := DecodeLong(present[n:])
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}
