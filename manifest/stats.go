package manifest

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrUnsupportedStatType is returned when SerializeStatAny is asked to
// serialize a Go value with no corresponding Iceberg primitive
// serialization rule.
var ErrUnsupportedStatType = errors.MustNewCode("manifest.unsupported_stat_type")

// DefaultStringTruncation is the default prefix length (in bytes) used
// when truncating string bounds.
const DefaultStringTruncation = 16

// SerializeStatAny dispatches on the Go type of v to the matching
// Iceberg primitive-value serialization: bool -> 1 byte;
// int32 -> 4-byte LE; int64 -> 8-byte LE; float32/float64 -> IEEE-754
// LE; string -> raw UTF-8 bytes (not truncated; callers wanting
// truncated bounds should call TruncateStringLower/Upper first);
// []byte -> raw; *big.Int -> two's-complement big-endian minimum bytes.
func SerializeStatAny(v any) ([]byte, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case int32:
		return serializeInt32(t), nil
	case int:
		return serializeInt32(int32(t)), nil
	case int64:
		return serializeInt64(t), nil
	case float32:
		return serializeFloat32(t), nil
	case float64:
		return serializeFloat64(t), nil
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case *big.Int:
		return SerializeDecimalUnscaled(t), nil
	default:
		return nil, errors.Newf(ErrUnsupportedStatType, "no stat serialization for Go type %T", v)
	}
}

func serializeInt32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func serializeInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func serializeFloat32(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func serializeFloat64(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

// SerializeDate encodes a date as 4-byte LE days-since-epoch.
func SerializeDate(daysSinceEpoch int32) []byte { return serializeInt32(daysSinceEpoch) }

// SerializeTimestampMicros encodes a timestamp as 8-byte LE
// microseconds-since-epoch.
func SerializeTimestampMicros(us int64) []byte { return serializeInt64(us) }

// SerializeDecimalUnscaled renders v as two's-complement big-endian
// bytes, using the minimum number of bytes needed.
func SerializeDecimalUnscaled(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	if v.Sign() > 0 {
		b := v.Bytes()
		// If the MSB is set, a leading 0x00 is needed so the value isn't
		// misread as negative in two's complement.
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// Negative: compute two's complement over the minimum byte length.
	// n bytes hold values down to -(1 << (8n-1)), so grow by one byte
	// only when the magnitude exceeds that.
	abs := new(big.Int).Abs(v)
	nBytes := len(abs.Bytes())
	limit := new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8-1))
	if abs.Cmp(limit) > 0 {
		nBytes++
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8))
	twos := new(big.Int).Add(mod, v)
	out := make([]byte, nBytes)
	twos.FillBytes(out)
	return out
}

// TruncateStringLower truncates s to at most n bytes for use as a lower
// bound; truncating down (dropping trailing bytes) never raises the
// value, so correctness of "no file value is below its lower bound"
// is preserved.
func TruncateStringLower(s string, n int) string {
	b := []byte(s)
	if len(b) <= n {
		return s
	}
	return string(b[:n])
}

// TruncateStringUpper truncates s to at most n bytes for use as an upper
// bound, incrementing the final byte (falling back to extending the
// prefix if every truncated byte is 0xFF) so the result stays >= every
// string it was derived from.
func TruncateStringUpper(s string, n int) string {
	b := []byte(s)
	if len(b) <= n {
		return s
	}
	trunc := append([]byte(nil), b[:n]...)
	for i := len(trunc) - 1; i >= 0; i-- {
		if trunc[i] == 0xFF {
			continue
		}
		trunc[i]++
		return string(trunc[:i+1])
	}
	// Every byte in the prefix was 0xFF: no valid increment at this
	// length exists, so the bound must include the whole original value.
	return s
}
