package variant

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/manifest"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrUnsupportedOperator is returned when a leaf filter uses an
// operator key this package does not recognise.
var ErrUnsupportedOperator = errors.MustNewCode("variant.unsupported_operator")

// ErrBadLiteral is returned when a filter literal or collected value
// cannot be encoded as the field's declared type.
var ErrBadLiteral = errors.MustNewCode("variant.bad_literal")

// FieldStats is one file's per-field bounds and counts, the subset of
// a manifest entry's statistics the pruning primitive reads. Bounds
// are the raw serialized form manifest.SerializeStatAny
// produces; HasBounds false models "missing" lower/upper bounds.
type FieldStats struct {
	Type       iceberg.PrimitiveType
	HasBounds  bool
	Lower      []byte
	Upper      []byte
	ValueCount int64
	NullCount  int64
}

// Bounds is a file's statistics keyed by the (possibly rewritten)
// field path the filter references.
type Bounds map[string]FieldStats

// ShouldSkip reports whether the file described by b can be skipped
// entirely for filter f. A field referenced by f but absent from b is
// treated as "missing bounds": never skip on its account.
func ShouldSkip(f Filter, b Bounds) (bool, error) {
	return evalSkip(f, b)
}

func evalSkip(f Filter, b Bounds) (bool, error) {
	// Implicit multi-field AND: skip iff any key says skip.
	for key, val := range f {
		var skip bool
		var err error
		switch key {
		case opAnd:
			skip, err = evalAnd(val, b)
		case opOr:
			skip, err = evalOr(val, b)
		case opNot:
			skip, err = evalNot(val, b)
		case opNor:
			skip, err = evalNor(val, b)
		default:
			skip, err = evalLeaf(key, val, b)
		}
		if err != nil {
			return false, err
		}
		if skip {
			return true, nil
		}
	}
	return false, nil
}

func asFilterList(val any) []Filter {
	list, _ := val.([]Filter)
	return list
}

func evalAnd(val any, b Bounds) (bool, error) {
	for _, sub := range asFilterList(val) {
		skip, err := evalSkip(sub, b)
		if err != nil {
			return false, err
		}
		if skip {
			return true, nil
		}
	}
	return false, nil
}

func evalOr(val any, b Bounds) (bool, error) {
	branches := asFilterList(val)
	if len(branches) == 0 {
		return false, nil
	}
	for _, sub := range branches {
		skip, err := evalSkip(sub, b)
		if err != nil {
			return false, err
		}
		if !skip {
			return false, nil
		}
	}
	return true, nil
}

// evalNot implements $not with conservative correctness: a
// file skips only when the inner filter provably matches every row.
// "Inner does not skip" usually means "cannot decide", and inverting
// an undecided answer would drop files that may match.
func evalNot(val any, b Bounds) (bool, error) {
	sub, ok := val.(Filter)
	if !ok {
		return false, nil
	}
	return mustMatch(sub, b)
}

// evalNor treats $nor as $not $or: a row satisfies $nor only when it
// satisfies no branch, so the file skips when every row provably
// satisfies the $or. That is proved here when at least one branch
// provably matches every row; anything short of that keeps the file.
func evalNor(val any, b Bounds) (bool, error) {
	branches := asFilterList(val)
	if len(branches) == 0 {
		return false, nil
	}
	for _, sub := range branches {
		m, err := mustMatch(sub, b)
		if err != nil {
			return false, err
		}
		if m {
			return true, nil
		}
	}
	return false, nil
}

// mustMatch reports whether every row of the file provably satisfies
// f. It is the proof obligation for skipping under $not/$nor; false
// means "not provable", never "provably false".
func mustMatch(f Filter, b Bounds) (bool, error) {
	for key, val := range f {
		var m bool
		var err error
		switch key {
		case opAnd:
			m = true
			for _, sub := range asFilterList(val) {
				sm, serr := mustMatch(sub, b)
				if serr != nil {
					return false, serr
				}
				if !sm {
					m = false
					break
				}
			}
		case opOr:
			// Sufficient: one branch alone covers every row.
			for _, sub := range asFilterList(val) {
				sm, serr := mustMatch(sub, b)
				if serr != nil {
					return false, serr
				}
				if sm {
					m = true
					break
				}
			}
		case opNot:
			// Every row satisfies ¬sub iff no row satisfies sub.
			if sub, ok := val.(Filter); ok {
				m, err = evalSkip(sub, b)
			}
		case opNor:
			branches := asFilterList(val)
			m = len(branches) > 0
			for _, sub := range branches {
				sk, serr := evalSkip(sub, b)
				if serr != nil {
					return false, serr
				}
				if !sk {
					m = false
					break
				}
			}
		default:
			m, err = leafMustMatch(key, val, b)
		}
		if err != nil {
			return false, err
		}
		if !m {
			return false, nil
		}
	}
	return true, nil
}

func leafMustMatch(path string, val any, b Bounds) (bool, error) {
	s, ok := b[path]
	if !ok {
		return false, nil
	}
	ops, isOps := val.(map[string]any)
	if !isOps {
		return opMustMatch("$eq", val, s)
	}
	for op, opVal := range ops {
		m, err := opMustMatch(op, opVal, s)
		if err != nil || !m {
			return false, err
		}
	}
	return true, nil
}

// opMustMatch proves "every row satisfies op" from bounds alone. Rows
// counted include nulls, so every proof (except $eq null) requires a
// known null-free population; float bounds exclude NaN rows the counts
// still include, so float proofs are never attempted.
func opMustMatch(op string, val any, s FieldStats) (bool, error) {
	switch op {
	case "$eq":
		if val == nil {
			return s.ValueCount > 0 && s.NullCount == s.ValueCount, nil
		}
		if !provableNonNull(s) {
			return false, nil
		}
		v, err := encode(val, s.Type)
		if err != nil {
			return false, err
		}
		return compare(s.Lower, v, s.Type) == 0 && compare(s.Upper, v, s.Type) == 0, nil
	case "$ne":
		if val == nil {
			return provableNonNull(s), nil
		}
		if !provableNonNull(s) {
			return false, nil
		}
		v, err := encode(val, s.Type)
		if err != nil {
			return false, err
		}
		return compare(s.Upper, v, s.Type) < 0 || compare(s.Lower, v, s.Type) > 0, nil
	case "$gt":
		return boundMustMatch(val, s, func(v []byte) bool { return compare(s.Lower, v, s.Type) > 0 })
	case "$gte":
		return boundMustMatch(val, s, func(v []byte) bool { return compare(s.Lower, v, s.Type) >= 0 })
	case "$lt":
		return boundMustMatch(val, s, func(v []byte) bool { return compare(s.Upper, v, s.Type) < 0 })
	case "$lte":
		return boundMustMatch(val, s, func(v []byte) bool { return compare(s.Upper, v, s.Type) <= 0 })
	case "$in":
		items, ok := val.([]any)
		if !ok || len(items) == 0 || !provableNonNull(s) {
			return false, nil
		}
		// Provable only when the file holds a single distinct value
		// that is a member of the set.
		if compare(s.Lower, s.Upper, s.Type) != 0 {
			return false, nil
		}
		for _, item := range items {
			v, err := encode(item, s.Type)
			if err != nil {
				return false, err
			}
			if compare(s.Lower, v, s.Type) == 0 {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func boundMustMatch(val any, s FieldStats, holds func(v []byte) bool) (bool, error) {
	if !provableNonNull(s) {
		return false, nil
	}
	v, err := encode(val, s.Type)
	if err != nil {
		return false, err
	}
	return holds(v), nil
}

func provableNonNull(s FieldStats) bool {
	if s.Type == iceberg.Float32 || s.Type == iceberg.Float64 {
		return false
	}
	return s.HasBounds && s.ValueCount > 0 && s.NullCount == 0
}

func evalLeaf(path string, val any, b Bounds) (bool, error) {
	stats, ok := b[path]
	if !ok {
		return false, nil
	}

	ops, isOps := val.(map[string]any)
	if !isOps {
		return shouldSkipOp("$eq", val, stats)
	}

	for op, opVal := range ops {
		skip, err := shouldSkipOp(op, opVal, stats)
		if err != nil {
			return false, err
		}
		if skip {
			return true, nil
		}
	}
	return false, nil
}

func shouldSkipOp(op string, val any, s FieldStats) (bool, error) {
	switch op {
	case "$eq":
		if val == nil {
			return s.NullCount == 0, nil
		}
		return cmpEq(val, s)
	case "$ne":
		if val == nil {
			return s.ValueCount > 0 && s.NullCount == s.ValueCount, nil
		}
		return cmpNe(val, s)
	case "$gt":
		return cmpGt(val, s)
	case "$gte":
		return cmpGte(val, s)
	case "$lt":
		return cmpLt(val, s)
	case "$lte":
		return cmpLte(val, s)
	case "$in":
		return cmpIn(val, s)
	case "$nin", "$exists", "$regex":
		// Recognised operators with no bounds-based pruning rule:
		// always keep.
		return false, nil
	default:
		return false, errors.Newf(ErrUnsupportedOperator, "unrecognised filter operator %q", op)
	}
}

func cmpEq(val any, s FieldStats) (bool, error) {
	if !s.HasBounds {
		return false, nil
	}
	v, err := encode(val, s.Type)
	if err != nil {
		return false, err
	}
	return compare(s.Upper, v, s.Type) < 0 || compare(s.Lower, v, s.Type) > 0, nil
}

func cmpNe(val any, s FieldStats) (bool, error) {
	if !s.HasBounds {
		return false, nil
	}
	v, err := encode(val, s.Type)
	if err != nil {
		return false, err
	}
	return compare(s.Lower, v, s.Type) == 0 && compare(s.Upper, v, s.Type) == 0, nil
}

func cmpGt(val any, s FieldStats) (bool, error) {
	if !s.HasBounds {
		return false, nil
	}
	v, err := encode(val, s.Type)
	if err != nil {
		return false, err
	}
	return compare(s.Upper, v, s.Type) <= 0, nil
}

func cmpGte(val any, s FieldStats) (bool, error) {
	if !s.HasBounds {
		return false, nil
	}
	v, err := encode(val, s.Type)
	if err != nil {
		return false, err
	}
	return compare(s.Upper, v, s.Type) < 0, nil
}

func cmpLt(val any, s FieldStats) (bool, error) {
	if !s.HasBounds {
		return false, nil
	}
	v, err := encode(val, s.Type)
	if err != nil {
		return false, err
	}
	return compare(s.Lower, v, s.Type) >= 0, nil
}

func cmpLte(val any, s FieldStats) (bool, error) {
	if !s.HasBounds {
		return false, nil
	}
	v, err := encode(val, s.Type)
	if err != nil {
		return false, err
	}
	return compare(s.Lower, v, s.Type) > 0, nil
}

func cmpIn(val any, s FieldStats) (bool, error) {
	items, ok := val.([]any)
	if !ok {
		return false, nil
	}
	if len(items) == 0 {
		return true, nil
	}
	if !s.HasBounds {
		return false, nil
	}
	for _, item := range items {
		v, err := encode(item, s.Type)
		if err != nil {
			return false, err
		}
		if compare(s.Lower, v, s.Type) <= 0 && compare(s.Upper, v, s.Type) >= 0 {
			return false, nil
		}
	}
	return true, nil
}

// encode serializes a value according to the field's declared type t,
// not the value's Go runtime type. Filter literals and collected
// values arrive in whatever form the caller's map/JSON layer produced
// (int, int64, float64), and both sides of every comparison must share
// the declared type's width and encoding; serializing an int literal
// as 4 bytes against an 8-byte long bound would decode to garbage and
// break pruning soundness.
func encode(val any, t iceberg.PrimitiveType) ([]byte, error) {
	switch t {
	case iceberg.Boolean:
		b, ok := val.(bool)
		if !ok {
			return nil, badLiteral(val, t)
		}
		return manifest.SerializeStatAny(b)
	case iceberg.Int32, iceberg.Date:
		n, ok := asInt64Value(val)
		if !ok || n > math.MaxInt32 || n < math.MinInt32 {
			return nil, badLiteral(val, t)
		}
		return manifest.SerializeStatAny(int32(n))
	case iceberg.Int64, iceberg.Time, iceberg.Timestamp, iceberg.Timestamptz, iceberg.TimestampNs, iceberg.TimestamptzNs:
		n, ok := asInt64Value(val)
		if !ok {
			return nil, badLiteral(val, t)
		}
		return manifest.SerializeStatAny(n)
	case iceberg.Float32:
		f, ok := asFloat64Value(val)
		if !ok {
			return nil, badLiteral(val, t)
		}
		return manifest.SerializeStatAny(float32(f))
	case iceberg.Float64:
		f, ok := asFloat64Value(val)
		if !ok {
			return nil, badLiteral(val, t)
		}
		return manifest.SerializeStatAny(f)
	case iceberg.String:
		s, ok := val.(string)
		if !ok {
			return nil, badLiteral(val, t)
		}
		return manifest.SerializeStatAny(s)
	case iceberg.Binary, iceberg.UUID:
		switch b := val.(type) {
		case []byte:
			return manifest.SerializeStatAny(b)
		case string:
			return manifest.SerializeStatAny([]byte(b))
		}
		return nil, badLiteral(val, t)
	default:
		if _, _, ok := iceberg.DecimalPrecisionScale(t); ok {
			switch d := val.(type) {
			case *big.Int:
				return manifest.SerializeStatAny(d)
			default:
				if n, ok := asInt64Value(val); ok {
					return manifest.SerializeStatAny(big.NewInt(n))
				}
			}
			return nil, badLiteral(val, t)
		}
		b, err := manifest.SerializeStatAny(val)
		if err != nil {
			return nil, badLiteral(val, t)
		}
		return b, nil
	}
}

func badLiteral(val any, t iceberg.PrimitiveType) error {
	return errors.Newf(ErrBadLiteral, "cannot encode %T value as %s", val, t)
}

// asInt64Value widens integer-valued Go numbers to int64. Floats are
// accepted only when integral, since JSON decoding hands every number
// over as float64.
func asInt64Value(val any) (int64, bool) {
	switch n := val.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		f := float64(n)
		if f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func asFloat64Value(val any) (float64, bool) {
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func leInt32(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func leInt64(b []byte) int64 {
	if len(b) < 8 {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func leFloat32(b []byte) float32 {
	if len(b) < 4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func leFloat64(b []byte) float64 {
	if len(b) < 8 {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// compare orders two serialized primitive values of type t:
// lexicographic byte order for
// strings/binary, standard numeric ordering for ints/floats (NaN
// excluded upstream, never produced here), monotonic ordering for
// timestamps, false < true for booleans, big-integer ordering for
// decimal/long magnitudes beyond machine width.
func compare(a, b []byte, t iceberg.PrimitiveType) int {
	switch t {
	case iceberg.String, iceberg.Binary, iceberg.UUID:
		return bytes.Compare(a, b)
	case iceberg.Boolean:
		return int(a[0]) - int(b[0])
	case iceberg.Int32, iceberg.Date:
		return compareInt64(int64(leInt32(a)), int64(leInt32(b)))
	case iceberg.Int64, iceberg.Time, iceberg.Timestamp, iceberg.Timestamptz, iceberg.TimestampNs, iceberg.TimestamptzNs:
		return compareInt64(leInt64(a), leInt64(b))
	case iceberg.Float32:
		return compareFloat64(float64(leFloat32(a)), float64(leFloat32(b)))
	case iceberg.Float64:
		return compareFloat64(leFloat64(a), leFloat64(b))
	default:
		if _, _, ok := iceberg.DecimalPrecisionScale(t); ok {
			return bigIntFromTwosComplement(a).Cmp(bigIntFromTwosComplement(b))
		}
		return bytes.Compare(a, b)
	}
}

// bigIntFromTwosComplement decodes the minimum-length two's-complement
// big-endian encoding manifest.SerializeDecimalUnscaled produces.
func bigIntFromTwosComplement(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	v := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		v.Sub(v, mod)
	}
	return v
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
