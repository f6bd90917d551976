package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icebergd/coreberg/iceberg"
)

func int64Bounds(lower, upper int64, valueCount, nullCount int64) FieldStats {
	lb, _ := encode(lower, iceberg.Int64)
	ub, _ := encode(upper, iceberg.Int64)
	return FieldStats{Type: iceberg.Int64, HasBounds: true, Lower: lb, Upper: ub, ValueCount: valueCount, NullCount: nullCount}
}

func TestShouldSkip_Eq(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}

	skip, err := ShouldSkip(Filter{"x": int64(5)}, b)
	require.NoError(t, err)
	assert.True(t, skip, "5 is below [10,20]")

	skip, err = ShouldSkip(Filter{"x": int64(15)}, b)
	require.NoError(t, err)
	assert.False(t, skip, "15 is within [10,20]")
}

func TestShouldSkip_Gt(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$gt": int64(20)}}, b)
	require.NoError(t, err)
	assert.True(t, skip, "upper <= 20 means nothing can be > 20")
}

func TestShouldSkip_InEmptySetAlwaysSkips(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$in": []any{}}}, b)
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestShouldSkip_InWithMatchingBound(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$in": []any{int64(100), int64(15)}}}, b)
	require.NoError(t, err)
	assert.False(t, skip, "15 lies within bounds")
}

func TestShouldSkip_InNoneWithinBoundsSkips(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$in": []any{int64(1), int64(2)}}}, b)
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestShouldSkip_NeNullAllNullSkips(t *testing.T) {
	b := Bounds{"x": {Type: iceberg.Int64, HasBounds: false, ValueCount: 50, NullCount: 50}}
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$ne": nil}}, b)
	require.NoError(t, err)
	assert.True(t, skip, "every value is null, so x != null can never match")
}

func TestShouldSkip_EqNullZeroNullsSkips(t *testing.T) {
	b := Bounds{"x": {Type: iceberg.Int64, HasBounds: true, NullCount: 0, ValueCount: 50}}
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$eq": nil}}, b)
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestShouldSkip_MissingBoundsNeverSkip(t *testing.T) {
	b := Bounds{"x": {Type: iceberg.Int64, HasBounds: false}}
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$gt": int64(5)}}, b)
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestShouldSkip_FieldAbsentFromBoundsNeverSkip(t *testing.T) {
	skip, err := ShouldSkip(Filter{"missing": int64(5)}, Bounds{})
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestShouldSkip_ImplicitAndSkipsIfAnyFieldSkips(t *testing.T) {
	b := Bounds{
		"x": int64Bounds(10, 20, 100, 0),
		"y": int64Bounds(10, 20, 100, 0),
	}
	f := Filter{
		"x": int64(15),
		"y": int64(999),
	}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestShouldSkip_ExplicitOrSkipsOnlyIfAllBranchesSkip(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}

	f := Filter{opOr: []Filter{
		{"x": int64(999)},
		{"x": int64(15)},
	}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.False(t, skip, "one branch keeps, so the whole OR keeps")

	f2 := Filter{opOr: []Filter{
		{"x": int64(999)},
		{"x": int64(1)},
	}}
	skip, err = ShouldSkip(f2, b)
	require.NoError(t, err)
	assert.True(t, skip, "every branch skips")
}

func TestShouldSkip_Not(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	f := Filter{opNot: Filter{"x": int64(999)}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.False(t, skip, "inner predicate skips, so its negation keeps")
}

func TestShouldSkip_NotUndecidedInnerKeeps(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	// Inner $gt 15 cannot skip (upper bound 20 > 15), but some rows may
	// still be <= 15, so the negation must keep too.
	f := Filter{opNot: Filter{"x": map[string]any{"$gt": int64(15)}}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.False(t, skip, "inversion is not provable, keep the file")
}

func TestShouldSkip_NotProvablyAllMatchingSkips(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	// Every row satisfies $gt 5 (lower bound 10 > 5, no nulls), so no
	// row satisfies the negation.
	f := Filter{opNot: Filter{"x": map[string]any{"$gt": int64(5)}}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestShouldSkip_NotSingleValueFileSkips(t *testing.T) {
	b := Bounds{"x": int64Bounds(15, 15, 100, 0)}
	f := Filter{opNot: Filter{"x": int64(15)}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.True(t, skip, "every row equals 15, so the negation matches none")
}

func TestShouldSkip_NotWithNullsKeeps(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 5)}
	// Null rows never satisfy $gt 5, so "all rows match" is not
	// provable and the negation may match the null rows.
	f := Filter{opNot: Filter{"x": map[string]any{"$gt": int64(5)}}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestShouldSkip_NorSkipsWhenBranchCoversAllRows(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	f := Filter{opNor: []Filter{
		{"x": map[string]any{"$gte": int64(10)}},
		{"x": int64(999)},
	}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.True(t, skip, "every row satisfies the first branch, so no row satisfies the nor")
}

func TestShouldSkip_NorIsNotOfOr(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	f := Filter{opNor: []Filter{{"x": int64(999)}}}
	skip, err := ShouldSkip(f, b)
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestShouldSkip_LiteralWidthFollowsDeclaredType(t *testing.T) {
	b := Bounds{"x": int64Bounds(100, 200, 1000, 0)}

	// Plain int and JSON-style float64 literals against a long field
	// must compare at 8 bytes; rows like 120 satisfy < 150.
	skip, err := ShouldSkip(Filter{"x": map[string]any{"$lt": 150}}, b)
	require.NoError(t, err)
	assert.False(t, skip)

	skip, err = ShouldSkip(Filter{"x": map[string]any{"$lt": float64(150)}}, b)
	require.NoError(t, err)
	assert.False(t, skip)

	skip, err = ShouldSkip(Filter{"x": map[string]any{"$gt": 300}}, b)
	require.NoError(t, err)
	assert.True(t, skip, "upper bound 200 can never exceed 300")
}

func TestShouldSkip_TimestampLiteralAsFloat(t *testing.T) {
	lb, _ := encode(int64(1_600_000_000_000_000), iceberg.Timestamp)
	ub, _ := encode(int64(1_700_000_000_000_000), iceberg.Timestamp)
	b := Bounds{"ts": {Type: iceberg.Timestamp, HasBounds: true, Lower: lb, Upper: ub, ValueCount: 10}}

	skip, err := ShouldSkip(Filter{"ts": map[string]any{"$gt": float64(1_800_000_000_000_000)}}, b)
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestEncode_RejectsNonIntegralFloatForLong(t *testing.T) {
	_, err := encode(1.5, iceberg.Int64)
	assert.Error(t, err)
}

func TestShouldSkip_StringLexicographic(t *testing.T) {
	lb, _ := encode("m", iceberg.String)
	ub, _ := encode("t", iceberg.String)
	b := Bounds{"s": {Type: iceberg.String, HasBounds: true, Lower: lb, Upper: ub}}

	skip, err := ShouldSkip(Filter{"s": map[string]any{"$lt": "m"}}, b)
	require.NoError(t, err)
	assert.True(t, skip, "lower bound m is not < m")

	skip, err = ShouldSkip(Filter{"s": map[string]any{"$lt": "z"}}, b)
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestShouldSkip_UnrecognisedOperatorErrors(t *testing.T) {
	b := Bounds{"x": int64Bounds(10, 20, 100, 0)}
	_, err := ShouldSkip(Filter{"x": map[string]any{"$bogus": int64(1)}}, b)
	assert.Error(t, err)
}
