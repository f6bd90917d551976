package variant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icebergd/coreberg/iceberg"
)

func TestCollector_IntBounds(t *testing.T) {
	c := NewCollector(100, iceberg.Int64)
	for _, v := range []int64{5, 1, 9, 3} {
		c.Observe(v)
	}
	c.Observe(nil)

	stat, err := c.Result()
	require.NoError(t, err)
	assert.Equal(t, 100, stat.FieldID)
	assert.Equal(t, int64(5), stat.ValueCount)
	assert.Equal(t, int64(1), stat.NullCount)
	require.True(t, stat.HasBounds)

	lb, _ := encode(int64(1), iceberg.Int64)
	ub, _ := encode(int64(9), iceberg.Int64)
	assert.Equal(t, lb, stat.LowerBound)
	assert.Equal(t, ub, stat.UpperBound)
}

func TestCollector_MixedGoIntWidthsOnLongField(t *testing.T) {
	c := NewCollector(104, iceberg.Int64)
	c.Observe(7)
	c.Observe(int64(3))
	c.Observe(int32(11))

	stat, err := c.Result()
	require.NoError(t, err)
	require.True(t, stat.HasBounds)
	lb, _ := encode(int64(3), iceberg.Int64)
	ub, _ := encode(int64(11), iceberg.Int64)
	assert.Equal(t, lb, stat.LowerBound)
	assert.Equal(t, ub, stat.UpperBound)
}

func TestCollector_ExcludesNaNFromBounds(t *testing.T) {
	c := NewCollector(101, iceberg.Float64)
	c.Observe(1.0)
	c.Observe(math.NaN())
	c.Observe(9.0)

	stat, err := c.Result()
	require.NoError(t, err)
	lb, _ := encode(1.0, iceberg.Float64)
	ub, _ := encode(9.0, iceberg.Float64)
	assert.Equal(t, lb, stat.LowerBound)
	assert.Equal(t, ub, stat.UpperBound)
}

func TestCollector_TruncatesStringBounds(t *testing.T) {
	c := NewCollector(102, iceberg.String)
	c.TruncatePrefix = 4
	c.Observe("alphabet")
	c.Observe("aardvark")

	stat, err := c.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte("aard"), stat.LowerBound)
	// "alph" incremented since "alphabet" was truncated down.
	assert.Equal(t, []byte("alpi"), stat.UpperBound)
}

func TestCollector_AllNullHasNoBounds(t *testing.T) {
	c := NewCollector(103, iceberg.Int64)
	c.Observe(nil)
	c.Observe(nil)

	stat, err := c.Result()
	require.NoError(t, err)
	assert.False(t, stat.HasBounds)
	assert.Equal(t, int64(2), stat.NullCount)
	assert.Equal(t, int64(2), stat.ValueCount)
}
