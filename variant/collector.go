package variant

import (
	"math"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/manifest"
)

// Collector accumulates per-field statistics for one shredded field
// across a data file's rows: null count, total count, and typed
// bounds, with string
// bounds truncated to TruncatePrefix bytes.
type Collector struct {
	FieldID        int
	Type           iceberg.PrimitiveType
	TruncatePrefix int

	count     int64
	nullCount int64
	hasBounds bool
	lower     any
	upper     any
}

// NewCollector returns a Collector for field, using
// manifest.DefaultStringTruncation for string bound truncation.
func NewCollector(fieldID int, t iceberg.PrimitiveType) *Collector {
	return &Collector{FieldID: fieldID, Type: t, TruncatePrefix: manifest.DefaultStringTruncation}
}

// Observe folds one value (nil meaning SQL NULL) into the collector's
// running stats.
func (c *Collector) Observe(v any) {
	c.count++
	if v == nil {
		c.nullCount++
		return
	}
	if f, ok := asFloat(v); ok && math.IsNaN(f) {
		// NaN is excluded from numeric bounds.
		return
	}
	if !c.hasBounds {
		c.hasBounds = true
		c.lower, c.upper = v, v
		return
	}
	if lessThan(v, c.lower, c.Type) {
		c.lower = v
	}
	if lessThan(c.upper, v, c.Type) {
		c.upper = v
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// lessThan compares two unserialized Go values of the collector's
// declared type using the same ordering rules ShouldSkip applies to
// already-serialized bounds. Encoding goes through the type-directed
// encode so an int observation and an int64 observation of the same
// long field compare at the same width.
func lessThan(a, b any, t iceberg.PrimitiveType) bool {
	ab, errA := encode(a, t)
	bb, errB := encode(b, t)
	if errA != nil || errB != nil {
		return false
	}
	return compare(ab, bb, t) < 0
}

// Result folds the collector's state into a manifest.CollectedStat,
// truncating string bounds to TruncatePrefix.
func (c *Collector) Result() (manifest.CollectedStat, error) {
	stat := manifest.CollectedStat{FieldID: c.FieldID, ValueCount: c.count, NullCount: c.nullCount}
	if !c.hasBounds {
		return stat, nil
	}

	lower, upper := c.lower, c.upper
	if c.Type == iceberg.String {
		prefix := c.TruncatePrefix
		if prefix <= 0 {
			prefix = manifest.DefaultStringTruncation
		}
		lower = manifest.TruncateStringLower(lower.(string), prefix)
		upper = manifest.TruncateStringUpper(upper.(string), prefix)
	}

	lb, err := encode(lower, c.Type)
	if err != nil {
		return manifest.CollectedStat{}, err
	}
	ub, err := encode(upper, c.Type)
	if err != nil {
		return manifest.CollectedStat{}, err
	}
	stat.HasBounds = true
	stat.LowerBound = lb
	stat.UpperBound = ub
	return stat, nil
}
