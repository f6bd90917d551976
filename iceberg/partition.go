package iceberg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrBadTransform is returned when a transform string doesn't parse to a
// recognised partition/sort transform.
var ErrBadTransform = errors.MustNewCode("iceberg.bad_transform")

// Transform is a partition or sort transform: identity, bucket[N],
// truncate[W], year, month, day, hour, or void.
type Transform struct {
	Kind string // "identity", "bucket", "truncate", "year", "month", "day", "hour", "void"
	Param int   // N for bucket, W for truncate; unused otherwise
}

var (
	IdentityTransform = Transform{Kind: "identity"}
	YearTransform     = Transform{Kind: "year"}
	MonthTransform    = Transform{Kind: "month"}
	DayTransform      = Transform{Kind: "day"}
	HourTransform     = Transform{Kind: "hour"}
	VoidTransform     = Transform{Kind: "void"}
)

// Bucket constructs a bucket[n] transform.
func Bucket(n int) Transform { return Transform{Kind: "bucket", Param: n} }

// Truncate constructs a truncate[w] transform.
func Truncate(w int) Transform { return Transform{Kind: "truncate", Param: w} }

// String renders the transform the way Iceberg metadata.json expects:
// "bucket[4]", "truncate[10]", or the bare name otherwise.
func (t Transform) String() string {
	switch t.Kind {
	case "bucket":
		return fmt.Sprintf("bucket[%d]", t.Param)
	case "truncate":
		return fmt.Sprintf("truncate[%d]", t.Param)
	default:
		return t.Kind
	}
}

// ParseTransform parses the Iceberg transform string form.
func ParseTransform(s string) (Transform, error) {
	if strings.HasPrefix(s, "bucket[") && strings.HasSuffix(s, "]") {
		n, err := strconv.Atoi(s[len("bucket[") : len(s)-1])
		if err != nil {
			return Transform{}, errors.Newf(ErrBadTransform, "invalid bucket transform %q", s)
		}
		return Bucket(n), nil
	}
	if strings.HasPrefix(s, "truncate[") && strings.HasSuffix(s, "]") {
		w, err := strconv.Atoi(s[len("truncate[") : len(s)-1])
		if err != nil {
			return Transform{}, errors.Newf(ErrBadTransform, "invalid truncate transform %q", s)
		}
		return Truncate(w), nil
	}
	switch s {
	case "identity", "year", "month", "day", "hour", "void":
		return Transform{Kind: s}, nil
	default:
		return Transform{}, errors.Newf(ErrBadTransform, "unrecognised transform %q", s)
	}
}

// MarshalJSON renders the transform as its bare string form.
func (t Transform) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON parses the transform's bare string form.
func (t *Transform) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New(ErrBadTransform, "invalid transform JSON", err)
	}
	parsed, err := ParseTransform(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PartitionField maps a source schema field through a transform into a
// partition column. FieldID is global across the table's entire
// partition-spec history and is always >= 1000.
type PartitionField struct {
	SourceID  int       `json:"source-id"`
	FieldID   int       `json:"field-id"`
	Name      string    `json:"name"`
	Transform Transform `json:"transform"`
}

// PartitionSpec is an ordered list of partition fields under a spec ID.
type PartitionSpec struct {
	SpecID int              `json:"spec-id"`
	Fields []PartitionField `json:"fields"`
}

// FirstPartitionFieldID is the floor every partition field ID must meet
// or exceed. last-partition-id starts at this value minus 1.
const FirstPartitionFieldID = 1000
