// Package variant implements shredded-variant configuration, predicate
// rewriting, and statistics-bounds pruning. A "shredded"
// variant column has some of its fields extracted into typed
// sub-columns whose manifest statistics live at a deterministic path,
// letting scan planning skip data files the way it already does for
// ordinary primitive columns.
package variant

import (
	"fmt"
	"strings"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrInvalidConfig is returned when a shredding configuration in table
// properties cannot be parsed.
var ErrInvalidConfig = errors.MustNewCode("variant.invalid_config")

// ShredConfig is one variant column's shredding configuration: the
// subset of its fields extracted into typed sub-columns, and each
// field's declared type (needed to size/interpret its bounds).
type ShredConfig struct {
	Column     string
	Fields     []string
	FieldTypes map[string]iceberg.PrimitiveType
}

// StatsPath renders the deterministic statistics path for one shredded
// field: "{column}.typed_value.{field}.typed_value".
func (c ShredConfig) StatsPath(field string) string {
	return c.Column + ".typed_value." + field + ".typed_value"
}

// Parse extracts shredding configs from table properties of the form
// the table properties convention:
//
//	write.variant.shred-columns       = "col1,col2"
//	write.variant.<col>.shred-fields  = "a,b,c"
//	write.variant.<col>.field-types   = "a:long,b:string,c:double"
//
// Column order in the returned slice follows write.variant.shred-columns'
// listed order, making Parse deterministic across runs given the same
// properties map, so readers and writers agree on assignment.
func Parse(properties map[string]string) ([]ShredConfig, error) {
	const columnsKey = "write.variant.shred-columns"

	var columns []string
	for _, col := range strings.Split(properties[columnsKey], ",") {
		col = strings.TrimSpace(col)
		if col != "" {
			columns = append(columns, col)
		}
	}

	configs := make([]ShredConfig, 0, len(columns))
	for _, col := range columns {
		fieldsRaw := properties["write.variant."+col+".shred-fields"]
		var fields []string
		for _, f := range strings.Split(fieldsRaw, ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			return nil, errors.Newf(ErrInvalidConfig, "variant column %q declares no shredded fields", col)
		}

		types := make(map[string]iceberg.PrimitiveType, len(fields))
		typesRaw := properties["write.variant."+col+".field-types"]
		for _, pair := range strings.Split(typesRaw, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			parts := strings.SplitN(pair, ":", 2)
			if len(parts) != 2 {
				return nil, errors.Newf(ErrInvalidConfig, "variant column %q has malformed type entry %q", col, pair)
			}
			pt, err := parsePrimitiveTypeName(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, errors.Newf(ErrInvalidConfig, "variant column %q field %q: %v", col, parts[0], err)
			}
			types[strings.TrimSpace(parts[0])] = pt
		}
		for _, f := range fields {
			if _, ok := types[f]; !ok {
				return nil, errors.Newf(ErrInvalidConfig, "variant column %q field %q has no declared type", col, f)
			}
		}

		configs = append(configs, ShredConfig{Column: col, Fields: fields, FieldTypes: types})
	}
	return configs, nil
}

func parsePrimitiveTypeName(name string) (iceberg.PrimitiveType, error) {
	switch name {
	case "boolean":
		return iceberg.Boolean, nil
	case "int":
		return iceberg.Int32, nil
	case "long":
		return iceberg.Int64, nil
	case "float":
		return iceberg.Float32, nil
	case "double":
		return iceberg.Float64, nil
	case "date":
		return iceberg.Date, nil
	case "time":
		return iceberg.Time, nil
	case "timestamp":
		return iceberg.Timestamp, nil
	case "timestamptz":
		return iceberg.Timestamptz, nil
	case "string":
		return iceberg.String, nil
	case "uuid":
		return iceberg.UUID, nil
	case "binary":
		return iceberg.Binary, nil
	default:
		return iceberg.PrimitiveType{}, fmt.Errorf("unsupported shredded field type %q", name)
	}
}

// FieldIDs maps a configured shredded field's statistics path to its
// assigned field ID.
type FieldIDs map[string]int

// AssignShreddedFieldIDs assigns a dense, deterministic block of field
// IDs to every (column, field) pair across configs, starting at start
// (strictly greater than last-column-id). Iteration order
// is configs order, then each config's Fields order, so the same
// configs slice always yields the same assignment.
func AssignShreddedFieldIDs(configs []ShredConfig, start int) FieldIDs {
	ids := make(FieldIDs)
	next := start
	for _, c := range configs {
		for _, f := range c.Fields {
			ids[c.StatsPath(f)] = next
			next++
		}
	}
	return ids
}

// ConfigForColumn looks up the shredding config for a column name, if
// any is configured.
func ConfigForColumn(configs []ShredConfig, column string) (ShredConfig, bool) {
	for _, c := range configs {
		if c.Column == column {
			return c, true
		}
	}
	return ShredConfig{}, false
}

// HasField reports whether field is listed among column's shredded
// fields in c.
func (c ShredConfig) HasField(field string) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}
