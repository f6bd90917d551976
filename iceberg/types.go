// Package iceberg implements the table-metadata model: schemas, partition
// specs, sort orders, snapshots, refs, and the TableMetadata root document
// with its mutation builder.
package iceberg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/icebergd/coreberg/pkg/errors"
)

var (
	// ErrUnknownType is returned when a JSON type document doesn't match
	// any recognised Iceberg primitive or nested type shape.
	ErrUnknownType = errors.MustNewCode("iceberg.unknown_type")
	// ErrFieldIDConflict is returned when two fields anywhere in one
	// schema reuse an ID (list element and map key/value IDs included),
	// or a field name repeats within the same struct level.
	ErrFieldIDConflict = errors.MustNewCode("iceberg.field_conflict")
)

// Type is an Iceberg schema type: either a primitive (encoded as a bare
// JSON string) or a nested struct/list/map (encoded as a JSON object).
type Type interface {
	// Kind returns the dispatch tag used in nested-type JSON ("struct",
	// "list", "map") or "" for primitives.
	Kind() string
	// String renders the type the way Iceberg's canonical-type-string
	// does (e.g. "decimal(9,2)", "list<long>").
	String() string
}

// PrimitiveType is a scalar Iceberg type. Construct with the package-level
// constants, or NewDecimal/NewFixed for parameterised ones.
type PrimitiveType struct {
	name string
}

func (p PrimitiveType) Kind() string   { return "" }
func (p PrimitiveType) String() string { return p.name }

// The fixed set of non-parameterised primitives. v3 adds TimestampNs,
// TimestamptzNs, Variant, Unknown, Geometry, Geography.
var (
	Boolean       = PrimitiveType{"boolean"}
	Int32         = PrimitiveType{"int"}
	Int64         = PrimitiveType{"long"}
	Float32       = PrimitiveType{"float"}
	Float64       = PrimitiveType{"double"}
	Date          = PrimitiveType{"date"}
	Time          = PrimitiveType{"time"}
	Timestamp     = PrimitiveType{"timestamp"}
	Timestamptz   = PrimitiveType{"timestamptz"}
	TimestampNs   = PrimitiveType{"timestamp_ns"}
	TimestamptzNs = PrimitiveType{"timestamptz_ns"}
	String        = PrimitiveType{"string"}
	UUID          = PrimitiveType{"uuid"}
	Binary        = PrimitiveType{"binary"}
	Variant       = PrimitiveType{"variant"}
	Unknown       = PrimitiveType{"unknown"}
	Geometry      = PrimitiveType{"geometry"}
	Geography     = PrimitiveType{"geography"}
)

// NewDecimal constructs a decimal(precision,scale) primitive.
func NewDecimal(precision, scale int) PrimitiveType {
	return PrimitiveType{fmt.Sprintf("decimal(%d,%d)", precision, scale)}
}

// NewFixed constructs a fixed[length] primitive.
func NewFixed(length int) PrimitiveType {
	return PrimitiveType{fmt.Sprintf("fixed[%d]", length)}
}

// DecimalPrecisionScale parses "decimal(p,s)", returning ok=false if t
// isn't a decimal.
func DecimalPrecisionScale(t PrimitiveType) (precision, scale int, ok bool) {
	if !strings.HasPrefix(t.name, "decimal(") || !strings.HasSuffix(t.name, ")") {
		return 0, 0, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(t.name, "decimal("), ")")
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	s, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return p, s, true
}

// NestedField is one field of a struct (including the top-level Schema
// struct). A non-nullable field has Required set to true.
type NestedField struct {
	ID              int
	Name            string
	Required        bool
	Type            Type
	Doc             string
	InitialDefault  any
	WriteDefault    any
	HasInitDefault  bool
	HasWriteDefault bool
}

// StructType is an ordered list of NestedFields.
type StructType struct {
	Fields []NestedField
}

func (s StructType) Kind() string { return "struct" }
func (s StructType) String() string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Type.String()
	}
	return "struct<" + strings.Join(names, ", ") + ">"
}

// FieldByID returns the field with the given ID, searching only this
// struct's direct fields (not recursively).
func (s StructType) FieldByID(id int) (NestedField, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return NestedField{}, false
}

// ListType is a single-element-typed list.
type ListType struct {
	ElementID       int
	Element         Type
	ElementRequired bool
}

func (l ListType) Kind() string   { return "list" }
func (l ListType) String() string { return "list<" + l.Element.String() + ">" }

// MapType has independently-IDed key and value columns.
type MapType struct {
	KeyID         int
	Key           Type
	ValueID       int
	Value         Type
	ValueRequired bool
}

func (m MapType) Kind() string { return "map" }
func (m MapType) String() string {
	return "map<" + m.Key.String() + ", " + m.Value.String() + ">"
}

// MarshalType renders t the way Iceberg does: primitives as a bare JSON
// string, nested types as a tagged object.
func MarshalType(t Type) (json.RawMessage, error) {
	switch v := t.(type) {
	case PrimitiveType:
		return json.Marshal(v.name)
	case StructType:
		fields := make([]fieldJSON, len(v.Fields))
		for i, f := range v.Fields {
			fj, err := fieldToJSON(f)
			if err != nil {
				return nil, err
			}
			fields[i] = fj
		}
		return json.Marshal(structJSON{Type: "struct", Fields: fields})
	case ListType:
		elem, err := MarshalType(v.Element)
		if err != nil {
			return nil, err
		}
		return json.Marshal(listJSON{
			Type:            "list",
			ElementID:       v.ElementID,
			Element:         elem,
			ElementRequired: v.ElementRequired,
		})
	case MapType:
		key, err := MarshalType(v.Key)
		if err != nil {
			return nil, err
		}
		val, err := MarshalType(v.Value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(mapJSON{
			Type:          "map",
			KeyID:         v.KeyID,
			Key:           key,
			ValueID:       v.ValueID,
			Value:         val,
			ValueRequired: v.ValueRequired,
		})
	default:
		return nil, errors.Newf(ErrUnknownType, "cannot marshal type %T", t)
	}
}

// ParseType parses a JSON type document (either a bare primitive string
// or a nested-type object) into a Type.
func ParseType(data []byte) (Type, error) {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return nil, errors.New(ErrUnknownType, "invalid primitive type string", err)
		}
		return PrimitiveType{name}, nil
	}

	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, errors.New(ErrUnknownType, "invalid type document", err)
	}

	switch tagged.Type {
	case "struct":
		var s structJSON
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errors.New(ErrUnknownType, "invalid struct type", err)
		}
		fields := make([]NestedField, len(s.Fields))
		for i, fj := range s.Fields {
			f, err := fieldFromJSON(fj)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return StructType{Fields: fields}, nil
	case "list":
		var l listJSON
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, errors.New(ErrUnknownType, "invalid list type", err)
		}
		elem, err := ParseType(l.Element)
		if err != nil {
			return nil, err
		}
		return ListType{ElementID: l.ElementID, Element: elem, ElementRequired: l.ElementRequired}, nil
	case "map":
		var m mapJSON
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.New(ErrUnknownType, "invalid map type", err)
		}
		key, err := ParseType(m.Key)
		if err != nil {
			return nil, err
		}
		val, err := ParseType(m.Value)
		if err != nil {
			return nil, err
		}
		return MapType{KeyID: m.KeyID, Key: key, ValueID: m.ValueID, Value: val, ValueRequired: m.ValueRequired}, nil
	default:
		return nil, errors.Newf(ErrUnknownType, "unrecognised nested type tag %q", tagged.Type)
	}
}

type structJSON struct {
	Type   string      `json:"type"`
	Fields []fieldJSON `json:"fields"`
}

type listJSON struct {
	Type            string          `json:"type"`
	ElementID       int             `json:"element-id"`
	Element         json.RawMessage `json:"element"`
	ElementRequired bool            `json:"element-required"`
}

type mapJSON struct {
	Type          string          `json:"type"`
	KeyID         int             `json:"key-id"`
	Key           json.RawMessage `json:"key"`
	ValueID       int             `json:"value-id"`
	Value         json.RawMessage `json:"value"`
	ValueRequired bool            `json:"value-required"`
}

type fieldJSON struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Required       bool            `json:"required"`
	Type           json.RawMessage `json:"type"`
	Doc            string          `json:"doc,omitempty"`
	InitialDefault json.RawMessage `json:"initial-default,omitempty"`
	WriteDefault   json.RawMessage `json:"write-default,omitempty"`
}

func fieldToJSON(f NestedField) (fieldJSON, error) {
	typeJSON, err := MarshalType(f.Type)
	if err != nil {
		return fieldJSON{}, err
	}
	fj := fieldJSON{ID: f.ID, Name: f.Name, Required: f.Required, Type: typeJSON, Doc: f.Doc}
	if f.HasInitDefault {
		b, err := json.Marshal(f.InitialDefault)
		if err != nil {
			return fieldJSON{}, errors.New(errors.CommonInternal, "failed to marshal initial-default", err)
		}
		fj.InitialDefault = b
	}
	if f.HasWriteDefault {
		b, err := json.Marshal(f.WriteDefault)
		if err != nil {
			return fieldJSON{}, errors.New(errors.CommonInternal, "failed to marshal write-default", err)
		}
		fj.WriteDefault = b
	}
	return fj, nil
}

func fieldFromJSON(fj fieldJSON) (NestedField, error) {
	t, err := ParseType(fj.Type)
	if err != nil {
		return NestedField{}, err
	}
	f := NestedField{ID: fj.ID, Name: fj.Name, Required: fj.Required, Type: t, Doc: fj.Doc}
	if len(fj.InitialDefault) > 0 {
		if err := json.Unmarshal(fj.InitialDefault, &f.InitialDefault); err != nil {
			return NestedField{}, errors.New(errors.CommonInternal, "failed to unmarshal initial-default", err)
		}
		f.HasInitDefault = true
	}
	if len(fj.WriteDefault) > 0 {
		if err := json.Unmarshal(fj.WriteDefault, &f.WriteDefault); err != nil {
			return NestedField{}, errors.New(errors.CommonInternal, "failed to unmarshal write-default", err)
		}
		f.HasWriteDefault = true
	}
	return f, nil
}
