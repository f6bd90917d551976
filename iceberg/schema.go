package iceberg

import (
	"encoding/json"

	"github.com/icebergd/coreberg/pkg/errors"
)

// Schema is a named, versioned struct of fields. It is
// immutable once constructed; evolving a table adds a new Schema with a
// new SchemaID.
type Schema struct {
	SchemaID            int
	Struct              StructType
	IdentifierFieldIDs  []int
}

// Fields is a convenience accessor for s.Struct.Fields.
func (s Schema) Fields() []NestedField { return s.Struct.Fields }

// HighestFieldID returns the greatest field ID used anywhere in the
// schema, recursing into nested structs/lists/maps.
func (s Schema) HighestFieldID() int {
	max := 0
	var walk func(t Type)
	walkField := func(id int, t Type) {
		if id > max {
			max = id
		}
		walk(t)
	}
	walk = func(t Type) {
		switch v := t.(type) {
		case StructType:
			for _, f := range v.Fields {
				walkField(f.ID, f.Type)
			}
		case ListType:
			walkField(v.ElementID, v.Element)
		case MapType:
			walkField(v.KeyID, v.Key)
			walkField(v.ValueID, v.Value)
		}
	}
	for _, f := range s.Struct.Fields {
		walkField(f.ID, f.Type)
	}
	return max
}

// Validate enforces the table spec's schema invariants: field IDs unique per
// schema, names unique at their struct level.
func (s Schema) Validate() error {
	seenIDs := map[int]bool{}
	var walk func(st StructType) error
	walk = func(st StructType) error {
		seenNames := map[string]bool{}
		for _, f := range st.Fields {
			if seenIDs[f.ID] {
				return errors.Newf(ErrFieldIDConflict, "field id %d reused within schema %d", f.ID, s.SchemaID)
			}
			seenIDs[f.ID] = true
			if seenNames[f.Name] {
				return errors.Newf(ErrFieldIDConflict, "field name %q reused at one struct level in schema %d", f.Name, s.SchemaID)
			}
			seenNames[f.Name] = true
			switch v := f.Type.(type) {
			case StructType:
				if err := walk(v); err != nil {
					return err
				}
			case ListType:
				if seenIDs[v.ElementID] {
					return errors.Newf(ErrFieldIDConflict, "field id %d reused within schema %d", v.ElementID, s.SchemaID)
				}
				seenIDs[v.ElementID] = true
			case MapType:
				if seenIDs[v.KeyID] || seenIDs[v.ValueID] {
					return errors.Newf(ErrFieldIDConflict, "map key/value id reused within schema %d", s.SchemaID)
				}
				seenIDs[v.KeyID] = true
				seenIDs[v.ValueID] = true
			}
		}
		return nil
	}
	return walk(s.Struct)
}

type schemaJSON struct {
	Type                string      `json:"type"`
	SchemaID            int         `json:"schema-id"`
	IdentifierFieldIDs  []int       `json:"identifier-field-ids,omitempty"`
	Fields              []fieldJSON `json:"fields"`
}

// MarshalJSON renders the schema the way the Iceberg REST/metadata.json
// shape expects: a "struct" typed object carrying schema-id alongside
// fields, rather than a nested "struct" field.
func (s Schema) MarshalJSON() ([]byte, error) {
	fields := make([]fieldJSON, len(s.Struct.Fields))
	for i, f := range s.Struct.Fields {
		fj, err := fieldToJSON(f)
		if err != nil {
			return nil, err
		}
		fields[i] = fj
	}
	return json.Marshal(schemaJSON{
		Type:               "struct",
		SchemaID:           s.SchemaID,
		IdentifierFieldIDs: s.IdentifierFieldIDs,
		Fields:             fields,
	})
}

// UnmarshalJSON parses a schema document in the shape MarshalJSON emits.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var sj schemaJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return errors.New(errors.CommonValidation, "invalid schema document", err)
	}
	fields := make([]NestedField, len(sj.Fields))
	for i, fj := range sj.Fields {
		f, err := fieldFromJSON(fj)
		if err != nil {
			return err
		}
		fields[i] = f
	}
	s.SchemaID = sj.SchemaID
	s.Struct = StructType{Fields: fields}
	s.IdentifierFieldIDs = sj.IdentifierFieldIDs
	return nil
}
