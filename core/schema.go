package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Field describes the constraints of a single Schema field.
type Field struct {
	Required bool
}

// Schema lists the fields accepted for an entity. A Schema is immutable once built.
type Schema struct {
	fields map[string]Field
}

// NewSchema builds a Schema from the given fields.
func NewSchema(fields map[string]Field) Schema {
	s := Schema{fields: make(map[string]Field, len(fields))}
	for name, fld := range fields {
		s.fields[name] = fld
	}
	return s
}

// Partial returns a new Schema with the same fields, none of them required.
func (s Schema) Partial() Schema {
	p := Schema{fields: make(map[string]Field, len(s.fields))}
	for name := range s.fields {
		p.fields[name] = Field{Required: false}
	}
	return p
}

func (s Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

func (s Schema) IsRequired(name string) bool {
	return s.fields[name].Required
}

// Names returns the schema field names, sorted.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateSchema reports whether `obj` is non-nil and contains every required field of `schema`.
// Values are not type-checked.
func ValidateSchema(obj map[string]interface{}, schema Schema) bool {
	if obj == nil {
		return false
	}
	for name, fld := range schema.fields {
		if !fld.Required {
			continue
		}
		if _, ok := obj[name]; !ok {
			return false
		}
	}
	return true
}

// ExtractValidFields returns a new map holding only the fields of `obj` that are known to `schema`
// and whose value is truthy. Falsy values (nil, false, 0, NaN and "") are dropped.
func ExtractValidFields(obj map[string]interface{}, schema Schema) map[string]interface{} {
	valid := make(map[string]interface{}, len(schema.fields))
	for name := range schema.fields {
		if val, ok := obj[name]; ok && truthy(val) {
			valid[name] = val
		}
	}
	return valid
}

func truthy(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	case float64:
		return v != 0 && !math.IsNaN(v)
	case float32:
		return v != 0 && !math.IsNaN(float64(v))
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	}
	// arrays and objects are truthy, even when empty
	return true
}

// DecodeFields decodes extracted fields into the typed struct pointed to by `dst`.
// Type mismatches are reported as a ValidationError on the offending field.
func DecodeFields(fields map[string]interface{}, dst interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "encoding fields")
	}
	if err = json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return NewValidationError(err, FieldError{
				Field: typeErr.Field,
				Error: fmt.Sprintf("invalid value, expected %s", typeErr.Type.String()),
			})
		}
		return NewValidationError(err)
	}
	return nil
}
