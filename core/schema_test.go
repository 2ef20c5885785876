package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testSchema = NewSchema(map[string]Field{
	"title":  {Required: true},
	"points": {Required: true},
	"note":   {},
})

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name   string
		obj    map[string]interface{}
		schema Schema
		want   bool
	}{
		{name: "nil object", obj: nil, schema: testSchema},
		{name: "missing required", obj: map[string]interface{}{"title": "T"}, schema: testSchema},
		{name: "all required", obj: map[string]interface{}{"title": "T", "points": 10}, want: true, schema: testSchema},
		{name: "falsy values still present", obj: map[string]interface{}{"title": "", "points": 0}, want: true, schema: testSchema},
		{name: "wrong types are fine", obj: map[string]interface{}{"title": 1, "points": "lol"}, want: true, schema: testSchema},
		{name: "partial schema accepts empty object", obj: map[string]interface{}{}, want: true, schema: testSchema.Partial()},
		{name: "partial schema rejects nil", obj: nil, schema: testSchema.Partial()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSchema(tt.obj, tt.schema); got != tt.want {
				t.Errorf("ValidateSchema() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchema_Partial(t *testing.T) {
	partial := testSchema.Partial()
	assert.False(t, partial.IsRequired("title"))
	assert.True(t, partial.Has("title"))
	assert.Equal(t, testSchema.Names(), partial.Names())

	// the full schema is left untouched
	assert.True(t, testSchema.IsRequired("title"))
	assert.True(t, testSchema.IsRequired("points"))
}

func TestExtractValidFields(t *testing.T) {
	tests := []struct {
		name string
		obj  map[string]interface{}
		want map[string]interface{}
	}{
		{name: "nil object", obj: nil, want: map[string]interface{}{}},
		{
			name: "unknown fields stripped",
			obj:  map[string]interface{}{"title": "T", "points": 10, "enrolled": []string{"x"}, "_id": "lol"},
			want: map[string]interface{}{"title": "T", "points": 10},
		},
		{
			name: "falsy values dropped",
			obj:  map[string]interface{}{"title": "", "points": 0, "note": false},
			want: map[string]interface{}{},
		},
		{
			name: "json numbers",
			obj:  map[string]interface{}{"points": json.Number("0"), "note": json.Number("1.5")},
			want: map[string]interface{}{"note": json.Number("1.5")},
		},
		{
			name: "empty collections are truthy",
			obj:  map[string]interface{}{"note": []interface{}{}},
			want: map[string]interface{}{"note": []interface{}{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractValidFields(tt.obj, testSchema))
		})
	}
}

func TestDecodeFields(t *testing.T) {
	type target struct {
		Title  string `json:"title"`
		Points int    `json:"points"`
	}

	var dst target
	err := DecodeFields(map[string]interface{}{"title": "T", "points": json.Number("12")}, &dst)
	assert.NoError(t, err)
	assert.Equal(t, target{Title: "T", Points: 12}, dst)

	err = DecodeFields(map[string]interface{}{"points": "twelve"}, &dst)
	if assert.Error(t, err) {
		vErr, ok := err.(*ValidationError)
		if assert.True(t, ok) && assert.Len(t, vErr.Fields, 1) {
			assert.Equal(t, "points", vErr.Fields[0].Field)
		}
	}
}
