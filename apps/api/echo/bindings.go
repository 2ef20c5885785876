package echoapi

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tarpaulin/core"
)

// bindFields decodes the JSON body of the request, keeps the truthy fields known to `schema`
// and decodes them into `dst`.
// A body that is not an object, or lacks a required field, is reported as an invalid `entity` object.
func bindFields(ctx echo.Context, entity string, schema core.Schema, dst interface{}) error {
	var obj map[string]interface{}
	dec := json.NewDecoder(ctx.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil && err != io.EOF {
		return invalidBody(entity)
	}
	if !core.ValidateSchema(obj, schema) {
		return invalidBody(entity)
	}
	return core.DecodeFields(core.ExtractValidFields(obj, schema), dst)
}

func invalidBody(entity string) error {
	return core.NewValidationError(fmt.Errorf("Request body is not a valid %s object", entity))
}
