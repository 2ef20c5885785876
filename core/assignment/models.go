package assignment

import (
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarpaulin/core"
)

var (
	Schema = core.NewSchema(map[string]core.Field{
		"courseId": {Required: true},
		"title":    {Required: true},
		"points":   {Required: true},
		"due":      {Required: true},
	})
	PatchSchema = Schema.Partial()
)

type Assignment struct {
	ID       string    `json:"id"`
	CourseID string    `json:"courseId"`
	Title    string    `json:"title"`
	Points   int       `json:"points"`
	Due      time.Time `json:"due"`
}

// QueryFilter applies AND operation on its non-empty fields.
type QueryFilter struct {
	CourseID string
}

// NewQueryFilter reads the filter from query params.
// It reports false when a param cannot match any assignment.
func NewQueryFilter(query url.Values) (QueryFilter, bool) {
	courseID := query.Get("courseId")
	if courseID != "" && !core.IsObjectID(courseID) {
		return QueryFilter{}, false
	}
	return QueryFilter{CourseID: courseID}, true
}

// Params returns the filter as query params, for pagination links.
func (f QueryFilter) Params() url.Values {
	params := url.Values{}
	if f.CourseID != "" {
		params.Set("courseId", f.CourseID)
	}
	return params
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	CourseID string    `json:"courseId" validate:"required,objectid"`
	Title    string    `json:"title" validate:"required"`
	Points   int       `json:"points" validate:"required,gte=0"`
	Due      time.Time `json:"due" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.CourseID = core.CleanString(na.CourseID, true /* lower */)
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// UpdateAssignment holds the fields of an Assignment to change. Nil fields are left untouched.
// CourseID is only compared against the current course, never stored.
type UpdateAssignment struct {
	CourseID *string    `json:"courseId"`
	Title    *string    `json:"title"`
	Points   *int       `json:"points" validate:"omitempty,gte=0"`
	Due      *time.Time `json:"due"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	if ua.CourseID != nil {
		*ua.CourseID = core.CleanString(*ua.CourseID, true /* lower */)
	}
	if ua.Title != nil {
		*ua.Title = core.CleanString(*ua.Title)
	}
	return validate.Struct(ua)
}

func (ua UpdateAssignment) IsEmpty() bool {
	return ua.CourseID == nil && ua.Title == nil && ua.Points == nil && ua.Due == nil
}
