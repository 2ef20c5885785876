package submission

import (
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarpaulin/core"
)

// Schema lists the form fields accepted along with a submitted file.
var Schema = core.NewSchema(map[string]core.Field{
	"studentId": {Required: true},
	"timestamp": {Required: true},
})

type Submission struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignmentId"`
	StudentID    string    `json:"studentId"`
	Timestamp    time.Time `json:"timestamp"`
	ContentType  string    `json:"contentType"`
	URL          string    `json:"url"`
	Filename     string    `json:"-"`
	Length       int64     `json:"-"`
}

// Metadata is stored along with a submission file.
type Metadata struct {
	ContentType  string
	StudentID    string
	AssignmentID string
	Timestamp    time.Time
}

// QueryFilter applies AND operation on its non-empty fields.
type QueryFilter struct {
	StudentID string
}

// NewQueryFilter reads the filter from query params.
// It reports false when a param cannot match any submission.
func NewQueryFilter(query url.Values) (QueryFilter, bool) {
	studentID := query.Get("studentId")
	if studentID != "" && !core.IsObjectID(studentID) {
		return QueryFilter{}, false
	}
	return QueryFilter{StudentID: studentID}, true
}

// Params returns the filter as query params, for pagination links.
func (f QueryFilter) Params() url.Values {
	params := url.Values{}
	if f.StudentID != "" {
		params.Set("studentId", f.StudentID)
	}
	return params
}

// NewSubmission contains the form fields needed to create a new Submission.
type NewSubmission struct {
	StudentID string    `json:"studentId" validate:"required,objectid"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.StudentID = core.CleanString(ns.StudentID, true /* lower */)
	return validate.Struct(ns)
}
