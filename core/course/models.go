package course

import (
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/authz"
)

var (
	Schema = core.NewSchema(map[string]core.Field{
		"subject":      {Required: true},
		"number":       {Required: true},
		"title":        {Required: true},
		"term":         {Required: true},
		"instructorId": {Required: true},
	})
	PatchSchema = Schema.Partial()

	RosterSchema = core.NewSchema(map[string]core.Field{
		"add":    {},
		"remove": {},
	})
)

type Course struct {
	ID           string   `json:"id"`
	Subject      string   `json:"subject"`
	Number       int      `json:"number"`
	Title        string   `json:"title"`
	Term         string   `json:"term"`
	InstructorID string   `json:"instructorId"`
	Enrolled     []string `json:"-"`
}

// Resource returns the ownership facts of the course for authorization.
func (c Course) Resource() authz.Resource {
	return authz.Resource{InstructorID: c.InstructorID, Enrolled: c.Enrolled}
}

func (c Course) IsEnrolled(studentID string) bool {
	return core.ContainsString(c.Enrolled, studentID)
}

// QueryFilter applies AND operation on its non-empty fields.
type QueryFilter struct {
	Subject string
	Number  *int
	Term    string
}

// NewQueryFilter reads the filter from query params.
// It reports false when a param cannot match any course.
func NewQueryFilter(query url.Values) (QueryFilter, bool) {
	filter := QueryFilter{
		Subject: query.Get("subject"),
		Term:    query.Get("term"),
	}
	if raw := query.Get("number"); raw != "" {
		num, err := strconv.Atoi(raw)
		if err != nil {
			return QueryFilter{}, false
		}
		filter.Number = &num
	}
	return filter, true
}

// Params returns the filter as query params, for pagination links.
func (f QueryFilter) Params() url.Values {
	params := url.Values{}
	if f.Subject != "" {
		params.Set("subject", f.Subject)
	}
	if f.Number != nil {
		params.Set("number", strconv.Itoa(*f.Number))
	}
	if f.Term != "" {
		params.Set("term", f.Term)
	}
	return params
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Subject      string `json:"subject" validate:"required"`
	Number       int    `json:"number" validate:"required,gte=0"`
	Title        string `json:"title" validate:"required"`
	Term         string `json:"term" validate:"required"`
	InstructorID string `json:"instructorId" validate:"required,objectid"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Subject = core.CleanString(nc.Subject)
	nc.Title = core.CleanString(nc.Title)
	nc.Term = core.CleanString(nc.Term)
	nc.InstructorID = core.CleanString(nc.InstructorID, true /* lower */)
	return validate.Struct(nc)
}

// UpdateCourse holds the fields of a Course to change. Nil fields are left untouched.
type UpdateCourse struct {
	Subject      *string `json:"subject"`
	Number       *int    `json:"number" validate:"omitempty,gte=0"`
	Title        *string `json:"title"`
	Term         *string `json:"term"`
	InstructorID *string `json:"instructorId" validate:"omitempty,objectid"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uc.Subject, uc.Title, uc.Term} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if uc.InstructorID != nil {
		*uc.InstructorID = core.CleanString(*uc.InstructorID, true /* lower */)
	}
	return validate.Struct(uc)
}

func (uc UpdateCourse) IsEmpty() bool {
	return uc.Subject == nil && uc.Number == nil && uc.Title == nil && uc.Term == nil && uc.InstructorID == nil
}

// RosterUpdate lists the students to enroll in or drop from a Course.
type RosterUpdate struct {
	Add    []string `json:"add" validate:"omitempty,objectid"`
	Remove []string `json:"remove" validate:"omitempty,objectid"`
}

func (ru *RosterUpdate) Validate(validate *validator.Validate) error {
	if len(ru.Add) == 0 && len(ru.Remove) == 0 {
		return core.NewValidationError(ErrEmptyRoster,
			core.FieldError{Field: "add", Error: ErrEmptyRoster.Error()},
			core.FieldError{Field: "remove", Error: ErrEmptyRoster.Error()},
		)
	}
	for i, id := range ru.Add {
		ru.Add[i] = core.CleanString(id, true /* lower */)
	}
	for i, id := range ru.Remove {
		ru.Remove[i] = core.CleanString(id, true /* lower */)
	}
	return validate.Struct(ru)
}
