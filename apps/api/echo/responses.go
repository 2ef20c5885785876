package echoapi

import (
	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/course"
	"github.com/trezcool/tarpaulin/core/submission"
)

type (
	// Links holds HATEOAS links to related resources.
	Links map[string]string

	CreatedResponse struct {
		ID    string `json:"id"`
		Links Links  `json:"links"`
	}

	LinksResponse struct {
		Links Links `json:"links"`
	}

	CoursePage struct {
		Courses []course.Course `json:"courses"`
		core.Page
	}

	AssignmentPage struct {
		Assignments []assignment.Assignment `json:"assignments"`
		core.Page
	}

	SubmissionPage struct {
		Submissions []submission.Submission `json:"submissions"`
		core.Page
	}
)

func courseLink(id string) string     { return "/courses/" + id }
func assignmentLink(id string) string { return "/assignments/" + id }
func userLink(id string) string       { return "/users/" + id }
