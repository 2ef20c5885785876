// Package authz holds the authorization policy of the API: one table mapping every action to the
// callers allowed to perform it. Routes resolve the resource owners, then ask Authorize.
package authz

import "errors"

// Roles
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

var (
	AllRoles = []string{RoleAdmin, RoleInstructor, RoleStudent}

	ErrForbidden = errors.New("permission denied")
)

// Action is something a caller can attempt on a resource.
type Action string

const (
	CourseCreate      Action = "course:create"
	CourseView        Action = "course:view"
	CourseList        Action = "course:list"
	CourseUpdate      Action = "course:update"
	CourseDelete      Action = "course:delete"
	CourseAssignments Action = "course:assignments"
	RosterView        Action = "course:roster:view"
	RosterUpdate      Action = "course:roster:update"
	RosterExport      Action = "course:roster:csv"

	AssignmentCreate Action = "assignment:create"
	AssignmentView   Action = "assignment:view"
	AssignmentList   Action = "assignment:list"
	AssignmentUpdate Action = "assignment:update"
	AssignmentDelete Action = "assignment:delete"

	SubmissionList     Action = "submission:list"
	SubmissionCreate   Action = "submission:create"
	SubmissionDownload Action = "media:download"

	UserCreateStudent    Action = "user:create:student"
	UserCreatePrivileged Action = "user:create:privileged"
	UserView             Action = "user:view"
)

// Grant is a set of caller classes allowed to perform an action.
type Grant uint8

const (
	Anyone Grant = 1 << iota
	Admin
	CourseInstructor
	EnrolledStudent
	Self
)

// Policy is the authorization table of the API.
var Policy = map[Action]Grant{
	CourseCreate:      Admin,
	CourseView:        Anyone,
	CourseList:        Anyone,
	CourseUpdate:      Admin | CourseInstructor,
	CourseDelete:      Admin | CourseInstructor,
	CourseAssignments: Anyone,
	RosterView:        Admin | CourseInstructor,
	RosterUpdate:      Admin | CourseInstructor,
	RosterExport:      Admin | CourseInstructor,

	AssignmentCreate: Admin | CourseInstructor,
	AssignmentView:   Anyone,
	AssignmentList:   Anyone,
	AssignmentUpdate: Admin | CourseInstructor,
	AssignmentDelete: Admin | CourseInstructor,

	SubmissionList:     Admin | CourseInstructor,
	SubmissionCreate:   EnrolledStudent,
	SubmissionDownload: Anyone,

	UserCreateStudent:    Anyone,
	UserCreatePrivileged: Admin,
	UserView:             Self,
}

// Identity is the authenticated caller. The zero value is an anonymous caller.
type Identity struct {
	ID   string
	Role string
}

func (id Identity) IsAnonymous() bool { return id.ID == "" }
func (id Identity) IsAdmin() bool     { return id.Role == RoleAdmin }

// Resource carries the ownership facts needed to evaluate a Grant.
type Resource struct {
	InstructorID string   // instructor of the owning course
	Enrolled     []string // students enrolled in the owning course
	OwnerID      string   // user the resource is about
}

// Allowed reports whether `who` may perform `action` on `res`.
func Allowed(who Identity, action Action, res Resource) bool {
	grant, ok := Policy[action]
	if !ok {
		return false
	}
	if grant&Anyone != 0 {
		return true
	}
	if who.IsAnonymous() {
		return false
	}
	if grant&Admin != 0 && who.Role == RoleAdmin {
		return true
	}
	if grant&CourseInstructor != 0 && who.Role == RoleInstructor && res.InstructorID != "" && who.ID == res.InstructorID {
		return true
	}
	if grant&EnrolledStudent != 0 && who.Role == RoleStudent {
		for _, id := range res.Enrolled {
			if id == who.ID {
				return true
			}
		}
	}
	if grant&Self != 0 && res.OwnerID != "" && who.ID == res.OwnerID {
		return true
	}
	return false
}

// Authorize returns ErrForbidden unless `who` may perform `action` on `res`.
func Authorize(who Identity, action Action, res Resource) error {
	if Allowed(who, action, res) {
		return nil
	}
	return ErrForbidden
}

// IsValidRole reports whether `role` is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
