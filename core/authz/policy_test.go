package authz

import "testing"

func TestAllowed(t *testing.T) {
	var (
		anon       = Identity{}
		admin      = Identity{ID: "a1", Role: RoleAdmin}
		instructor = Identity{ID: "i1", Role: RoleInstructor}
		otherInstr = Identity{ID: "i2", Role: RoleInstructor}
		student    = Identity{ID: "s1", Role: RoleStudent}
		outsider   = Identity{ID: "s2", Role: RoleStudent}

		course = Resource{InstructorID: instructor.ID, Enrolled: []string{student.ID}}
	)

	tests := []struct {
		name   string
		who    Identity
		action Action
		res    Resource
		want   bool
	}{
		{name: "anyone lists courses", who: anon, action: CourseList, want: true},
		{name: "anonymous cannot create course", who: anon, action: CourseCreate},
		{name: "admin creates course", who: admin, action: CourseCreate, want: true},
		{name: "instructor cannot create course", who: instructor, action: CourseCreate},
		{name: "owning instructor updates course", who: instructor, action: CourseUpdate, res: course, want: true},
		{name: "other instructor cannot update course", who: otherInstr, action: CourseUpdate, res: course},
		{name: "student cannot delete course", who: student, action: CourseDelete, res: course},
		{name: "admin views roster", who: admin, action: RosterView, res: course, want: true},
		{name: "student cannot export roster", who: student, action: RosterExport, res: course},
		{name: "instructor lists submissions", who: instructor, action: SubmissionList, res: course, want: true},
		{name: "enrolled student submits", who: student, action: SubmissionCreate, res: course, want: true},
		{name: "not enrolled student cannot submit", who: outsider, action: SubmissionCreate, res: course},
		{name: "admin cannot submit", who: admin, action: SubmissionCreate, res: course},
		{name: "instructor cannot submit", who: instructor, action: SubmissionCreate, res: course},
		{name: "anyone signs up as student", who: anon, action: UserCreateStudent, want: true},
		{name: "anonymous cannot create instructor", who: anon, action: UserCreatePrivileged},
		{name: "admin creates instructor", who: admin, action: UserCreatePrivileged, want: true},
		{name: "user views self", who: student, action: UserView, res: Resource{OwnerID: student.ID}, want: true},
		{name: "admin cannot view others", who: admin, action: UserView, res: Resource{OwnerID: student.ID}},
		{name: "unknown action", who: admin, action: Action("lol")},
		{name: "instructor without owner info", who: instructor, action: AssignmentCreate, res: Resource{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.who, tt.action, tt.res); got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
			err := Authorize(tt.who, tt.action, tt.res)
			if tt.want && err != nil {
				t.Errorf("Authorize() error = %v, want nil", err)
			}
			if !tt.want && err != ErrForbidden {
				t.Errorf("Authorize() error = %v, want %v", err, ErrForbidden)
			}
		})
	}
}
