package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/tarpaulin/apps/api/echo"
	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/submission"
	"github.com/trezcool/tarpaulin/core/user"
	"github.com/trezcool/tarpaulin/testutil"
)

func Test_assignmentApi_query(t *testing.T) {
	env := setup(t)

	instructor := testutil.CreateUser(t, env.usrRepo, "Instructor", "instructor@test.com", "pwd", user.RoleInstructor)
	crs1 := testutil.CreateCourse(t, env.crsRepo, "CS", 493, "Cloud", "sp19", instructor.ID)
	crs2 := testutil.CreateCourse(t, env.crsRepo, "CS", 492, "Mobile", "sp19", instructor.ID)
	due := time.Date(2019, 6, 14, 17, 0, 0, 0, time.UTC)

	var all, ofCrs2 []assignment.Assignment
	for i := 0; i < 12; i++ {
		crsID := crs1.ID
		if i%3 == 0 {
			crsID = crs2.ID
		}
		asg := testutil.CreateAssignment(t, env.asgRepo, crsID, fmt.Sprintf("A%d", i), 10*i, due)
		all = append(all, asg)
		if crsID == crs2.ID {
			ofCrs2 = append(ofCrs2, asg)
		}
	}

	runHTTPTests(t, env.app, []httpTest{
		{
			name: "first page", path: "/assignments", wantCode: http.StatusOK,
			wantData: marchallObj(t, AssignmentPage{Assignments: all[:10], Page: core.Page{
				Page: 1, TotalPages: 2, PageSize: 10, Count: 12,
				Links: core.PageLinks{NextPage: "/assignments?page=2", LastPage: "/assignments?page=2"},
			}}),
		},
		{
			name: "last page", path: "/assignments?page=2", wantCode: http.StatusOK,
			wantData: marchallObj(t, AssignmentPage{Assignments: all[10:], Page: core.Page{
				Page: 2, TotalPages: 2, PageSize: 10, Count: 12,
				Links: core.PageLinks{PrevPage: "/assignments?page=1", FirstPage: "/assignments?page=1"},
			}}),
		},
		{
			name: "filter by course", path: "/assignments?courseId=" + crs2.ID, wantCode: http.StatusOK,
			wantData: marchallObj(t, AssignmentPage{Assignments: ofCrs2, Page: core.Page{
				Page: 1, TotalPages: 1, PageSize: 10, Count: 4, Links: core.PageLinks{},
			}}),
		},
		{
			name: "malformed courseId", path: "/assignments?courseId=lol", wantCode: http.StatusOK,
			wantData: marchallObj(t, AssignmentPage{Assignments: []assignment.Assignment{}, Page: core.EmptyPage()}),
		},
	})
}

func Test_assignmentApi_create(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.com", "pwd", user.RoleAdmin)
	instructor := testutil.CreateUser(t, env.usrRepo, "Instructor", "instructor@test.com", "pwd", user.RoleInstructor)
	other := testutil.CreateUser(t, env.usrRepo, "Other", "other@test.com", "pwd", user.RoleInstructor)
	crs := testutil.CreateCourse(t, env.crsRepo, "CS", 493, "Cloud", "sp19", instructor.ID)

	body := func(courseID string) []byte {
		return []byte(fmt.Sprintf(
			`{"courseId": %q, "title": "CS 493 Assignment 1", "points": 100, "due": "2019-06-14T17:00:00-07:00"}`,
			courseID,
		))
	}
	courseNotFound := httpFieldsErr{
		Error:  assignment.ErrCourseNotFound.Error(),
		Fields: map[string]string{"courseId": assignment.ErrCourseNotFound.Error()},
	}

	tests := []httpTest{
		{name: "auth required", body: body(crs.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "missing field", body: []byte(`{"courseId": "` + crs.ID + `", "title": "T", "points": 10}`), token: getToken(t, admin),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Request body is not a valid assignment object"}),
		},
		{
			name: "unknown course", body: body("5cd4c4ad5f0dbe3d2a1b7f4e"), token: getToken(t, admin),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, courseNotFound),
		},
		{
			name: "other instructor", body: body(crs.ID), token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "course instructor", body: body(crs.ID), token: getToken(t, instructor), wantCode: http.StatusCreated},
		{name: "admin", body: body(crs.ID), token: getToken(t, admin), wantCode: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/assignments", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}
			if !assert.Equal(t, tt.wantCode, rec.Code) {
				return
			}
			var resp CreatedResponse
			unmarchallObj(t, rec.Body.Bytes(), &resp)
			assert.Equal(t, Links{"assignment": "/assignments/" + resp.ID}, resp.Links)

			req, rec = newRequest(http.MethodGet, "/assignments/"+resp.ID)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{
				wantCode: http.StatusOK,
				wantData: marchallObj(t, assignment.Assignment{
					ID:       resp.ID,
					CourseID: crs.ID,
					Title:    "CS 493 Assignment 1",
					Points:   100,
					Due:      time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC),
				}),
			}, rec)
		})
	}
}

func Test_assignmentApi_update(t *testing.T) {
	env := setup(t)

	instructor := testutil.CreateUser(t, env.usrRepo, "Instructor", "instructor@test.com", "pwd", user.RoleInstructor)
	student := testutil.CreateUser(t, env.usrRepo, "Student", "student@test.com", "pwd", user.RoleStudent)
	crs := testutil.CreateCourse(t, env.crsRepo, "CS", 493, "Cloud", "sp19", instructor.ID, student.ID)
	otherCrs := testutil.CreateCourse(t, env.crsRepo, "CS", 492, "Mobile", "sp19", instructor.ID)
	due := time.Date(2019, 6, 14, 17, 0, 0, 0, time.UTC)
	asg := testutil.CreateAssignment(t, env.asgRepo, crs.ID, "A1", 100, due)
	orphan := testutil.CreateAssignment(t, env.asgRepo, "5cd4c4ad5f0dbe3d2a1b7f4e", "Orphan", 10, due)

	path := "/assignments/" + asg.ID
	token := getToken(t, instructor)
	links := marchallObj(t, LinksResponse{Links: Links{"assignment": path}})

	runHTTPTests(t, env.app, []httpTest{
		{
			name: "enrolled student", method: http.MethodPatch, path: path, body: []byte(`{"title": "T"}`),
			token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "course change", method: http.MethodPatch, path: path, token: token,
			body:     []byte(`{"courseId": "` + otherCrs.ID + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpFieldsErr{
				Error:  assignment.ErrCourseChange.Error(),
				Fields: map[string]string{"courseId": assignment.ErrCourseChange.Error()},
			}),
		},
		{
			name: "points is not a number", method: http.MethodPatch, path: path, token: token,
			body:     []byte(`{"points": "lol"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing assignment", method: http.MethodPatch, path: "/assignments/5cd4c4ad5f0dbe3d2a1b7f4f", token: token,
			body:     []byte(`{"title": "T"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Requested resource /assignments/5cd4c4ad5f0dbe3d2a1b7f4f does not exist"}),
		},
		{
			name: "owning course is missing", method: http.MethodPatch, path: "/assignments/" + orphan.ID, token: token,
			body:     []byte(`{"title": "T"}`),
			wantCode: http.StatusInternalServerError, wantData: marchallObj(t, httpErr{Error: "Internal Server Error"}),
		},
		{
			name: "same course", method: http.MethodPatch, path: path, token: token,
			body:     []byte(`{"courseId": "` + crs.ID + `", "title": "CS 493 Assignment 1", "due": "2019-06-21T17:00:00Z"}`),
			wantCode: http.StatusOK, wantData: links,
		},
	})

	updated, err := env.asgRepo.GetAssignmentByID(context.Background(), asg.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, assignment.Assignment{
			ID:       asg.ID,
			CourseID: crs.ID,
			Title:    "CS 493 Assignment 1",
			Points:   100,
			Due:      time.Date(2019, 6, 21, 17, 0, 0, 0, time.UTC),
		}, updated)
	}
}

func Test_assignmentApi_destroy(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.com", "pwd", user.RoleAdmin)
	instructor := testutil.CreateUser(t, env.usrRepo, "Instructor", "instructor@test.com", "pwd", user.RoleInstructor)
	student := testutil.CreateUser(t, env.usrRepo, "Student", "student@test.com", "pwd", user.RoleStudent)
	crs := testutil.CreateCourse(t, env.crsRepo, "CS", 493, "Cloud", "sp19", instructor.ID, student.ID)
	due := time.Date(2019, 6, 14, 17, 0, 0, 0, time.UTC)
	asg := testutil.CreateAssignment(t, env.asgRepo, crs.ID, "A1", 100, due)
	sub := testutil.CreateSubmission(t, env.subRepo, asg.ID, student.ID, "a.txt", "text/plain", []byte("hello"), due)

	runHTTPTests(t, env.app, []httpTest{
		{
			name: "student", method: http.MethodDelete, path: "/assignments/" + asg.ID, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "admin", method: http.MethodDelete, path: "/assignments/" + asg.ID, token: getToken(t, admin), wantCode: http.StatusNoContent},
		{name: "assignment is gone", path: "/assignments/" + asg.ID, wantCode: http.StatusNotFound},
		{name: "submission is gone", path: "/media/submissions/" + sub.ID, wantCode: http.StatusNotFound},
		{
			name: "course is kept", path: "/courses/" + crs.ID + "/assignments", wantCode: http.StatusOK,
			wantData: marchallObj(t, AssignmentIDsResponse{Assignments: []string{}}),
		},
	})
	assert.Equal(t, 0, env.countBlobs())
}

func Test_assignmentApi_querySubmissions(t *testing.T) {
	env := setup(t)

	instructor := testutil.CreateUser(t, env.usrRepo, "Instructor", "instructor@test.com", "pwd", user.RoleInstructor)
	student1 := testutil.CreateUser(t, env.usrRepo, "Student 1", "student1@test.com", "pwd", user.RoleStudent)
	student2 := testutil.CreateUser(t, env.usrRepo, "Student 2", "student2@test.com", "pwd", user.RoleStudent)
	crs := testutil.CreateCourse(t, env.crsRepo, "CS", 493, "Cloud", "sp19", instructor.ID, student1.ID, student2.ID)
	due := time.Date(2019, 6, 14, 17, 0, 0, 0, time.UTC)
	asg := testutil.CreateAssignment(t, env.asgRepo, crs.ID, "A1", 100, due)

	var all, ofStudent2 []submission.Submission
	for i := 0; i < 11; i++ {
		studentID := student1.ID
		if i%2 == 1 {
			studentID = student2.ID
		}
		sub := testutil.CreateSubmission(t, env.subRepo, asg.ID, studentID, "s.txt", "text/plain", []byte("s"), due.Add(time.Duration(i)*time.Hour))
		all = append(all, sub)
		if studentID == student2.ID {
			ofStudent2 = append(ofStudent2, sub)
		}
	}
	path := "/assignments/" + asg.ID + "/submissions"
	token := getToken(t, instructor)

	runHTTPTests(t, env.app, []httpTest{
		{name: "auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student", path: path, token: getToken(t, student1),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "last page", path: path + "?page=2", token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, SubmissionPage{Submissions: all[10:], Page: core.Page{
				Page: 2, TotalPages: 2, PageSize: 10, Count: 11,
				Links: core.PageLinks{PrevPage: path + "?page=1", FirstPage: path + "?page=1"},
			}}),
		},
		{
			name: "filter by student", path: path + "?studentId=" + student2.ID, token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, SubmissionPage{Submissions: ofStudent2, Page: core.Page{
				Page: 1, TotalPages: 1, PageSize: 10, Count: 5, Links: core.PageLinks{},
			}}),
		},
		{
			name: "malformed studentId", path: path + "?studentId=lol", token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, SubmissionPage{Submissions: []submission.Submission{}, Page: core.EmptyPage()}),
		},
	})

	t.Run("items carry their download url", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		env.app.ServeHTTP(rec, req)

		var resp SubmissionPage
		unmarchallObj(t, rec.Body.Bytes(), &resp)
		if assert.Len(t, resp.Submissions, 10) {
			first := resp.Submissions[0]
			assert.Equal(t, "/media/submissions/"+first.ID, first.URL)
			assert.Equal(t, asg.ID, first.AssignmentID)
			assert.Equal(t, "text/plain", first.ContentType)
		}
	})
}

func Test_assignmentApi_createSubmission(t *testing.T) {
	env := setup(t)

	instructor := testutil.CreateUser(t, env.usrRepo, "Instructor", "instructor@test.com", "pwd", user.RoleInstructor)
	student := testutil.CreateUser(t, env.usrRepo, "Student", "student@test.com", "pwd", user.RoleStudent)
	classmate := testutil.CreateUser(t, env.usrRepo, "Classmate", "classmate@test.com", "pwd", user.RoleStudent)
	outsider := testutil.CreateUser(t, env.usrRepo, "Outsider", "outsider@test.com", "pwd", user.RoleStudent)
	crs := testutil.CreateCourse(t, env.crsRepo, "CS", 493, "Cloud", "sp19", instructor.ID, student.ID, classmate.ID)
	asg := testutil.CreateAssignment(t, env.asgRepo, crs.ID, "A1", 100, time.Now())
	path := "/assignments/" + asg.ID + "/submissions"

	fields := func(studentID string) map[string]string {
		return map[string]string{"studentId": studentID, "timestamp": "2019-06-14T16:00:00-07:00"}
	}
	file := &uploadFile{name: "answers.txt", contentType: "text/plain", content: []byte("42")}
	invalid := marchallObj(t, httpErr{Error: "Request body is not a valid submission object"})

	tests := []struct {
		name     string
		token    string
		fields   map[string]string
		file     *uploadFile
		wantCode int
		wantData []byte
	}{
		{name: "auth required", fields: fields(student.ID), file: file, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "missing file", token: getToken(t, student), fields: fields(student.ID), wantCode: http.StatusBadRequest, wantData: invalid},
		{
			name: "missing field", token: getToken(t, student), fields: map[string]string{"studentId": student.ID}, file: file,
			wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "not enrolled", token: getToken(t, outsider), fields: fields(outsider.ID), file: file,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "instructor", token: getToken(t, instructor), fields: fields(student.ID), file: file,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "different studentId", token: getToken(t, student), fields: fields(classmate.ID), file: file,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpFieldsErr{
				Error:  submission.ErrStudentMismatch.Error(),
				Fields: map[string]string{"studentId": submission.ErrStudentMismatch.Error()},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newUploadRequest(t, path, tt.token, tt.fields, tt.file)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
		})
	}
	assert.Equal(t, 0, env.countBlobs(), "nothing stored")

	t.Run("enrolled student", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, getToken(t, student), fields(student.ID), file)
		env.app.ServeHTTP(rec, req)
		if !assert.Equal(t, http.StatusCreated, rec.Code) {
			return
		}

		var resp CreatedResponse
		unmarchallObj(t, rec.Body.Bytes(), &resp)
		assert.Equal(t, Links{
			"submission": path + "?studentId=" + student.ID,
			"media":      "/media/submissions/" + resp.ID,
		}, resp.Links)

		sub, err := env.subRepo.GetSubmissionByID(context.Background(), resp.ID)
		if assert.NoError(t, err) {
			assert.Equal(t, "/media/submissions/"+resp.ID, sub.URL)
			assert.Equal(t, student.ID, sub.StudentID)
			assert.Equal(t, asg.ID, sub.AssignmentID)
			assert.Equal(t, "text/plain", sub.ContentType)
			assert.Equal(t, time.Date(2019, 6, 14, 23, 0, 0, 0, time.UTC), sub.Timestamp)
			assert.Equal(t, int64(2), sub.Length)
		}

		// download
		req, rec = newRequest(http.MethodGet, "/media/submissions/"+resp.ID)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		assert.Equal(t, "42", rec.Body.String())
	})
}
