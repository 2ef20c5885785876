package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/tarpaulin/apps/api/echo"
	"github.com/trezcool/tarpaulin/core/user"
	"github.com/trezcool/tarpaulin/testutil"
)

func Test_home(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to "+conf.AppName+" API!", rec.Body.String())

	runHTTPTests(t, env.app, []httpTest{
		{
			name: "unknown route", path: "/lol", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Requested resource /lol does not exist"}),
		},
	})
}

func Test_userApi_create(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.com", "pwd", user.RoleAdmin)
	student := testutil.CreateUser(t, env.usrRepo, "Student", "student@test.com", "pwd", user.RoleStudent)

	body := func(name, email, pwd, role string) []byte {
		return marchallObj(t, map[string]string{"name": name, "email": email, "password": pwd, "role": role})
	}

	tests := []httpTest{
		{
			name: "missing field", body: []byte(`{"name": "N", "email": "n@test.com", "role": "student"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Request body is not a valid user object"}),
		},
		{
			name: "not an object", body: []byte(`[1, 2]`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Request body is not a valid user object"}),
		},
		{
			name: "invalid role", body: body("N", "n@test.com", "pwd", "lol"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpFieldsErr{
				Error:  "invalid request data",
				Fields: map[string]string{"role": "role must be one of admin, instructor or student"},
			}),
		},
		{
			name: "invalid email", body: body("N", "lol", "pwd", user.RoleStudent), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpFieldsErr{
				Error:  "invalid request data",
				Fields: map[string]string{"email": "email must be a valid email address"},
			}),
		},
		{
			name: "empty password", body: body("N", "n@test.com", "", user.RoleStudent), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpFieldsErr{
				Error:  "invalid request data",
				Fields: map[string]string{"password": "this field is required"},
			}),
		},
		{
			name: "duplicate email", body: body("N", " Student@Test.com", "pwd", user.RoleStudent), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpFieldsErr{
				Error:  user.ErrEmailExists.Error(),
				Fields: map[string]string{"email": user.ErrEmailExists.Error()},
			}),
		},
		{
			name: "anonymous instructor", body: body("I", "i@test.com", "pwd", user.RoleInstructor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "student creates admin", body: body("A", "a@test.com", "pwd", user.RoleAdmin), token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid token is anonymous", body: body("I", "i@test.com", "pwd", user.RoleInstructor), token: "lol",
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "anonymous student", body: body("New Student", "new@test.com", "pwd", user.RoleStudent),
			wantCode: http.StatusCreated, extra: user.RoleStudent,
		},
		{
			name: "admin creates instructor", body: body("Teacher", "teacher@test.com", "pwd", user.RoleInstructor),
			token: getToken(t, admin), wantCode: http.StatusCreated, extra: user.RoleInstructor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/users", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}
			if assert.Equal(t, tt.wantCode, rec.Code) {
				var resp CreatedResponse
				unmarchallObj(t, rec.Body.Bytes(), &resp)
				assert.Equal(t, Links{"user": "/users/" + resp.ID}, resp.Links)

				usr, err := env.usrRepo.GetUserByID(context.Background(), resp.ID)
				if assert.NoError(t, err) {
					assert.Equal(t, tt.extra, usr.Role)
					assert.NoError(t, usr.CheckPassword("pwd"))
				}
			}
		})
	}
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "User", "user@test.com", "secret", user.RoleInstructor)
	errCreds := httpErr{Error: "invalid credentials"}

	runHTTPTests(t, env.app, []httpTest{
		{
			name: "missing password", method: http.MethodPost, path: "/users/login", body: []byte(`{"email": "user@test.com"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Request body is not a valid login object"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/users/login",
			body:     []byte(`{"email": "lol@test.com", "password": "secret"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errCreds),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/users/login",
			body:     []byte(`{"email": "user@test.com", "password": "lol"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errCreds),
		},
	})

	t.Run("correct credentials", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/users/login", []byte(`{"email": " USER@test.com", "password": "secret"}`))
		env.app.ServeHTTP(rec, req)
		if !assert.Equal(t, http.StatusOK, rec.Code) {
			return
		}

		var resp LoginResponse
		unmarchallObj(t, rec.Body.Bytes(), &resp)
		_, claims, err := ParseToken(resp.Token, conf)
		if assert.NoError(t, err) {
			assert.Equal(t, usr.ID, claims.Subject)
			assert.Equal(t, user.RoleInstructor, claims.Role)
			assert.Equal(t, conf.AppName, claims.Issuer)
		}
	})
}

func Test_userApi_retrieve(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.com", "pwd", user.RoleAdmin)
	instructor := testutil.CreateUser(t, env.usrRepo, "Instructor", "instructor@test.com", "pwd", user.RoleInstructor)
	student := testutil.CreateUser(t, env.usrRepo, "Student", "student@test.com", "pwd", user.RoleStudent)
	crs1 := testutil.CreateCourse(t, env.crsRepo, "CS", 493, "Cloud", "sp19", instructor.ID, student.ID)
	crs2 := testutil.CreateCourse(t, env.crsRepo, "CS", 492, "Mobile", "sp19", instructor.ID)

	runHTTPTests(t, env.app, []httpTest{
		{name: "auth required", path: "/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/users/" + student.ID, token: "lol",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken),
		},
		{
			name: "someone else", path: "/users/" + student.ID, token: getToken(t, instructor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admins only see themselves", path: "/users/" + student.ID, token: getToken(t, admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin", path: "/users/" + admin.ID, token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Details{User: admin, Courses: []string{}}),
		},
		{
			name: "instructor", path: "/users/" + instructor.ID, token: getToken(t, instructor), wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Details{User: instructor, Courses: []string{crs1.ID, crs2.ID}}),
		},
		{
			name: "student", path: "/users/" + student.ID, token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Details{User: student, Courses: []string{crs1.ID}}),
		},
	})

	t.Run("password is never serialized", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/users/"+student.ID, getToken(t, student))
		env.app.ServeHTTP(rec, req)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}
