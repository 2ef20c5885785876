package echoapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/authz"
	"github.com/trezcool/tarpaulin/core/course"
)

var rosterHeader = []string{"id", "name", "email"}

type courseApi struct {
	svc         *course.Service
	assignments *assignment.Service
	validate    *validator.Validate
}

func registerCourseAPI(app *echo.Echo, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:         deps.CourseSvc,
		assignments: deps.AssignmentSvc,
		validate:    deps.Validate,
	}

	cg := app.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create, auth)

	// detail endpoints
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.update, auth)
	cg.DELETE("/:id", api.destroy, auth)
	cg.GET("/:id/students", api.students, auth)
	cg.POST("/:id/students", api.updateRoster, auth)
	cg.GET("/:id/roster", api.roster, auth)
	cg.GET("/:id/assignments", api.assignmentIDs)
}

// object finds the course in the path and checks that the caller may perform `action` on it.
func (api *courseApi) object(ctx echo.Context, action authz.Action) (course.Course, error) {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	if err = authz.Authorize(contextIdentity(ctx), action, crs.Resource()); err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	if err := authz.Authorize(contextIdentity(ctx), authz.CourseList, authz.Resource{}); err != nil {
		return err
	}

	filter, ok := course.NewQueryFilter(ctx.QueryParams())
	if !ok {
		return ctx.JSON(http.StatusOK, CoursePage{Courses: []course.Course{}, Page: core.EmptyPage()})
	}

	crss, page, err := api.svc.Query(ctx.Request().Context(), filter, core.ParsePageNumber(ctx.QueryParam("page")))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	page.SetLinks("/courses", filter.Params())
	return ctx.JSON(http.StatusOK, CoursePage{Courses: crss, Page: page})
}

func (api *courseApi) create(ctx echo.Context) error {
	if err := authz.Authorize(contextIdentity(ctx), authz.CourseCreate, authz.Resource{}); err != nil {
		return err
	}

	var data course.NewCourse
	if err := bindFields(ctx, "course", course.Schema, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{
		ID:    crs.ID,
		Links: Links{"course": courseLink(crs.ID)},
	})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.object(ctx, authz.CourseView)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := api.object(ctx, authz.CourseUpdate)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = bindFields(ctx, "course", course.PatchSchema, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.Update(ctx.Request().Context(), crs, data); err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, LinksResponse{Links: Links{"course": courseLink(crs.ID)}})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := api.object(ctx, authz.CourseDelete)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) students(ctx echo.Context) error {
	crs, err := api.object(ctx, authz.RosterView)
	if err != nil {
		return err
	}
	students := crs.Enrolled
	if students == nil {
		students = []string{}
	}
	return ctx.JSON(http.StatusOK, StudentsResponse{Students: students})
}

func (api *courseApi) updateRoster(ctx echo.Context) error {
	crs, err := api.object(ctx, authz.RosterUpdate)
	if err != nil {
		return err
	}

	var data course.RosterUpdate
	if err = bindFields(ctx, "roster", course.RosterSchema, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.UpdateRoster(ctx.Request().Context(), crs, data); err != nil {
		return errors.Wrap(err, "updating roster")
	}
	return ctx.JSON(http.StatusOK, LinksResponse{Links: Links{
		"course":   courseLink(crs.ID),
		"students": courseLink(crs.ID) + "/students",
	}})
}

func (api *courseApi) roster(ctx echo.Context) error {
	crs, err := api.object(ctx, authz.RosterExport)
	if err != nil {
		return err
	}

	students, err := api.svc.Students(ctx.Request().Context(), crs)
	if err != nil {
		return errors.Wrap(err, "finding students")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(rosterHeader)
	for _, usr := range students {
		_ = w.Write([]string{usr.ID, usr.Name, usr.Email})
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errors.Wrap(err, "writing roster")
	}

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "roster-"+crs.ID+".csv"),
	)
	return ctx.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (api *courseApi) assignmentIDs(ctx echo.Context) error {
	crs, err := api.object(ctx, authz.CourseAssignments)
	if err != nil {
		return err
	}
	ids, err := api.assignments.IDsByCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "finding course assignments")
	}
	return ctx.JSON(http.StatusOK, AssignmentIDsResponse{Assignments: ids})
}

type (
	StudentsResponse struct {
		Students []string `json:"students"`
	}

	AssignmentIDsResponse struct {
		Assignments []string `json:"assignments"`
	}
)
