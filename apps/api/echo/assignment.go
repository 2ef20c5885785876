package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/authz"
	"github.com/trezcool/tarpaulin/core/course"
	"github.com/trezcool/tarpaulin/core/submission"
)

type assignmentApi struct {
	svc         *assignment.Service
	submissions *submission.Service
	uploadDir   string
	validate    *validator.Validate
}

func registerAssignmentAPI(app *echo.Echo, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{
		svc:         deps.AssignmentSvc,
		submissions: deps.SubmissionSvc,
		uploadDir:   deps.Conf.Server.UploadDir,
		validate:    deps.Validate,
	}

	ag := app.Group("/assignments")
	ag.GET("", api.query)
	ag.POST("", api.create, auth)

	// detail endpoints
	ag.GET("/:id", api.retrieve)
	ag.PATCH("/:id", api.update, auth)
	ag.DELETE("/:id", api.destroy, auth)
	ag.GET("/:id/submissions", api.querySubmissions, auth)
	ag.POST("/:id/submissions", api.createSubmission, auth)
}

// object finds the assignment in the path along with its course,
// and checks that the caller may perform `action` on it.
func (api *assignmentApi) object(ctx echo.Context, action authz.Action) (assignment.Assignment, course.Course, error) {
	reqCtx := ctx.Request().Context()
	asg, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return assignment.Assignment{}, course.Course{}, errors.Wrap(err, "finding assignment by ID")
	}
	crs, err := api.svc.OwningCourse(reqCtx, asg)
	if err != nil {
		return assignment.Assignment{}, course.Course{}, err
	}
	if err = authz.Authorize(contextIdentity(ctx), action, crs.Resource()); err != nil {
		return assignment.Assignment{}, course.Course{}, err
	}
	return asg, crs, nil
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	if err := authz.Authorize(contextIdentity(ctx), authz.AssignmentList, authz.Resource{}); err != nil {
		return err
	}

	filter, ok := assignment.NewQueryFilter(ctx.QueryParams())
	if !ok {
		return ctx.JSON(http.StatusOK, AssignmentPage{Assignments: []assignment.Assignment{}, Page: core.EmptyPage()})
	}

	asgs, page, err := api.svc.Query(ctx.Request().Context(), filter, core.ParsePageNumber(ctx.QueryParam("page")))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	page.SetLinks("/assignments", filter.Params())
	return ctx.JSON(http.StatusOK, AssignmentPage{Assignments: asgs, Page: page})
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := bindFields(ctx, "assignment", assignment.Schema, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	crs, err := api.svc.CourseFor(reqCtx, data)
	if err != nil {
		return err
	}
	if err = authz.Authorize(contextIdentity(ctx), authz.AssignmentCreate, crs.Resource()); err != nil {
		return err
	}

	asg, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{
		ID:    asg.ID,
		Links: Links{"assignment": assignmentLink(asg.ID)},
	})
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	if err = authz.Authorize(contextIdentity(ctx), authz.AssignmentView, authz.Resource{}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	asg, _, err := api.object(ctx, authz.AssignmentUpdate)
	if err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err = bindFields(ctx, "assignment", assignment.PatchSchema, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.Update(ctx.Request().Context(), asg, data); err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, LinksResponse{Links: Links{"assignment": assignmentLink(asg.ID)}})
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	asg, _, err := api.object(ctx, authz.AssignmentDelete)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	asg, _, err := api.object(ctx, authz.SubmissionList)
	if err != nil {
		return err
	}

	filter, ok := submission.NewQueryFilter(ctx.QueryParams())
	if !ok {
		return ctx.JSON(http.StatusOK, SubmissionPage{Submissions: []submission.Submission{}, Page: core.EmptyPage()})
	}

	page := core.ParsePageNumber(ctx.QueryParam("page"))
	subs, pg, err := api.submissions.Query(ctx.Request().Context(), asg.ID, filter, page)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	pg.SetLinks(assignmentLink(asg.ID)+"/submissions", filter.Params())
	return ctx.JSON(http.StatusOK, SubmissionPage{Submissions: subs, Page: pg})
}

func (api *assignmentApi) createSubmission(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return invalidBody("submission")
	}
	files := form.File["file"]
	if len(files) == 0 {
		return invalidBody("submission")
	}
	obj := make(map[string]interface{}, len(form.Value))
	for name, vals := range form.Value {
		if len(vals) > 0 {
			obj[name] = vals[0]
		}
	}
	if !core.ValidateSchema(obj, submission.Schema) {
		return invalidBody("submission")
	}
	var data submission.NewSubmission
	if err = core.DecodeFields(core.ExtractValidFields(obj, submission.Schema), &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	asg, _, err := api.object(ctx, authz.SubmissionCreate)
	if err != nil {
		return err
	}
	if data.StudentID != contextIdentity(ctx).ID {
		return core.NewValidationError(
			submission.ErrStudentMismatch,
			core.FieldError{Field: "studentId", Error: submission.ErrStudentMismatch.Error()},
		)
	}

	fh := files[0]
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer src.Close()

	staged, err := submission.StageUpload(api.uploadDir, fh.Filename, fh.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		return errors.Wrap(err, "staging upload")
	}

	reqCtx := ctx.Request().Context()
	id, err := api.submissions.Insert(reqCtx, staged, data, asg.ID)
	if err != nil {
		return errors.Wrap(err, "inserting submission")
	}
	if err = api.submissions.AddURL(reqCtx, id); err != nil {
		return errors.Wrap(err, "setting submission url")
	}

	return ctx.JSON(http.StatusCreated, CreatedResponse{
		ID: id,
		Links: Links{
			"submission": assignmentLink(asg.ID) + "/submissions?studentId=" + data.StudentID,
			"media":      submission.MediaURL(id),
		},
	})
}
