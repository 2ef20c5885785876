package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core/authz"
	"github.com/trezcool/tarpaulin/core/submission"
)

type mediaApi struct {
	submissions *submission.Service
}

func registerMediaAPI(app *echo.Echo, deps ServerDeps) {
	api := mediaApi{submissions: deps.SubmissionSvc}

	mg := app.Group("/media")
	mg.GET("/submissions/:id", api.downloadSubmission)
}

func (api *mediaApi) downloadSubmission(ctx echo.Context) error {
	if err := authz.Authorize(contextIdentity(ctx), authz.SubmissionDownload, authz.Resource{}); err != nil {
		return err
	}

	sub, rc, err := api.submissions.Open(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "opening submission")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer rc.Close()

	return ctx.Stream(http.StatusOK, sub.ContentType, rc)
}
