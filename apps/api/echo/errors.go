package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/authz"
	"github.com/trezcool/tarpaulin/core/course"
	"github.com/trezcool/tarpaulin/core/submission"
	"github.com/trezcool/tarpaulin/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errBadCredential = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errInvalidData   = "invalid request data"
)

func isNotFound(err error) bool {
	switch err {
	case user.ErrNotFound, course.ErrNotFound, assignment.ErrNotFound, submission.ErrNotFound:
		return true
	}
	return false
}

func notFoundMessage(ctx echo.Context) string {
	return fmt.Sprintf("Requested resource %s does not exist", ctx.Request().URL.RequestURI())
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = echo.Map{"error": origErr.Message}
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = echo.Map{"error": origErr.Message}
			// a known path with an unrouted method is an unmatched route too
			if code == http.StatusNotFound || code == http.StatusMethodNotAllowed {
				code = http.StatusNotFound
				message = echo.Map{"error": notFoundMessage(ctx)}
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = echo.Map{"error": errInvalidData, "fields": fldErrs}
		case *core.ValidationError:
			code = http.StatusBadRequest
			msg := origErr.Error()
			if msg == "" {
				msg = errInvalidData
			}
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = echo.Map{"error": msg, "fields": fldErrs}
			} else {
				message = echo.Map{"error": msg}
			}
		default:
			switch {
			case origErr == authz.ErrForbidden:
				code = http.StatusForbidden
				message = echo.Map{"error": origErr.Error()}
			case isNotFound(origErr):
				code = http.StatusNotFound
				message = echo.Map{"error": notFoundMessage(ctx)}
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = echo.Map{"error": msg}

				logger.Error(msg, errors.Wrap(err, msg), contextIdentity(ctx))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
				if ctx.Echo().Debug {
					message = echo.Map{"error": err.Error()}
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
