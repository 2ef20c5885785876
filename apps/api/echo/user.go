package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/authz"
	"github.com/trezcool/tarpaulin/core/user"
)

type userApi struct {
	svc      *user.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerUserAPI(app *echo.Echo, auth, optAuth echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		svc:      deps.UserSvc,
		conf:     deps.Conf,
		validate: deps.Validate,
	}

	ug := app.Group("/users")
	ug.POST("", api.create, optAuth)
	ug.POST("/login", api.login)
	ug.GET("/:id", api.retrieve, auth)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := bindFields(ctx, "user", user.Schema, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// only admins can create instructors and admins
	action := authz.UserCreateStudent
	if data.Role != user.RoleStudent {
		action = authz.UserCreatePrivileged
	}
	if err := authz.Authorize(contextIdentity(ctx), action, authz.Resource{}); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{
		ID:    usr.ID,
		Links: Links{"user": userLink(usr.ID)},
	})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindFields(ctx, "login", loginSchema, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errBadCredential
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(usr, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := authz.Authorize(contextIdentity(ctx), authz.UserView, authz.Resource{OwnerID: id}); err != nil {
		return err
	}

	details, err := api.svc.GetDetails(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting user details")
	}
	return ctx.JSON(http.StatusOK, details)
}

var loginSchema = core.NewSchema(map[string]core.Field{
	"email":    {Required: true},
	"password": {Required: true},
})

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
