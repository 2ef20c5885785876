package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/authz"
)

var (
	roleTag  = "userrole"
	roleText = "{0} must be one of admin, instructor or student"
)

// RegisterValidators registers the user validators on `validate`.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

// Custom Validators

// roleValidation checks that the user role is in authz.AllRoles
func roleValidation(fl validator.FieldLevel) bool {
	if role, ok := fl.Field().Interface().(string); ok {
		return authz.IsValidRole(role)
	}
	return false
}
