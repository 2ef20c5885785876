package user

import (
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/authz"
)

// Roles
const (
	RoleAdmin      = authz.RoleAdmin
	RoleInstructor = authz.RoleInstructor
	RoleStudent    = authz.RoleStudent
)

// Schema lists the fields accepted when creating a User.
var Schema = core.NewSchema(map[string]core.Field{
	"name":     {Required: true},
	"email":    {Required: true},
	"password": {Required: true},
	"role":     {Required: true},
})

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	PasswordHash []byte `json:"-"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsStudent() bool    { return u.Role == RoleStudent }

// Identity returns the authorization identity of the user.
func (u User) Identity() authz.Identity {
	return authz.Identity{ID: u.ID, Role: u.Role}
}

// Details is a User along with the courses they teach or are enrolled in.
type Details struct {
	User
	Courses []string `json:"courses"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,userrole"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	return validate.Struct(nu)
}
