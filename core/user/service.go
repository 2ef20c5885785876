package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const welcomeHTML = `<p>Hi {{.Name}},</p>
<p>Your {{.Role}} account on {{.AppName}} is ready. Sign in at <a href="{{.URL}}">{{.URL}}</a> with {{.Email}}.</p>`

type (
	Repository interface {
		// CreateUser returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsersByID returns the existing users among `ids`, ordered by creation.
		QueryUsersByID(ctx context.Context, ids []string) ([]User, error)
		UpdateUserPassword(ctx context.Context, id string, hash []byte) error
	}

	// CourseLister finds the courses a user is related to.
	CourseLister interface {
		CourseIDsByInstructor(ctx context.Context, instructorID string) ([]string, error)
		CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
	}

	Service struct {
		repo    Repository
		courses CourseLister
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, courses CourseLister, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string) error {
	_, err := svc.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return pkgerrors.Wrap(err, "checking email uniqueness")
	}
}

// Create stores a new User, hashing its password, and sends a welcome email.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	usr := User{
		Name:  nu.Name,
		Email: nu.Email,
		Role:  nu.Role,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, pkgerrors.Wrap(err, "creating user")
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Welcome",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour %s account on %s is ready. Sign in at %s with %s.\n",
			usr.Name, usr.Role, svc.conf.AppName, svc.conf.FrontendBaseURL, usr.Email,
		),
		HTMLTemplate: welcomeHTML,
		TemplateData: map[string]string{
			"Name":    usr.Name,
			"Role":    usr.Role,
			"Email":   usr.Email,
			"AppName": svc.conf.AppName,
			"URL":     svc.conf.FrontendBaseURL,
		},
	})
}

// Authenticate returns the User matching the credentials, or ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if !core.IsObjectID(id) {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// GetDetails returns the User with the ids of the courses they teach (instructor)
// or are enrolled in (student).
func (svc *Service) GetDetails(ctx context.Context, id string) (Details, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return Details{}, err
	}

	var courses []string
	switch usr.Role {
	case RoleInstructor:
		courses, err = svc.courses.CourseIDsByInstructor(ctx, usr.ID)
	case RoleStudent:
		courses, err = svc.courses.CourseIDsByStudent(ctx, usr.ID)
	}
	if err != nil {
		return Details{}, pkgerrors.Wrap(err, "finding user courses")
	}
	if courses == nil {
		courses = []string{}
	}
	return Details{User: usr, Courses: courses}, nil
}

// QueryByIDs returns the existing users among `ids`.
func (svc *Service) QueryByIDs(ctx context.Context, ids []string) ([]User, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if core.IsObjectID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []User{}, nil
	}
	return svc.repo.QueryUsersByID(ctx, valid)
}

// ResetPassword sets a new password for the user with the given email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUserPassword(ctx, usr.ID, usr.PasswordHash)
}
