package course

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrNotAnInstructor  = errors.New("must reference an existing instructor")
	ErrNotAStudent      = errors.New("must only reference existing students")
	ErrInstructorChange = errors.New("instructorId cannot be changed")
	ErrEmptyUpdate      = errors.New("request body has no valid course fields")
	ErrEmptyRoster      = errors.New("one of add or remove is required")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		CountCourses(ctx context.Context, filter QueryFilter) (int, error)
		// QueryCourses returns the page of courses matching `filter`, in creation order.
		QueryCourses(ctx context.Context, filter QueryFilter, offset, limit int) ([]Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) error
		DeleteCourse(ctx context.Context, id string) error
		// UpdateRoster atomically adds then removes students from the course roster.
		UpdateRoster(ctx context.Context, id string, add, remove []string) error
		QueryCourseIDsByInstructor(ctx context.Context, instructorID string) ([]string, error)
		QueryCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
	}

	// AssignmentRemover deletes the assignments of a course, along with their submissions.
	AssignmentRemover interface {
		DeleteByCourse(ctx context.Context, courseID string) error
	}

	Service struct {
		repo        Repository
		users       user.Repository
		assignments AssignmentRemover
	}
)

func NewService(repo Repository, users user.Repository, assignments AssignmentRemover) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		assignments: assignments,
	}
}

// Query returns the requested page of courses matching `filter`.
func (svc *Service) Query(ctx context.Context, filter QueryFilter, page int) ([]Course, core.Page, error) {
	count, err := svc.repo.CountCourses(ctx, filter)
	if err != nil {
		return nil, core.Page{}, pkgerrors.Wrap(err, "counting courses")
	}
	pg := core.NewPage(page, count, core.DefaultPageSize)
	if count == 0 {
		return []Course{}, pg, nil
	}
	courses, err := svc.repo.QueryCourses(ctx, filter, pg.Offset(), pg.Limit())
	if err != nil {
		return nil, core.Page{}, pkgerrors.Wrap(err, "querying courses")
	}
	return courses, pg, nil
}

func (svc *Service) checkInstructor(ctx context.Context, id string) error {
	usr, err := svc.users.GetUserByID(ctx, id)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return pkgerrors.Wrap(err, "finding instructor")
	}
	if err != nil || !usr.IsInstructor() {
		return core.NewValidationError(ErrNotAnInstructor, core.FieldError{Field: "instructorId", Error: ErrNotAnInstructor.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if err := svc.checkInstructor(ctx, nc.InstructorID); err != nil {
		return Course{}, err
	}
	crs := Course{
		Subject:      nc.Subject,
		Number:       nc.Number,
		Title:        nc.Title,
		Term:         nc.Term,
		InstructorID: nc.InstructorID,
		Enrolled:     []string{},
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	if !core.IsObjectID(id) {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourseByID(ctx, id)
}

// Update applies `uc` to `crs`. The instructor of a course cannot change.
func (svc *Service) Update(ctx context.Context, crs Course, uc UpdateCourse) error {
	if uc.IsEmpty() {
		return core.NewValidationError(ErrEmptyUpdate)
	}
	if uc.InstructorID != nil && *uc.InstructorID != crs.InstructorID {
		return core.NewValidationError(ErrInstructorChange, core.FieldError{Field: "instructorId", Error: ErrInstructorChange.Error()})
	}
	return svc.repo.UpdateCourse(ctx, crs.ID, uc)
}

// Delete removes the course, then its assignments and their submissions.
// Children are removed best effort: a failure leaves the remaining ones orphaned.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteCourse(ctx, id); err != nil {
		return err
	}
	if err := svc.assignments.DeleteByCourse(ctx, id); err != nil {
		return pkgerrors.Wrapf(err, "deleting assignments of course %s", id)
	}
	return nil
}

// UpdateRoster enrolls the `add` students in the course and drops the `remove` ones.
func (svc *Service) UpdateRoster(ctx context.Context, crs Course, ru RosterUpdate) error {
	if len(ru.Add) > 0 {
		students, err := svc.users.QueryUsersByID(ctx, ru.Add)
		if err != nil {
			return pkgerrors.Wrap(err, "finding students")
		}
		found := make(map[string]bool, len(students))
		for _, usr := range students {
			if usr.IsStudent() {
				found[usr.ID] = true
			}
		}
		for _, id := range ru.Add {
			if !found[id] {
				return core.NewValidationError(ErrNotAStudent, core.FieldError{Field: "add", Error: ErrNotAStudent.Error()})
			}
		}
	}
	return svc.repo.UpdateRoster(ctx, crs.ID, ru.Add, ru.Remove)
}

// Students returns the enrolled students of the course, in creation order.
func (svc *Service) Students(ctx context.Context, crs Course) ([]user.User, error) {
	if len(crs.Enrolled) == 0 {
		return []user.User{}, nil
	}
	students, err := svc.users.QueryUsersByID(ctx, crs.Enrolled)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "finding enrolled students")
	}
	return students, nil
}

func (svc *Service) CourseIDsByInstructor(ctx context.Context, instructorID string) ([]string, error) {
	return svc.repo.QueryCourseIDsByInstructor(ctx, instructorID)
}

func (svc *Service) CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	return svc.repo.QueryCourseIDsByStudent(ctx, studentID)
}
