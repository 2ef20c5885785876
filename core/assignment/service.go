package assignment

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/course"
)

var (
	// errors
	ErrNotFound       = errors.New("assignment not found")
	ErrCourseNotFound = errors.New("must reference an existing course")
	ErrCourseChange   = errors.New("courseId cannot be changed")
	ErrEmptyUpdate    = errors.New("request body has no valid assignment fields")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		CountAssignments(ctx context.Context, filter QueryFilter) (int, error)
		// QueryAssignments returns the page of assignments matching `filter`, in creation order.
		QueryAssignments(ctx context.Context, filter QueryFilter, offset, limit int) ([]Assignment, error)
		QueryAssignmentIDsByCourse(ctx context.Context, courseID string) ([]string, error)
		UpdateAssignment(ctx context.Context, id string, ua UpdateAssignment) error
		DeleteAssignment(ctx context.Context, id string) error
	}

	// CourseGetter finds the course owning an assignment.
	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
	}

	// SubmissionRemover deletes the submissions of an assignment, along with their files.
	SubmissionRemover interface {
		DeleteByAssignment(ctx context.Context, assignmentID string) error
	}

	Service struct {
		repo        Repository
		courses     CourseGetter
		submissions SubmissionRemover
	}
)

func NewService(repo Repository, courses CourseGetter, submissions SubmissionRemover) *Service {
	return &Service{
		repo:        repo,
		courses:     courses,
		submissions: submissions,
	}
}

// Query returns the requested page of assignments matching `filter`.
func (svc *Service) Query(ctx context.Context, filter QueryFilter, page int) ([]Assignment, core.Page, error) {
	count, err := svc.repo.CountAssignments(ctx, filter)
	if err != nil {
		return nil, core.Page{}, pkgerrors.Wrap(err, "counting assignments")
	}
	pg := core.NewPage(page, count, core.DefaultPageSize)
	if count == 0 {
		return []Assignment{}, pg, nil
	}
	asgs, err := svc.repo.QueryAssignments(ctx, filter, pg.Offset(), pg.Limit())
	if err != nil {
		return nil, core.Page{}, pkgerrors.Wrap(err, "querying assignments")
	}
	return asgs, pg, nil
}

// IDsByCourse returns the ids of the assignments of a course, in creation order.
func (svc *Service) IDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	ids, err := svc.repo.QueryAssignmentIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// CourseFor returns the course that `na` is to be created in.
// A missing course is a validation error on courseId.
func (svc *Service) CourseFor(ctx context.Context, na NewAssignment) (course.Course, error) {
	crs, err := svc.courses.GetCourseByID(ctx, na.CourseID)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return course.Course{}, core.NewValidationError(ErrCourseNotFound, core.FieldError{Field: "courseId", Error: ErrCourseNotFound.Error()})
		}
		return course.Course{}, pkgerrors.Wrap(err, "finding course")
	}
	return crs, nil
}

// OwningCourse returns the course of an existing assignment.
// A missing course means stored data is inconsistent.
func (svc *Service) OwningCourse(ctx context.Context, asg Assignment) (course.Course, error) {
	crs, err := svc.courses.GetCourseByID(ctx, asg.CourseID)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return course.Course{}, core.NewConsistencyError("assignment", asg.ID, "course", asg.CourseID)
		}
		return course.Course{}, pkgerrors.Wrap(err, "finding owning course")
	}
	return crs, nil
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	asg := Assignment{
		CourseID: na.CourseID,
		Title:    na.Title,
		Points:   na.Points,
		Due:      na.Due.UTC(),
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	if !core.IsObjectID(id) {
		return Assignment{}, ErrNotFound
	}
	return svc.repo.GetAssignmentByID(ctx, id)
}

// Update applies `ua` to `asg`. An assignment cannot move to another course.
func (svc *Service) Update(ctx context.Context, asg Assignment, ua UpdateAssignment) error {
	if ua.IsEmpty() {
		return core.NewValidationError(ErrEmptyUpdate)
	}
	if ua.CourseID != nil && *ua.CourseID != asg.CourseID {
		return core.NewValidationError(ErrCourseChange, core.FieldError{Field: "courseId", Error: ErrCourseChange.Error()})
	}
	ua.CourseID = nil
	if ua.IsEmpty() {
		return nil
	}
	if ua.Due != nil {
		due := ua.Due.UTC()
		ua.Due = &due
	}
	return svc.repo.UpdateAssignment(ctx, asg.ID, ua)
}

// Delete removes the assignment, then its submissions.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteAssignment(ctx, id); err != nil {
		return err
	}
	if err := svc.submissions.DeleteByAssignment(ctx, id); err != nil {
		return pkgerrors.Wrapf(err, "deleting submissions of assignment %s", id)
	}
	return nil
}

// DeleteByCourse removes every assignment of a course, and their submissions.
// It stops at the first failure, leaving the remaining assignments in place.
func (svc *Service) DeleteByCourse(ctx context.Context, courseID string) error {
	ids, err := svc.repo.QueryAssignmentIDsByCourse(ctx, courseID)
	if err != nil {
		return pkgerrors.Wrap(err, "finding course assignments")
	}
	for _, id := range ids {
		if err = svc.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
