package submission

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
)

var (
	// errors
	ErrNotFound        = errors.New("submission not found")
	ErrStudentMismatch = errors.New("authenticated as a different student than studentId")
)

// MediaURL returns the download url of a submission file.
func MediaURL(id string) string {
	return "/media/submissions/" + id
}

type (
	Repository interface {
		// UploadSubmission streams `r` into the blob store and returns the new submission id.
		UploadSubmission(ctx context.Context, filename string, r io.Reader, meta Metadata) (string, error)
		SetSubmissionURL(ctx context.Context, id, url string) error
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		CountSubmissions(ctx context.Context, assignmentID string, filter QueryFilter) (int, error)
		// QuerySubmissions returns the page of an assignment's submissions matching `filter`, in creation order.
		QuerySubmissions(ctx context.Context, assignmentID string, filter QueryFilter, offset, limit int) ([]Submission, error)
		QuerySubmissionIDsByAssignment(ctx context.Context, assignmentID string) ([]string, error)
		// OpenSubmissionFile returns ErrNotFound when no file is stored under `filename`.
		OpenSubmissionFile(ctx context.Context, filename string) (io.ReadCloser, error)
		// DeleteSubmission removes the submission metadata and its file chunks.
		DeleteSubmission(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Insert stores the staged file as a new submission of `assignmentID` and returns its id.
// The staged file is released before Insert returns, whatever the outcome.
func (svc *Service) Insert(ctx context.Context, staged *StagedFile, ns NewSubmission, assignmentID string) (id string, err error) {
	defer func() {
		if rErr := staged.Release(); rErr != nil && err == nil {
			err = rErr
		}
	}()

	file, err := os.Open(staged.Path)
	if err != nil {
		return "", pkgerrors.Wrap(err, "opening staged file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	meta := Metadata{
		ContentType:  staged.ContentType,
		StudentID:    ns.StudentID,
		AssignmentID: assignmentID,
		Timestamp:    ns.Timestamp.UTC(),
	}
	filename := uuid.New().String() + filepath.Ext(staged.Filename)
	id, err = svc.repo.UploadSubmission(ctx, filename, file, meta)
	if err != nil {
		return "", pkgerrors.Wrap(err, "uploading submission")
	}
	return id, nil
}

// AddURL records the download url of a stored submission.
func (svc *Service) AddURL(ctx context.Context, id string) error {
	return svc.repo.SetSubmissionURL(ctx, id, MediaURL(id))
}

// Query returns the requested page of an assignment's submissions matching `filter`.
func (svc *Service) Query(ctx context.Context, assignmentID string, filter QueryFilter, page int) ([]Submission, core.Page, error) {
	count, err := svc.repo.CountSubmissions(ctx, assignmentID, filter)
	if err != nil {
		return nil, core.Page{}, pkgerrors.Wrap(err, "counting submissions")
	}
	pg := core.NewPage(page, count, core.DefaultPageSize)
	if count == 0 {
		return []Submission{}, pg, nil
	}
	subs, err := svc.repo.QuerySubmissions(ctx, assignmentID, filter, pg.Offset(), pg.Limit())
	if err != nil {
		return nil, core.Page{}, pkgerrors.Wrap(err, "querying submissions")
	}
	return subs, pg, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Submission, error) {
	if !core.IsObjectID(id) {
		return Submission{}, ErrNotFound
	}
	return svc.repo.GetSubmissionByID(ctx, id)
}

// Open returns the submission and a reader over its file. The caller must close the reader.
func (svc *Service) Open(ctx context.Context, id string) (Submission, io.ReadCloser, error) {
	sub, err := svc.GetByID(ctx, id)
	if err != nil {
		return Submission{}, nil, err
	}
	rc, err := svc.repo.OpenSubmissionFile(ctx, sub.Filename)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Submission{}, nil, ErrNotFound
		}
		return Submission{}, nil, pkgerrors.Wrap(err, "opening submission file")
	}
	return sub, rc, nil
}

// DeleteByAssignment removes every submission of an assignment, and their files.
// It stops at the first failure, leaving the remaining submissions in place.
func (svc *Service) DeleteByAssignment(ctx context.Context, assignmentID string) error {
	ids, err := svc.repo.QuerySubmissionIDsByAssignment(ctx, assignmentID)
	if err != nil {
		return pkgerrors.Wrap(err, "finding assignment submissions")
	}
	for _, id := range ids {
		if err = svc.repo.DeleteSubmission(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return pkgerrors.Wrapf(err, "deleting submission %s", id)
		}
	}
	return nil
}
