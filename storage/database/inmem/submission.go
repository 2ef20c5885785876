package inmemdb

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) filter(assignmentID string, f submission.QueryFilter) []submission.Submission {
	subs := make([]submission.Submission, 0, len(repo.db.table))
	for _, id := range sortedKeys(repo.db.table) {
		sub := repo.db.table[id]
		if sub.AssignmentID != assignmentID {
			continue
		}
		if f.StudentID != "" && sub.StudentID != f.StudentID {
			continue
		}
		subs = append(subs, *sub)
	}
	return subs
}

func (repo *submissionRepository) UploadSubmission(_ context.Context, filename string, r io.Reader, meta submission.Metadata) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "reading submission file")
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	sub := submission.Submission{
		ID:           newID(),
		AssignmentID: meta.AssignmentID,
		StudentID:    meta.StudentID,
		Timestamp:    meta.Timestamp,
		ContentType:  meta.ContentType,
		Filename:     filename,
		Length:       int64(len(data)),
	}
	repo.db.table[sub.ID] = &sub
	repo.db.blobs[filename] = data
	return sub.ID, nil
}

func (repo *submissionRepository) SetSubmissionURL(_ context.Context, id, url string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub, ok := repo.db.table[id]
	if !ok {
		return submission.ErrNotFound
	}
	sub.URL = url
	return nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.table[id]; ok {
		return *sub, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) CountSubmissions(_ context.Context, assignmentID string, filter submission.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(assignmentID, filter)), nil
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, assignmentID string, filter submission.QueryFilter, offset, limit int) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return paginate(repo.filter(assignmentID, filter), offset, limit), nil
}

func (repo *submissionRepository) QuerySubmissionIDsByAssignment(_ context.Context, assignmentID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := repo.filter(assignmentID, submission.QueryFilter{})
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	return ids, nil
}

func (repo *submissionRepository) OpenSubmissionFile(_ context.Context, filename string) (io.ReadCloser, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	data, ok := repo.db.blobs[filename]
	if !ok {
		return nil, submission.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (repo *submissionRepository) DeleteSubmission(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub, ok := repo.db.table[id]
	if !ok {
		return submission.ErrNotFound
	}
	delete(repo.db.blobs, sub.Filename)
	delete(repo.db.table, id)
	return nil
}

// CountBlobs returns the number of stored submission files.
func (repo *submissionRepository) CountBlobs() int {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.blobs)
}

// DropBlob removes the stored file of a submission, leaving its metadata behind.
func (repo *submissionRepository) DropBlob(id string) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if sub, ok := repo.db.table[id]; ok {
		delete(repo.db.blobs, sub.Filename)
	}
}
