package inmemdb

import (
	"context"

	"github.com/trezcool/tarpaulin/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) filter(f assignment.QueryFilter) []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(repo.db.table))
	for _, id := range sortedKeys(repo.db.table) {
		asg := repo.db.table[id]
		if f.CourseID != "" && asg.CourseID != f.CourseID {
			continue
		}
		asgs = append(asgs, *asg)
	}
	return asgs
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	asg.ID = newID()
	a := asg
	repo.db.table[asg.ID] = &a
	return asg, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.table[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) CountAssignments(_ context.Context, filter assignment.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter, offset, limit int) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return paginate(repo.filter(filter), offset, limit), nil
}

func (repo *assignmentRepository) QueryAssignmentIDsByCourse(_ context.Context, courseID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	asgs := repo.filter(assignment.QueryFilter{CourseID: courseID})
	ids := make([]string, 0, len(asgs))
	for _, asg := range asgs {
		ids = append(ids, asg.ID)
	}
	return ids, nil
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, id string, ua assignment.UpdateAssignment) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	asg, ok := repo.db.table[id]
	if !ok {
		return assignment.ErrNotFound
	}
	if ua.Title != nil {
		asg.Title = *ua.Title
	}
	if ua.Points != nil {
		asg.Points = *ua.Points
	}
	if ua.Due != nil {
		asg.Due = *ua.Due
	}
	return nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return assignment.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
