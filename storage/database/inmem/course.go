package inmemdb

import (
	"context"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func copyCourse(crs *course.Course) course.Course {
	c := *crs
	c.Enrolled = append(make([]string, 0, len(crs.Enrolled)), crs.Enrolled...)
	return c
}

func (repo *courseRepository) filter(f course.QueryFilter) []course.Course {
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, id := range sortedKeys(repo.db.table) {
		crs := repo.db.table[id]
		if f.Subject != "" && crs.Subject != f.Subject {
			continue
		}
		if f.Number != nil && crs.Number != *f.Number {
			continue
		}
		if f.Term != "" && crs.Term != f.Term {
			continue
		}
		courses = append(courses, copyCourse(crs))
	}
	return courses
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = newID()
	if crs.Enrolled == nil {
		crs.Enrolled = []string{}
	}
	c := copyCourse(&crs)
	repo.db.table[crs.ID] = &c
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return copyCourse(crs), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) CountCourses(_ context.Context, filter course.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, offset, limit int) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return paginate(repo.filter(filter), offset, limit), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, id string, uc course.UpdateCourse) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs, ok := repo.db.table[id]
	if !ok {
		return course.ErrNotFound
	}
	if uc.Subject != nil {
		crs.Subject = *uc.Subject
	}
	if uc.Number != nil {
		crs.Number = *uc.Number
	}
	if uc.Title != nil {
		crs.Title = *uc.Title
	}
	if uc.Term != nil {
		crs.Term = *uc.Term
	}
	if uc.InstructorID != nil {
		crs.InstructorID = *uc.InstructorID
	}
	return nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *courseRepository) UpdateRoster(_ context.Context, id string, add, remove []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs, ok := repo.db.table[id]
	if !ok {
		return course.ErrNotFound
	}
	for _, studentID := range add {
		if !core.ContainsString(crs.Enrolled, studentID) {
			crs.Enrolled = append(crs.Enrolled, studentID)
		}
	}
	if len(remove) > 0 {
		enrolled := make([]string, 0, len(crs.Enrolled))
		for _, studentID := range crs.Enrolled {
			if !core.ContainsString(remove, studentID) {
				enrolled = append(enrolled, studentID)
			}
		}
		crs.Enrolled = enrolled
	}
	return nil
}

func (repo *courseRepository) QueryCourseIDsByInstructor(_ context.Context, instructorID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0)
	for _, id := range sortedKeys(repo.db.table) {
		if repo.db.table[id].InstructorID == instructorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (repo *courseRepository) QueryCourseIDsByStudent(_ context.Context, studentID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0)
	for _, id := range sortedKeys(repo.db.table) {
		if core.ContainsString(repo.db.table[id].Enrolled, studentID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
