package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/tarpaulin/core/course"
	"github.com/trezcool/tarpaulin/storage/database"
)

type courseDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Subject      string               `bson:"subject"`
	Number       int                  `bson:"number"`
	Title        string               `bson:"title"`
	Term         string               `bson:"term"`
	InstructorID primitive.ObjectID   `bson:"instructorId"`
	Enrolled     []primitive.ObjectID `bson:"enrolled"`
}

type courseRepository struct {
	db   *database.DB
	coll *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *database.DB) *courseRepository {
	return &courseRepository{db: db, coll: db.Collection(database.CoursesCollection)}
}

func (repo courseRepository) doc(crs course.Course) courseDoc {
	d := courseDoc{
		Subject:  crs.Subject,
		Number:   crs.Number,
		Title:    crs.Title,
		Term:     crs.Term,
		Enrolled: objectIDs(crs.Enrolled),
	}
	if oid, err := primitive.ObjectIDFromHex(crs.ID); err == nil {
		d.ID = oid
	}
	if oid, err := primitive.ObjectIDFromHex(crs.InstructorID); err == nil {
		d.InstructorID = oid
	}
	return d
}

func (repo courseRepository) undoc(d courseDoc) course.Course {
	return course.Course{
		ID:           d.ID.Hex(),
		Subject:      d.Subject,
		Number:       d.Number,
		Title:        d.Title,
		Term:         d.Term,
		InstructorID: d.InstructorID.Hex(),
		Enrolled:     hexIDs(d.Enrolled),
	}
}

func (repo courseRepository) filter(f course.QueryFilter) bson.M {
	filter := bson.M{}
	if f.Subject != "" {
		filter["subject"] = f.Subject
	}
	if f.Number != nil {
		filter["number"] = *f.Number
	}
	if f.Term != "" {
		filter["term"] = f.Term
	}
	return filter
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	d := repo.doc(crs)
	d.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.undoc(d), nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var d courseDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return repo.undoc(d), nil
}

func (repo courseRepository) CountCourses(ctx context.Context, filter course.QueryFilter) (int, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	count, err := repo.coll.CountDocuments(ctx, repo.filter(filter))
	if err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return int(count), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, offset, limit int) ([]course.Course, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	cur, err := repo.coll.Find(ctx, repo.filter(filter), pageOptions(offset, limit))
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}
	courses := make([]course.Course, 0, len(docs))
	for _, d := range docs {
		courses = append(courses, repo.undoc(d))
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, id string, uc course.UpdateCourse) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return course.ErrNotFound
	}

	set := bson.M{}
	if uc.Subject != nil {
		set["subject"] = *uc.Subject
	}
	if uc.Number != nil {
		set["number"] = *uc.Number
	}
	if uc.Title != nil {
		set["title"] = *uc.Title
	}
	if uc.Term != nil {
		set["term"] = *uc.Term
	}
	if uc.InstructorID != nil {
		if instrOID, err := primitive.ObjectIDFromHex(*uc.InstructorID); err == nil {
			set["instructorId"] = instrOID
		}
	}
	if len(set) == 0 {
		return nil
	}

	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	if res.MatchedCount == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return course.ErrNotFound
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if res.DeletedCount == 0 {
		return course.ErrNotFound
	}
	return nil
}

// UpdateRoster runs the add and the remove as two updates, since both operators target `enrolled`.
func (repo courseRepository) UpdateRoster(ctx context.Context, id string, add, remove []string) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return course.ErrNotFound
	}

	updates := make([]bson.M, 0, 2)
	if len(add) > 0 {
		updates = append(updates, bson.M{"$addToSet": bson.M{"enrolled": bson.M{"$each": objectIDs(add)}}})
	}
	if len(remove) > 0 {
		updates = append(updates, bson.M{"$pull": bson.M{"enrolled": bson.M{"$in": objectIDs(remove)}}})
	}
	for _, update := range updates {
		res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
		if err != nil {
			return errors.Wrap(err, "updating course roster")
		}
		if res.MatchedCount == 0 {
			return course.ErrNotFound
		}
	}
	return nil
}

func (repo courseRepository) QueryCourseIDsByInstructor(ctx context.Context, instructorID string) ([]string, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(instructorID)
	if err != nil {
		return []string{}, nil
	}
	ids, err := findIDs(ctx, repo.coll, bson.M{"instructorId": oid})
	return ids, errors.Wrap(err, "querying instructor courses")
}

func (repo courseRepository) QueryCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return []string{}, nil
	}
	ids, err := findIDs(ctx, repo.coll, bson.M{"enrolled": oid})
	return ids, errors.Wrap(err, "querying student courses")
}
