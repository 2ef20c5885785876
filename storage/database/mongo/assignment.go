package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/storage/database"
)

type assignmentDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	CourseID primitive.ObjectID `bson:"courseId"`
	Title    string             `bson:"title"`
	Points   int                `bson:"points"`
	Due      time.Time          `bson:"due"`
}

type assignmentRepository struct {
	db   *database.DB
	coll *mongo.Collection
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *database.DB) *assignmentRepository {
	return &assignmentRepository{db: db, coll: db.Collection(database.AssignmentsCollection)}
}

func (repo assignmentRepository) doc(asg assignment.Assignment) assignmentDoc {
	d := assignmentDoc{
		Title:  asg.Title,
		Points: asg.Points,
		Due:    asg.Due,
	}
	if oid, err := primitive.ObjectIDFromHex(asg.ID); err == nil {
		d.ID = oid
	}
	if oid, err := primitive.ObjectIDFromHex(asg.CourseID); err == nil {
		d.CourseID = oid
	}
	return d
}

func (repo assignmentRepository) undoc(d assignmentDoc) assignment.Assignment {
	return assignment.Assignment{
		ID:       d.ID.Hex(),
		CourseID: d.CourseID.Hex(),
		Title:    d.Title,
		Points:   d.Points,
		Due:      d.Due.UTC(),
	}
}

func (repo assignmentRepository) filter(f assignment.QueryFilter) bson.M {
	filter := bson.M{}
	if oid, err := primitive.ObjectIDFromHex(f.CourseID); err == nil {
		filter["courseId"] = oid
	}
	return filter
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	d := repo.doc(asg)
	d.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return repo.undoc(d), nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var d assignmentDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment")
	}
	return repo.undoc(d), nil
}

func (repo assignmentRepository) CountAssignments(ctx context.Context, filter assignment.QueryFilter) (int, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	count, err := repo.coll.CountDocuments(ctx, repo.filter(filter))
	if err != nil {
		return 0, errors.Wrap(err, "counting assignments")
	}
	return int(count), nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter, offset, limit int) ([]assignment.Assignment, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	cur, err := repo.coll.Find(ctx, repo.filter(filter), pageOptions(offset, limit))
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	var docs []assignmentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(docs))
	for _, d := range docs {
		asgs = append(asgs, repo.undoc(d))
	}
	return asgs, nil
}

func (repo assignmentRepository) QueryAssignmentIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return []string{}, nil
	}
	ids, err := findIDs(ctx, repo.coll, bson.M{"courseId": oid})
	return ids, errors.Wrap(err, "querying course assignments")
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, id string, ua assignment.UpdateAssignment) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return assignment.ErrNotFound
	}

	set := bson.M{}
	if ua.Title != nil {
		set["title"] = *ua.Title
	}
	if ua.Points != nil {
		set["points"] = *ua.Points
	}
	if ua.Due != nil {
		set["due"] = *ua.Due
	}
	if len(set) == 0 {
		return nil
	}

	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	if res.MatchedCount == 0 {
		return assignment.ErrNotFound
	}
	return nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return assignment.ErrNotFound
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if res.DeletedCount == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
