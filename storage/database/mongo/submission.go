package mongorepos

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/tarpaulin/core/submission"
	"github.com/trezcool/tarpaulin/storage/database"
)

type submissionMetadata struct {
	ContentType  string    `bson:"contentType"`
	StudentID    string    `bson:"studentId"`
	AssignmentID string    `bson:"assignmentId"`
	Timestamp    time.Time `bson:"timestamp"`
	URL          string    `bson:"url,omitempty"`
}

// submissionFile is a document of the GridFS files collection.
type submissionFile struct {
	ID       primitive.ObjectID `bson:"_id"`
	Length   int64              `bson:"length"`
	Filename string             `bson:"filename"`
	Metadata submissionMetadata `bson:"metadata"`
}

// submissionRepository stores submissions as GridFS files, metadata included.
type submissionRepository struct {
	db    *database.DB
	files *mongo.Collection
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *database.DB) *submissionRepository {
	return &submissionRepository{db: db, files: db.Collection(database.SubmissionsFiles)}
}

// bucket returns a GridFS bucket whose writes are bounded by the deadline of `ctx`, if any.
func (repo submissionRepository) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(repo.db.Database, options.GridFSBucket().SetName(database.SubmissionsBucket))
	if err != nil {
		return nil, errors.Wrap(err, "opening submissions bucket")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err = bucket.SetWriteDeadline(deadline); err != nil {
			return nil, errors.Wrap(err, "setting bucket deadline")
		}
	}
	return bucket, nil
}

func (repo submissionRepository) undoc(f submissionFile) submission.Submission {
	return submission.Submission{
		ID:           f.ID.Hex(),
		AssignmentID: f.Metadata.AssignmentID,
		StudentID:    f.Metadata.StudentID,
		Timestamp:    f.Metadata.Timestamp.UTC(),
		ContentType:  f.Metadata.ContentType,
		URL:          f.Metadata.URL,
		Filename:     f.Filename,
		Length:       f.Length,
	}
}

func (repo submissionRepository) filter(assignmentID string, f submission.QueryFilter) bson.M {
	filter := bson.M{"metadata.assignmentId": assignmentID}
	if f.StudentID != "" {
		filter["metadata.studentId"] = f.StudentID
	}
	return filter
}

// UploadSubmission is bounded by the upload timeout rather than the per-call database timeout.
func (repo submissionRepository) UploadSubmission(ctx context.Context, filename string, r io.Reader, meta submission.Metadata) (string, error) {
	ctx, cancel := repo.db.UploadContext(ctx)
	defer cancel()

	bucket, err := repo.bucket(ctx)
	if err != nil {
		return "", err
	}
	opts := options.GridFSUpload().SetMetadata(submissionMetadata{
		ContentType:  meta.ContentType,
		StudentID:    meta.StudentID,
		AssignmentID: meta.AssignmentID,
		Timestamp:    meta.Timestamp,
	})
	oid, err := bucket.UploadFromStream(filename, r, opts)
	if err != nil {
		return "", errors.Wrap(err, "uploading submission file")
	}
	return oid.Hex(), nil
}

func (repo submissionRepository) SetSubmissionURL(ctx context.Context, id, url string) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return submission.ErrNotFound
	}
	res, err := repo.files.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"metadata.url": url}})
	if err != nil {
		return errors.Wrap(err, "updating submission url")
	}
	if res.MatchedCount == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}
	var f submissionFile
	if err = repo.files.FindOne(ctx, bson.M{"_id": oid}).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "finding submission")
	}
	return repo.undoc(f), nil
}

func (repo submissionRepository) CountSubmissions(ctx context.Context, assignmentID string, filter submission.QueryFilter) (int, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	count, err := repo.files.CountDocuments(ctx, repo.filter(assignmentID, filter))
	if err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return int(count), nil
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, assignmentID string, filter submission.QueryFilter, offset, limit int) ([]submission.Submission, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	cur, err := repo.files.Find(ctx, repo.filter(assignmentID, filter), pageOptions(offset, limit))
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	var files []submissionFile
	if err = cur.All(ctx, &files); err != nil {
		return nil, errors.Wrap(err, "decoding submissions")
	}
	subs := make([]submission.Submission, 0, len(files))
	for _, f := range files {
		subs = append(subs, repo.undoc(f))
	}
	return subs, nil
}

func (repo submissionRepository) QuerySubmissionIDsByAssignment(ctx context.Context, assignmentID string) ([]string, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	ids, err := findIDs(ctx, repo.files, bson.M{"metadata.assignmentId": assignmentID})
	return ids, errors.Wrap(err, "querying assignment submissions")
}

// OpenSubmissionFile streams the file without a deadline: it is read for as long as the client downloads.
func (repo submissionRepository) OpenSubmissionFile(ctx context.Context, filename string) (io.ReadCloser, error) {
	bucket, err := repo.bucket(context.Background())
	if err != nil {
		return nil, err
	}
	stream, err := bucket.OpenDownloadStreamByName(filename)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, submission.ErrNotFound
		}
		return nil, errors.Wrap(err, "opening submission file")
	}
	return stream, nil
}

func (repo submissionRepository) DeleteSubmission(ctx context.Context, id string) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return submission.ErrNotFound
	}
	bucket, err := repo.bucket(ctx)
	if err != nil {
		return err
	}
	if err = bucket.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return submission.ErrNotFound
		}
		return errors.Wrap(err, "deleting submission")
	}
	return nil
}
