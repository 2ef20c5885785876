package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/tarpaulin/core"
)

// Collections
const (
	UsersCollection       = "users"
	CoursesCollection     = "courses"
	AssignmentsCollection = "assignments"
	SubmissionsBucket     = "submissions"
	SubmissionsFiles      = SubmissionsBucket + ".files"
)

// DB is a MongoDB database whose calls are each bounded by Timeout.
// File uploads stream for longer and are bounded by UploadTimeout instead.
type DB struct {
	*mongo.Database
	Timeout       time.Duration
	UploadTimeout time.Duration
}

func bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Context returns a child of `ctx` bounded by the database timeout.
func (db *DB) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	return bounded(ctx, db.Timeout)
}

// UploadContext returns a child of `ctx` bounded by the upload timeout. A zero timeout means no bound.
func (db *DB) UploadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return bounded(ctx, db.UploadTimeout)
}

// Open connects to the configured MongoDB server and waits for it to be ready.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetConnectTimeout(conf.Database.Timeout).
		SetServerSelectionTimeout(conf.Database.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &DB{
		Database:      client.Database(conf.Database.Name),
		Timeout:       conf.Database.Timeout,
		UploadTimeout: conf.Database.UploadTimeout,
	}, nil
}

// Close disconnects the underlying client.
func (db *DB) Close(ctx context.Context) error {
	return db.Client().Disconnect(ctx)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// indexes lists the indexes each collection must have.
var indexes = map[string][]mongo.IndexModel{
	UsersCollection: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	CoursesCollection: {
		{Keys: bson.D{{Key: "instructorId", Value: 1}}},
		{Keys: bson.D{{Key: "enrolled", Value: 1}}},
	},
	AssignmentsCollection: {
		{Keys: bson.D{{Key: "courseId", Value: 1}}},
	},
	SubmissionsFiles: {
		{Keys: bson.D{{Key: "metadata.assignmentId", Value: 1}, {Key: "metadata.studentId", Value: 1}}},
	},
}

// Migrate creates the missing indexes. It is safe to run more than once.
func Migrate(ctx context.Context, db *DB) error {
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}
