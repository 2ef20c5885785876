package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/tarpaulin/core/user"
	"github.com/trezcool/tarpaulin/storage/database"
)

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
	Role     string             `bson:"role"`
}

type userRepository struct {
	db   *database.DB
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *database.DB) *userRepository {
	return &userRepository{db: db, coll: db.Collection(database.UsersCollection)}
}

func (repo userRepository) doc(usr user.User) userDoc {
	d := userDoc{
		Name:     usr.Name,
		Email:    usr.Email,
		Password: string(usr.PasswordHash),
		Role:     usr.Role,
	}
	if oid, err := primitive.ObjectIDFromHex(usr.ID); err == nil {
		d.ID = oid
	}
	return d
}

func (repo userRepository) undoc(d userDoc) user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Role:         d.Role,
		PasswordHash: []byte(d.Password),
	}
}

func (repo userRepository) findOne(ctx context.Context, filter interface{}) (user.User, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	var d userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return repo.undoc(d), nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	d := repo.doc(usr)
	d.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.undoc(d), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.findOne(ctx, bson.M{"_id": oid})
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"email": email})
}

func (repo userRepository) QueryUsersByID(ctx context.Context, ids []string) ([]user.User, error) {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$in": objectIDs(ids)}}
	cur, err := repo.coll.Find(ctx, filter, pageOptions(0, 0))
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, repo.undoc(d))
	}
	return users, nil
}

func (repo userRepository) UpdateUserPassword(ctx context.Context, id string, hash []byte) error {
	ctx, cancel := repo.db.Context(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.ErrNotFound
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password": string(hash)}})
	if err != nil {
		return errors.Wrap(err, "updating user password")
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}
