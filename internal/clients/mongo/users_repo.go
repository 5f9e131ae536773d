package mongo

import (
	"context"
	"errors"
	"time"

	"password-reset/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersCollection is the collection that holds credentials.
const UsersCollection = "users"

// UsersRepo implements the auth.UsersRepo interface for MongoDB
type UsersRepo struct {
	collection *mongo.Collection
}

// NewUsersRepo creates a new users repository and makes sure its indexes exist.
func NewUsersRepo(ctx context.Context, db *mongo.Database) (*UsersRepo, error) {
	collection := db.Collection(UsersCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			// only documents with a pending reset carry the field
			Keys:    bson.D{{Key: "reset_token", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token_sparse"),
		},
	}

	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, err
	}

	return &UsersRepo{
		collection: collection,
	}, nil
}

// Create creates a new user in the database
func (r *UsersRepo) Create(ctx context.Context, user *auth.User) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrDuplicate
		}
		return err
	}

	return nil
}

// FindByEmail finds a user by email address
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByValidResetToken finds the user holding tokenHash, provided it has not expired at now.
func (r *UsersRepo) FindByValidResetToken(ctx context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_token":  tokenHash,
		"reset_expiry": bson.M{"$gt": now},
	})
}

func (r *UsersRepo) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	var user auth.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// SetResetToken stores a pending reset, replacing any earlier one.
func (r *UsersRepo) SetResetToken(ctx context.Context, id bson.ObjectID, tokenHash string, expiry time.Time) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"reset_token":  tokenHash,
		"reset_expiry": expiry,
		"updated_at":   time.Now().UTC(),
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}

	return nil
}

// ResetPassword swaps the password hash and clears the pending reset in one
// write. The filter re-checks token and expiry, so of two concurrent callers
// only one matches.
func (r *UsersRepo) ResetPassword(ctx context.Context, id bson.ObjectID, tokenHash, passwordHash string, now time.Time) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	filter := bson.M{
		"_id":          id,
		"reset_token":  tokenHash,
		"reset_expiry": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    now,
		},
		"$unset": bson.M{
			"reset_token":  "",
			"reset_expiry": "",
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user auth.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Save persists the mutable profile fields of an existing user.
func (r *UsersRepo) Save(ctx context.Context, user *auth.User) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"full_name":     user.FullName,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"updated_at":    now,
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}

	user.UpdatedAt = now
	return nil
}
