package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/winter-backend/internal/models"
)

// ErrDuplicateKey is returned when a create loses the uniqueness race to the
// database's unique index. Callers surface it as a conflict.
var ErrDuplicateKey = errors.New("duplicate key")

// AuthRepository persists credential records. Create must be replay-safe:
// queue workers may deliver the same record more than once.
type AuthRepository interface {
	Create(ctx context.Context, auth *models.AuthUser) error
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.AuthUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AuthUser, error)
	FindByResetToken(ctx context.Context, token string) (*models.AuthUser, error)
	UpdatePasswordResetToken(ctx context.Context, id primitive.ObjectID, token string, expires int64) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error
}

const authCollection = "Auth"

type mongoAuthRepository struct {
	col *mongo.Collection
}

func NewAuthRepository(db *mongo.Database) AuthRepository {
	return &mongoAuthRepository{col: db.Collection(authCollection)}
}

// Create upserts by _id so a replayed persistence job cannot produce a second
// record for the same identity.
func (r *mongoAuthRepository) Create(ctx context.Context, auth *models.AuthUser) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": auth.ID},
		auth,
		options.Replace().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *mongoAuthRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.AuthUser, error) {
	return r.findOne(ctx, bson.M{
		"$or": bson.A{
			bson.M{"username": username},
			bson.M{"email": email},
		},
	})
}

func (r *mongoAuthRepository) FindByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByResetToken looks up by token alone; the caller decides between an
// unknown token and an expired one.
func (r *mongoAuthRepository) FindByResetToken(ctx context.Context, token string) (*models.AuthUser, error) {
	return r.findOne(ctx, bson.M{"passwordResetToken": token})
}

func (r *mongoAuthRepository) UpdatePasswordResetToken(ctx context.Context, id primitive.ObjectID, token string, expires int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"passwordResetToken":   token,
			"passwordResetExpires": expires,
		}},
	)
	return err
}

// UpdatePassword sets the new hash and clears the reset token in one update,
// so a consumed token can never be replayed.
func (r *mongoAuthRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"password": hashedPassword},
			"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
		},
	)
	return err
}

func (r *mongoAuthRepository) findOne(ctx context.Context, filter bson.M) (*models.AuthUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var auth models.AuthUser
	err := r.col.FindOne(ctx, filter).Decode(&auth)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth, nil
}
