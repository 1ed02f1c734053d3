package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes configures the unique indexes on the Auth collection.
// Called on startup from main after Mongo has connected. The unique index is
// the final arbiter for two signups racing on the same username or email.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	col := db.Collection(authCollection)

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("idx_username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "uId", Value: 1}},
			Options: options.Index().SetName("idx_uid_unique").SetUnique(true),
		},
	}

	for _, m := range models {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
