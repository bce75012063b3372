// Package database holds the MongoDB-backed store for users, quizzes and
// topics.
package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoStore struct {
	users   *mongo.Collection
	quizzes *mongo.Collection
	topics  *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:   db.Collection(UsersCollection),
		quizzes: db.Collection(QuizzesCollection),
		topics:  db.Collection(TopicsCollection),
	}
}

// EnsureIndexes creates the unique indexes the store relies on for duplicate
// detection. It is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	if _, err := s.topics.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("topics slug index: %w", err)
	}
	if _, err := s.quizzes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}},
	}); err != nil {
		return fmt.Errorf("quizzes category index: %w", err)
	}
	return nil
}

func objectID(hex string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, ErrNotFound
	}
	return id, nil
}
