package database

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/princinho/drivequiz/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *MongoStore) InsertTopic(ctx context.Context, t *models.Topic) error {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := s.topics.InsertOne(ctx, t)
	return mapErr(err)
}

// TopicExists reports whether a topic already uses this title (compared
// case-insensitively) or this slug.
func (s *MongoStore) TopicExists(ctx context.Context, title, slug string) (bool, error) {
	titleRe := bson.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(title)) + "$", Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": titleRe},
		bson.M{"slug": slug},
	}}
	n, err := s.topics.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoStore) ListTopics(ctx context.Context) ([]models.Topic, error) {
	cursor, err := s.topics.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	topics := make([]models.Topic, 0)
	if err := cursor.All(ctx, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}
