package database

import (
	"context"
	"time"

	"github.com/princinho/drivequiz/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// QuizQuery filters the active quiz bank. Random with a positive Limit draws
// a random sample instead of the newest entries.
type QuizQuery struct {
	Category models.QuizCategory
	Limit    int
	Random   bool
}

func (s *MongoStore) InsertQuiz(ctx context.Context, q *models.Quiz) error {
	now := time.Now().UTC()
	if q.ID.IsZero() {
		q.ID = bson.NewObjectID()
	}
	q.CreatedAt, q.UpdatedAt = now, now
	_, err := s.quizzes.InsertOne(ctx, q)
	return mapErr(err)
}

func (s *MongoStore) ListQuizzes(ctx context.Context, query QuizQuery) ([]models.Quiz, error) {
	filter := bson.M{"isActive": true}
	if query.Category != "" {
		filter["category"] = query.Category
	}

	var (
		cursor *mongo.Cursor
		err    error
	)
	if query.Random && query.Limit > 0 {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: filter}},
			{{Key: "$sample", Value: bson.M{"size": query.Limit}}},
		}
		cursor, err = s.quizzes.Aggregate(ctx, pipeline)
	} else {
		findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		if query.Limit > 0 {
			findOpts.SetLimit(int64(query.Limit))
		}
		cursor, err = s.quizzes.Find(ctx, filter, findOpts)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	quizzes := make([]models.Quiz, 0)
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}
