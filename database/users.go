package database

import (
	"context"
	"strings"
	"time"

	"github.com/princinho/drivequiz/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// History limits for LoadStats.
const (
	NoHistory  = 0
	AllHistory = -1
)

type statsDoc struct {
	Stats        models.UserStats          `bson:"stats"`
	StatsVersion int64                     `bson:"statsVersion"`
	LastQuizDate *time.Time                `bson:"lastQuizDate"`
	QuizHistory  []models.QuizHistoryEntry `bson:"quizHistory"`
}

// NormalizeNewUser fills the zero-valued fields a freshly registered user must
// carry. Arrays are set explicitly so that later $push updates never hit null.
func NormalizeNewUser(u *models.User, now time.Time) {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.QuizHistory == nil {
		u.QuizHistory = []models.QuizHistoryEntry{}
	}
	if u.Progress.CompletedTopics == nil {
		u.Progress.CompletedTopics = []string{}
	}
	u.StatsVersion = 0
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// CreateUser inserts u, assigning an id when it has none. A second account with
// the same email yields ErrDuplicate.
func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	NormalizeNewUser(u, time.Now().UTC())
	_, err := s.users.InsertOne(ctx, u)
	return mapErr(err)
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	opts := options.FindOne().SetProjection(bson.M{"quizHistory": 0})
	if err := s.users.FindOne(ctx, filter, opts).Decode(&u); err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	opts := options.FindOne().SetProjection(bson.M{"quizHistory": 0})
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&u); err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

func (s *MongoStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"updatedAt":    time.Now().UTC(),
		},
	})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadStats reads the stats aggregate and its version. historyLimit selects
// how much of the history comes along: NoHistory, AllHistory, or the last n
// entries.
func (s *MongoStore) LoadStats(ctx context.Context, id string, historyLimit int) (models.StatsSnapshot, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.StatsSnapshot{}, err
	}

	projection := bson.M{"stats": 1, "statsVersion": 1, "lastQuizDate": 1}
	switch {
	case historyLimit == AllHistory:
		projection["quizHistory"] = 1
	case historyLimit > 0:
		projection["quizHistory"] = bson.M{"$slice": -historyLimit}
	}

	var doc statsDoc
	err = s.users.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(projection)).Decode(&doc)
	if err != nil {
		return models.StatsSnapshot{}, mapErr(err)
	}
	return models.StatsSnapshot{
		Stats:        doc.Stats,
		Version:      doc.StatsVersion,
		LastQuizDate: doc.LastQuizDate,
		History:      doc.QuizHistory,
	}, nil
}

// versionFilter matches documents still at version v. Documents written
// before versioning have no statsVersion field and count as version 0.
func versionFilter(oid bson.ObjectID, v int64) bson.M {
	if v == 0 {
		return bson.M{"_id": oid, "statsVersion": bson.M{"$in": bson.A{nil, int64(0)}}}
	}
	return bson.M{"_id": oid, "statsVersion": v}
}

// CommitQuizResult writes the new aggregate, stamps lastQuizDate and appends
// entry in a single update, but only if the document is still at
// expectedVersion. It returns false, nil when the version moved on.
func (s *MongoStore) CommitQuizResult(ctx context.Context, id string, expectedVersion int64, stats models.UserStats, entry models.QuizHistoryEntry) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := s.users.UpdateOne(ctx, versionFilter(oid, expectedVersion), bson.M{
		"$set": bson.M{
			"stats":        stats,
			"lastQuizDate": entry.Date,
			"updatedAt":    entry.Date,
		},
		"$inc":  bson.M{"statsVersion": 1},
		"$push": bson.M{"quizHistory": entry},
	})
	if err != nil {
		return false, mapErr(err)
	}
	return res.MatchedCount == 1, nil
}

// ReplaceStats overwrites the aggregate under the same version guard as
// CommitQuizResult. The history is left untouched.
func (s *MongoStore) ReplaceStats(ctx context.Context, id string, expectedVersion int64, stats models.UserStats) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := s.users.UpdateOne(ctx, versionFilter(oid, expectedVersion), bson.M{
		"$set": bson.M{
			"stats":     stats,
			"updatedAt": time.Now().UTC(),
		},
		"$inc": bson.M{"statsVersion": 1},
	})
	if err != nil {
		return false, mapErr(err)
	}
	return res.MatchedCount == 1, nil
}
