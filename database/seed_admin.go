package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/princinho/drivequiz/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SeedAdmin inserts the admin account if no user with that email exists yet.
// An existing account is left alone, password included. It reports whether a
// new document was created.
func (s *MongoStore) SeedAdmin(ctx context.Context, email, passwordHash string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || passwordHash == "" {
		return false, fmt.Errorf("seed admin: email and password hash are required")
	}

	now := time.Now().UTC()
	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":        email,
			"passwordHash": passwordHash,
			"role":         models.RoleAdmin,
			"isActive":     true,
			"statsVersion": int64(0),
			"createdAt":    now,
			"updatedAt":    now,
		},
	}

	res, err := s.users.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("seed admin upsert: %w", err)
	}
	return res.UpsertedCount == 1, nil
}
