package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/logging"
	"github.com/princinho/drivequiz/models"
	"github.com/princinho/drivequiz/progress"
)

// UserStore is what the account and stats handlers need from persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	LoadStats(ctx context.Context, id string, historyLimit int) (models.StatsSnapshot, error)
}

type QuizStore interface {
	InsertQuiz(ctx context.Context, q *models.Quiz) error
	ListQuizzes(ctx context.Context, query database.QuizQuery) ([]models.Quiz, error)
}

type TopicStore interface {
	InsertTopic(ctx context.Context, t *models.Topic) error
	TopicExists(ctx context.Context, title, slug string) (bool, error)
	ListTopics(ctx context.Context) ([]models.Topic, error)
}

type StatsEngine interface {
	Submit(ctx context.Context, userID string, r progress.Result) (models.UserStats, error)
	Rebuild(ctx context.Context, userID string) (models.UserStats, error)
}

// respondError writes {"error": message} with the status mapped from err's
// kind. Errors without a kind are treated as internal and their details are
// kept out of the response.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status := apperr.HTTPStatus(apperr.KindOf(err))
	log := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request error", "path", c.FullPath(), "error", err)
	} else {
		log.Warn(ctx, "request rejected", "path", c.FullPath(), "reason", apperr.Message(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
}

// storeFailure wraps an unexpected persistence error.
func storeFailure(err error) error {
	return apperr.Unavailable("database unavailable, please try again", err)
}
