package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserStats is the running aggregate over a user's quiz history.
// It is only written by the progress engine.
type UserStats struct {
	AvgScore         int `bson:"avgScore" json:"avgScore"`
	Streak           int `bson:"streak" json:"streak"`
	TotalQuizzes     int `bson:"totalQuizzes" json:"totalQuizzes"`
	CompletedQuizzes int `bson:"completedQuizzes" json:"completedQuizzes"`

	// Exact sum of every recorded percentage; AvgScore is derived from it.
	PercentageSum float64 `bson:"percentageSum" json:"-"`
}

// QuizHistoryEntry is append-only: never updated or removed once pushed.
type QuizHistoryEntry struct {
	Score          float64   `bson:"score" json:"score"`
	TotalQuestions float64   `bson:"totalQuestions" json:"totalQuestions"`
	Percentage     float64   `bson:"percentage" json:"percentage"`
	QuizType       string    `bson:"quizType" json:"quizType"`
	Date           time.Time `bson:"date" json:"date"`
}

type LearningProgress struct {
	CompletedTopics []string `bson:"completedTopics" json:"completedTopics"`
	CurrentTopic    *string  `bson:"currentTopic" json:"currentTopic"`
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string        `bson:"email" json:"email"`
	Name         string        `bson:"name,omitempty" json:"name,omitempty"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	Role         Role          `bson:"role" json:"role"`
	IsActive     bool          `bson:"isActive" json:"isActive"`

	Stats        UserStats          `bson:"stats" json:"stats"`
	StatsVersion int64              `bson:"statsVersion" json:"-"`
	QuizHistory  []QuizHistoryEntry `bson:"quizHistory" json:"-"`
	LastQuizDate *time.Time         `bson:"lastQuizDate,omitempty" json:"lastQuizDate,omitempty"`
	Progress     LearningProgress   `bson:"progress" json:"progress"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StatsSnapshot is the slice of a user document the progress engine reads
// before a guarded write.
type StatsSnapshot struct {
	Stats        UserStats
	Version      int64
	LastQuizDate *time.Time
	History      []QuizHistoryEntry
}
