// Package progress maintains each learner's running quiz statistics.
//
// The stats document is a materialized view over the append-only quiz
// history: Apply is the single step function, used both for incremental
// updates and by Rebuild to recompute the aggregate from scratch.
package progress

import (
	"math"
	"strings"

	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/models"
)

const (
	// StreakThreshold is the percentage at or above which a quiz extends the streak.
	StreakThreshold = 80.0

	// DefaultQuizType labels history entries submitted without a quiz type.
	DefaultQuizType = "general"
)

// Result is one submitted quiz outcome.
type Result struct {
	Score          float64
	TotalQuestions float64
	QuizType       string
}

// Validate normalizes the quiz type and rejects non-finite numbers and
// non-positive question counts.
func (r Result) Validate() (Result, error) {
	if !finite(r.Score) || !finite(r.TotalQuestions) {
		return r, apperr.InvalidInput("score and totalQuestions must be numbers")
	}
	if r.TotalQuestions <= 0 {
		return r, apperr.InvalidInput("totalQuestions must be greater than zero")
	}
	r.QuizType = strings.TrimSpace(r.QuizType)
	if r.QuizType == "" {
		r.QuizType = DefaultQuizType
	}
	return r, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Percentage is score/totalQuestions*100, unrounded.
func Percentage(score, totalQuestions float64) float64 {
	return (score / totalQuestions) * 100
}

// Apply folds one quiz percentage into prev.
func Apply(prev models.UserStats, percentage float64) models.UserStats {
	total := prev.TotalQuizzes + 1
	sum := weightedTotal(prev) + percentage

	streak := 0
	if percentage >= StreakThreshold {
		streak = prev.Streak + 1
	}

	return models.UserStats{
		AvgScore:         roundHalfUp(sum / float64(total)),
		Streak:           streak,
		TotalQuizzes:     total,
		CompletedQuizzes: prev.CompletedQuizzes + 1,
		PercentageSum:    sum,
	}
}

// weightedTotal is the sum of all percentages folded into s so far. Documents
// written before the exact sum was tracked only carry the rounded average, so
// the product is the best available estimate for them.
func weightedTotal(s models.UserStats) float64 {
	if s.PercentageSum == 0 && s.TotalQuizzes > 0 {
		return float64(s.AvgScore) * float64(s.TotalQuizzes)
	}
	return s.PercentageSum
}

// Rebuild recomputes the aggregate from the full history.
func Rebuild(history []models.QuizHistoryEntry) models.UserStats {
	var s models.UserStats
	for _, h := range history {
		s = Apply(s, h.Percentage)
	}
	return s
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
