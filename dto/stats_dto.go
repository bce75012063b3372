package dto

import "github.com/princinho/drivequiz/apperr"

// SubmitStatsDTO uses pointers so that a missing number is told apart from 0.
type SubmitStatsDTO struct {
	Score          *float64 `json:"score"`
	TotalQuestions *float64 `json:"totalQuestions"`
	QuizType       string   `json:"quizType"`
}

func (d SubmitStatsDTO) Validate() error {
	if d.Score == nil || d.TotalQuestions == nil {
		return apperr.InvalidInput("Invalid data")
	}
	return nil
}
