package dto

import (
	"fmt"
	"strings"

	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/models"
)

type CreateQuizDTO struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
	Category           string   `json:"category"`
	ImageURL           string   `json:"imageUrl"`
}

// Validate trims every text field in place and checks the question shape.
func (d *CreateQuizDTO) Validate() error {
	d.Question = strings.TrimSpace(d.Question)
	if d.Question == "" {
		return apperr.InvalidInput("Question is required.")
	}
	if len(d.Options) != 4 {
		return apperr.InvalidInput("Exactly 4 options are required.")
	}
	for i := range d.Options {
		d.Options[i] = strings.TrimSpace(d.Options[i])
		if d.Options[i] == "" {
			return apperr.InvalidInput(fmt.Sprintf("Option %d cannot be empty.", i+1))
		}
	}
	if d.CorrectAnswerIndex == nil || *d.CorrectAnswerIndex < 0 || *d.CorrectAnswerIndex > 3 {
		return apperr.InvalidInput("Correct answer index must be 0, 1, 2, or 3.")
	}
	d.Explanation = strings.TrimSpace(d.Explanation)
	if d.Explanation == "" {
		return apperr.InvalidInput("Explanation is required.")
	}
	if !models.QuizCategory(d.Category).Valid() {
		return apperr.InvalidInput("Category must be either 'traffic_signs' or 'rules_of_road'.")
	}
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	return nil
}

func (d CreateQuizDTO) ToModel() models.Quiz {
	return models.Quiz{
		Question:           d.Question,
		Options:            d.Options,
		CorrectAnswerIndex: *d.CorrectAnswerIndex,
		Explanation:        d.Explanation,
		Category:           models.QuizCategory(d.Category),
		ImageURL:           d.ImageURL,
		IsActive:           true,
	}
}
