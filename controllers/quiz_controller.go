package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/dto"
	"github.com/princinho/drivequiz/models"
	"github.com/princinho/drivequiz/utils"
)

// POST /api/quiz/add (admin session)
func AddQuiz(store QuizStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateQuizDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		if err := body.Validate(); err != nil {
			respondError(c, err)
			return
		}

		quiz := body.ToModel()
		if err := store.InsertQuiz(c.Request.Context(), &quiz); err != nil {
			respondError(c, storeFailure(err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Quiz added successfully!",
			"quizId":  quiz.ID.Hex(),
		})
	}
}

// GET /api/quiz?category=traffic_signs&limit=20&random=true
//
// Unknown categories are ignored rather than rejected. limit=0 means no
// limit; random only applies together with a positive limit.
func ListQuizzes(store QuizStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := database.QuizQuery{
			Limit: max(utils.ParseIntDefault(c.Query("limit"), 0), 0),
		}
		if cat := models.QuizCategory(strings.TrimSpace(c.Query("category"))); cat.Valid() {
			query.Category = cat
		}
		if b, err := utils.ParseBoolQuery(c.Query("random")); err == nil && b != nil {
			query.Random = *b
		}

		quizzes, err := store.ListQuizzes(c.Request.Context(), query)
		if err != nil {
			respondError(c, storeFailure(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"quizzes": quizzes,
			"count":   len(quizzes),
		})
	}
}
