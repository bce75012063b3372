package controllers

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/dto"
	"github.com/princinho/drivequiz/middleware"
	"github.com/princinho/drivequiz/models"
	"github.com/princinho/drivequiz/progress"
	"github.com/princinho/drivequiz/utils"
)

// POST /api/user/stats (bearer)
func SubmitStats(engine StatsEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := middleware.PrincipalFrom(c)
		if !ok {
			respondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}

		var body dto.SubmitStatsDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.InvalidInput("Invalid data"))
			return
		}
		if err := body.Validate(); err != nil {
			respondError(c, err)
			return
		}

		stats, err := engine.Submit(c.Request.Context(), p.ID, progress.Result{
			Score:          *body.Score,
			TotalQuestions: *body.TotalQuestions,
			QuizType:       body.QuizType,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Stats updated successfully",
			"stats": gin.H{
				"avgScore":     stats.AvgScore,
				"streak":       stats.Streak,
				"totalQuizzes": stats.TotalQuizzes,
			},
		})
	}
}

// GET /api/user/stats?limit=20 (bearer)
func GetStats(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := middleware.PrincipalFrom(c)
		if !ok {
			respondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}

		limit := utils.ClampLimit(c.Query("limit"), 20, 100)
		snap, err := users.LoadStats(c.Request.Context(), p.ID, limit)
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, apperr.NotFound("User not found"))
			return
		}
		if err != nil {
			respondError(c, storeFailure(err))
			return
		}

		// newest first
		history := slices.Clone(snap.History)
		slices.Reverse(history)
		if history == nil {
			history = []models.QuizHistoryEntry{}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"stats":         snap.Stats,
			"lastQuizDate":  snap.LastQuizDate,
			"recentQuizzes": history,
		})
	}
}
