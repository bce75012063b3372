package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/dto"
	"github.com/princinho/drivequiz/utils"
)

const topicExistsMessage = "A topic with this title already exists."

// POST /api/topics/add (admin session)
func AddTopic(store TopicStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.CreateTopicDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.InvalidInput("invalid request body"))
			return
		}
		if err := body.Validate(); err != nil {
			respondError(c, err)
			return
		}

		slug := utils.GenerateSlug(body.Title)
		if slug == "" {
			respondError(c, apperr.InvalidInput("Title must contain letters or digits."))
			return
		}

		exists, err := store.TopicExists(ctx, body.Title, slug)
		if err != nil {
			respondError(c, storeFailure(err))
			return
		}
		if exists {
			respondError(c, apperr.Duplicate(topicExistsMessage))
			return
		}

		topic := body.ToModel(slug)
		if err := store.InsertTopic(ctx, &topic); err != nil {
			// the unique slug index catches a concurrent insert of the same title
			if errors.Is(err, database.ErrDuplicate) {
				respondError(c, apperr.Duplicate(topicExistsMessage))
				return
			}
			respondError(c, storeFailure(err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Topic added successfully!",
			"topicId": topic.ID.Hex(),
			"slug":    topic.Slug,
		})
	}
}

// GET /api/topics
func ListTopics(store TopicStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		topics, err := store.ListTopics(c.Request.Context())
		if err != nil {
			respondError(c, storeFailure(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"topics":  topics,
			"count":   len(topics),
		})
	}
}
