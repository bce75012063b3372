package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/auth"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/dto"
	"github.com/princinho/drivequiz/middleware"
)

// POST /api/admin/me/password
func ChangeMyPassword(users UserStore, hasher *auth.PasswordHasher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.ChangeMyPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.InvalidInput("currentPassword and a newPassword of at least 8 characters are required"))
			return
		}

		p, ok := middleware.PrincipalFrom(c)
		if !ok {
			respondError(c, apperr.Unauthorized("missing auth context"))
			return
		}

		user, err := users.FindUserByID(ctx, p.ID)
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, apperr.Unauthorized("invalid user"))
			return
		}
		if err != nil {
			respondError(c, storeFailure(err))
			return
		}

		if ok, _, err := hasher.Verify(user.PasswordHash, body.CurrentPassword); err != nil || !ok {
			respondError(c, apperr.Unauthorized("current password is incorrect"))
			return
		}
		if body.NewPassword == body.CurrentPassword {
			respondError(c, apperr.InvalidInput("new password must differ from the current one"))
			return
		}

		newHash, err := hasher.Hash(body.NewPassword)
		if err != nil {
			respondError(c, apperr.Wrap(apperr.KindInternal, "failed to hash password", err))
			return
		}
		if err := users.UpdatePasswordHash(ctx, p.ID, newHash); err != nil {
			respondError(c, storeFailure(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /api/admin/users/:id/stats/rebuild
//
// Recomputes a learner's aggregate from their quiz history.
func RebuildStats(engine StatsEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		stats, err := engine.Rebuild(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "userId": id, "stats": stats})
	}
}
