package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/auth"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/dto"
	"github.com/princinho/drivequiz/logging"
	"github.com/princinho/drivequiz/models"
)

var errInvalidCredentials = apperr.Unauthorized("Invalid email or password")

// checkPassword verifies password against u and transparently upgrades
// legacy or weak hashes. Upgrade failures are logged, never surfaced.
func checkPassword(ctx context.Context, users UserStore, hasher *auth.PasswordHasher, u models.User, password string) error {
	ok, needsRehash, err := hasher.Verify(u.PasswordHash, password)
	if err != nil {
		logging.FromContext(ctx).Warn(ctx, "stored password hash unusable", "user_id", u.ID.Hex(), "error", err)
		return errInvalidCredentials
	}
	if !ok {
		return errInvalidCredentials
	}
	if needsRehash {
		if hash, err := hasher.Hash(password); err == nil {
			if err := users.UpdatePasswordHash(ctx, u.ID.Hex(), hash); err != nil {
				logging.FromContext(ctx).Warn(ctx, "password rehash not saved", "user_id", u.ID.Hex(), "error", err)
			}
		}
	}
	return nil
}

// findForLogin looks the user up and insists on the expected role. Unknown
// email and wrong role are indistinguishable to the caller.
func findForLogin(ctx context.Context, users UserStore, email string, role models.Role) (models.User, error) {
	u, err := users.FindUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return models.User{}, errInvalidCredentials
	}
	if err != nil {
		return models.User{}, storeFailure(err)
	}
	if u.Role != role {
		return models.User{}, errInvalidCredentials
	}
	return u, nil
}

// POST /api/user/login
func UserLogin(users UserStore, hasher *auth.PasswordHasher, bearer *auth.BearerVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.InvalidInput("Email and password are required"))
			return
		}

		u, err := findForLogin(ctx, users, body.Email, models.RoleUser)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := checkPassword(ctx, users, hasher, u, body.Password); err != nil {
			respondError(c, err)
			return
		}

		token, err := bearer.Issue(auth.Principal{ID: u.ID.Hex(), Email: u.Email, Role: u.Role})
		if err != nil {
			respondError(c, apperr.Wrap(apperr.KindInternal, "failed to issue token", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"token":   token,
			"user": gin.H{
				"id":    u.ID.Hex(),
				"email": u.Email,
				"name":  u.Name,
				"stats": u.Stats,
			},
		})
	}
}

// POST /api/user/register
func Register(users UserStore, hasher *auth.PasswordHasher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.InvalidInput("All fields are required"))
			return
		}
		if err := body.Validate(); err != nil {
			respondError(c, err)
			return
		}

		hash, err := hasher.Hash(body.Password)
		if err != nil {
			respondError(c, apperr.Wrap(apperr.KindInternal, "failed to hash password", err))
			return
		}

		u := &models.User{
			Email:        body.Email,
			Name:         body.Name,
			PasswordHash: hash,
			Role:         models.RoleUser,
			IsActive:     true,
		}
		if err := users.CreateUser(c.Request.Context(), u); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				respondError(c, apperr.Duplicate("User already exists with this email"))
				return
			}
			respondError(c, storeFailure(err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Account created successfully",
			"userId":  u.ID.Hex(),
		})
	}
}

// POST /api/auth/login
func AdminLogin(users UserStore, hasher *auth.PasswordHasher, sessions *auth.SessionVerifier, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.InvalidInput("Email and password are required"))
			return
		}

		u, err := findForLogin(ctx, users, body.Email, models.RoleAdmin)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := checkPassword(ctx, users, hasher, u, body.Password); err != nil {
			respondError(c, err)
			return
		}
		if !u.IsActive {
			respondError(c, apperr.Forbidden("account disabled"))
			return
		}

		token, err := sessions.Issue(auth.Principal{ID: u.ID.Hex(), Email: u.Email, Role: u.Role})
		if err != nil {
			respondError(c, apperr.Wrap(apperr.KindInternal, "failed to start session", err))
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(auth.SessionCookieName, token, int(sessions.TTL().Seconds()), "/", "", cookieSecure, true)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user": gin.H{
				"id":    u.ID.Hex(),
				"email": u.Email,
				"role":  u.Role,
			},
		})
	}
}

// POST /api/auth/logout
func AdminLogout(cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(auth.SessionCookieName, "", -1, "/", "", cookieSecure, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
