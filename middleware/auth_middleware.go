package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/auth"
)

const principalKey = "principal"

// RequireBearer authenticates mobile API calls from the Authorization header.
// Nothing downstream runs, and no user state is read, without a valid token.
func RequireBearer(v *auth.BearerVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := v.Verify(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

// RequireAdminSession guards the admin API with the session cookie. It is
// enforced independently of the page gate.
func RequireAdminSession(v *auth.SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(auth.SessionCookieName)
		p, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(principalKey, p)
	c.Set("userID", p.ID)
	c.Set("email", p.Email)
	c.Set("role", string(p.Role))
}

// PrincipalFrom returns the identity established by one of the guards above.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}
