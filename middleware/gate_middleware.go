package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/auth"
	"github.com/princinho/drivequiz/gate"
	"github.com/princinho/drivequiz/logging"
)

// AccessGate redirects console page requests according to g. It only asks the
// session verifier whether the cookie is valid: it never reads the body,
// never touches the store, and never sets or clears cookies.
func AccessGate(g gate.Gate, sessions auth.CredentialVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !g.Intercepts(path) {
			c.Next()
			return
		}

		token, _ := c.Cookie(auth.SessionCookieName)
		_, err := sessions.Verify(c.Request.Context(), token)
		d := g.Decide(err == nil, path)
		if d.Allow {
			c.Next()
			return
		}

		logging.FromContext(c.Request.Context()).Debug(c.Request.Context(), "gate redirect",
			"path", path, "target", d.Target, "session", err == nil)
		c.Header("Location", d.Target)
		c.AbortWithStatus(http.StatusFound)
	}
}
