package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/auth"
	"github.com/princinho/drivequiz/gate"
	"github.com/princinho/drivequiz/logging"
	"github.com/princinho/drivequiz/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// countingVerifier wraps a session verifier and records calls.
type countingVerifier struct {
	inner *auth.SessionVerifier
	calls int
}

func (v *countingVerifier) Verify(ctx context.Context, token string) (auth.Principal, error) {
	v.calls++
	return v.inner.Verify(ctx, token)
}

func gatedRouter(v auth.CredentialVerifier) *gin.Engine {
	r := gin.New()
	r.Use(AccessGate(gate.New("/login", "/admin", nil), v))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "page") }
	r.GET("/", ok)
	r.GET("/login", ok)
	r.GET("/admin", ok)
	r.GET("/admin/quiz", ok)
	r.GET("/api/quiz", ok)
	return r
}

func sessionCookie(t *testing.T, v *auth.SessionVerifier, role models.Role) *http.Cookie {
	t.Helper()
	tok, err := v.Issue(auth.Principal{ID: "admin-1", Email: "a@example.com", Role: role})
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookieName, Value: tok}
}

func TestAccessGate(t *testing.T) {
	t.Parallel()
	sessions := auth.NewSessionVerifier("session-secret", time.Hour)
	valid := sessionCookie(t, sessions, models.RoleAdmin)

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		status   int
		location string
	}{
		{"anonymous zone root", "/admin", nil, http.StatusFound, "/login"},
		{"anonymous login", "/login", nil, http.StatusOK, ""},
		{"session on login", "/login", valid, http.StatusFound, "/admin"},
		{"session in zone", "/admin/quiz", valid, http.StatusOK, ""},
		{"session on root", "/", valid, http.StatusFound, "/admin"},
		{"garbage cookie", "/admin", &http.Cookie{Name: auth.SessionCookieName, Value: "junk"}, http.StatusFound, "/login"},
		{"not intercepted", "/api/quiz", nil, http.StatusOK, ""},
		{"unknown page still redirected", "/admin/missing", nil, http.StatusFound, "/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gatedRouter(sessions)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
			if tt.status == http.StatusFound {
				assert.Empty(t, w.Body.String(), "redirects carry no body")
				assert.Empty(t, w.Header().Values("Set-Cookie"), "gate never writes session state")
			}
		})
	}
}

func TestAccessGate_BypassedPathsSkipVerifier(t *testing.T) {
	t.Parallel()
	v := &countingVerifier{inner: auth.NewSessionVerifier("s", time.Hour)}
	r := gatedRouter(v)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/quiz", strings.NewReader("{}")))
	assert.Equal(t, 0, v.calls)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, 1, v.calls)
}

func TestRequireBearer(t *testing.T) {
	t.Parallel()
	bearer := auth.NewBearerVerifier("jwt-secret", time.Hour)
	tok, err := bearer.Issue(auth.Principal{ID: "u1", Email: "u@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", RequireBearer(bearer), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, p.ID)
	})

	for name, tc := range map[string]struct {
		header string
		status int
	}{
		"valid":     {"Bearer " + tok, http.StatusOK},
		"missing":   {"", http.StatusUnauthorized},
		"malformed": {"Token " + tok, http.StatusUnauthorized},
		"tampered":  {"Bearer " + tok + "x", http.StatusUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", w.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"invalid or expired token"}`, w.Body.String())
			}
		})
	}
}

func TestRequireAdminSession(t *testing.T) {
	t.Parallel()
	sessions := auth.NewSessionVerifier("session-secret", time.Hour)

	r := gin.New()
	r.POST("/api/quiz/add", RequireAdminSession(sessions), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	do := func(cookie *http.Cookie) int {
		req := httptest.NewRequest(http.MethodPost, "/api/quiz/add", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(nil))
	assert.Equal(t, http.StatusForbidden, do(sessionCookie(t, sessions, models.RoleUser)))
	assert.Equal(t, http.StatusCreated, do(sessionCookie(t, sessions, models.RoleAdmin)))
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logging.New(&buf, "DEBUG", "json")))
	r.GET("/ping", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info(c.Request.Context(), "inside handler")
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	out := buf.String()
	assert.Contains(t, out, `"msg":"inside handler"`)
	assert.Contains(t, out, `"msg":"request handled"`)
	assert.Equal(t, 2, strings.Count(out, id))
}
