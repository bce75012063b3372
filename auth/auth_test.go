package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princinho/drivequiz/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSessionVerifier_RoundTrip(t *testing.T) {
	t.Parallel()
	v := NewSessionVerifier("session-secret", time.Hour)

	tok, err := v.Issue(Principal{ID: "abc", Email: "admin@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: "abc", Email: "admin@example.com", Role: models.RoleAdmin}, p)
	assert.True(t, p.IsAdmin())
}

func TestSessionVerifier_FailuresAreSilent(t *testing.T) {
	t.Parallel()
	v := NewSessionVerifier("session-secret", time.Hour)
	expired := NewSessionVerifier("session-secret", -time.Minute)
	other := NewSessionVerifier("other-secret", time.Hour)

	expiredTok, err := expired.Issue(Principal{ID: "a", Role: models.RoleAdmin})
	require.NoError(t, err)
	foreignTok, err := other.Issue(Principal{ID: "a", Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"malformed":    "not.a.jwt",
		"expired":      expiredTok,
		"wrong secret": foreignTok,
		"missing role": signRaw(t, "session-secret", jwt.MapClaims{"sub": "a", "exp": time.Now().Add(time.Hour).Unix()}),
		"no expiry":    signRaw(t, "session-secret", jwt.MapClaims{"sub": "a", "role": "admin"}),
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestSessionVerifier_IssueRequiresRole(t *testing.T) {
	t.Parallel()
	_, err := NewSessionVerifier("s", time.Hour).Issue(Principal{ID: "a"})
	assert.Error(t, err)
}

func TestBearerVerifier_RoundTrip(t *testing.T) {
	t.Parallel()
	v := NewBearerVerifier("jwt-secret", 30*24*time.Hour)

	tok, err := v.Issue(Principal{ID: "u1", Email: "u@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "u@example.com", p.Email)
	assert.Equal(t, models.RoleUser, p.Role)
}

func TestBearerVerifier_ExpiryIsThirtyDays(t *testing.T) {
	t.Parallel()
	v := NewBearerVerifier("jwt-secret", 30*24*time.Hour)

	tok, err := v.Issue(Principal{ID: "u1"})
	require.NoError(t, err)

	claims := &bearerClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestBearerVerifier_Rejects(t *testing.T) {
	t.Parallel()
	v := NewBearerVerifier("jwt-secret", time.Hour)
	good, err := v.Issue(Principal{ID: "u1"})
	require.NoError(t, err)
	expired, err := NewBearerVerifier("jwt-secret", -time.Second).Issue(Principal{ID: "u1"})
	require.NoError(t, err)
	foreign, err := NewBearerVerifier("session-secret", time.Hour).Issue(Principal{ID: "u1"})
	require.NoError(t, err)

	tests := map[string]string{
		"absent":       "",
		"no scheme":    good,
		"basic scheme": "Basic " + good,
		"empty token":  "Bearer ",
		"malformed":    "Bearer not.a.jwt",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
		"no user id":   "Bearer " + signRaw(t, "jwt-secret", jwt.MapClaims{"email": "x", "exp": time.Now().Add(time.Hour).Unix()}),
		"alg none":     "Bearer " + unsigned(t),
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), header)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestVerifiers_DoNotAcceptEachOthersTokens(t *testing.T) {
	t.Parallel()
	sessions := NewSessionVerifier("session-secret", time.Hour)
	bearer := NewBearerVerifier("jwt-secret", time.Hour)

	st, err := sessions.Issue(Principal{ID: "a", Role: models.RoleAdmin})
	require.NoError(t, err)
	bt, err := bearer.Issue(Principal{ID: "u", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = bearer.Verify(context.Background(), "Bearer "+st)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = sessions.Verify(context.Background(), bt)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestPasswordHasher_Argon2(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasherWithParams(8*1024, 1, 2)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=2$"))
	assert.NotContains(t, hash, "correct horse")

	again, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must differ per hash")

	ok, rehash, err := h.Verify(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, rehash)

	ok, _, err = h.Verify(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_WeakerParamsNeedRehash(t *testing.T) {
	t.Parallel()
	weak := NewPasswordHasherWithParams(4*1024, 1, 1)
	strong := NewPasswordHasherWithParams(8*1024, 1, 2)

	hash, err := weak.Hash("pw")
	require.NoError(t, err)

	ok, rehash, err := strong.Verify(hash, "pw")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rehash)
}

func TestPasswordHasher_LegacyBcrypt(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasherWithParams(8*1024, 1, 2)
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, rehash, err := h.Verify(string(legacy), "old-password")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rehash)

	ok, _, err = h.Verify(string(legacy), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_RejectsPlaintextAndGarbage(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher()

	for _, stored := range []string{"hunter2", "$argon2id$v=19$m=x$salt$key", "$argon2id$v=18$m=1,t=1,p=1$AA$AA", ""} {
		ok, _, err := h.Verify(stored, "hunter2")
		assert.False(t, ok, stored)
		assert.True(t, errors.Is(err, ErrUnsupportedHash), stored)
	}
}

func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func unsigned(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "u1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return tok
}
