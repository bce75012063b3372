package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princinho/drivequiz/models"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SessionVerifier issues and checks admin portal session tokens.
type SessionVerifier struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionVerifier(secret string, ttl time.Duration) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret), ttl: ttl}
}

func (v *SessionVerifier) TTL() time.Duration {
	return v.ttl
}

// Issue signs a session token for p.
func (v *SessionVerifier) Issue(p Principal) (string, error) {
	if p.ID == "" || !p.Role.Valid() {
		return "", errors.New("session principal needs an id and a role")
	}
	now := time.Now()
	claims := sessionClaims{
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify validates the cookie value. Every failure, including a token that
// carries no role, collapses into ErrNoSession.
func (v *SessionVerifier) Verify(_ context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrNoSession
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Principal{}, ErrNoSession
	}
	role := models.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return Principal{}, ErrNoSession
	}
	return Principal{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}
