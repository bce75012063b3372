package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princinho/drivequiz/models"
)

const bearerPrefix = "Bearer "

type bearerClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// BearerVerifier issues and checks the stateless tokens used by the mobile
// client. There is no revocation list: a token is valid until it expires.
type BearerVerifier struct {
	secret []byte
	ttl    time.Duration
}

func NewBearerVerifier(secret string, ttl time.Duration) *BearerVerifier {
	return &BearerVerifier{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for p with an absolute expiry of now+ttl.
func (v *BearerVerifier) Issue(p Principal) (string, error) {
	if p.ID == "" {
		return "", errors.New("bearer principal needs an id")
	}
	now := time.Now()
	claims := bearerClaims{
		UserID: p.ID,
		Email:  p.Email,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify takes the raw Authorization header value ("Bearer <token>").
func (v *BearerVerifier) Verify(_ context.Context, header string) (Principal, error) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return Principal{}, fmt.Errorf("%w: missing or malformed authorization header", ErrUnauthorized)
	}

	claims := &bearerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return Principal{ID: claims.UserID, Email: claims.Email, Role: models.Role(claims.Role)}, nil
}
