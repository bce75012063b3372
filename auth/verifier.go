// Package auth establishes caller identity. The admin portal and the mobile
// client authenticate through two separate verifiers with separate secrets;
// call sites pick one explicitly and the two are never chained.
package auth

import (
	"context"
	"errors"

	"github.com/princinho/drivequiz/models"
)

var (
	// ErrNoSession means no usable admin session was presented. The gate treats
	// it as "anonymous" rather than as a failure.
	ErrNoSession = errors.New("no valid session")

	// ErrUnauthorized means a bearer credential was absent, malformed, expired
	// or badly signed.
	ErrUnauthorized = errors.New("unauthorized")
)

// Principal is an identity established from a verified token. It is never
// built from request bodies.
type Principal struct {
	ID    string
	Email string
	Role  models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// CredentialVerifier turns raw credential material into a Principal.
type CredentialVerifier interface {
	Verify(ctx context.Context, material string) (Principal, error)
}

var (
	_ CredentialVerifier = (*SessionVerifier)(nil)
	_ CredentialVerifier = (*BearerVerifier)(nil)
)
