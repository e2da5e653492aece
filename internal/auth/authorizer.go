package auth

import (
	"context"
	"errors"
	"fmt"

	"cardioscan-server/internal/models"
	"cardioscan-server/internal/store"
)

// ErrInvalidCredentials is the single failure returned for any authentication
// miss: unknown username, wrong password, or empty input. Callers cannot tell
// which check failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialLookup is the slice of the credential store the authorizer needs.
type CredentialLookup interface {
	Lookup(ctx context.Context, username string) (*models.Credential, error)
}

// Authorizer validates credentials and holds the record access-control policy.
// Every ownership and role rule in the system lives here so the policy can be
// tested independently of persistence.
type Authorizer struct {
	credentials CredentialLookup
}

// NewAuthorizer creates a new Authorizer.
func NewAuthorizer(credentials CredentialLookup) *Authorizer {
	return &Authorizer{credentials: credentials}
}

// Authenticate looks up the credential for username and verifies the password
// against the stored bcrypt hash. On success it returns the caller's role.
func (a *Authorizer) Authenticate(ctx context.Context, username, password string) (models.Role, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	cred, err := a.credentials.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("looking up credential: %w", err)
	}

	if !cred.CheckPassword(password) {
		return "", ErrInvalidCredentials
	}

	return cred.Role, nil
}

// CanViewRecord reports whether the caller may read a record owned by
// ownerUsername. Owners can read their own records; doctors can read any
// record they can name by id.
func (a *Authorizer) CanViewRecord(callerUsername string, callerRole models.Role, ownerUsername string) bool {
	return callerUsername == ownerUsername || callerRole == models.RoleDoctor
}

// CanUpdateNotes reports whether the caller may update clinician notes on a
// record owned by ownerUsername. Only a doctor annotating a record they
// themselves created is allowed.
func (a *Authorizer) CanUpdateNotes(callerUsername string, callerRole models.Role, ownerUsername string) bool {
	return callerRole == models.RoleDoctor && callerUsername == ownerUsername
}

// CanDeleteRecord reports whether the caller may delete a record owned by
// ownerUsername. Deletion is owner-only, regardless of role.
func (a *Authorizer) CanDeleteRecord(callerUsername string, ownerUsername string) bool {
	return callerUsername == ownerUsername
}
