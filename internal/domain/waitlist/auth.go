package waitlist

import (
	"context"
	"crypto/subtle"
	"errors"
)

// RoleAdmin is the only role the waitlist knows about.
const RoleAdmin = "admin"

// Authenticator checks admin logins against the admins table. Unknown users
// and wrong passwords are indistinguishable to the caller.
type Authenticator struct {
	admins AdminRepository
}

func NewAuthenticator(admins AdminRepository) *Authenticator {
	return &Authenticator{admins: admins}
}

func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	cred, err := a.admins.GetByUsername(ctx, username)
	if errors.Is(err, ErrAdminNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// Credentials are provisioned in plaintext, so this is an exact match.
	// TODO: switch to a bcrypt comparison once `waitlist admin create` stores hashes.
	if subtle.ConstantTimeCompare([]byte(cred.Password), []byte(password)) != 1 {
		return nil, ErrInvalidCredentials
	}
	return &AuthResult{Role: RoleAdmin}, nil
}
