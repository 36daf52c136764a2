package waitlist

import (
	"context"
	"errors"
	"testing"
)

func TestAuthenticator_StoreFailurePropagates(t *testing.T) {
	admins := newMockAdminRepo()
	admins.err = &PersistenceError{Op: "get admin", Err: errors.New("timeout")}
	_, err := NewAuthenticator(admins).Authenticate(context.Background(), "charge-nurse", "triage")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("storage faults must not look like bad credentials")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("expected *PersistenceError, got %v", err)
	}
}

func TestAuthenticator_ExactMatch(t *testing.T) {
	a := NewAuthenticator(newMockAdminRepo())
	for _, pw := range []string{"Triage", "triage ", "triag", ""} {
		if _, err := a.Authenticate(context.Background(), "charge-nurse", pw); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%q: expected ErrInvalidCredentials, got %v", pw, err)
		}
	}
}
