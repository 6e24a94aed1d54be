// Package auth issues and checks the identities the ledger acts on behalf of.
// Ledger operations take a user ID; this package is where that ID comes from.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator turns credentials into ledger users. AuthService depends on
// this interface; PasswordAuthenticator is the only implementation.
type Authenticator interface {
	// Register creates an account. The e-mail is what AddMember later matches
	// to link a contact to the account and send an invite.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email when credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials too weak to register with.
	ValidateCredential(credential string) error
}
