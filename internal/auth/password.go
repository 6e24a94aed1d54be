package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be between 8 characters and 72 bytes")
	ErrEmailExists        = errors.New("email already registered")
)

// UserStorage is the slice of the ledger store the authenticator needs.
// Lookups return nil, nil when no user matches.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PasswordAuthenticator registers and logs in users with bcrypt-hashed
// passwords. E-mails are stored lower-cased so that they match the handles
// AddMember compares against.
type PasswordAuthenticator struct {
	users UserStorage
}

// NewPasswordAuthenticator creates an authenticator over users.
func NewPasswordAuthenticator(users UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users}
}

// ValidateCredential enforces the password length limits.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len([]rune(credential)) < minPasswordLength || len(credential) > maxPasswordBytes {
		return ErrWeakPassword
	}
	return nil
}

// Register creates an account. A concurrent registration of the same e-mail
// loses on the unique index and gets ErrEmailExists too.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.User, error) {
	email = canonicalEmail(email)
	displayName = strings.TrimSpace(displayName)
	if email == "" || displayName == "" {
		return nil, ErrInvalidCredentials
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	existing, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, displayName, string(hash))
	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user when the password matches. Unknown e-mails
// still pay for a bcrypt comparison so response times do not reveal which
// addresses are registered.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.users.GetUserByEmail(ctx, canonicalEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash := decoyHash()
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(credential)); err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

var decoyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("splitledger-decoy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

func canonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
