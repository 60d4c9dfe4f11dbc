package domain

import (
	"context"
	"time"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// Account is a registered identity with a password credential.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity returns the minimal, hash-free view of the account.
func (a *Account) Identity() *Identity {
	return &Identity{ID: a.ID, Email: a.Email, Name: a.Name}
}

// AccountRepository defines persistence operations for accounts.
// Accounts are append-only: there is no update or delete.
type AccountRepository interface {
	// Create stores the account unless one with the same email exists, in
	// which case it returns ErrDuplicateEmail. The check and the insert are
	// a single atomic step.
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	// GetByEmail matches the email exactly, case included.
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Count(ctx context.Context) (int, error)
}
