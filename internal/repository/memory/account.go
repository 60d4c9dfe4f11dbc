// Package memory provides a process-lifetime account store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mantaflow/mantaflow/internal/domain"
)

// AccountRepository implements domain.AccountRepository in memory. It is
// safe for concurrent use.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts []*domain.Account
	byEmail  map[string]int
	byID     map[string]int
	now      func() time.Time
}

// NewAccountRepository creates an empty in-memory AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byEmail: make(map[string]int),
		byID:    make(map[string]int),
		now:     time.Now,
	}
}

// Create appends a copy of the account. The duplicate check and the append
// happen under one write lock, so two concurrent registrations for the same
// email cannot both succeed.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[account.Email]; exists {
		return domain.ErrDuplicateEmail
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = r.now().UTC()
	}

	stored := *account
	r.accounts = append(r.accounts, &stored)
	idx := len(r.accounts) - 1
	r.byEmail[stored.Email] = idx
	r.byID[stored.ID] = idx
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	found := *r.accounts[idx]
	return &found, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	found := *r.accounts[idx]
	return &found, nil
}

func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}
