package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mantaflow/mantaflow/internal/domain"
)

// Demo account credentials. The demo account lives outside the repository
// and its email is reserved.
const (
	DemoAccountID       = "demo-user-1"
	DemoAccountName     = "Demo User"
	DemoAccountEmail    = "demo@example.com"
	DemoAccountPassword = "demo123"
)

// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
const maxPasswordBytes = 72

// ActivityPublisher receives events for the live activity feed.
type ActivityPublisher interface {
	Publish(activity domain.Activity)
}

// AccountService registers accounts and verifies their credentials.
type AccountService struct {
	accounts   domain.AccountRepository
	bcryptCost int
	demo       *domain.Account
	dummyHash  []byte
	activity   ActivityPublisher
}

// AccountOption configures an AccountService.
type AccountOption func(*AccountService) error

// WithDemoAccount enables the pre-seeded demo account. Its hash is computed
// once, here, with the service's bcrypt cost.
func WithDemoAccount() AccountOption {
	return func(s *AccountService) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(DemoAccountPassword), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		s.demo = &domain.Account{
			ID:           DemoAccountID,
			Name:         DemoAccountName,
			Email:        DemoAccountEmail,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}
		return nil
	}
}

// WithAccountActivity publishes an event for every registration.
func WithAccountActivity(p ActivityPublisher) AccountOption {
	return func(s *AccountService) error {
		s.activity = p
		return nil
	}
}

// NewAccountService creates an AccountService. It fails only when the
// bcrypt cost is unusable, which callers treat as a fatal startup error.
func NewAccountService(accounts domain.AccountRepository, bcryptCost int, opts ...AccountOption) (*AccountService, error) {
	s := &AccountService{
		accounts:   accounts,
		bcryptCost: bcryptCost,
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	s.dummyHash = dummy

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register creates a new account after validating inputs.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*domain.Account, error) {
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	if s.isDemo(email) {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "account registered", "account_id", account.ID)
	if s.activity != nil {
		s.activity.Publish(domain.Activity{
			ID:        uuid.NewString(),
			Kind:      domain.ActivityAccountRegistered,
			AccountID: account.ID,
			Actor:     account.Name,
			Message:   account.Name + " joined Manta Flow",
			At:        account.CreatedAt,
		})
	}

	return account, nil
}

// FindByEmail looks up an account by exact email, the demo account first.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if s.isDemo(email) {
		demo := *s.demo
		return &demo, nil
	}
	return s.accounts.GetByEmail(ctx, email)
}

// Verify returns the account whose stored hash matches password. Unknown
// email and wrong password both yield domain.ErrUnauthorized; an unknown
// email still pays for one bcrypt comparison.
func (s *AccountService) Verify(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	return account, nil
}

// Count returns the number of registered accounts, excluding the demo account.
func (s *AccountService) Count(ctx context.Context) (int, error) {
	return s.accounts.Count(ctx)
}

func (s *AccountService) isDemo(email string) bool {
	return s.demo != nil && email == s.demo.Email
}

func validateRegistration(name, email, password string) error {
	missing := validation.Errors{
		"name":     validation.Validate(name, validation.Required),
		"email":    validation.Validate(email, validation.Required),
		"password": validation.Validate(password, validation.Required),
	}.Filter()
	if missing != nil {
		return fmt.Errorf("%w (%v)", domain.ErrMissingFields, missing)
	}

	if err := validation.Validate(password, validation.RuneLength(domain.MinPasswordLength, 0)); err != nil {
		return domain.ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return domain.ErrPasswordTooLong
	}
	return nil
}
