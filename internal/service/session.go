package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mantaflow/mantaflow/internal/domain"
)

// DefaultSessionTTL is how long an issued session claim stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// CredentialVerifier checks an email and password pair.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*domain.Account, error)
}

// SessionIssuer turns verified credentials into signed session claims and
// expands those claims back into sessions.
type SessionIssuer struct {
	verifier CredentialVerifier
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	activity ActivityPublisher
}

// SignedSession is the result of a successful sign-in.
type SignedSession struct {
	Identity *domain.Identity
	Token    string
	Expires  time.Time
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SessionOption configures a SessionIssuer.
type SessionOption func(*SessionIssuer)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionIssuer) { s.ttl = ttl }
}

// WithClock replaces time.Now for issuing and validating claims.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionIssuer) { s.now = now }
}

// WithSessionActivity publishes sign-in and sign-out events.
func WithSessionActivity(p ActivityPublisher) SessionOption {
	return func(s *SessionIssuer) { s.activity = p }
}

// NewSessionIssuer creates a SessionIssuer signing with secret (HS256).
func NewSessionIssuer(verifier CredentialVerifier, secret string, opts ...SessionOption) *SessionIssuer {
	s := &SessionIssuer{
		verifier: verifier,
		secret:   []byte(secret),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize returns the identity for a valid email and password, or nil.
// Internal faults are logged and reported as nil so callers only ever see
// "no identity".
func (s *SessionIssuer) Authorize(ctx context.Context, email, password string) (identity *domain.Identity) {
	if email == "" || password == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "authorize credentials panicked", "panic", r)
			identity = nil
		}
	}()

	account, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			slog.ErrorContext(ctx, "authorize credentials", "error", err)
		}
		return nil
	}

	return account.Identity()
}

// Issue signs a claim for identity.
func (s *SessionIssuer) Issue(identity *domain.Identity) (string, time.Time, error) {
	if identity == nil || identity.ID == "" {
		return "", time.Time{}, fmt.Errorf("%w: identity is required", domain.ErrInvalidInput)
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign claim: %w", err)
	}
	return token, expires.Truncate(time.Second), nil
}

// Expand validates a claim and returns its session. Any problem with the
// token yields the anonymous session.
func (s *SessionIssuer) Expand(token string) domain.Session {
	if token == "" {
		return domain.Session{}
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return domain.Session{}
	}

	return domain.Session{
		User: &domain.Identity{
			ID:    claims.Subject,
			Email: claims.Email,
			Name:  claims.Name,
		},
		Expires: claims.ExpiresAt.Time,
	}
}

// SignIn authorizes the credentials and issues a claim for them.
func (s *SessionIssuer) SignIn(ctx context.Context, email, password string) (*SignedSession, error) {
	identity := s.Authorize(ctx, email, password)
	if identity == nil {
		return nil, domain.ErrUnauthorized
	}

	token, expires, err := s.Issue(identity)
	if err != nil {
		return nil, err
	}

	s.publish(domain.ActivitySessionStarted, identity, identity.Name+" signed in")
	return &SignedSession{Identity: identity, Token: token, Expires: expires}, nil
}

// SignOut records the end of a session. Claims are stateless, so the
// token itself stays valid until it expires.
func (s *SessionIssuer) SignOut(ctx context.Context, session domain.Session) {
	if !session.Authenticated() {
		return
	}
	slog.InfoContext(ctx, "session ended", "account_id", session.User.ID)
	s.publish(domain.ActivitySessionEnded, session.User, session.User.Name+" signed out")
}

func (s *SessionIssuer) publish(kind domain.ActivityKind, identity *domain.Identity, message string) {
	if s.activity == nil {
		return
	}
	s.activity.Publish(domain.Activity{
		ID:        uuid.NewString(),
		Kind:      kind,
		AccountID: identity.ID,
		Actor:     identity.Name,
		Message:   message,
		At:        s.now().UTC(),
	})
}
