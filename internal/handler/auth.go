package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/mantaflow/mantaflow/internal/domain"
	"github.com/mantaflow/mantaflow/internal/observability"
	"github.com/mantaflow/mantaflow/internal/service"
)

// SessionCookie is the cookie carrying the signed session claim.
const SessionCookie = "session_token"

const (
	msgInternal           = "Internal server error"
	msgInvalidBody        = "Invalid request body"
	msgInvalidCredentials = "Invalid email or password"
)

// AuthHandler handles sign-up, sign-in and session requests.
type AuthHandler struct {
	accounts     *service.AccountService
	sessions     *service.SessionIssuer
	metrics      *observability.Metrics
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. metrics may be nil.
func NewAuthHandler(accounts *service.AccountService, sessions *service.SessionIssuer, metrics *observability.Metrics, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		sessions:     sessions,
		metrics:      metrics,
		cookieSecure: cookieSecure,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (r credentialsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// HandleSignup registers an account.
// POST /api/auth/signup
// Request:  {"name":"...","email":"...","password":"..."}
// Response: 201 {"message":"...","user":{...}}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := readJSON(w, r, &req); err != nil {
		h.metrics.RecordAuth("signup", observability.OutcomeInvalid)
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			h.metrics.RecordAuth("signup", observability.OutcomeInvalid)
			writeError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, domain.ErrPasswordTooShort):
			h.metrics.RecordAuth("signup", observability.OutcomeInvalid)
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		case errors.Is(err, domain.ErrPasswordTooLong):
			h.metrics.RecordAuth("signup", observability.OutcomeInvalid)
			writeError(w, http.StatusBadRequest, "Password must be at most 72 bytes")
		case errors.Is(err, domain.ErrDuplicateEmail):
			h.metrics.RecordAuth("signup", observability.OutcomeConflict)
			writeError(w, http.StatusConflict, "User with this email already exists")
		default:
			h.metrics.RecordAuth("signup", observability.OutcomeError)
			slog.ErrorContext(r.Context(), "register account", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	h.metrics.RecordAuth("signup", observability.OutcomeSuccess)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    account.Identity(),
	})
}

// HandleSignin checks credentials without starting a session.
// POST /api/auth/signin
// Request:  {"email":"...","password":"..."}
// Response: 200 {"user":{...}}
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r, "signin")
	if !ok {
		return
	}

	account, err := h.accounts.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.metrics.RecordAuth("signin", observability.OutcomeRejected)
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		h.metrics.RecordAuth("signin", observability.OutcomeError)
		slog.ErrorContext(r.Context(), "verify credentials", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.RecordAuth("signin", observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, map[string]any{"user": account.Identity()})
}

// HandleCredentialsCallback authorizes credentials and starts a session.
// POST /api/auth/callback/credentials
// Request:  {"email":"...","password":"..."}
// Response: 200 {"user":{...}} with the session cookie, or 401 {"user":null}
func (h *AuthHandler) HandleCredentialsCallback(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r, "session")
	if !ok {
		return
	}

	signed, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.metrics.RecordAuth("session", observability.OutcomeRejected)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"user": nil})
			return
		}
		h.metrics.RecordAuth("session", observability.OutcomeError)
		slog.ErrorContext(r.Context(), "issue session", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed.Token,
		Path:     "/",
		Expires:  signed.Expires,
		MaxAge:   int(time.Until(signed.Expires).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	h.metrics.RecordAuth("session", observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, map[string]any{"user": signed.Identity})
}

// HandleSession returns the current session, or {} when anonymous.
// GET /api/auth/session
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionFromContext(r.Context()))
}

// HandleSignout clears the session cookie.
// POST /api/auth/signout
// Response: 204 No Content
func (h *AuthHandler) HandleSignout(w http.ResponseWriter, r *http.Request) {
	h.sessions.SignOut(r.Context(), SessionFromContext(r.Context()))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"user": {...}} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if !session.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": session.User})
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request, operation string) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := readJSON(w, r, &req); err != nil {
		h.metrics.RecordAuth(operation, observability.OutcomeInvalid)
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return req, false
	}
	if err := req.Validate(); err != nil {
		h.metrics.RecordAuth(operation, observability.OutcomeInvalid)
		writeError(w, http.StatusBadRequest, "Missing email or password")
		return req, false
	}
	return req, true
}
