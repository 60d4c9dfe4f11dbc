package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mantaflow/mantaflow/internal/domain"
	"github.com/mantaflow/mantaflow/internal/logging"
	"github.com/mantaflow/mantaflow/internal/observability"
	"github.com/mantaflow/mantaflow/internal/service"
)

type contextKey string

const sessionContextKey contextKey = "session"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// SessionFromContext returns the session attached by OptionalAuth or
// RequireAuth. It is the anonymous session when none was attached.
func SessionFromContext(ctx context.Context) domain.Session {
	session, _ := ctx.Value(sessionContextKey).(domain.Session)
	return session
}

// RequireAuth rejects requests without a valid session claim with 401 and
// otherwise attaches the session to the request context.
func RequireAuth(sessions *service.SessionIssuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessions.Expand(sessionToken(r))
		if !session.Authenticated() {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
	})
}

// OptionalAuth attaches the session when the request carries a valid claim
// and lets every request through.
func OptionalAuth(sessions *service.SessionIssuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessions.Expand(sessionToken(r))
		if session.Authenticated() {
			r = r.WithContext(context.WithValue(r.Context(), sessionContextKey, session))
		}
		next.ServeHTTP(w, r)
	})
}

// sessionToken reads the claim from the session cookie, falling back to an
// Authorization bearer token.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// RateLimit answers 429 once the client's bucket is empty. A nil limiter
// disables limiting.
func RateLimit(limiter *service.TokenBucket, metrics *observability.Metrics, operation string, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			metrics.RecordAuth(operation, observability.OutcomeRateLimited)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestID tags each request with an id, reusing a well-formed inbound
// X-Request-ID, and exposes it to the logger through the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
