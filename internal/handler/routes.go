package handler

import (
	"net/http"

	"github.com/mantaflow/mantaflow/internal/activity"
	"github.com/mantaflow/mantaflow/internal/observability"
	"github.com/mantaflow/mantaflow/internal/service"
)

// Deps are the services the HTTP layer routes to. Metrics and Limiter may
// be nil.
type Deps struct {
	Accounts     *service.AccountService
	Sessions     *service.SessionIssuer
	Activity     *activity.Hub
	Metrics      *observability.Metrics
	Limiter      *service.TokenBucket
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	auth := NewAuthHandler(d.Accounts, d.Sessions, d.Metrics, d.CookieSecure)
	feed := NewActivityHandler(d.Activity)

	limited := func(operation string, h http.HandlerFunc) http.Handler {
		return RateLimit(d.Limiter, d.Metrics, operation, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	mux.Handle("POST /api/auth/signup", limited("signup", auth.HandleSignup))
	mux.Handle("POST /api/auth/signin", limited("signin", auth.HandleSignin))
	mux.Handle("POST /api/auth/callback/credentials", limited("session", auth.HandleCredentialsCallback))
	mux.Handle("GET /api/auth/session", OptionalAuth(d.Sessions, http.HandlerFunc(auth.HandleSession)))
	mux.Handle("POST /api/auth/signout", OptionalAuth(d.Sessions, http.HandlerFunc(auth.HandleSignout)))
	mux.Handle("GET /api/auth/me", RequireAuth(d.Sessions, http.HandlerFunc(auth.HandleMe)))

	mux.Handle("GET /api/activity", RequireAuth(d.Sessions, http.HandlerFunc(feed.HandleFeed)))
	mux.Handle("GET /api/activity/stream", RequireAuth(d.Sessions, http.HandlerFunc(feed.HandleStream)))
}
