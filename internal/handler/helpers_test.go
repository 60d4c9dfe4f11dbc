package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mantaflow/mantaflow/internal/activity"
	"github.com/mantaflow/mantaflow/internal/domain"
	"github.com/mantaflow/mantaflow/internal/handler"
	"github.com/mantaflow/mantaflow/internal/observability"
	"github.com/mantaflow/mantaflow/internal/repository/memory"
	"github.com/mantaflow/mantaflow/internal/service"
)

const testSecret = "test-secret-for-handler-tests-0123456789"

func newTestDepsWithRepo(t *testing.T, repo domain.AccountRepository) handler.Deps {
	t.Helper()
	hub := activity.NewHub()
	accounts, err := service.NewAccountService(repo, 4,
		service.WithDemoAccount(),
		service.WithAccountActivity(hub),
	)
	if err != nil {
		t.Fatalf("NewAccountService: %v", err)
	}
	return handler.Deps{
		Accounts: accounts,
		Sessions: service.NewSessionIssuer(accounts, testSecret, service.WithSessionActivity(hub)),
		Activity: hub,
		Metrics:  observability.NewMetrics(),
	}
}

func newTestDeps(t *testing.T) handler.Deps {
	t.Helper()
	return newTestDepsWithRepo(t, memory.NewAccountRepository())
}

func newTestServer(t *testing.T, d handler.Deps) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, d)
	srv := httptest.NewServer(handler.RequestID(handler.SecurityHeaders(mux)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

// signIn registers an account and returns a session token for it.
func signIn(t *testing.T, d handler.Deps, name, email, password string) string {
	t.Helper()
	ctx := context.Background()
	if _, err := d.Accounts.Register(ctx, name, email, password); err != nil {
		t.Fatalf("Register: %v", err)
	}
	signed, err := d.Sessions.SignIn(ctx, email, password)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return signed.Token
}
