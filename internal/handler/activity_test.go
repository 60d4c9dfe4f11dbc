package handler_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestActivityStream_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, newTestDeps(t))

	resp, err := http.Get(srv.URL + "/api/activity/stream")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestActivityFeed(t *testing.T) {
	d := newTestDeps(t)
	srv := newTestServer(t, d)
	token := signIn(t, d, "Watcher", "watcher@example.com", "password123")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/activity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET feed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `id="activity-feed"`) {
		t.Fatalf("unexpected feed markup: %s", body)
	}
}

func TestActivityStream_PatchesRegistrations(t *testing.T) {
	d := newTestDeps(t)
	srv := newTestServer(t, d)
	token := signIn(t, d, "Watcher", "watcher@example.com", "password123")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/activity/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Activity.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"name": "Newcomer", "email": "newcomer@example.com", "password": "password123",
	})

	var event []string
	sawItem := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if sawItem {
				break
			}
			event = event[:0]
			continue
		}
		event = append(event, line)
		if strings.Contains(line, "Newcomer joined Manta Flow") {
			sawItem = true
		}
	}
	if !sawItem {
		t.Fatalf("did not receive registration patch (scan error: %v)", scanner.Err())
	}
	joined := strings.Join(event, "\n")
	if !strings.Contains(joined, "#activity-feed") {
		t.Fatalf("patch did not target the activity feed:\n%s", joined)
	}
	if !strings.Contains(joined, "append") {
		t.Fatalf("patch did not append:\n%s", joined)
	}
}
