package transferroom

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(t *testing.T, baseURL string) *Session {
	t.Helper()
	s := NewSession(baseURL, "scout@example.com", "secret", 5*time.Second, 2, discardLogger())
	s.retryDelay = time.Millisecond
	return s
}

func testClient(t *testing.T, baseURL string, session *Session) *Client {
	t.Helper()
	c := NewClient(baseURL, session, 5*time.Second, time.Millisecond, 2, discardLogger())
	c.retryDelay = time.Millisecond
	return c
}

func TestSessionAuthenticate(t *testing.T) {
	loginCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginCalls++
		if r.Method != http.MethodPost {
			t.Errorf("login method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/login" {
			t.Errorf("login path = %s, want /login", r.URL.Path)
		}
		if got := r.URL.Query().Get("email"); got != "scout@example.com" {
			t.Errorf("email param = %q, want scout@example.com", got)
		}
		if got := r.URL.Query().Get("password"); got != "secret" {
			t.Errorf("password param = %q, want secret", got)
		}
		w.Write([]byte(`{"token": "tok-abc"}`))
	}))
	defer srv.Close()

	s := testSession(t, srv.URL)

	token, err := s.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("token = %q, want tok-abc", token)
	}

	// A cached token must not trigger a second login.
	h, err := s.Headers(context.Background())
	if err != nil {
		t.Fatalf("Headers failed: %v", err)
	}
	if got := h.Get("Authorization"); got != "Bearer tok-abc" {
		t.Errorf("Authorization = %q, want Bearer tok-abc", got)
	}
	if loginCalls != 1 {
		t.Errorf("login calls = %d, want 1", loginCalls)
	}
}

func TestSessionAuthenticate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "rejected credentials", status: http.StatusUnauthorized, body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "missing token", status: http.StatusOK, body: `{}`, wantStatus: http.StatusOK},
		{name: "malformed body", status: http.StatusOK, body: `{`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := testSession(t, srv.URL)
			_, err := s.Authenticate(context.Background())
			if err == nil {
				t.Fatal("Authenticate succeeded, want error")
			}

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("error type = %T, want *AuthError", err)
			}
			if authErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", authErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestSessionAuthenticate_RetriesTransientStatus(t *testing.T) {
	loginCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginCalls++
		if loginCalls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"token": "tok-after-retry"}`))
	}))
	defer srv.Close()

	s := testSession(t, srv.URL)
	token, err := s.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if token != "tok-after-retry" {
		t.Errorf("token = %q, want tok-after-retry", token)
	}
	if loginCalls != 2 {
		t.Errorf("login calls = %d, want 2", loginCalls)
	}
}

// newAPIServer fakes the two-endpoint surface the client talks to: a login
// endpoint issuing a fixed token and a players handler supplied per test.
func newAPIServer(t *testing.T, players http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token": "tok-test"}`))
	})
	mux.HandleFunc("/players", players)
	return httptest.NewServer(mux)
}

func TestClientFetchPlayers(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-test" {
			t.Errorf("Authorization = %q, want Bearer tok-test", got)
		}
		if got := r.URL.Query().Get("position"); got != "20000" {
			t.Errorf("position param = %q, want 20000", got)
		}
		if got := r.URL.Query().Get("amount"); got != "10000" {
			t.Errorf("amount param = %q, want 10000", got)
		}
		w.Write([]byte(`[{"TR_ID": 1}, {"TR_ID": 2}]`))
	})
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	items, err := c.FetchPlayers(context.Background(), 20000, 10000)
	if err != nil {
		t.Fatalf("FetchPlayers failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
}

func TestClientFetchPlayers_EmptyPage(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	items, err := c.FetchPlayers(context.Background(), 0, 10000)
	if err != nil {
		t.Fatalf("FetchPlayers failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestClientFetchPlayers_RetriesThenSucceeds(t *testing.T) {
	playerCalls := 0
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		playerCalls++
		if playerCalls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"TR_ID": 1}]`))
	})
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	items, err := c.FetchPlayers(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("FetchPlayers failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
	if playerCalls != 3 {
		t.Errorf("player calls = %d, want 3", playerCalls)
	}
}

func TestClientFetchPlayers_RetriesExhausted(t *testing.T) {
	playerCalls := 0
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		playerCalls++
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	_, err := c.FetchPlayers(context.Background(), 0, 100)
	if err == nil {
		t.Fatal("FetchPlayers succeeded, want error")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", fetchErr.StatusCode)
	}
	// maxRetries retries after the initial attempt.
	if playerCalls != 3 {
		t.Errorf("player calls = %d, want 3", playerCalls)
	}
}

func TestClientFetchPlayers_HonorsRetryAfter(t *testing.T) {
	playerCalls := 0
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		playerCalls++
		if playerCalls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	})
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	start := time.Now()
	if _, err := c.FetchPlayers(context.Background(), 0, 100); err != nil {
		t.Fatalf("FetchPlayers failed: %v", err)
	}
	if playerCalls != 2 {
		t.Errorf("player calls = %d, want 2", playerCalls)
	}
	// Retry-After: 0 overrides the backoff, so the retry is immediate.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("retry took %v, want immediate", elapsed)
	}
}

func TestClientFetchPlayers_NonRetryableStatus(t *testing.T) {
	playerCalls := 0
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		playerCalls++
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	_, err := c.FetchPlayers(context.Background(), 0, 100)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
	}
	if playerCalls != 1 {
		t.Errorf("player calls = %d, want 1 (no retry on 404)", playerCalls)
	}
}

func TestClientFetchPlayers_NonArrayBody(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": "object"}`))
	})
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	_, err := c.FetchPlayers(context.Background(), 0, 100)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
}

func TestClientFetchPlayers_AuthErrorPassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	_, err := c.FetchPlayers(context.Background(), 0, 100)
	if err == nil {
		t.Fatal("FetchPlayers succeeded, want auth error")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		t.Error("auth failure must not be wrapped as a fetch error")
	}
}

func TestClientFetchCompetitions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token": "tok-test"}`))
	})
	mux.HandleFunc("/competitions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Id": 1, "CompetitionName": "Bundesliga"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv.URL, testSession(t, srv.URL))
	items, err := c.FetchCompetitions(context.Background())
	if err != nil {
		t.Fatalf("FetchCompetitions failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
}
