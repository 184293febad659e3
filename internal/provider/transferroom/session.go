package transferroom

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Session owns the TransferRoom bearer token. The token is acquired lazily on
// first use and cached in memory for the life of the process; TransferRoom
// tokens outlive any single sync run, so there is no refresh or expiry
// tracking. The login call uses a shorter timeout than bulk fetches.
type Session struct {
	httpClient *http.Client
	baseURL    string
	email      string
	password   string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger

	mu    sync.Mutex
	token string
}

// NewSession creates a session for the given credentials. Nothing happens on
// the network until the first Headers or Authenticate call.
func NewSession(baseURL, email, password string, loginTimeout time.Duration, maxRetries int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		httpClient: &http.Client{Timeout: loginTimeout},
		baseURL:    baseURL,
		email:      email,
		password:   password,
		maxRetries: maxRetries,
		retryDelay: retryBaseDelay,
		logger:     logger,
	}
}

// Authenticate performs the login call and caches the returned token. It
// returns an *AuthError on a non-2xx response or a body without a token.
func (s *Session) Authenticate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticateLocked(ctx)
}

// Headers returns the authorization headers for API calls, transparently
// authenticating if no token is cached yet.
func (s *Session) Headers(ctx context.Context) (http.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		if _, err := s.authenticateLocked(ctx); err != nil {
			return nil, err
		}
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.token)
	return h, nil
}

func (s *Session) authenticateLocked(ctx context.Context) (string, error) {
	s.logger.Info("authenticating with TransferRoom API")

	// Credentials travel as query parameters; that is the upstream contract.
	// Never echo the URL into logs or errors.
	q := url.Values{}
	q.Set("email", s.email)
	q.Set("password", s.password)
	loginURL := s.baseURL + "/login?" + q.Encode()

	status, body, err := doWithRetry(ctx, s.httpClient, http.MethodPost, loginURL, "/login", nil, s.maxRetries, s.retryDelay, s.logger)
	if err != nil {
		return "", &AuthError{Reason: "login request failed", Err: err}
	}
	if status < 200 || status >= 300 {
		return "", &AuthError{StatusCode: status, Reason: "login rejected"}
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &AuthError{StatusCode: status, Reason: "decode login response", Err: err}
	}
	if payload.Token == "" {
		return "", &AuthError{StatusCode: status, Reason: "login response missing token"}
	}

	s.token = payload.Token
	s.logger.Info("authentication successful")
	return s.token, nil
}
