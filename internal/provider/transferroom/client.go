// Package transferroom provides the outbound HTTP client for the TransferRoom
// external API.
//
// TransferRoom uses bearer-token auth obtained from a login call and
// offset-based pagination on the players endpoint. Transient upstream
// failures (429, 500, 502, 503, 504) are retried with exponential backoff.
package transferroom

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const retryBaseDelay = 1 * time.Second

// retryableStatus is the set of transient statuses worth another attempt.
// Anything else returns to the caller immediately.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client is the HTTP client for TransferRoom list endpoints. Pagination
// looping belongs to the caller; the client fetches one page per call and
// reports an empty page as an empty slice.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    *Session
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration // base backoff, doubles each retry
	logger     *slog.Logger
}

// NewClient creates a TransferRoom client. pageDelay spaces successive
// fetches so bulk pagination stays inside the API's rate expectations.
func NewClient(baseURL string, session *Session, fetchTimeout, pageDelay time.Duration, maxRetries int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: fetchTimeout},
		baseURL:    baseURL,
		session:    session,
		limiter:    rate.NewLimiter(rate.Every(pageDelay), 1),
		maxRetries: maxRetries,
		retryDelay: retryBaseDelay,
		logger:     logger,
	}
}

// FetchCompetitions retrieves the full competition reference list in one
// call; the endpoint is not paginated.
func (c *Client) FetchCompetitions(ctx context.Context) ([]json.RawMessage, error) {
	return c.getList(ctx, "/competitions", nil)
}

// FetchPlayers retrieves one page of players. The upstream offset parameter
// is literally named "position"; it is a pagination cursor and has nothing to
// do with playing positions.
func (c *Client) FetchPlayers(ctx context.Context, offset, limit int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("position", strconv.Itoa(offset))
	params.Set("amount", strconv.Itoa(limit))
	return c.getList(ctx, "/players", params)
}

// getList performs a rate-limited, authenticated GET against a list endpoint
// and decodes the body as a JSON array. A non-array body is a fetch failure,
// not an empty result.
func (c *Client) getList(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	header, err := c.session.Headers(ctx)
	if err != nil {
		// *AuthError passes through so the caller can classify it.
		return nil, err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	status, body, err := doWithRetry(ctx, c.httpClient, http.MethodGet, u, path, header, c.maxRetries, c.retryDelay, c.logger)
	if err != nil {
		return nil, &FetchError{Endpoint: path, Err: err}
	}
	if status != http.StatusOK {
		return nil, &FetchError{Endpoint: path, StatusCode: status, Err: fmt.Errorf("unexpected status: %s", truncate(body, 200))}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &FetchError{Endpoint: path, StatusCode: status, Err: fmt.Errorf("response is not a list: %w", err)}
	}
	return items, nil
}

// doWithRetry issues one HTTP request with bounded retries on transient
// statuses (backoff baseDelay, x2 each attempt, honoring Retry-After).
// Transport errors are returned immediately; a retryable status that survives
// all attempts is returned as the final status for the caller to classify.
// label is the endpoint path used in errors, never the full URL, which may
// carry credentials in its query.
func doWithRetry(ctx context.Context, hc *http.Client, method, rawURL, label string, header http.Header, maxRetries int, baseDelay time.Duration, logger *slog.Logger) (int, []byte, error) {
	var lastStatus int
	var lastBody []byte

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
		if err != nil {
			return 0, nil, fmt.Errorf("create request: %w", err)
		}
		for k, vs := range header {
			req.Header[k] = vs
		}

		resp, err := hc.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("http %s %s: %w", method, label, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return 0, nil, fmt.Errorf("read response body: %w", readErr)
		}

		if !retryableStatus[resp.StatusCode] {
			return resp.StatusCode, body, nil
		}

		lastStatus, lastBody = resp.StatusCode, body
		if attempt == maxRetries {
			break
		}

		delay := baseDelay * time.Duration(1<<uint(attempt))
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				delay = time.Duration(secs) * time.Second
			}
		}

		logger.Warn("transient upstream status, backing off",
			"endpoint", label, "status", resp.StatusCode,
			"attempt", attempt+1, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		}
	}

	return lastStatus, lastBody, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
