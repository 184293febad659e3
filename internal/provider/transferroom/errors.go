package transferroom

import "fmt"

// AuthError indicates the login call was rejected or returned an unusable
// body. It is fatal to a sync run: there is no point paginating without a
// token.
type AuthError struct {
	StatusCode int // zero when the failure happened before any HTTP response
	Reason     string
	Err        error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("transferroom auth: %s: %v", e.Reason, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("transferroom auth: %s (HTTP %d)", e.Reason, e.StatusCode)
	default:
		return "transferroom auth: " + e.Reason
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError indicates a list endpoint could not produce records: transport
// failure, a non-OK status after retries were exhausted, or a body that is
// not a JSON array.
type FetchError struct {
	Endpoint   string
	StatusCode int // zero for transport-level failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transferroom fetch %s: HTTP %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transferroom fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
