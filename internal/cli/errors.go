package cli

import (
	"fmt"
)

// ConnectionError indicates the gateway could not be reached at all, as
// opposed to the gateway answering with an error.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf(`Could not reach gateway at %s: %v

Is the gateway running? Start it with:
  zanalytics serve`, e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// AuthRequiredError indicates the gateway rejected the request for lack of
// credentials.
type AuthRequiredError struct {
	// Endpoint is the URL that requires authentication.
	Endpoint string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required for %s

To authenticate, run:
  zanalytics login --endpoint %s

Or pass a static key with --api-key.`, e.Endpoint, e.Endpoint)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthFailedError indicates the login flow itself failed.
type AuthFailedError struct {
	// Endpoint is the URL where authentication failed.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed for %s: %v

To retry, run:
  zanalytics login --endpoint %s`, e.Endpoint, e.Reason, e.Endpoint)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// RequestError is a structured error answered by the gateway. Kind and
// Message mirror the gateway's error body; Status is the HTTP status of the
// gateway response and Upstream the Zoho status when the gateway relayed
// one.
type RequestError struct {
	Kind     string
	Message  string
	Status   int
	Upstream int
}

// Error renders the gateway error for terminal display.
func (e *RequestError) Error() string {
	if e.Upstream != 0 {
		return fmt.Sprintf("%s: %s (upstream status %d)", e.Kind, e.Message, e.Upstream)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
