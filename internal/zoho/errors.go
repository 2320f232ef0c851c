package zoho

import (
	"errors"
	"fmt"
	"strings"
)

// maxErrorBodyBytes caps how much of an upstream response body is carried
// inside error values. Bodies are diagnostic context, not payloads.
const maxErrorBodyBytes = 512

// truncateBody returns at most maxErrorBodyBytes of body as a string.
func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes])
	}
	return string(body)
}

// ConfigurationError indicates that required OAuth credentials are missing
// from the runtime configuration. It is raised before any network activity,
// so a misconfigured deployment fails fast instead of producing confusing
// upstream rejections.
type ConfigurationError struct {
	// Missing lists the credential field names that are absent.
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing OAuth configuration: %s", strings.Join(e.Missing, ", "))
}

// IsConfigurationError checks if an error is a ConfigurationError using
// error unwrapping.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// UpstreamAuthError indicates that the accounts server rejected a token
// refresh, either with a non-200 status or with a 200 response that carried
// no access token. Body holds a truncated copy of the upstream response; it
// never contains local credential material.
type UpstreamAuthError struct {
	Status int
	Body   string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("token refresh failed with status %d: %s", e.Status, e.Body)
}

// IsUpstreamAuthError checks if an error is an UpstreamAuthError using
// error unwrapping.
func IsUpstreamAuthError(err error) bool {
	var authErr *UpstreamAuthError
	return errors.As(err, &authErr)
}

// AuthExhaustedError indicates that a request failed authentication, the
// client refreshed the token and retried once, and the attempt still ended
// in an authentication failure. Either Err carries the refresh failure that
// cut the recovery short, or Status and Body describe the upstream response
// that rejected the freshly refreshed token.
type AuthExhaustedError struct {
	// Op names the request that exhausted its retry, e.g. "GET /restapi/v2/workspaces".
	Op string

	// Status and Body describe the final upstream rejection, when one was received.
	Status int
	Body   string

	// Err is the refresh failure that ended the recovery, when that is what happened.
	Err error
}

func (e *AuthExhaustedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication exhausted for %s: token refresh during recovery failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("authentication exhausted for %s: upstream rejected the refreshed token (status %d): %s", e.Op, e.Status, e.Body)
}

func (e *AuthExhaustedError) Unwrap() error {
	return e.Err
}

// IsAuthExhaustedError checks if an error is an AuthExhaustedError using
// error unwrapping.
func IsAuthExhaustedError(err error) bool {
	var exhaustedErr *AuthExhaustedError
	return errors.As(err, &exhaustedErr)
}

// ValidationError indicates that an operation was called with arguments that
// are invalid on their face. It is raised before any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError checks if an error is a ValidationError using error
// unwrapping.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// UpstreamRequestError indicates an Analytics API failure that is not an
// authentication problem: a non-2xx status outside the auth failure rules,
// or a 2xx response whose body could not be decoded as JSON.
type UpstreamRequestError struct {
	Status int
	Body   string
}

func (e *UpstreamRequestError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s", e.Status, e.Body)
}

// IsUpstreamRequestError checks if an error is an UpstreamRequestError using
// error unwrapping.
func IsUpstreamRequestError(err error) bool {
	var requestErr *UpstreamRequestError
	return errors.As(err, &requestErr)
}

// NetworkError indicates that a request never produced an upstream response:
// connection failures, timeouts, cancelled contexts.
type NetworkError struct {
	// Op names the operation that failed, e.g. "token refresh" or
	// "GET /restapi/v2/workspaces".
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError checks if an error is a NetworkError using error unwrapping.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
