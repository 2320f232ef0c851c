package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error.
func (ve *ValidationErrors) Add(field, message string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message})
}

// Validate checks structural correctness of the configuration. It does not
// require the upstream OAuth credentials to be present: the service starts
// without them and fails per-call with a configuration error, so health and
// the downstream auth endpoints stay reachable.
func Validate(config Config) error {
	var errs ValidationErrors

	if config.Gateway.Port <= 0 || config.Gateway.Port > 65535 {
		errs.Add("gateway.port", fmt.Sprintf("must be between 1 and 65535, got %d", config.Gateway.Port))
	}
	if config.Gateway.Host == "" {
		errs.Add("gateway.host", "must not be empty")
	}

	validateBaseURL(&errs, "zoho.accountsServer", config.Zoho.AccountsServer)
	validateBaseURL(&errs, "zoho.analyticsServer", config.Zoho.AnalyticsServer)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateBaseURL(errs *ValidationErrors, field, value string) {
	if value == "" {
		errs.Add(field, "must not be empty")
		return
	}

	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs.Add(field, fmt.Sprintf("must be an absolute URL, got %q", value))
	}
}
