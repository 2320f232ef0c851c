package zoho

import (
	"net/url"
	"time"
)

// Config carries the upstream connection settings for the Analytics client.
// Base URLs are expected without a trailing slash.
type Config struct {
	// ClientID, ClientSecret, and RefreshToken are the OAuth credentials
	// used against the accounts server. All three must be present before
	// any token refresh is attempted.
	ClientID     string
	ClientSecret string
	RefreshToken string

	// OrgID selects the Analytics organization. When set, it is sent as
	// the ZANALYTICS-ORGID header on every API call.
	OrgID string

	// AccountsServer is the Zoho accounts base URL hosting the OAuth
	// token endpoint, e.g. https://accounts.zoho.com.
	AccountsServer string

	// AnalyticsServer is the Zoho Analytics API base URL, e.g.
	// https://analyticsapi.zoho.com.
	AnalyticsServer string

	// DataDir is the scratch directory reported by the health snapshot.
	DataDir string
}

const (
	// refreshTimeout bounds a single token exchange with the accounts server.
	refreshTimeout = 30 * time.Second

	// readTimeout bounds metadata GET calls against the Analytics API.
	readTimeout = 60 * time.Second

	// exportTimeout bounds data export and SQL query calls, which can be
	// slow for large views.
	exportTimeout = 120 * time.Second
)

const (
	viewsLimitDefault  = 200
	viewsLimitMax      = 2000
	exportLimitDefault = 100
	exportLimitMax     = 10000
)

// request describes a single Analytics API call for the executor.
type request struct {
	method  string
	path    string
	query   url.Values
	body    interface{}
	timeout time.Duration
}
