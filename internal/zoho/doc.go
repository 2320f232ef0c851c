// Package zoho implements the upstream client for the Zoho Analytics REST
// API v2. It owns the OAuth token lifecycle end to end: a concurrency-safe
// credential store for the short-lived access token, a refresher that
// exchanges the long-lived refresh token at the Zoho accounts server, and an
// authenticated executor that recovers from expired tokens by refreshing and
// retrying a failed request exactly once.
//
// On top of the executor the package exposes the five Analytics operations
// the service serves (workspace listing, view search, view details, data
// export, SQL query), a sanitized health snapshot, and a file watcher that
// picks up on-disk refresh token rotation without a restart.
//
// Credential material never leaves the package through errors, logs, or the
// health snapshot. Errors carry upstream status codes and truncated response
// bodies; log lines reference token lengths and presence only.
package zoho
