// Package authserver implements the minimal OAuth 2.0 authorization server
// the gateway embeds for downstream clients.
//
// Connector clients that cannot be configured with a static API key discover
// this server through the /.well-known metadata endpoints, walk an
// immediate-consent authorization code flow, and present the resulting
// Bearer token on data requests. All issued credentials are opaque random
// strings held in memory; they do not survive a restart and are only
// meaningful to the process that minted them.
//
// This is deliberately not a general purpose authorization server. Every
// authorization request is approved without a consent page, client
// identifiers are accepted as-is, and PKCE parameters are tolerated but not
// verified.
package authserver
