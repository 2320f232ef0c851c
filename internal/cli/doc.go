// Package cli implements the client side of the command line interface: a
// REST client for a running gateway, table and JSON output rendering, and
// the browser-based login flow against the gateway's authorization server
// (callback server, token persistence).
//
// The cmd package wires these pieces into cobra commands; this package keeps
// them testable without cobra.
package cli
