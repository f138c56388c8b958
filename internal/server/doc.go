// Package server provides the HTTP server of the token broker.
//
// the server is configured through environment variables
// (see internal/config/config.go for details) and serves one broker per
// provider listed in the providers file, under /api/v2/{provider}.
//
// The package includes the handlers for
//   - session and authority tokens, cached session token lookups and signatures
//   - common infrastructure handlers (health, version, metrics, docs)
//
// Start also runs the periodic token cache cleanup.
//
// middleware is in internal/server/middleware
package server
