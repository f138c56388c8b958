// Package handlers provides general infrastructure HTTP handlers
// (health, version, docs).
//
// The token and signature handlers live in the server package because they
// need the per-provider brokers.
package handlers
