// Package handlers contains HTTP handlers for the ytdlpd HTTP API.
//
// This package provides handlers for:
//   - Download submission and job status
//   - Config and cookie file management, including config normalization
//   - Health, readiness and daemon status endpoints
//
// Errors are reported through the foundation/errors HTTPErrorAdapter and
// successful responses use the types in server/responses.
package handlers
