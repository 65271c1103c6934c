// Package client contains client-side building blocks for the affinity CLI.
//
// # Overview
//
// The package provides:
//  1. The API contract the CLI depends on (see the Client interface):
//     register, login, logout, password change, profile and user
//     administration calls plus a liveness check.
//  2. A JSON-over-HTTP implementation (see HTTPClient) that keeps the current
//     session token, sends it as a Bearer header, and maps HTTP status codes
//     to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite file that caches the session between runs.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrForbidden. Any other non-2xx
// answer is returned as *APIError carrying the server's message.
package client
