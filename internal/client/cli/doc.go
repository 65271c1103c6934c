// Package cli provides the interactive affinity command-line client.
//
// It wires configuration, the local session cache, the API services, and an
// interactive REPL. On start it tries to resume the cached session; if that
// fails the user can register or log in.
//
// Key features:
//   - Register / Login / Logout
//   - Password change (ends every session of the account)
//   - Show and rename the signed-in account
//   - List users and change roles (administrators only)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
