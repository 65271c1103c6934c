// Package models holds the data the CLI exchanges with the API and keeps in
// its local session cache.
package models

// User is the public view of an account as returned by the API.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether u may manage other accounts.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == "matrix_admin" || u.Role == "role_admin")
}

// Session is what the CLI remembers between runs.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
