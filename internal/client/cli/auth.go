package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/affinity/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for name, email, password and role and creates the
// account. The user stays logged out; login is a separate step.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	role, err := getSimpleText(a.reader, "Enter role (matrix_admin, data_admin, role_admin)", a.out)
	if err != nil {
		return err
	}

	if err := a.trackConnectivity(a.authService.Register(ctx, name, email, password, role)); err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	fmt.Fprintln(a.out, "Success! You can log in now.")
	return nil
}

// Login prompts for credentials and starts a session. The password byte
// slice is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, email, password)
	if err := a.trackConnectivity(err); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.user = u
	log.Printf("Login successful, role: %s", u.Role)
	return nil
}

// Logout ends the session. The local state is dropped even when the server
// could not be told.
func (a *App) Logout(ctx context.Context) error {
	err := a.trackConnectivity(a.authService.Logout(ctx))
	a.user = nil
	if err != nil {
		log.Printf("Server logout failed, local session removed: %s", err.Error())
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// ChangePassword asks for the current and the new password. On success the
// server ends every session, so the user has to log in again.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.trackConnectivity(a.authService.ChangePassword(ctx, current, next)); err != nil {
		log.Printf("Password change unsuccessful: %s", err.Error())
		return err
	}

	a.user = nil
	fmt.Fprintln(a.out, "Password changed. Please log in again.")
	return nil
}
