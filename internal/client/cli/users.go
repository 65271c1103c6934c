package cli

import (
	"context"
	"fmt"
	"log"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/affinity/internal/client/models"
)

func (a *App) printUser(u *models.User) {
	fmt.Fprintf(a.out, "id:    %s\nname:  %s\nemail: %s\nrole:  %s\n", u.ID, u.Name, u.Email, u.Role)
}

// WhoAmI prints the signed-in account as the server currently sees it.
func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.authService.WhoAmI(ctx)
	if err := a.trackConnectivity(err); err != nil {
		log.Printf("error: %s", err.Error())
		return err
	}
	a.user = u
	a.printUser(u)
	return nil
}

// UpdateProfile changes the name and email of the signed-in account. An
// empty answer keeps the current value.
func (a *App) UpdateProfile(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter new name (blank keeps current)", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter new email (blank keeps current)", a.out)
	if err != nil {
		return err
	}

	if a.user != nil {
		if strings.TrimSpace(name) == "" {
			name = a.user.Name
		}
		if strings.TrimSpace(email) == "" {
			email = a.user.Email
		}
	}

	u, err := a.authService.UpdateProfile(ctx, name, email)
	if err := a.trackConnectivity(err); err != nil {
		log.Printf("Profile update unsuccessful: %s", err.Error())
		return err
	}
	a.user = u
	a.printUser(u)
	return nil
}

// Users lists every account. Only administrators get an answer.
func (a *App) Users(ctx context.Context) error {
	list, err := a.usersService.List(ctx)
	if err := a.trackConnectivity(err); err != nil {
		log.Printf("error: %s", err.Error())
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return tw.Flush()
}

// SetRole changes the role of the user with the given id.
func (a *App) SetRole(ctx context.Context, userID, role string) error {
	u, err := a.usersService.SetRole(ctx, userID, role)
	if err := a.trackConnectivity(err); err != nil {
		log.Printf("Role change unsuccessful: %s", err.Error())
		return err
	}
	if a.user != nil && a.user.ID == u.ID {
		a.user = u
	}
	a.printUser(u)
	return nil
}
