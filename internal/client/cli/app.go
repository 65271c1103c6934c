package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/affinity/internal/client/client"
	"github.com/dmitrijs2005/affinity/internal/client/config"
	"github.com/dmitrijs2005/affinity/internal/client/models"
	"github.com/dmitrijs2005/affinity/internal/client/services"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config       *config.Config
	authService  services.AuthService
	usersService services.UsersService
	user         *models.User
	Mode         Mode
	reader       *bufio.Reader
	out          io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := client.InitDatabase(ctx, c.LocalDBPath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db)
	us := services.NewUsersService(apiClient)

	return &App{
		config:       c,
		authService:  as,
		usersService: us,
		reader:       bufio.NewReader(os.Stdin),
		out:          os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

// trackConnectivity flips Mode according to err and passes err through.
func (a *App) trackConnectivity(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
	return err
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) isAdmin() bool {
	return a.user.IsAdmin()
}

func (a *App) getStatus() string {
	s := ""
	if a.user != nil {
		s = a.user.Email + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// resume picks up the session cached by a previous run, if any.
func (a *App) resume(ctx context.Context) {
	u, err := a.authService.Restore(ctx)
	if errors.Is(err, client.ErrNotLoggedIn) {
		a.trackConnectivity(a.authService.Ping(ctx))
		return
	}
	a.trackConnectivity(err)

	if u != nil {
		a.user = u
		log.Printf("Resumed session of %s", u.Email)
	}
	if err != nil && !errors.Is(err, client.ErrUnavailable) {
		log.Printf("Could not resume session: %s", err.Error())
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)

	log.Println("Welcome to affinity CLI (type 'help' for commands)")
	a.resume(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
}
