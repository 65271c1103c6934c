package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	UpdateProfile(ctx context.Context) error
	Users(ctx context.Context) error
	SetRole(ctx context.Context, userID, role string) error
}

// runREPL starts a simple read-eval-print loop for the affinity CLI.
//
// It reads a line from reader, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. Command prompts read from the same reader, so piped
// input works line by line. The loop exits on EOF or when the user types
// "exit" or "quit".
//
//	Not logged in:
//	  help, register, login, exit | quit
//
//	Logged in:
//	  help, whoami, profile, passwd, logout, exit | quit
//	  users, setrole <id> <role>   (administrators)
//
// Errors returned by command handlers are ignored here; handlers log their
// own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("affinity %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			switch {
			case a.isLoggedIn() && a.isAdmin():
				printlnFn("Available commands: whoami, profile, passwd, users, setrole <id> <role>, logout, exit")
			case a.isLoggedIn():
				printlnFn("Available commands: whoami, profile, passwd, logout, exit")
			default:
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout", "whoami", "profile", "passwd", "users", "setrole":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			dispatchSession(ctx, a, cmd, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func dispatchSession(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "logout":
		_ = a.Logout(ctx)
	case "whoami":
		_ = a.WhoAmI(ctx)
	case "profile":
		_ = a.UpdateProfile(ctx)
	case "passwd":
		_ = a.ChangePassword(ctx)
	case "users":
		_ = a.Users(ctx)
	case "setrole":
		if len(args) != 2 {
			printlnFn("Usage: setrole <id> <role>")
			return
		}
		_ = a.SetRole(ctx, args[0], args[1])
	}
}
