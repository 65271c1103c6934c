package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/affinity/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session token signing key
//	-t int      session validity, minutes
//	-w int      expired-session sweep interval, minutes (0 disables)
//	-b string   session store: postgres or redis
//	-r string   Redis URL
//	-k int      bcrypt cost
//	-l string   log level
//
// os.Args is filtered through flagx.FilterArgs first so that -c/-config and
// flags of other components do not make parsing fail.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-w", "-b", "-r", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session token signing key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	sweepInterval := fs.Int("w", int(config.SessionSweepInterval.Minutes()), "expired session sweep interval (in minutes)")

	fs.StringVar(&config.SessionStore, "b", config.SessionStore, "session store backend (postgres|redis)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
	config.SessionSweepInterval = time.Duration(*sweepInterval) * time.Minute
}
