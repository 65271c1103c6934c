package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotenvLoad is a seam for tests.
var dotenvLoad = func() error { return godotenv.Load() }

// parseEnv overlays values from environment variables. A .env file in the
// working directory is loaded first when present; variables already set in
// the process environment take precedence over it.
//
//	HTTP_ADDR, DATABASE_DSN, SECRET_KEY, SESSION_VALIDITY, SESSION_SWEEP_INTERVAL,
//	SESSION_STORE, REDIS_URL, BCRYPT_COST, BOOTSTRAP_ADMIN_NAME,
//	BOOTSTRAP_ADMIN_EMAIL, BOOTSTRAP_ADMIN_PASSWORD, LOG_LEVEL
func parseEnv(cfg *Config) {
	_ = dotenvLoad()

	cfg.EndpointAddrHTTP = getEnv("HTTP_ADDR", cfg.EndpointAddrHTTP)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.SessionValidityDuration = getEnvAsDuration("SESSION_VALIDITY", cfg.SessionValidityDuration)
	cfg.SessionSweepInterval = getEnvAsDuration("SESSION_SWEEP_INTERVAL", cfg.SessionSweepInterval)
	cfg.SessionStore = getEnv("SESSION_STORE", cfg.SessionStore)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.BcryptCost = getEnvAsInt("BCRYPT_COST", cfg.BcryptCost)
	cfg.BootstrapAdminName = getEnv("BOOTSTRAP_ADMIN_NAME", cfg.BootstrapAdminName)
	cfg.BootstrapAdminEmail = getEnv("BOOTSTRAP_ADMIN_EMAIL", cfg.BootstrapAdminEmail)
	cfg.BootstrapAdminPassword = getEnv("BOOTSTRAP_ADMIN_PASSWORD", cfg.BootstrapAdminPassword)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
