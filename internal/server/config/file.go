package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/affinity/internal/flagx"
	"github.com/dmitrijs2005/affinity/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Durations accept
// "24h"-style strings or integer nanoseconds. Zero values leave the current
// setting untouched.
type FileConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey               string         `json:"secret_key" yaml:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration" yaml:"session_validity_duration"`
	SessionSweepInterval    timex.Duration `json:"session_sweep_interval" yaml:"session_sweep_interval"`
	SessionStore            string         `json:"session_store" yaml:"session_store"`
	RedisURL                string         `json:"redis_url" yaml:"redis_url"`
	BcryptCost              int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	BootstrapAdminName      string         `json:"bootstrap_admin_name" yaml:"bootstrap_admin_name"`
	BootstrapAdminEmail     string         `json:"bootstrap_admin_email" yaml:"bootstrap_admin_email"`
	BootstrapAdminPassword  string         `json:"bootstrap_admin_password" yaml:"bootstrap_admin_password"`
	LogLevel                string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c/-config into config. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON. A missing flag
// means no file; an unreadable or malformed file panics, like bad flags do.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	if fc.SessionValidityDuration.Duration > 0 {
		c.SessionValidityDuration = fc.SessionValidityDuration.Duration
	}
	if fc.SessionSweepInterval.Duration > 0 {
		c.SessionSweepInterval = fc.SessionSweepInterval.Duration
	}
	setString(&c.SessionStore, fc.SessionStore)
	setString(&c.RedisURL, fc.RedisURL)
	if fc.BcryptCost > 0 {
		c.BcryptCost = fc.BcryptCost
	}
	setString(&c.BootstrapAdminName, fc.BootstrapAdminName)
	setString(&c.BootstrapAdminEmail, fc.BootstrapAdminEmail)
	setString(&c.BootstrapAdminPassword, fc.BootstrapAdminPassword)
	setString(&c.LogLevel, fc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
