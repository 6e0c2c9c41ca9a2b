// Package config loads server settings from defaults, an optional
// dashboard.yaml and DASHBOARD_* environment variables, in rising priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port  string
	Store StoreConfig
	JWT   JWTConfig
	Log   LogConfig
	Login LoginConfig
}

// StoreConfig selects the user store backend.
type StoreConfig struct {
	Driver string // file or sqlite
	Path   string
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

// LoginConfig throttles POST /api/login across all clients.
type LoginConfig struct {
	Rate  float64 // attempts per second
	Burst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/users.json")
	v.SetDefault("jwt.token_ttl", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("login.rate", 5.0)
	v.SetDefault("login.burst", 10)
}

// Load reads the configuration. configFile may be empty, in which case
// dashboard.yaml is looked up in the working directory and /etc/dashboard
// and its absence is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dashboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dashboard")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port: v.GetString("port"),
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
			Path:   v.GetString("store.path"),
		},
		JWT: JWTConfig{
			Secret:   v.GetString("jwt.secret"),
			TokenTTL: v.GetDuration("jwt.token_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Login: LoginConfig{
			Rate:  v.GetFloat64("login.rate"),
			Burst: v.GetInt("login.burst"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (set DASHBOARD_JWT_SECRET)")
	}
	switch c.Store.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store.driver %q: want file or sqlite", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.JWT.TokenTTL <= 0 {
		return fmt.Errorf("jwt.token_ttl must be positive, got %s", c.JWT.TokenTTL)
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}
