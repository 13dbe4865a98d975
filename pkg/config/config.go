// Copyright (C) 2025 Joshua Goldstein

// Package config loads the console configuration from YAML and the
// environment.
package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName names the XDG config and data directories.
const AppName = "crm"

const (
	DefaultListen         = ":8080"
	DefaultBackendURL     = "http://localhost:8000"
	DefaultBackendTimeout = 15 * time.Second
	DefaultSessionMaxAge  = 12 * time.Hour
	DefaultVerifyTTL      = 30 * time.Second
	DefaultCacheTTL       = 30 * time.Second
	DefaultPageSize       = 25
	DefaultTableIdle      = 2 * time.Hour

	DefaultShortLimit  = 3
	DefaultShortWindow = 30 * time.Second
	DefaultLongLimit   = 6
	DefaultLongWindow  = 5 * time.Minute
	DefaultRetention   = 24 * time.Hour
)

type Config struct {
	Listen  string        `yaml:"listen"`
	Backend BackendConfig `yaml:"backend"`
	Session SessionConfig `yaml:"session"`
	Cache   CacheConfig   `yaml:"cache"`
	Table   TableConfig   `yaml:"table"`
	Login   LoginConfig   `yaml:"login"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig points at the inspection REST backend.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Secret       string        `yaml:"secret"`
	SecureCookie bool          `yaml:"secure_cookie"`
	MaxAge       time.Duration `yaml:"max_age"`
	// VerifyTTL is how long a successful session check is trusted before
	// the backend is asked again.
	VerifyTTL time.Duration `yaml:"verify_ttl"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type TableConfig struct {
	PageSize    int           `yaml:"page_size"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LoginConfig is the failed-login throttling policy.
type LoginConfig struct {
	ShortLimit  int           `yaml:"short_limit"`
	ShortWindow time.Duration `yaml:"short_window"`
	LongLimit   int           `yaml:"long_limit"`
	LongWindow  time.Duration `yaml:"long_window"`
	Retention   time.Duration `yaml:"retention"`
	DBPath      string        `yaml:"db_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: DefaultListen,
		Backend: BackendConfig{
			BaseURL: DefaultBackendURL,
			Timeout: DefaultBackendTimeout,
		},
		Session: SessionConfig{
			MaxAge:    DefaultSessionMaxAge,
			VerifyTTL: DefaultVerifyTTL,
		},
		Cache: CacheConfig{TTL: DefaultCacheTTL},
		Table: TableConfig{
			PageSize:    DefaultPageSize,
			IdleTimeout: DefaultTableIdle,
		},
		Login: LoginConfig{
			ShortLimit:  DefaultShortLimit,
			ShortWindow: DefaultShortWindow,
			LongLimit:   DefaultLongLimit,
			LongWindow:  DefaultLongWindow,
			Retention:   DefaultRetention,
			DBPath:      filepath.Join(xdg.DataHome, AppName, "attempts.db"),
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Validate checks everything except the session secret, which only the
// web console needs. See ValidateSession.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return ErrNoListenAddress
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBackendURL
	}
	if c.Backend.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Session.MaxAge < 0 || c.Session.VerifyTTL < 0 {
		return ErrInvalidSessionAge
	}
	if c.Cache.TTL < 0 {
		return ErrInvalidCacheTTL
	}
	if c.Table.PageSize < 0 {
		return ErrInvalidPageSize
	}
	l := c.Login
	if l.ShortLimit <= 0 || l.LongLimit <= 0 || l.ShortWindow <= 0 || l.LongWindow < l.ShortWindow {
		return ErrInvalidLoginPolicy
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

// ValidateSession checks the cookie secret.
func (c *Config) ValidateSession() error {
	if len(c.Session.Secret) < 16 {
		return ErrWeakSessionSecret
	}
	return nil
}
