// Copyright (C) 2025 Joshua Goldstein

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = "crm.yaml"

// FindConfigFile searches for the configuration file in the following order:
// 1. configPath, when given
// 2. crm.yaml in the current directory
// 3. $XDG_CONFIG_HOME/crm/config.yaml
//
// It returns "" when nothing exists.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// LoadFile overlays the YAML file at path on the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the configuration: defaults, then the file found by
// FindConfigFile, then environment overrides. An explicit configPath that
// does not exist is an error. It returns the file used, or "".
func Load(configPath string) (*Config, string, error) {
	path := FindConfigFile(configPath)
	if configPath != "" && path == "" {
		return nil, "", fmt.Errorf("%s: %w", configPath, ErrConfigNotFound)
	}

	cfg := Default()
	if path != "" {
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, "", err
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// applyEnv overrides selected keys from CRM_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("CRM_LISTEN"); ok && v != "" {
		cfg.Listen = v
	}
	if v, ok := lookup("CRM_BACKEND_URL"); ok && v != "" {
		cfg.Backend.BaseURL = v
	}
	if v, ok := lookup("CRM_SESSION_SECRET"); ok && v != "" {
		cfg.Session.Secret = v
	}
	if v, ok := lookup("CRM_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup("CRM_SECURE_COOKIE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CRM_SECURE_COOKIE: %w", err)
		}
		cfg.Session.SecureCookie = b
	}
	return nil
}
