// Copyright (C) 2025 Joshua Goldstein

package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrConfigNotFound     = errors.New("configuration file not found")
	ErrNoListenAddress    = errors.New("invalid listen address: must not be empty")
	ErrInvalidBackendURL  = errors.New("invalid backend url: must be an absolute http or https url")
	ErrInvalidTimeout     = errors.New("invalid backend timeout: must be positive")
	ErrWeakSessionSecret  = errors.New("invalid session secret: must be at least 16 bytes")
	ErrInvalidSessionAge  = errors.New("invalid session max age: must be non-negative")
	ErrInvalidCacheTTL    = errors.New("invalid cache ttl: must be non-negative")
	ErrInvalidPageSize    = errors.New("invalid table page size: must be non-negative")
	ErrInvalidLoginPolicy = errors.New("invalid login policy: limits and windows must be positive and the long window must cover the short one")
	ErrInvalidLogLevel    = errors.New("invalid log level: use debug, info, warn or error")
	ErrInvalidLogFormat   = errors.New("invalid log format: use console or json")
)
