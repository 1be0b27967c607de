package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrInvalidBackend    = goerr.New("invalid gateway backend")
	ErrMissingProjectID  = goerr.New("firestore project ID is required")
	ErrInvalidLogLevel   = goerr.New("invalid log level")
	ErrRefreshNotDurable = goerr.New("periodic refresh requires a backend that keeps writes")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	FieldKey      = "field"
)
