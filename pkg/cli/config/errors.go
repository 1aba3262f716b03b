package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrInvalidBackend    = goerr.New("invalid repository backend")
	ErrInvalidProvider   = goerr.New("invalid LLM provider")
	ErrMissingCredential = goerr.New("required credential is not set")
	ErrNoSource          = goerr.New("no document source configured")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	FieldKey      = "field"
	ValueKey      = "value"
)
