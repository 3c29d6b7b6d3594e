package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrInvalidByte        = errors.New("separator must be a single byte or one of \\t \\n \\r \\0 \\\\")
	ErrInvalidKey         = errors.New("key must be a comma separated list of field positions starting at 1")
	ErrInvalidShow        = errors.New("show entries must be matched, left or right")
)
