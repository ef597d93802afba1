package config

import "errors"

var (
	ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")
	ErrInvalidConfig            = errors.New("invalid config")
)
