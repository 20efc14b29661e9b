package pipeline

import (
	"errors"
	"fmt"
)

// ErrUnknownDialect is wrapped by the ConfigError returned for an
// unregistered dialect name.
var ErrUnknownDialect = errors.New("unknown dialect")

// ConfigError reports a setting the pipeline cannot be built from.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pipeline setting %s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseError wraps a dialect failure during Render.
type ParseError struct {
	Dialect string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s markup: %v", e.Dialect, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
