package stream

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMode indicates a stream mode other than "updates", "messages"
// or "auto", or "auto" inside a mode list.
var ErrUnsupportedMode = errors.New("unsupported stream mode")

// ErrEmptyModes indicates an empty stream mode list.
var ErrEmptyModes = errors.New("stream mode list is empty")

// ErrAutoModeChunk is returned by ParseChunk when the parser is in auto mode.
// Detection needs the first chunk of a stream, so auto only works with Parse
// and ParseSource.
var ErrAutoModeChunk = errors.New("ParseChunk does not support auto mode; use Parse or ParseSource")

// ErrNilSource indicates that ParseSource was given a nil Source.
var ErrNilSource = errors.New("source is nil")

// ConfigError reports invalid parser configuration. It is returned by New and
// by the config loaders, never during iteration.
type ConfigError struct {
	Message string
	Code    string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panic raised while pulling or
// processing a chunk.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
