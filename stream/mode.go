package stream

import (
	"fmt"
	"slices"
)

// Mode names the shape of the chunks a runtime streams.
type Mode string

const (
	// ModeUpdates streams {node: state} mappings after each node finishes.
	ModeUpdates Mode = "updates"

	// ModeMessages streams (message chunk, metadata) pairs token by token.
	ModeMessages Mode = "messages"

	// ModeAuto detects the shape from the first chunk of the stream.
	ModeAuto Mode = "auto"
)

// Known reports whether m is a mode that can appear in an envelope.
func (m Mode) Known() bool {
	return m == ModeUpdates || m == ModeMessages
}

// ParseMode validates a single stream mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if m == ModeAuto || m.Known() {
		return m, nil
	}
	return "", &ConfigError{
		Message: fmt.Sprintf("%q must be one of %q, %q or %q", s, ModeAuto, ModeMessages, ModeUpdates),
		Code:    "UNSUPPORTED_MODE",
		Err:     ErrUnsupportedMode,
	}
}

func validateModes(modes []Mode) error {
	if len(modes) == 0 {
		return &ConfigError{Message: "at least one mode is required", Code: "EMPTY_MODES", Err: ErrEmptyModes}
	}
	for _, m := range modes {
		if !m.Known() {
			return &ConfigError{
				Message: fmt.Sprintf("%q in mode list must be %q or %q", m, ModeMessages, ModeUpdates),
				Code:    "UNSUPPORTED_MODE",
				Err:     ErrUnsupportedMode,
			}
		}
	}
	return nil
}

// dualModes is what auto detection switches to when the first chunk is an
// envelope.
var dualModes = []Mode{ModeUpdates, ModeMessages}

func modesString(modes []Mode) string {
	names := make([]string, 0, len(modes))
	for _, m := range modes {
		names = append(names, string(m))
	}
	slices.Sort(names)
	return fmt.Sprint(names)
}
