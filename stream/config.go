package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the parser options.
//
// Example lgstream.yaml:
//
//	stream_mode: [updates, messages]
//	track_tool_lifecycle: true
//	skip_tools: [internal_lookup]
//	include_state_updates: false
//	max_result_length: 200
//	disabled_extractors: [write_todos]
type Config struct {
	StreamMode          ModeSetting `yaml:"stream_mode"`
	TrackToolLifecycle  *bool       `yaml:"track_tool_lifecycle"`
	SkipTools           []string    `yaml:"skip_tools"`
	IncludeStateUpdates bool        `yaml:"include_state_updates"`
	DisabledExtractors  []string    `yaml:"disabled_extractors"`

	// MaxResultLength truncates tool results in rendered output. The parser
	// itself never truncates.
	MaxResultLength int `yaml:"max_result_length"`
}

// ModeSetting holds stream_mode, which may be a single mode name or a list.
// A list always selects multi-mode, even with one element.
type ModeSetting struct {
	Modes []Mode
	List  bool
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (s *ModeSetting) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var m string
		if err := node.Decode(&m); err != nil {
			return err
		}
		s.Modes, s.List = []Mode{Mode(m)}, false
		return nil
	case yaml.SequenceNode:
		var ms []Mode
		if err := node.Decode(&ms); err != nil {
			return err
		}
		s.Modes, s.List = ms, true
		return nil
	}
	return fmt.Errorf("line %d: stream_mode must be a string or a list of strings", node.Line)
}

// MarshalYAML writes the setting back in the form it was read.
func (s ModeSetting) MarshalYAML() (any, error) {
	if s.List {
		return s.Modes, nil
	}
	if len(s.Modes) == 0 {
		return nil, nil
	}
	return s.Modes[0], nil
}

// Validate checks the config without building a parser.
func (c Config) Validate() error {
	switch {
	case c.StreamMode.List:
		if err := validateModes(c.StreamMode.Modes); err != nil {
			return err
		}
	case len(c.StreamMode.Modes) == 1:
		if _, err := ParseMode(string(c.StreamMode.Modes[0])); err != nil {
			return err
		}
	}
	if c.MaxResultLength < 0 {
		return &ConfigError{Message: "max_result_length cannot be negative", Code: "INVALID_CONFIG"}
	}
	return nil
}

// Options converts c to parser options. Unset fields keep their defaults.
func (c Config) Options() []Option {
	var opts []Option
	switch {
	case c.StreamMode.List:
		opts = append(opts, WithStreamModes(c.StreamMode.Modes...))
	case len(c.StreamMode.Modes) == 1:
		opts = append(opts, WithStreamMode(c.StreamMode.Modes[0]))
	}
	if c.TrackToolLifecycle != nil {
		opts = append(opts, WithToolLifecycle(*c.TrackToolLifecycle))
	}
	if len(c.SkipTools) > 0 {
		opts = append(opts, WithSkipTools(c.SkipTools...))
	}
	if c.IncludeStateUpdates {
		opts = append(opts, WithStateUpdates(true))
	}
	if len(c.DisabledExtractors) > 0 {
		opts = append(opts, WithDisabledExtractors(c.DisabledExtractors...))
	}
	return opts
}

// ParseConfig decodes and validates a YAML config. Unknown keys are errors.
// An empty document yields the zero Config.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigError{Message: "decode config: " + err.Error(), Code: "INVALID_CONFIG", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML config at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
