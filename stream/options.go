package stream

import (
	"log/slog"
	"time"

	"github.com/dshills/langgraph-stream/stream/emit"
	"github.com/dshills/langgraph-stream/stream/extract"
)

// Option is a functional option for configuring a Parser. Options that
// receive invalid values return a *ConfigError, which New returns unchanged.
//
// Example:
//
//	parser, err := stream.New(
//	    stream.WithStreamModes(stream.ModeUpdates, stream.ModeMessages),
//	    stream.WithSkipTools("internal_lookup"),
//	    stream.WithStateUpdates(true),
//	)
type Option func(*parserConfig) error

// parserConfig collects options before New builds the Parser from them.
type parserConfig struct {
	mode         Mode
	modes        []Mode
	lifecycle    bool
	skipTools    []string
	stateUpdates bool
	registry     *extract.Registry
	disabled     []string
	logger       *slog.Logger
	emitter      emit.Emitter
	metrics      *Metrics
	now          func() time.Time
}

func defaultConfig() parserConfig {
	return parserConfig{
		mode:      ModeUpdates,
		lifecycle: true,
		now:       time.Now,
	}
}

// WithStreamMode sets the shape of the chunks the parser expects.
//
// Default: ModeUpdates.
//
//   - ModeUpdates: chunks are {node: state} mappings
//   - ModeMessages: chunks are (message chunk, metadata) pairs
//   - ModeAuto: detected from the first chunk; an envelope selects
//     updates+messages, anything else selects updates
func WithStreamMode(mode Mode) Option {
	return func(cfg *parserConfig) error {
		m, err := ParseMode(string(mode))
		if err != nil {
			return err
		}
		cfg.mode = m
		cfg.modes = nil
		return nil
	}
}

// WithStreamModes switches the parser to multi-mode: every chunk is an
// Envelope (or a ["mode", data] pair) and content is taken only from the
// messages channel while tool, interrupt, state and usage events come only from
// the updates channel.
//
// Each mode must be ModeUpdates or ModeMessages, and at least one is required.
func WithStreamModes(modes ...Mode) Option {
	return func(cfg *parserConfig) error {
		if err := validateModes(modes); err != nil {
			return err
		}
		cfg.modes = append([]Mode(nil), modes...)
		cfg.mode = ""
		return nil
	}
}

// WithToolLifecycle controls ToolCallStart and ToolCallEnd events.
//
// Default: true. When false only ToolExtracted events are produced for tool
// results.
func WithToolLifecycle(enabled bool) Option {
	return func(cfg *parserConfig) error {
		cfg.lifecycle = enabled
		return nil
	}
}

// WithSkipTools names tools that never produce events of any kind: no start,
// no end and no extracted payload. Repeated calls add to the set.
func WithSkipTools(names ...string) Option {
	return func(cfg *parserConfig) error {
		cfg.skipTools = append(cfg.skipTools, names...)
		return nil
	}
}

// WithStateUpdates enables a StateUpdate event for every non-message state key
// in an update.
//
// Default: false.
func WithStateUpdates(enabled bool) Option {
	return func(cfg *parserConfig) error {
		cfg.stateUpdates = enabled
		return nil
	}
}

// WithRegistry sets the extractor registry. The parser uses the registry
// itself, so extractors registered on it later are seen by later parses.
//
// Default: a new extract.Default() registry per parser.
func WithRegistry(r *extract.Registry) Option {
	return func(cfg *parserConfig) error {
		if r == nil {
			return &ConfigError{Message: "registry cannot be nil", Code: "NIL_REGISTRY"}
		}
		cfg.registry = r
		return nil
	}
}

// WithDisabledExtractors unregisters the named extractors from the parser's
// registry when the parser is built.
func WithDisabledExtractors(toolNames ...string) Option {
	return func(cfg *parserConfig) error {
		cfg.disabled = append(cfg.disabled, toolNames...)
		return nil
	}
}

// WithLogger sets the logger that receives debug records for input the parser
// tolerates and skips: dropped tool results, recovered extractor panics,
// malformed envelopes and unknown message kinds.
//
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *parserConfig) error {
		cfg.logger = logger
		return nil
	}
}

// WithEmitter sends one emit.Event per produced event, plus parse_start and
// parse_end markers, to emitter.
//
// Example:
//
//	tracer := otel.Tracer("langgraph-stream")
//	parser, err := stream.New(stream.WithEmitter(emit.NewOTelEmitter(tracer)))
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *parserConfig) error {
		cfg.emitter = emitter
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	parser, err := stream.New(stream.WithMetrics(stream.NewMetrics(registry)))
func WithMetrics(metrics *Metrics) Option {
	return func(cfg *parserConfig) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithClock sets the function used to timestamp events and time tool calls.
//
// Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(cfg *parserConfig) error {
		if now == nil {
			return &ConfigError{Message: "clock cannot be nil", Code: "NIL_CLOCK"}
		}
		cfg.now = now
		return nil
	}
}

// WithConfig applies every setting in c. Options given after it override it.
func WithConfig(c Config) Option {
	return func(cfg *parserConfig) error {
		for _, opt := range c.Options() {
			if err := opt(cfg); err != nil {
				return err
			}
		}
		return nil
	}
}
