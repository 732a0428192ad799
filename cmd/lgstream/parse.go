package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dshills/langgraph-stream/stream"
	"github.com/dshills/langgraph-stream/stream/emit"
	"github.com/dshills/langgraph-stream/stream/event"
	"github.com/dshills/langgraph-stream/stream/render"
	"github.com/dshills/langgraph-stream/stream/wire"
)

// ErrStreamFailed is returned when the parsed stream ends with an error event.
var ErrStreamFailed = errors.New("stream failed")

type parseOptions struct {
	mode         string
	skipTools    []string
	noLifecycle  bool
	stateUpdates bool
	format       string
	maxResult    int
	configPath   string
	verbose      bool
	otel         bool
	metrics      bool
}

func newParseCmd() *cobra.Command {
	var o parseOptions
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a JSON lines stream and print its events",
		Long: `Parse reads chunks from file, or from stdin when file is omitted or "-",
and prints one line per event.

Modes: updates (default), messages, auto, or multi for
["mode", data] envelopes. A config file sets the same options; flags given on
the command line win.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runParse(cmd.Context(), cmd, o, in)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.mode, "mode", string(stream.ModeUpdates), "Stream mode: updates, messages, auto or multi")
	flags.BoolVar(&o.stateUpdates, "state-updates", false, "Emit state_update events for non-message state keys")
	flags.StringVar(&o.configPath, "config", "", "YAML config file")
	addOutputFlags(cmd, &o)
	return cmd
}

// addOutputFlags registers the flags shared by every command that parses a
// stream.
func addOutputFlags(cmd *cobra.Command, o *parseOptions) {
	flags := cmd.Flags()
	flags.StringArrayVar(&o.skipTools, "skip-tool", nil, "Tool name to leave out of lifecycle events (repeatable)")
	flags.BoolVar(&o.noLifecycle, "no-lifecycle", false, "Do not emit tool call start and end events")
	flags.StringVar(&o.format, "format", "text", "Output format: text or json")
	flags.IntVar(&o.maxResult, "max-result", 0, "Truncate tool results to this many characters in json format output (0 keeps them whole)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Log skipped chunks and parse lifecycle to stderr")
	flags.BoolVar(&o.otel, "otel", false, "Record a span per event and print a span summary to stderr")
	flags.BoolVar(&o.metrics, "metrics", false, "Print parser metrics to stderr when done")
}

func runParse(ctx context.Context, cmd *cobra.Command, o parseOptions, in io.Reader) error {
	return runSource(ctx, cmd, o, wire.NewDecoder(in))
}

// runSource parses src with the parser o describes and renders every event.
// It returns ErrStreamFailed when the stream ends with an error event.
func runSource(ctx context.Context, cmd *cobra.Command, o parseOptions, src stream.Source) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stderr := cmd.ErrOrStderr()

	var cfg stream.Config
	if o.configPath != "" {
		var err error
		if cfg, err = stream.LoadConfig(o.configPath); err != nil {
			return err
		}
	}
	maxResult := cfg.MaxResultLength
	if cmd.Flags().Changed("max-result") || o.configPath == "" {
		maxResult = o.maxResult
	}

	var renderer render.Renderer
	switch o.format {
	case "text":
		renderer = render.Text(cmd.OutOrStdout())
	case "json":
		renderer = render.JSON(cmd.OutOrStdout(), maxResult)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", o.format)
	}

	opts := []stream.Option{stream.WithConfig(cfg)}
	if o.configPath == "" || cmd.Flags().Changed("mode") {
		opts = append(opts, modeOption(o.mode))
	}
	if len(o.skipTools) > 0 {
		opts = append(opts, stream.WithSkipTools(o.skipTools...))
	}
	if o.noLifecycle {
		opts = append(opts, stream.WithToolLifecycle(false))
	}
	if o.stateUpdates {
		opts = append(opts, stream.WithStateUpdates(true))
	}

	var emitters []emit.Emitter
	if o.verbose {
		opts = append(opts, stream.WithLogger(newLogger(stderr, true)))
		emitters = append(emitters, emit.NewLogEmitter(stderr, false))
	}

	var spans *tracetest.InMemoryExporter
	if o.otel {
		spans = tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		emitters = append(emitters, emit.NewOTelEmitter(tp.Tracer("lgstream")))
	}
	if len(emitters) > 0 {
		opts = append(opts, stream.WithEmitter(emit.NewMultiEmitter(emitters...)))
	}

	var registry *prometheus.Registry
	if o.metrics {
		registry = prometheus.NewRegistry()
		opts = append(opts, stream.WithMetrics(stream.NewMetrics(registry)))
	}

	parser, err := stream.New(opts...)
	if err != nil {
		return err
	}

	var failure *event.Error
	for ev := range parser.ParseSource(ctx, src) {
		if err := renderer.Render(ev); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if e, ok := ev.(event.Error); ok {
			failure = &e
		}
	}

	if spans != nil {
		printSpanSummary(stderr, spans.GetSpans())
	}
	if registry != nil {
		if err := printMetrics(stderr, registry); err != nil {
			return err
		}
	}
	if failure != nil {
		return fmt.Errorf("%w: %s", ErrStreamFailed, failure.Message)
	}
	return nil
}

// modeOption maps the --mode flag to a parser option. "multi" selects
// multi-mode over both updates and messages.
func modeOption(mode string) stream.Option {
	if mode == "multi" {
		return stream.WithStreamModes(stream.ModeUpdates, stream.ModeMessages)
	}
	return stream.WithStreamMode(stream.Mode(mode))
}

func printSpanSummary(w io.Writer, spans tracetest.SpanStubs) {
	counts := make(map[string]int)
	for _, s := range spans {
		counts[s.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "otel: %d spans\n", len(spans))
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %d\n", name, counts[name])
	}
}

func printMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
