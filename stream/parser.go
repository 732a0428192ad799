// Package stream normalizes the streaming output of a LangGraph-style graph
// runtime into one ordered sequence of typed events.
//
// A runtime streams "updates" ({node: state} after each node), "messages"
// (token chunks with step metadata), or both at once as tagged envelopes. A
// Parser accepts any of these and yields the event vocabulary defined in
// package event: content, tool call start and end, extracted tool payloads,
// interrupts, state updates, token usage, and a terminal Complete or Error.
//
// Basic usage:
//
//	parser, err := stream.New(stream.WithStreamMode(stream.ModeAuto))
//	if err != nil {
//	    return err
//	}
//	for ev := range parser.Parse(chunks) {
//	    switch e := ev.(type) {
//	    case event.Content:
//	        fmt.Print(e.Content)
//	    case event.ToolCallStart:
//	        fmt.Printf("\n-> %s(%v)\n", e.Name, e.Args)
//	    case event.Interrupt:
//	        // collect decisions and resume with package resume
//	    case event.Error:
//	        return e.Err
//	    }
//	}
//
// Iteration is synchronous and single threaded. The only point where a parse
// waits is pulling the next raw chunk. Stopping the range loop early is safe
// and emits nothing further.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/langgraph-stream/stream/emit"
	"github.com/dshills/langgraph-stream/stream/event"
	"github.com/dshills/langgraph-stream/stream/extract"
)

// Parser converts raw runtime chunks into events.
//
// A Parser carries the pending tool call table across parses so that a tool
// call started in one stream can be closed in the next one (a run resumed after
// an interrupt, for example). Call Reset to start fresh.
//
// Reset, Pending and the extractor methods are safe to call from any goroutine.
// Running two parses on the same Parser at the same time is not supported.
type Parser struct {
	mode         Mode   // single mode; empty in multi-mode
	modes        []Mode // multi-mode list; nil in single mode
	lifecycle    bool
	skip         map[string]struct{}
	stateUpdates bool

	registry *extract.Registry
	pending  *pendingTable

	logger  *slog.Logger
	emitter emit.Emitter
	metrics *Metrics
	now     func() time.Time
}

// New creates a Parser. Configuration errors are returned here, never during
// iteration.
//
// Defaults: updates mode, tool lifecycle tracking on, state updates off, the
// built-in extractors, no logging, no emitter, no metrics.
func New(opts ...Option) (*Parser, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	p := &Parser{
		mode:         cfg.mode,
		modes:        cfg.modes,
		lifecycle:    cfg.lifecycle,
		skip:         make(map[string]struct{}, len(cfg.skipTools)),
		stateUpdates: cfg.stateUpdates,
		registry:     cfg.registry,
		pending:      newPendingTable(),
		logger:       cfg.logger,
		emitter:      cfg.emitter,
		metrics:      cfg.metrics,
		now:          cfg.now,
	}
	for _, name := range cfg.skipTools {
		p.skip[name] = struct{}{}
	}
	if p.registry == nil {
		p.registry = extract.Default()
	}
	for _, name := range cfg.disabled {
		p.registry.Unregister(name)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p, nil
}

// Mode returns the configured single mode, or "" in multi-mode.
func (p *Parser) Mode() Mode { return p.mode }

// Modes returns the configured multi-mode list, or nil in single mode.
func (p *Parser) Modes() []Mode { return append([]Mode(nil), p.modes...) }

// Parse returns an iterator over the events for the raw chunks in src. The
// error half of src reports a failure of the raw stream itself.
//
// The iterator yields every event the chunks produce, in order, followed by
// exactly one Complete. If pulling a chunk fails, or processing one panics,
// it yields a single Error instead and stops; no Complete follows. Panics
// raised by the caller's loop body are not recovered.
//
// Extractors are read from a snapshot of the registry taken when iteration
// starts.
func (p *Parser) Parse(src iter.Seq2[any, error]) iter.Seq[event.Event] {
	return func(yield func(event.Event) bool) {
		if src == nil {
			p.run(func() (any, bool, error) { return nil, false, ErrNilSource }, yield)
			return
		}
		next, stop := iter.Pull2(src)
		defer stop()
		p.run(func() (any, bool, error) {
			chunk, err, ok := next()
			if !ok {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return chunk, true, nil
		}, yield)
	}
}

// ParseSource is Parse for a blocking Source. Next is called with ctx, so
// cancelling ctx ends the parse with an Error event carrying ctx's error (as
// reported by the Source).
func (p *Parser) ParseSource(ctx context.Context, src Source) iter.Seq[event.Event] {
	return func(yield func(event.Event) bool) {
		p.run(func() (any, bool, error) {
			if src == nil {
				return nil, false, ErrNilSource
			}
			chunk, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return chunk, true, nil
		}, yield)
	}
}

// ParseChunk converts one chunk using the configured mode and returns its
// events. No Complete is appended. In multi-mode the chunk must be an envelope
// for a known mode; anything else yields no events.
//
// Auto mode needs a whole stream and is rejected with ErrAutoModeChunk. A
// panic while processing the chunk is returned as a *PanicError.
func (p *Parser) ParseChunk(chunk any) (events []event.Event, err error) {
	if p.mode == ModeAuto {
		return nil, &ConfigError{Message: ErrAutoModeChunk.Error(), Code: "AUTO_MODE_CHUNK", Err: ErrAutoModeChunk}
	}

	events = []event.Event{}
	r := p.newRun(func(ev event.Event) bool {
		events = append(events, ev)
		return true
	})
	r.step = 1

	defer func() {
		if v := recover(); v != nil {
			events, err = nil, &PanicError{Value: v}
		}
	}()

	handle := r.singleHandler(p.mode)
	if p.modes != nil {
		handle = r.multiHandler()
	}
	handle(chunk)
	return events, nil
}

// Reset clears the pending tool call table. Registered extractors and
// configuration are unchanged.
func (p *Parser) Reset() {
	p.pending.clear()
	p.metrics.pending(0)
}

// Pending returns the number of tool calls started but not yet ended.
func (p *Parser) Pending() int {
	return p.pending.len()
}

// RegisterExtractor adds ex to the parser's registry, replacing any extractor
// for the same tool. Parses already in progress keep their snapshot.
func (p *Parser) RegisterExtractor(ex extract.Extractor) {
	p.registry.Register(ex)
}

// UnregisterExtractor removes the extractor for toolName and reports whether
// one was registered.
func (p *Parser) UnregisterExtractor(toolName string) bool {
	return p.registry.Unregister(toolName)
}

// Extractors returns the tool names with a registered extractor, sorted.
func (p *Parser) Extractors() []string {
	return p.registry.Names()
}

func (p *Parser) skips(toolName string) bool {
	_, ok := p.skip[toolName]
	return ok
}

// pullFunc returns the next raw chunk, false at the end of the stream, or the
// error that broke the stream.
type pullFunc func() (any, bool, error)

// run is the state of a single parse.
type run struct {
	p        *Parser
	id       string
	registry *extract.Registry
	step     int
	events   int
	yield    func(event.Event) bool

	inYield bool
	stopped bool
}

func (p *Parser) newRun(yield func(event.Event) bool) *run {
	return &run{
		p:        p,
		id:       uuid.NewString(),
		registry: p.registry.Snapshot(),
		yield:    yield,
	}
}

func (p *Parser) run(pull pullFunc, yield func(event.Event) bool) {
	r := p.newRun(yield)
	r.emit(emit.MsgParseStart, 0, map[string]any{"mode": p.describeMode()})

	status := "complete"
	defer func() {
		r.emit(emit.MsgParseEnd, r.step, map[string]any{"status": status, "chunks": r.step, "events": r.events})
	}()
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if r.inYield {
			status = "panic"
			panic(v)
		}
		status = "error"
		r.fail(&PanicError{Value: v})
	}()

	if err := r.dispatch(pull); err != nil {
		status = "error"
		r.fail(err)
		return
	}
	if r.stopped {
		status = "stopped"
		return
	}
	r.send(event.Complete{Timestamp: r.now()})
}

// dispatch resolves the mode and feeds every chunk to the matching handler.
// It returns the stream's error, or nil when the stream ends or the consumer
// stops.
func (r *run) dispatch(pull pullFunc) error {
	mode, modes := r.p.mode, r.p.modes

	if mode == ModeAuto {
		first, ok, err := pull()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if isEnvelope(first) {
			mode, modes = "", dualModes
		} else {
			mode = ModeUpdates
		}
		r.p.logger.Debug("detected stream mode", "run_id", r.id, "mode", string(mode), "modes", modesString(modes))
		pull = prepend(first, pull)
	}

	handle := r.singleHandler(mode)
	if modes != nil {
		handle = r.multiHandler()
	}

	for {
		chunk, ok, err := pull()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		r.step++
		if !handle(chunk) {
			return nil
		}
	}
}

func prepend(first any, pull pullFunc) pullFunc {
	used := false
	return func() (any, bool, error) {
		if !used {
			used = true
			return first, true, nil
		}
		return pull()
	}
}

func (r *run) singleHandler(mode Mode) func(any) bool {
	if mode == ModeMessages {
		h := &messagesHandler{r: r}
		return func(chunk any) bool {
			r.p.metrics.chunk(ModeMessages)
			return h.process(chunk)
		}
	}
	h := &updatesHandler{r: r}
	return func(chunk any) bool {
		r.p.metrics.chunk(ModeUpdates)
		return h.process(chunk)
	}
}

// multiHandler routes envelopes. Content comes only from the messages channel,
// everything structural only from the updates channel.
func (r *run) multiHandler() func(any) bool {
	updates := &updatesHandler{r: r, suppressContent: true}
	messages := &messagesHandler{r: r}
	return func(chunk any) bool {
		env, ok := asEnvelope(chunk)
		switch {
		case !ok:
			r.skip("not_envelope", chunk)
			return true
		case env.Mode == ModeUpdates:
			r.p.metrics.chunk(ModeUpdates)
			return updates.process(env.Data)
		case env.Mode == ModeMessages:
			r.p.metrics.chunk(ModeMessages)
			return messages.process(env.Data)
		}
		r.skip("unknown_mode", chunk)
		return true
	}
}

// send yields ev to the consumer after recording it. It returns false, and
// does nothing, once the consumer has stopped.
func (r *run) send(ev event.Event) bool {
	if r.stopped {
		return false
	}
	r.events++
	r.p.metrics.event(string(ev.Type()))
	if r.p.emitter != nil {
		r.emit(string(ev.Type()), r.step, event.ToRecord(ev, 0), event.Node(ev))
	}

	r.inYield = true
	ok := r.yield(ev)
	r.inYield = false
	if !ok {
		r.stopped = true
	}
	return ok
}

func (r *run) fail(err error) {
	r.p.metrics.streamError()
	r.p.logger.Debug("stream failed", "run_id", r.id, "step", r.step, "error", err)
	r.send(event.Error{
		Message:   fmt.Sprintf("error parsing stream: %v", err),
		Err:       err,
		Timestamp: r.now(),
	})
}

func (r *run) skip(reason string, chunk any) {
	r.p.metrics.skip(reason)
	r.p.logger.Debug("skipping chunk", "run_id", r.id, "step", r.step, "reason", reason, "type", fmt.Sprintf("%T", chunk))
}

func (r *run) emit(msg string, step int, meta map[string]any, node ...string) {
	if r.p.emitter == nil {
		return
	}
	ev := emit.Event{RunID: r.id, Step: step, Msg: msg, Meta: meta}
	if len(node) > 0 {
		ev.NodeID = node[0]
	}
	r.p.emitter.Emit(ev)
}

func (r *run) now() time.Time {
	return r.p.now()
}

func (p *Parser) describeMode() string {
	if p.modes != nil {
		return modesString(p.modes)
	}
	return string(p.mode)
}
