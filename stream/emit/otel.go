package emit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating one OpenTelemetry span per event.
//
// Each event becomes a span with:
//   - Span name: event.Msg (e.g., "content", "tool_call_end")
//   - Attributes: runID, step, nodeID, and the scalar event.Meta fields
//   - Status: Error for error events and for tool calls that failed
//   - Timing: tool_call_end spans start duration_ms before they end, so the
//     span covers the tool's run time
//
// Usage:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	emitter := emit.NewOTelEmitter(otel.Tracer("langgraph-stream"))
//	parser, err := stream.New(stream.WithEmitter(emitter))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates a new OTelEmitter that records spans with tracer.
//
// Example:
//
//	tracer := otel.Tracer("langgraph-stream")
//	emitter := emit.NewOTelEmitter(tracer)
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and immediately ends a span for the event.
func (o *OTelEmitter) Emit(event Event) {
	o.emit(context.Background(), event)
}

// EmitBatch creates one span per event under ctx. All spans are ended
// immediately and left to the span processor to batch for export.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.emit(ctx, event)
	}
	return nil
}

func (o *OTelEmitter) emit(ctx context.Context, event Event) {
	var startOpts []trace.SpanStartOption
	if d, ok := durationMS(event.Meta); ok {
		startOpts = append(startOpts, trace.WithTimestamp(time.Now().Add(-time.Duration(d*float64(time.Millisecond)))))
	}

	_, span := o.tracer.Start(ctx, event.Msg, startOpts...)
	defer span.End()

	o.addStandardAttributes(span, event)
	o.addMetadataAttributes(span, event.Meta)

	if msg, ok := event.Meta["error"].(string); ok && msg != "" {
		span.SetStatus(codes.Error, msg)
		span.RecordError(errors.New(msg))
	} else if event.Meta["status"] == "error" {
		msg, _ := event.Meta["error_message"].(string)
		span.SetStatus(codes.Error, msg)
	}
}

// Flush forces export of buffered spans when the global tracer provider
// supports it (the SDK provider does, the no-op provider does not).
//
// Usage:
//
//	defer func() {
//	    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	    defer cancel()
//	    if err := emitter.Flush(ctx); err != nil {
//	        log.Printf("failed to flush spans: %v", err)
//	    }
//	}()
func (o *OTelEmitter) Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}

	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (o *OTelEmitter) addStandardAttributes(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("langgraph.run_id", event.RunID),
		attribute.Int("langgraph.step", event.Step),
		attribute.String("langgraph.node_id", event.NodeID),
	)
}

// addMetadataAttributes converts scalar metadata to span attributes. Token
// counts and tool timing use namespaced keys; nil values are skipped and
// composite values are recorded in fmt form.
func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]any) {
	for key, value := range meta {
		if value == nil {
			continue
		}

		attrKey := key
		switch key {
		case "input_tokens":
			attrKey = "langgraph.llm.tokens_in"
		case "output_tokens":
			attrKey = "langgraph.llm.tokens_out"
		case "total_tokens":
			attrKey = "langgraph.llm.tokens_total"
		case "duration_ms":
			attrKey = "langgraph.tool.duration_ms"
		case "type":
			attrKey = "langgraph.event.type"
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}

func durationMS(meta map[string]any) (float64, bool) {
	d, ok := meta["duration_ms"].(float64)
	if !ok || d <= 0 {
		return 0, false
	}
	return d, true
}
