// Package extract provides pluggable decoders that turn a tool's raw result into
// a typed payload, keyed by tool name.
//
// An Extractor is looked up by the name of the tool that produced a result. On a
// match the parser emits an event.ToolExtracted carrying the extractor's
// ExtractedType and the returned data. Extractors must be side-effect free; a
// panic inside Extract is recovered by Run and treated as no match.
//
// Example:
//
//	reg := extract.Default()
//	reg.Register(extract.Func("get_weather", "weather", func(content any) (any, bool) {
//	    s, ok := content.(string)
//	    if !ok || s == "" {
//	        return nil, false
//	    }
//	    return map[string]any{"summary": s}, true
//	}))
package extract

import (
	"fmt"
	"sort"
	"sync"
)

// Extractor decodes the result of one tool.
type Extractor interface {
	// ToolName is the registry key: the name of the tool whose results this
	// extractor understands.
	ToolName() string

	// ExtractedType tags the payload in the emitted event.
	ExtractedType() string

	// Extract returns the decoded payload, or ok=false when content does not
	// match the expected shape.
	Extract(content any) (data any, ok bool)
}

// Func adapts a function into an Extractor.
func Func(toolName, extractedType string, fn func(content any) (any, bool)) Extractor {
	return funcExtractor{toolName: toolName, extractedType: extractedType, fn: fn}
}

type funcExtractor struct {
	toolName      string
	extractedType string
	fn            func(any) (any, bool)
}

func (f funcExtractor) ToolName() string                { return f.toolName }
func (f funcExtractor) ExtractedType() string           { return f.extractedType }
func (f funcExtractor) Extract(content any) (any, bool) { return f.fn(content) }

// PanicError records a panic raised by an extractor.
type PanicError struct {
	ToolName string
	Value    any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("extractor %q panicked: %v", e.ToolName, e.Value)
}

// Run calls ex.Extract and converts a panic into a no-match. The error return
// distinguishes a clean no-match (nil) from a recovered panic.
func Run(ex Extractor, content any) (data any, ok bool, err error) {
	if ex == nil {
		return nil, false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			data, ok = nil, false
			err = &PanicError{ToolName: ex.ToolName(), Value: r}
		}
	}()
	data, ok = ex.Extract(content)
	return data, ok, nil
}

// Registry maps tool names to extractors. It is safe for concurrent use.
//
// The parser works on a Snapshot taken when a parse starts, so registering or
// unregistering while a parse is running only affects later parses.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry returns a registry holding the given extractors. Later entries
// replace earlier ones with the same tool name.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[string]Extractor, len(extractors))}
	for _, ex := range extractors {
		r.Register(ex)
	}
	return r
}

// Default returns a new registry pre-loaded with the built-in extractors:
// Reflection, Todos and DisplayInline.
func Default() *Registry {
	return NewRegistry(Reflection(), Todos(), DisplayInline())
}

// Register adds ex, replacing any extractor registered under the same tool name.
// A nil extractor is ignored.
func (r *Registry) Register(ex Extractor) {
	if ex == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[ex.ToolName()] = ex
}

// Unregister removes the extractor for toolName. It reports whether one was
// registered.
func (r *Registry) Unregister(toolName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.extractors[toolName]
	delete(r.extractors, toolName)
	return ok
}

// Lookup returns the extractor registered for toolName.
func (r *Registry) Lookup(toolName string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.extractors[toolName]
	return ex, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered extractors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extractors)
}

// Snapshot returns an independent copy of the registry.
func (r *Registry) Snapshot() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]Extractor, len(r.extractors))
	for k, v := range r.extractors {
		cp[k] = v
	}
	return &Registry{extractors: cp}
}
