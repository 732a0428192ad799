// Package render writes parser events for people and for other programs.
//
// Text streams assistant content inline and puts every other event on a line
// of its own:
//
//	Let me check the weather.
//	-> search {"query":"weather"}
//	<- search ok (12ms)
//	It is sunny.
//	[complete]
//
// JSON writes one event.Record per line.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dshills/langgraph-stream/stream/event"
)

// Renderer writes one event.
type Renderer interface {
	Render(ev event.Event) error
}

// TextRenderer writes human-readable output.
type TextRenderer struct {
	mu     sync.Mutex
	w      io.Writer
	inline bool // last write was content without a trailing newline
}

// Text returns a TextRenderer writing to w.
func Text(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// Render implements Renderer.
func (r *TextRenderer) Render(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := ev.(event.Content); ok {
		if c.Content == "" {
			return nil
		}
		if _, err := io.WriteString(r.w, c.Content); err != nil {
			return err
		}
		r.inline = !strings.HasSuffix(c.Content, "\n")
		return nil
	}

	line := textLine(ev)
	if line == "" {
		return nil
	}
	if r.inline {
		line = "\n" + line
		r.inline = false
	}
	_, err := io.WriteString(r.w, line+"\n")
	return err
}

func textLine(ev event.Event) string {
	switch e := ev.(type) {
	case event.ToolCallStart:
		return fmt.Sprintf("-> %s %s", e.Name, compact(event.ToRecord(e, 0)["args"]))
	case event.ToolCallEnd:
		var b strings.Builder
		fmt.Fprintf(&b, "<- %s", e.Name)
		if e.Status == event.StatusError {
			fmt.Fprintf(&b, " error: %s", e.ErrorMessage)
		} else {
			b.WriteString(" ok")
		}
		if e.DurationMS != nil {
			fmt.Fprintf(&b, " (%.0fms)", *e.DurationMS)
		}
		return b.String()
	case event.ToolExtracted:
		return fmt.Sprintf("* %s: %s", e.ExtractedType, compact(event.ToRecord(e, 0)["data"]))
	case event.Interrupt:
		var b strings.Builder
		fmt.Fprintf(&b, "!! interrupt: %d action(s) awaiting review, allowed: %s",
			len(e.ActionRequests), strings.Join(e.AllowedDecisions(), ", "))
		for _, a := range e.ActionRequests {
			fmt.Fprintf(&b, "\n   - %s %s", a.Tool, compact(a.Args))
			if a.Description != "" {
				fmt.Fprintf(&b, ": %s", a.Description)
			}
		}
		return b.String()
	case event.StateUpdate:
		return fmt.Sprintf("~ %s.%s = %s", e.Node, e.Key, compact(event.ToRecord(e, 0)["value"]))
	case event.Usage:
		return fmt.Sprintf("# tokens in=%d out=%d total=%d", e.InputTokens, e.OutputTokens, e.TotalTokens)
	case event.Complete:
		return "[complete]"
	case event.Error:
		return "[error] " + e.Message
	}
	return ""
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// JSONRenderer writes one JSON record per line.
type JSONRenderer struct {
	mu           sync.Mutex
	enc          *json.Encoder
	maxResultLen int
}

// JSON returns a JSONRenderer writing to w. Tool results longer than
// maxResultLen runes are truncated; zero keeps them whole.
func JSON(w io.Writer, maxResultLen int) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONRenderer{enc: enc, maxResultLen: maxResultLen}
}

// Render implements Renderer.
func (r *JSONRenderer) Render(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(event.ToRecord(ev, r.maxResultLen))
}
