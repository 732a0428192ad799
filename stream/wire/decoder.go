// Package wire decodes raw graph runtime chunks from newline-delimited JSON.
//
// Each non-blank line holds one chunk, in the shape the runtime streamed it:
//
//	{"agent": {"messages": [{"type": "ai", "content": "Hi"}]}}
//	["messages", [{"type": "AIMessageChunk", "content": "Hi"}, {"langgraph_node": "agent"}]]
//	["updates", {"__interrupt__": [{"value": {"action_requests": [...]}}]}]
//
// Lines are turned into the values package stream understands: envelopes
// become stream.Envelope, (message, metadata) pairs become stream.MessageChunk,
// update objects become an ordered *stream.Update, and message objects become
// message.Message with their Kind fixed from the serialized type tag.
//
// A Decoder is a stream.Source:
//
//	dec := wire.NewDecoder(os.Stdin)
//	for ev := range parser.ParseSource(ctx, dec) {
//	    ...
//	}
package wire

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxLineSize is the longest line a Decoder accepts.
const MaxLineSize = 16 * 1024 * 1024

// ErrMalformed is wrapped by a LineError for a line that is not valid JSON.
var ErrMalformed = errors.New("malformed JSON")

// LineError reports a line that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Decoder reads chunks from a stream of JSON lines.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next chunk. Blank lines are skipped. It returns io.EOF at
// the end of the input, ctx's error once ctx is done, and a *LineError for a
// line that cannot be decoded.
func (d *Decoder) Next(ctx context.Context) (any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read line %d: %w", d.line+1, err)
			}
			return nil, io.EOF
		}
		d.line++

		data := bytes.TrimSpace(d.scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if !json.Valid(data) {
			return nil, &LineError{Line: d.line, Err: ErrMalformed}
		}
		chunk, err := DecodeChunk(bytes.Clone(data))
		if err != nil {
			return nil, &LineError{Line: d.line, Err: err}
		}
		return chunk, nil
	}
}

// Line returns the number of the last line read.
func (d *Decoder) Line() int {
	return d.line
}
