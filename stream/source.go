package stream

import (
	"context"
	"errors"
	"io"
	"iter"
)

// Source is a pull-based raw stream. Next blocks until the next chunk is
// available and returns io.EOF once the stream is exhausted. Any other error
// ends the parse with an Error event.
type Source interface {
	Next(ctx context.Context) (any, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context) (any, error)

// Next calls f(ctx).
func (f SourceFunc) Next(ctx context.Context) (any, error) {
	return f(ctx)
}

// Chunks returns an iterator over the given chunks, for use with Parse.
//
//	for ev := range parser.Parse(stream.Chunks(chunk1, chunk2)) {
//	    ...
//	}
func Chunks(chunks ...any) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// FromSeq adapts an error-free iterator to the input Parse expects.
func FromSeq(seq iter.Seq[any]) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for c := range seq {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// FromChannel returns a Source that receives chunks from ch until it is closed.
// Next returns the context's error if ctx is done first.
func FromChannel(ch <-chan any) Source {
	return SourceFunc(func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case c, ok := <-ch:
			if !ok {
				return nil, io.EOF
			}
			return c, nil
		}
	})
}

// SeqOf turns a Source into the iterator form accepted by Parse. Iteration
// ends at io.EOF; any other error is yielded once and ends it as well.
func SeqOf(ctx context.Context, src Source) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			c, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}
