package sse

import (
	"io"
)

const readChunkSize = 32 * 1024

// Reader reads SSE events from a source io.Reader, optionally writing all raw
// bytes verbatim to a destination io.Writer as they are read.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌────────────────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer (if set) │
// └──────────────────┘   └────────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
//
// Framing is delegated to a Parser, so a Reader follows exactly the same
// rules as the push-based streaming path.
type Reader struct {
	src    io.Reader
	dest   io.Writer
	parser *Parser
	buf    []byte

	queue []Event
	// err is a parse error held back until events framed before it drain.
	err error
	eof bool

	consumed int
	done     bool
}

// NewReader returns a Reader that parses SSE events from src.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, nil)
}

// NewTeeReader returns a Reader that parses SSE events from src and writes
// all raw bytes through to dest. A nil dest disables the tee.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	return &Reader{
		src:    src,
		dest:   dest,
		parser: NewParser(),
		buf:    make([]byte, readChunkSize),
	}
}

// Next returns the next parsed SSE event. It blocks until a complete event is
// available (terminated by a blank line, or flushed at end of input).
// Next returns nil, nil when the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for {
		if len(r.queue) > 0 {
			ev := r.queue[0]
			r.queue = r.queue[1:]
			r.markDone()
			r.consumed++
			return &ev, nil
		}

		if r.err != nil {
			err := r.err
			r.err = nil
			return nil, err
		}

		if r.eof {
			r.markDone()
			return nil, nil
		}

		n, readErr := r.src.Read(r.buf)
		if n > 0 {
			if r.dest != nil {
				if _, err := r.dest.Write(r.buf[:n]); err != nil {
					return nil, err
				}
			}

			events, err := r.parser.Feed(r.buf[:n])
			r.queue = append(r.queue, events...)
			r.err = err
		}

		switch {
		case readErr == io.EOF:
			r.eof = true
			if r.err == nil {
				events, err := r.parser.Finalize()
				r.queue = append(r.queue, events...)
				r.err = err
			}
		case readErr != nil:
			return nil, readErr
		}
	}
}

// SawDone reports whether Next has moved past a "[DONE]" sentinel. Records
// framed ahead of the caller do not count.
func (r *Reader) SawDone() bool {
	return r.done
}

// markDone runs as Next is about to return the event that follows the
// consumed ones, or the end of input.
func (r *Reader) markDone() {
	if r.parser.sawDone && r.consumed >= r.parser.doneAt {
		r.done = true
	}
}
