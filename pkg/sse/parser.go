package sse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidText is wrapped by DecodeError when a line of the stream is not
// valid UTF-8.
var ErrInvalidText = errors.New("event stream is not valid UTF-8 text")

// DecodeError reports a line of the event stream that could not be decoded
// as text.
type DecodeError struct {
	// Line is the 1-based index of the offending line within the stream.
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding event stream line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Parser incrementally frames an SSE byte stream into Events. Chunks may be
// split at any byte boundary: the trailing partial line is buffered until the
// next Feed, so feeding a stream whole or byte-by-byte yields the same events.
//
// A Parser belongs to a single stream and is not safe for concurrent use.
type Parser struct {
	// buf holds bytes that do not yet form a complete line.
	buf []byte
	// scanned is the offset in buf up to which no line terminator exists.
	scanned int

	current   Event
	dataLines int
	hasType   bool
	hasID     bool

	lines   int
	sawDone bool

	// emitted counts events returned so far; doneAt is its value when the
	// first sentinel was swallowed.
	emitted int
	doneAt  int
}

// NewParser returns a Parser ready to accept the first chunk of a stream.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends chunk to the stream and returns every event completed by it,
// in arrival order. A *DecodeError is returned if a completed line is not
// valid UTF-8; events completed before the bad line are still returned.
func (p *Parser) Feed(chunk []byte) ([]Event, error) {
	p.buf = append(p.buf, chunk...)
	return p.drain(false)
}

// Finalize signals the end of the stream. Any buffered partial line is
// processed as a complete line and a pending record is emitted even though
// its terminating blank line never arrived.
func (p *Parser) Finalize() ([]Event, error) {
	events, err := p.drain(true)
	if err != nil {
		return events, err
	}

	if len(p.buf) > 0 {
		raw := p.buf
		p.buf = nil
		p.scanned = 0

		ev, ok, err := p.line(raw)
		if err != nil {
			return events, err
		}
		if ok {
			events = append(events, ev)
		}
	}

	if ev, ok := p.dispatch(); ok {
		events = append(events, ev)
	}

	return events, nil
}

// SawDone reports whether a "[DONE]" sentinel record has been swallowed.
func (p *Parser) SawDone() bool {
	return p.sawDone
}

// Buffered returns the number of bytes held back waiting for a line
// terminator.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// drain splits buf into lines. A lone trailing '\r' is held back unless
// final is set, since the next chunk may start with the '\n' of a CRLF pair.
func (p *Parser) drain(final bool) ([]Event, error) {
	var events []Event

	start := 0
	i := p.scanned
	for ; i < len(p.buf); i++ {
		c := p.buf[i]
		if c != '\n' && c != '\r' {
			continue
		}

		end := i
		if c == '\r' {
			if i+1 == len(p.buf) && !final {
				break
			}
			if i+1 < len(p.buf) && p.buf[i+1] == '\n' {
				i++
			}
		}

		ev, ok, err := p.line(p.buf[start:end])
		start = i + 1
		if err != nil {
			p.compact(start, start)
			return events, err
		}
		if ok {
			events = append(events, ev)
		}
	}

	p.compact(start, i)
	return events, nil
}

// compact drops consumed bytes from buf. scannedTo is the absolute offset
// already searched for terminators.
func (p *Parser) compact(start, scannedTo int) {
	if scannedTo > len(p.buf) {
		scannedTo = len(p.buf)
	}
	p.scanned = scannedTo - start
	p.buf = append(p.buf[:0], p.buf[start:]...)
}

// line processes one complete line and reports whether it completed an event.
func (p *Parser) line(raw []byte) (Event, bool, error) {
	p.lines++

	if !utf8.Valid(raw) {
		return Event{}, false, &DecodeError{Line: p.lines, Err: ErrInvalidText}
	}

	text := string(raw)
	if p.lines == 1 {
		text = strings.TrimPrefix(text, "\ufeff")
	}

	// A blank (or whitespace-only) line terminates the current event.
	if strings.TrimSpace(text) == "" {
		ev, ok := p.dispatch()
		return ev, ok, nil
	}

	// Lines starting with ':' are comments.
	if strings.HasPrefix(text, ":") {
		return Event{}, false, nil
	}

	p.field(text)
	return Event{}, false, nil
}

// field accumulates a single "field: value" line into the current event.
// A line with no colon is a field name with an empty value.
func (p *Parser) field(line string) {
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch name {
	case "event":
		p.current.Type = value
		p.hasType = true
	case "data":
		if p.dataLines > 0 {
			p.current.Data += "\n"
		}
		p.current.Data += value
		p.dataLines++
	case "id":
		p.current.ID = value
		p.hasID = true
	case "retry":
		if ms, ok := parseRetry(value); ok {
			p.current.Retry = &ms
		}
	default:
		// Unknown fields are ignored per the SSE spec.
	}
}

// dispatch finalizes the current event and resets accumulation state.
// Empty records and "[DONE]" sentinels are not emitted.
func (p *Parser) dispatch() (Event, bool) {
	ev := p.current
	keep := p.hasType || p.hasID || ev.Retry != nil || ev.Data != ""

	p.current = Event{}
	p.dataLines = 0
	p.hasType = false
	p.hasID = false

	if !keep {
		return Event{}, false
	}

	if ev.Data == DoneSentinel {
		if !p.sawDone {
			p.sawDone = true
			p.doneAt = p.emitted
		}
		return Event{}, false
	}

	p.emitted++
	return ev, true
}

// parseRetry accepts ASCII digits only; anything else is ignored.
func parseRetry(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return ms, true
}
