// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// parser for chatter's streaming exchanges. It turns an append-only stream of
// byte chunks, split at arbitrary boundaries by the transport, into an ordered
// sequence of Events.
//
// Two shapes are provided:
//   - Parser is push based: the caller feeds chunks as they arrive and
//     receives the records each chunk completes.
//   - Reader is pull based: it wraps an io.Reader (optionally teeing the raw
//     bytes to a writer) and hands back one Event per Next call.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DoneSentinel is the legacy end-of-stream marker some providers send as
// "data: [DONE]". Records carrying it are swallowed by the Parser.
const DoneSentinel = "[DONE]"

// Event represents a single parsed SSE record, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n".
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string

	// Retry is the reconnection time in milliseconds from the "retry:" field.
	// Nil when the record carried no valid retry value.
	Retry *int
}
