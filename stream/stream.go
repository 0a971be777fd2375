// Package stream defines the newline delimited JSON events the planning
// service streams to its clients.
//
// A response is zero or more log events followed by exactly one answer or
// exactly one error event:
//
//	{"type":"log","message":"🔍 **Researching**: hotels in Kyoto"}
//	{"type":"answer","content":"Here are three options ..."}
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ContentType is the media type of a planning stream.
const ContentType = "application/x-ndjson"

// Type discriminates stream events.
type Type string

// Event types.
const (
	TypeLog    Type = "log"
	TypeAnswer Type = "answer"
	TypeError  Type = "error"
)

// Event is one line of a planning stream. Log and error events carry
// Message, answer events carry Content.
type Event struct {
	Type    Type
	Message string
	Content string
}

// Log returns a progress event.
func Log(message string) Event { return Event{Type: TypeLog, Message: message} }

// Answer returns the final answer event.
func Answer(content string) Event { return Event{Type: TypeAnswer, Content: content} }

// Error returns the terminal error event.
func Error(message string) Event { return Event{Type: TypeError, Message: message} }

// Terminal reports whether the event ends a stream.
func (e Event) Terminal() bool { return e.Type == TypeAnswer || e.Type == TypeError }

// Text returns the event's payload.
func (e Event) Text() string {
	if e.Type == TypeAnswer {
		return e.Content
	}
	return e.Message
}

type wireEvent struct {
	Type    Type    `json:"type"`
	Message *string `json:"message,omitempty"`
	Content *string `json:"content,omitempty"`
}

// MarshalJSON writes exactly the fields of the event's type. Markdown is
// left unescaped.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{Type: e.Type}

	switch e.Type {
	case TypeLog, TypeError:
		w.Message = &e.Message
	case TypeAnswer:
		w.Content = &e.Content
	default:
		return nil, fmt.Errorf("stream: unknown event type %q", e.Type)
	}

	var buf bytes.Buffer

	je := json.NewEncoder(&buf)
	je.SetEscapeHTML(false)

	if err := je.Encode(w); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON reads an event and rejects unknown types or missing payloads.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Type {
	case TypeLog, TypeError:
		if w.Message == nil {
			return fmt.Errorf("stream: %s event without message", w.Type)
		}
		*e = Event{Type: w.Type, Message: *w.Message}
	case TypeAnswer:
		if w.Content == nil {
			return errors.New("stream: answer event without content")
		}
		*e = Event{Type: w.Type, Content: *w.Content}
	default:
		return fmt.Errorf("stream: unknown event type %q", w.Type)
	}

	return nil
}

// Encoder writes events one per line and flushes after each line when the
// writer supports it.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	enc := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// Encode writes ev followed by a newline. Markdown in messages is written
// unescaped.
func (enc *Encoder) Encode(ev Event) error {
	var buf bytes.Buffer

	je := json.NewEncoder(&buf)
	je.SetEscapeHTML(false)

	if err := je.Encode(ev); err != nil {
		return err
	}

	if _, err := enc.w.Write(buf.Bytes()); err != nil {
		return err
	}

	if enc.flusher != nil {
		enc.flusher.Flush()
	}

	return nil
}

// MaxLineSize bounds a single stream line.
const MaxLineSize = 4 << 20

// Decoder reads events from a stream. Blank and malformed lines are skipped.
type Decoder struct {
	sc      *bufio.Scanner
	skipped int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	return &Decoder{sc: sc}
}

// Next returns the next event or io.EOF at the end of the stream.
func (d *Decoder) Next() (Event, error) {
	for d.sc.Scan() {
		line := strings.TrimSpace(d.sc.Text())
		if line == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			d.skipped++
			continue
		}

		return ev, nil
	}

	if err := d.sc.Err(); err != nil {
		return Event{}, err
	}

	return Event{}, io.EOF
}

// Skipped returns the number of malformed lines dropped so far.
func (d *Decoder) Skipped() int { return d.skipped }
