package stream

import (
	"strings"
	"time"
)

// Event is one server-sent event as framed on the wire.
type Event struct {
	ID         string    `json:"id,omitempty"`
	Type       string    `json:"type"` // "message" unless the server names it
	Data       string    `json:"data"` // data lines joined by "\n"
	ReceivedAt time.Time `json:"-"`
}

// IsMessage reports whether the event is an unnamed message, the only kind
// delivered to a Handler.
func (e Event) IsMessage() bool {
	return e.Type == "" || e.Type == "message"
}

// frame accumulates field lines until a blank line completes the event.
type frame struct {
	id    string
	typ   string
	data  strings.Builder
	lines int
}

// field applies one non-blank line. Comment lines start with ':'.
func (f *frame) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	switch name {
	case "data":
		if f.lines > 0 {
			f.data.WriteByte('\n')
		}
		f.data.WriteString(value)
		f.lines++
	case "event":
		f.typ = value
	case "id":
		f.id = value
	case "retry":
		// reconnection is never attempted
	}
}

// flush returns the completed event, if any, and resets the frame.
func (f *frame) flush() (Event, bool) {
	defer func() {
		f.typ = ""
		f.data.Reset()
		f.lines = 0
	}()
	if f.lines == 0 {
		return Event{}, false
	}
	typ := f.typ
	if typ == "" {
		typ = "message"
	}
	return Event{ID: f.id, Type: typ, Data: f.data.String(), ReceivedAt: time.Now()}, true
}
