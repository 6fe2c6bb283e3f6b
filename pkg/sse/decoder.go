// Package sse reads and writes Server-Sent Events framing.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Done is the payload that marks the end of a stream.
const Done = "[DONE]"

// Event is one blank-line-terminated block. Data holds the trimmed payload
// of every non-empty data line in arrival order; a block made only of
// comments or other fields has no Data.
type Event struct {
	Data []string
}

// Decoder splits a byte stream into events. Reads may end anywhere, mid-line
// or mid-event; partial input is kept until the rest arrives.
type Decoder struct {
	r   *bufio.Reader
	eof bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next event. At the end of input any buffered partial
// event is returned first, then io.EOF.
func (d *Decoder) Next() (Event, error) {
	var ev Event
	pending := false

	for !d.eof {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Event{}, err
			}
			d.eof = true
			if line == "" {
				break
			}
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			if pending {
				return ev, nil
			}
			continue
		}
		pending = true

		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			// event, id, retry and unknown fields carry nothing we use
			continue
		}
		if payload := strings.TrimSpace(value); payload != "" {
			ev.Data = append(ev.Data, payload)
		}
	}

	if pending {
		return ev, nil
	}
	return Event{}, io.EOF
}
