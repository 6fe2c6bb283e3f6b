package sse

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("sse: writer closed")

// Writer emits events. When the destination is an http.Flusher every event
// is flushed as soon as it is written.
type Writer struct {
	w       io.Writer
	flusher http.Flusher

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewWriter wraps w. Response writers get event-stream headers.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if rw, ok := w.(http.ResponseWriter); ok {
		h := rw.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
	}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// Data writes a single-payload event.
func (w *Writer) Data(data []byte) error {
	return w.write("data: %s\n\n", data)
}

// Event writes a named event.
func (w *Writer) Event(name string, data []byte) error {
	return w.write("event: %s\ndata: %s\n\n", name, data)
}

// Comment writes a comment block, used as a keep-alive.
func (w *Writer) Comment(text string) error {
	return w.write(": %s\n\n", text)
}

// Done writes the end-of-stream sentinel and closes the writer.
func (w *Writer) Done() error {
	if err := w.write("data: %s\n\n", Done); err != nil {
		return err
	}
	return w.Close()
}

// Close stops further writes. Safe to call multiple times.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
	})
	return nil
}

func (w *Writer) write(format string, args ...any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(w.w, format, args...); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
