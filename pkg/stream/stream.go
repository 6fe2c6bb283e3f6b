// Package stream turns an event-stream response body into typed chunks.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jg-phare/chunkfold/pkg/sse"
	"github.com/jg-phare/chunkfold/pkg/types"
)

// State is the lifecycle position of a Stream.
type State int

const (
	StateIdle State = iota
	StateReading
	StateCompleted
	StateAborted
	StateErrored
)

// String returns the lowercase state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateErrored:
		return "errored"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further chunks can be produced.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// Option configures a Stream.
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
	id     string
	tap    func(payload []byte)
}

// WithLogger sets the logger used for lifecycle records.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithID sets the stream ID reported in logs. A random one is used otherwise.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithTap calls fn with the raw payload of every chunk before it is
// returned by Next. Sentinels and error records are not tapped.
func WithTap(fn func(payload []byte)) Option {
	return func(o *options) { o.tap = fn }
}

// Stream yields the chunks of one streamed response.
//
// A Stream has a single consumer. Calling Next from more than one goroutine
// at a time is a caller error. Cancelling the context closes the body, so a
// blocked Next returns promptly with the context's error.
type Stream[T any] struct {
	id   string
	ctx  context.Context
	body io.ReadCloser
	dec  *sse.Decoder
	log  logrus.FieldLogger
	tap  func([]byte)
	stop func() bool

	pending []string
	state   State
	err     error
	chunks  int

	releaseOnce sync.Once
	closeErr    error
}

// New starts reading body. The caller must drain the stream or call Close.
func New[T any](ctx context.Context, body io.ReadCloser, opts ...Option) *Stream[T] {
	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	s := &Stream[T]{
		id:   o.id,
		ctx:  ctx,
		body: body,
		dec:  sse.NewDecoder(body),
		log:  o.logger.WithField("stream_id", o.id),
		tap:  o.tap,
	}
	s.stop = context.AfterFunc(ctx, s.release)
	s.log.Debug("stream opened")
	return s
}

// ID returns the identifier reported as stream_id in logs.
func (s *Stream[T]) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Stream[T]) State() State { return s.state }

// Next returns the next chunk. It returns io.EOF once the stream completed,
// a *FetchError when the server sent an error record, and the context's
// error after cancellation. Terminal errors repeat on later calls.
func (s *Stream[T]) Next() (*T, error) {
	if s.state.Terminal() {
		return nil, s.err
	}
	s.state = StateReading

	for {
		if err := s.ctx.Err(); err != nil {
			return nil, s.finish(StateAborted, err)
		}

		if len(s.pending) == 0 {
			ev, err := s.dec.Next()
			if err != nil {
				if cerr := s.ctx.Err(); cerr != nil {
					return nil, s.finish(StateAborted, cerr)
				}
				if errors.Is(err, io.EOF) {
					return nil, s.finish(StateCompleted, io.EOF)
				}
				return nil, s.finish(StateErrored, fmt.Errorf("stream: read: %w", err))
			}
			s.pending = ev.Data
			continue
		}

		payload := s.pending[0]
		s.pending = s.pending[1:]

		if payload == sse.Done {
			return nil, s.finish(StateCompleted, io.EOF)
		}
		if rec, ok := types.ParseResponseError([]byte(payload)); ok {
			return nil, s.finish(StateErrored, &FetchError{*rec})
		}

		var chunk T
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return nil, s.finish(StateErrored, fmt.Errorf("stream: decode chunk: %w", err))
		}
		if s.tap != nil {
			s.tap([]byte(payload))
		}
		s.chunks++
		s.state = StateIdle
		return &chunk, nil
	}
}

// All iterates over the remaining chunks. A terminal error other than
// io.EOF is yielded once as the last pair. The stream is closed when the
// loop ends, including on break.
func (s *Stream[T]) All() iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		defer s.Close()
		for {
			chunk, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Close releases the body. Safe to call multiple times and after the
// stream ended on its own.
func (s *Stream[T]) Close() error {
	if !s.state.Terminal() {
		s.finish(StateAborted, ErrClosed)
	}
	s.stop()
	s.release()
	return s.closeErr
}

func (s *Stream[T]) finish(state State, err error) error {
	s.state = state
	s.err = err
	s.pending = nil
	s.stop()
	s.release()

	entry := s.log.WithFields(logrus.Fields{
		"state":  state.String(),
		"chunks": s.chunks,
	})
	if state == StateErrored {
		entry.WithError(err).Warn("stream failed")
	} else {
		entry.Debug("stream finished")
	}
	return err
}

// release may run on the context's AfterFunc goroutine.
func (s *Stream[T]) release() {
	s.releaseOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
}
