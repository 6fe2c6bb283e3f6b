package sse

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

func collect(t *testing.T, r io.Reader) [][]string {
	t.Helper()
	d := NewDecoder(r)
	var out [][]string
	for {
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, ev.Data)
	}
}

func TestDecoder_BasicEvents(t *testing.T) {
	input := "data: {\"a\":1}\n\ndata: {\"a\":2}\n\ndata: [DONE]\n\n"

	got := collect(t, strings.NewReader(input))
	want := [][]string{{`{"a":1}`}, {`{"a":2}`}, {Done}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestDecoder_SplitReads(t *testing.T) {
	input := "data: {\"content\":\"Hel\"}\n\n: ping\n\ndata: {\"content\":\"lo\"}\n\n"

	got := collect(t, iotest.OneByteReader(strings.NewReader(input)))
	want := [][]string{{`{"content":"Hel"}`}, nil, {`{"content":"lo"}`}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestDecoder_IgnoresOtherFields(t *testing.T) {
	input := "event: message\nid: 7\nretry: 1000\ndata: x\n\n"

	got := collect(t, strings.NewReader(input))
	want := [][]string{{"x"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestDecoder_CRLF(t *testing.T) {
	input := "data: one\r\n\r\ndata: two\r\n\r\n"

	got := collect(t, strings.NewReader(input))
	want := [][]string{{"one"}, {"two"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestDecoder_MultipleDataLines(t *testing.T) {
	input := "data: a\ndata:\ndata:b\n\n"

	got := collect(t, strings.NewReader(input))
	want := [][]string{{"a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestDecoder_FlushAtEOF(t *testing.T) {
	t.Run("unterminated event", func(t *testing.T) {
		got := collect(t, strings.NewReader("data: a\n\ndata: b\n"))
		want := [][]string{{"a"}, {"b"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("events = %q, want %q", got, want)
		}
	})

	t.Run("unterminated line", func(t *testing.T) {
		got := collect(t, strings.NewReader("data: tail"))
		want := [][]string{{"tail"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("events = %q, want %q", got, want)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := collect(t, strings.NewReader("")); got != nil {
			t.Errorf("events = %q, want none", got)
		}
	})
}

func TestDecoder_ExtraBlankLines(t *testing.T) {
	got := collect(t, strings.NewReader("\n\n\ndata: a\n\n\n\n"))
	want := [][]string{{"a"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestDecoder_ReadError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("data: a\n\n"), iotest.ErrReader(boom))
	d := NewDecoder(r)

	ev, err := d.Next()
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if len(ev.Data) != 1 || ev.Data[0] != "a" {
		t.Fatalf("first event = %q", ev.Data)
	}
	if _, err := d.Next(); !errors.Is(err, boom) {
		t.Errorf("second Next error = %v, want boom", err)
	}
}
