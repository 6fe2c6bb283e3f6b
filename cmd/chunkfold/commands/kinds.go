package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jg-phare/chunkfold/pkg/chat"
	"github.com/jg-phare/chunkfold/pkg/functions"
	"github.com/jg-phare/chunkfold/pkg/profiles"
	"github.com/jg-phare/chunkfold/pkg/stream"
	"github.com/jg-phare/chunkfold/pkg/vector"
)

// foldFunc drains an event-stream body into one merged snapshot. The
// snapshot is nil only when no chunk arrived.
type foldFunc func(ctx context.Context, body io.ReadCloser, opts ...stream.Option) (any, error)

type kind struct {
	name   string
	object string
	fold   foldFunc
}

var kinds = map[string]kind{
	"chat":     {name: "chat", object: chat.ObjectChunk, fold: foldKind[chat.CompletionChunk](chat.Merge)},
	"vector":   {name: "vector", object: vector.ObjectChunk, fold: foldKind[vector.Chunk](vector.Merge)},
	"function": {name: "function", object: functions.ObjectChunk, fold: foldKind[functions.ExecutionChunk](functions.Merge)},
	"profile":  {name: "profile", object: profiles.ObjectChunk, fold: foldKind[profiles.Chunk](profiles.Merge)},
}

func foldKind[T any](merge stream.MergeFunc[T]) foldFunc {
	return func(ctx context.Context, body io.ReadCloser, opts ...stream.Option) (any, error) {
		s := stream.New[T](ctx, body, opts...)
		got, err := stream.Fold(s, merge, nil)
		if got == nil {
			return nil, err
		}
		return got, err
	}
}

func kindNames() string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func lookupKind(name string) (kind, error) {
	k, ok := kinds[name]
	if !ok {
		return kind{}, fmt.Errorf("unknown kind %q (want %s)", name, kindNames())
	}
	return k, nil
}

// detectKind picks the chunk kind from the object field of the first data
// payload in a recorded stream.
func detectKind(path string) (kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return kind{}, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if data, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "data:"); ok {
			data = strings.TrimSpace(data)
			if data != "" && gjson.Valid(data) {
				object := gjson.Get(data, "object").String()
				for _, k := range kinds {
					if k.object == object {
						return k, nil
					}
				}
				return kind{}, fmt.Errorf("%s: unrecognised object %q, use --kind", path, object)
			}
		}
		if err == io.EOF {
			return kind{}, fmt.Errorf("%s: no chunk to detect kind from, use --kind", path)
		}
		if err != nil {
			return kind{}, err
		}
	}
}
